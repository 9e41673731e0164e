package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryofly/freqtrade/internal/hyperopt"
	"github.com/kryofly/freqtrade/internal/strategy"
)

func TestGenetic_SeededReproducible(t *testing.T) {
	space := strategy.HyperSpace{Parameters: []strategy.Parameter{
		{Name: "a", Type: strategy.ParamTypeFloat, Min: 0, Max: 10},
	}}
	g1 := NewGenetic(4, 0.1, 42)
	g2 := NewGenetic(4, 0.1, 42)

	for i := 0; i < 4; i++ {
		p1, err := g1.Next(space, nil)
		require.NoError(t, err)
		p2, err := g2.Next(space, nil)
		require.NoError(t, err)
		assert.Equal(t, p1, p2)
	}
}

func TestGenetic_BreedsAfterPopulationFilled(t *testing.T) {
	space := strategy.HyperSpace{Parameters: []strategy.Parameter{
		{Name: "a", Type: strategy.ParamTypeFloat, Min: 0, Max: 10},
	}}
	g := NewGenetic(2, 1.0, 1)
	var history []hyperopt.Trial
	for i := 0; i < 2; i++ {
		p, err := g.Next(space, history)
		require.NoError(t, err)
		history = append(history, hyperopt.Trial{Params: p, Loss: hyperopt.Loss{Loss: float64(i)}})
	}
	child, err := g.Next(space, history)
	require.NoError(t, err)
	assert.Contains(t, child, "a")
}
