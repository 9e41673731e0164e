package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryofly/freqtrade/internal/strategy"
)

func TestGrid_CoversAllCombinations(t *testing.T) {
	space := strategy.HyperSpace{Parameters: []strategy.Parameter{
		{Name: "a", Type: strategy.ParamTypeInt, Min: 0, Max: 2, Step: 1},
		{Name: "b", Type: strategy.ParamTypeBool},
	}}
	g := NewGrid()
	seen := map[string]bool{}
	for i := 0; i < 6; i++ {
		ps, err := g.Next(space, nil)
		require.NoError(t, err)
		seen[toKey(ps)] = true
	}
	assert.Len(t, seen, 6) // 3 values of a * 2 values of b
}

func toKey(ps strategy.ParameterSet) string {
	return strconvParamSet(ps)
}

func strconvParamSet(ps strategy.ParameterSet) string {
	s := ""
	for _, k := range []string{"a", "b"} {
		s += k + "=" + toStr(ps[k]) + ";"
	}
	return s
}

func toStr(v interface{}) string {
	switch t := v.(type) {
	case int:
		return string(rune('0' + t))
	case bool:
		if t {
			return "T"
		}
		return "F"
	default:
		return "?"
	}
}
