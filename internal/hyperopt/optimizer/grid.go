// Package optimizer ships two concrete Optimizer implementations,
// grounded in the teacher's pkg/backtest/optimization.go
// (GridSearchOptimizer, GeneticOptimizer), adapted to sample one
// strategy.ParameterSet per call instead of owning the whole
// backtest loop themselves — hyperopt.Run is the loop now, these are
// pure samplers.
package optimizer

import (
	"fmt"
	"math"

	"github.com/kryofly/freqtrade/internal/hyperopt"
	"github.com/kryofly/freqtrade/internal/strategy"
)

// Grid performs exhaustive grid search: it precomputes every
// combination of the hyper space's numeric/categorical values on
// first use and returns them in order, one per Next call.
type Grid struct {
	combos []strategy.ParameterSet
	idx    int
}

// NewGrid builds an (empty) grid optimizer; the parameter space is
// taken from the HyperSpace passed to the first Next call.
func NewGrid() *Grid { return &Grid{} }

func (g *Grid) Next(space strategy.HyperSpace, history []hyperopt.Trial) (strategy.ParameterSet, error) {
	if g.combos == nil {
		g.combos = generateCombinations(space.Parameters)
	}
	if len(g.combos) == 0 {
		return nil, fmt.Errorf("grid optimizer: empty parameter space")
	}
	ps := g.combos[g.idx%len(g.combos)]
	g.idx++
	return ps, nil
}

func generateCombinations(params []strategy.Parameter) []strategy.ParameterSet {
	if len(params) == 0 {
		return []strategy.ParameterSet{{}}
	}
	valuesFor := func(p strategy.Parameter) []interface{} {
		switch p.Type {
		case strategy.ParamTypeString:
			vals := make([]interface{}, len(p.Values))
			for i, v := range p.Values {
				vals[i] = v
			}
			return vals
		case strategy.ParamTypeBool:
			return []interface{}{false, true}
		default:
			step := p.Step
			if step <= 0 {
				step = 1
			}
			var vals []interface{}
			for v := p.Min; v <= p.Max+1e-9; v += step {
				if p.Type == strategy.ParamTypeInt {
					vals = append(vals, int(math.Round(v)))
				} else {
					vals = append(vals, v)
				}
			}
			return vals
		}
	}

	combos := []strategy.ParameterSet{{}}
	for _, p := range params {
		vals := valuesFor(p)
		var next []strategy.ParameterSet
		for _, c := range combos {
			for _, v := range vals {
				nc := c.Clone()
				nc[p.Name] = v
				next = append(next, nc)
			}
		}
		combos = next
	}
	return combos
}
