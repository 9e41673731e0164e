package optimizer

import (
	"math/rand"

	"github.com/kryofly/freqtrade/internal/hyperopt"
	"github.com/kryofly/freqtrade/internal/strategy"
)

// Genetic is a population-based optimizer grounded in the teacher's
// GeneticOptimizer: the first PopulationSize calls return random
// individuals; every call after that breeds the fittest two trials
// seen so far (by lowest loss) via uniform crossover, then applies a
// per-gene mutation chance.
type Genetic struct {
	PopulationSize int
	MutationRate   float64
	Rand           *rand.Rand

	seeded []strategy.ParameterSet
}

// NewGenetic builds a genetic optimizer with a seeded RNG so repeated
// runs with the same seed are reproducible, matching the teacher's
// seeded-RNG convention for deterministic test fixtures.
func NewGenetic(populationSize int, mutationRate float64, seed int64) *Genetic {
	return &Genetic{
		PopulationSize: populationSize,
		MutationRate:   mutationRate,
		Rand:           rand.New(rand.NewSource(seed)),
	}
}

func (g *Genetic) Next(space strategy.HyperSpace, history []hyperopt.Trial) (strategy.ParameterSet, error) {
	if len(history) < g.PopulationSize {
		return g.randomIndividual(space), nil
	}
	p1, p2 := g.fittestTwo(history)
	child := g.crossover(space, p1, p2)
	g.mutate(space, child)
	return child, nil
}

func (g *Genetic) randomIndividual(space strategy.HyperSpace) strategy.ParameterSet {
	ps := strategy.ParameterSet{}
	for _, p := range space.Parameters {
		ps[p.Name] = g.randomValue(p)
	}
	return ps
}

func (g *Genetic) randomValue(p strategy.Parameter) interface{} {
	switch p.Type {
	case strategy.ParamTypeString:
		if len(p.Values) == 0 {
			return ""
		}
		return p.Values[g.Rand.Intn(len(p.Values))]
	case strategy.ParamTypeBool:
		return g.Rand.Intn(2) == 1
	case strategy.ParamTypeInt:
		return p.Min + float64(g.Rand.Intn(int(p.Max-p.Min)+1))
	default:
		return p.Min + g.Rand.Float64()*(p.Max-p.Min)
	}
}

func (g *Genetic) fittestTwo(history []hyperopt.Trial) (strategy.ParameterSet, strategy.ParameterSet) {
	if len(history) < 2 {
		return history[0].Params, history[0].Params
	}
	best, second := history[0], history[1]
	if second.Loss.Loss < best.Loss.Loss {
		best, second = second, best
	}
	for _, t := range history[2:] {
		if t.Loss.Loss < best.Loss.Loss {
			second = best
			best = t
		} else if t.Loss.Loss < second.Loss.Loss {
			second = t
		}
	}
	return best.Params, second.Params
}

func (g *Genetic) crossover(space strategy.HyperSpace, a, b strategy.ParameterSet) strategy.ParameterSet {
	child := strategy.ParameterSet{}
	for _, p := range space.Parameters {
		if g.Rand.Intn(2) == 0 {
			child[p.Name] = a[p.Name]
		} else {
			child[p.Name] = b[p.Name]
		}
	}
	return child
}

func (g *Genetic) mutate(space strategy.HyperSpace, ps strategy.ParameterSet) {
	for _, p := range space.Parameters {
		if g.Rand.Float64() < g.MutationRate {
			ps[p.Name] = g.randomValue(p)
		}
	}
}
