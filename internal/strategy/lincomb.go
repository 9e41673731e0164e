package strategy

import "github.com/kryofly/freqtrade/internal/candle"

// WeightedColumn names one candle-series column and the weight it
// contributes to a linear combination score.
type WeightedColumn struct {
	Column string
	Weight float64
}

// LinearCombination folds several indicator columns into one weighted
// score per row, supplementing the spec with the source's
// linear-combination signal helper (freqtrade/ta/linear_comb.py).
// Strategies may use this inside PopulateBuyTrend/PopulateSellTrend to
// threshold a blended signal instead of a single column; it is not
// required by any strategy shipped in this module.
func LinearCombination(s *candle.Series, terms []WeightedColumn) []float64 {
	out := make([]float64, s.Len())
	for _, t := range terms {
		col := s.Column(t.Column)
		for i := range out {
			out[i] += t.Weight * col[i]
		}
	}
	return out
}
