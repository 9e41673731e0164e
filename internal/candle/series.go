package candle

import (
	"fmt"
	"time"
)

// BuyColumn and SellColumn are the two reserved 0/1 flag columns every
// Series carries; strategies write into them via PopulateBuyTrend and
// PopulateSellTrend. All other column names are indicator-defined.
const (
	BuyColumn  = "buy"
	SellColumn = "sell"
)

// Series is the column-store representation of a pair's candle history:
// the OHLCV rows plus any number of named numeric columns (indicators,
// buy/sell flags) of equal length. This is the shape indicator authors
// and strategies expect (vectorized, not a heterogeneous row list).
type Series struct {
	Pair     string
	Interval time.Duration
	Rows     []Candle
	columns  map[string][]float64
}

// NewSeries builds a Series from strictly-increasing, uniform-interval
// rows. It returns an error if rows violate that invariant or any row
// fails Candle.Validate.
func NewSeries(pair string, interval time.Duration, rows []Candle) (*Series, error) {
	for i, r := range rows {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if i == 0 {
			continue
		}
		gap := r.Timestamp.Sub(rows[i-1].Timestamp)
		if gap <= 0 {
			return nil, fmt.Errorf("candle series %s: timestamps not strictly increasing at index %d", pair, i)
		}
		if interval > 0 && gap != interval {
			return nil, fmt.Errorf("candle series %s: non-uniform interval at index %d: got %s want %s", pair, i, gap, interval)
		}
	}
	s := &Series{
		Pair:     pair,
		Interval: interval,
		Rows:     rows,
		columns:  make(map[string][]float64),
	}
	s.columns[BuyColumn] = make([]float64, len(rows))
	s.columns[SellColumn] = make([]float64, len(rows))
	return s, nil
}

// Len returns the number of rows (and the length every column must have).
func (s *Series) Len() int { return len(s.Rows) }

// Column returns the named column, allocating it (zero-filled, Len()
// long) on first access so indicator code can write into it directly.
func (s *Series) Column(name string) []float64 {
	if col, ok := s.columns[name]; ok {
		return col
	}
	col := make([]float64, s.Len())
	s.columns[name] = col
	return col
}

// HasColumn reports whether name has been populated (allocated) yet.
func (s *Series) HasColumn(name string) bool {
	_, ok := s.columns[name]
	return ok
}

// SetColumn replaces a column outright; len(values) must equal Len().
func (s *Series) SetColumn(name string, values []float64) error {
	if len(values) != s.Len() {
		return fmt.Errorf("candle series %s: column %q length %d != row count %d", s.Pair, name, len(values), s.Len())
	}
	s.columns[name] = values
	return nil
}

// SetBuy sets the buy flag at row i; v must be 0 or 1.
func (s *Series) SetBuy(i int, v float64) { s.setFlag(BuyColumn, i, v) }

// SetSell sets the sell flag at row i; v must be 0 or 1.
func (s *Series) SetSell(i int, v float64) { s.setFlag(SellColumn, i, v) }

func (s *Series) setFlag(col string, i int, v float64) {
	if v != 0 && v != 1 {
		panic(fmt.Sprintf("candle series %s: column %q must be 0 or 1, got %v", s.Pair, col, v))
	}
	s.Column(col)[i] = v
}

// Buy reports the buy flag at row i.
func (s *Series) Buy(i int) bool { return s.Column(BuyColumn)[i] == 1 }

// Sell reports the sell flag at row i.
func (s *Series) Sell(i int) bool { return s.Column(SellColumn)[i] == 1 }

// CloseValues returns the close column as a plain slice, the shape most
// indicator libraries (e.g. cinar/indicator) take as input.
func (s *Series) CloseValues() []float64 {
	out := make([]float64, s.Len())
	for i, r := range s.Rows {
		out[i] = r.Close
	}
	return out
}
