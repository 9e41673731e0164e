package backtest

import (
	"encoding/json"
	"math"
)

// LedgerExport is the JSON shape spec.md §6 names for backtest output:
// a per-pair column table plus a results blob. NaN numeric values
// serialize as null, matching the source's NaN-to-null convention.
type LedgerExport struct {
	TickerInterval int                        `json:"ticker_interval"`
	Pairs          map[string]PairColumns     `json:"pairs"`
	Results        map[string]json.RawMessage `json:"results,omitempty"`
}

// PairColumns is the column-oriented view of one pair's trades:
// parallel slices, one entry per closed trade.
type PairColumns struct {
	EntryTime []int64          `json:"entry_time"`
	ExitTime  []int64          `json:"exit_time"`
	Profit    []jsonableFloat  `json:"profit"`
	Duration  []int            `json:"duration"`
	Reason    []string         `json:"reason"`
}

// jsonableFloat marshals NaN/Inf as JSON null instead of erroring, the
// way encoding/json otherwise would (it rejects non-finite floats
// outright).
type jsonableFloat float64

func (f jsonableFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// ToLedgerExport groups a flat trade ledger into the tickerInterval
// (minutes) + per-pair column shape spec.md §6 requires for export.
func ToLedgerExport(ledger []TradeLedgerRow, tickerIntervalMinutes int) LedgerExport {
	out := LedgerExport{
		TickerInterval: tickerIntervalMinutes,
		Pairs:          make(map[string]PairColumns),
	}
	for _, row := range ledger {
		pc := out.Pairs[row.Pair]
		pc.EntryTime = append(pc.EntryTime, row.EntryTime)
		pc.ExitTime = append(pc.ExitTime, row.ExitTime)
		pc.Profit = append(pc.Profit, jsonableFloat(row.ProfitRatio))
		pc.Duration = append(pc.Duration, row.DurationCandles)
		pc.Reason = append(pc.Reason, string(row.Reason))
		out.Pairs[row.Pair] = pc
	}
	return out
}

// MarshalLedger renders the ledger as the JSON document described by
// spec.md §6 ("--export=trades,result").
func MarshalLedger(ledger []TradeLedgerRow, tickerIntervalMinutes int) ([]byte, error) {
	return json.MarshalIndent(ToLedgerExport(ledger, tickerIntervalMinutes), "", "  ")
}
