// Package backtest loads the candle-file input format spec.md §6
// names for the backtesting CLI path: one JSON array per pair, named
// "{pair}-{interval_minutes}.json". This fills the stub the teacher's
// original cmd/backtest/main.go left as "CSV/JSON unimplemented",
// grounded in the original Python source's freqtrade/misc.py
// load_data (SPEC_FULL.md §3).
package backtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kryofly/freqtrade/internal/candle"
)

// rawCandle is one record of the on-disk JSON array. Timestamp is
// accepted either as unix milliseconds or unix seconds (detected by
// magnitude), matching the loose timestamp conventions of the venues
// spec.md §6 names.
type rawCandle struct {
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"`
}

// FileName returns the canonical candle-file name for pair at the
// given interval, spec.md §6's "{pair}-{interval_minutes}.json".
func FileName(pair string, intervalMinutes int) string {
	return fmt.Sprintf("%s-%d.json", pair, intervalMinutes)
}

// LoadPair reads one pair's candle file from dataDir and returns it as
// a candle.Series at the given interval.
func LoadPair(dataDir, pair string, intervalMinutes int) (*candle.Series, error) {
	path := filepath.Join(dataDir, FileName(pair, intervalMinutes))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("backtest: read %s: %w", path, err)
	}

	var raw []rawCandle
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("backtest: decode %s: %w", path, err)
	}

	rows := make([]candle.Candle, len(raw))
	for i, r := range raw {
		rows[i] = candle.Candle{
			Timestamp: unixToTime(r.Timestamp),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		}
	}
	return candle.NewSeries(pair, time.Duration(intervalMinutes)*time.Minute, rows)
}

// LoadPairs reads every pair in pairs from dataDir at the given
// interval, returning the pair->Series map the simulator and hyperopt
// driver consume.
func LoadPairs(dataDir string, pairs []string, intervalMinutes int) (map[string]*candle.Series, error) {
	out := make(map[string]*candle.Series, len(pairs))
	for _, pair := range pairs {
		s, err := LoadPair(dataDir, pair, intervalMinutes)
		if err != nil {
			return nil, err
		}
		out[pair] = s
	}
	return out, nil
}

// unixToTime accepts either unix seconds or unix milliseconds,
// distinguishing by magnitude (seconds since epoch for dates beyond
// year 2001 exceed 1e9 but stay well under 1e12, which millisecond
// timestamps in the same range exceed).
func unixToTime(ts int64) time.Time {
	if ts > 1_000_000_000_000 {
		return time.UnixMilli(ts).UTC()
	}
	return time.Unix(ts, 0).UTC()
}
