// Package position defines the Position entity and its bookkeeping
// invariants (spec.md §3). Trailing-stop state lives on the Position
// record itself, not in strategy globals, so a position carries
// everything the exit-rule evaluator needs and a backtest can walk
// pairs independently.
package position

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// State mirrors the position lifecycle of spec.md §4.5. Backtests only
// ever use Open and Closed; PendingBuy/PendingSell exist for live mode,
// where the venue call is asynchronous.
type State string

const (
	PendingBuy  State = "PENDING_BUY"
	Open        State = "OPEN"
	PendingSell State = "PENDING_SELL"
	Closed      State = "CLOSED"
)

// Position is the engine's single position record. Fields are exported
// because the store is an opaque collaborator that must be able to
// serialize/deserialize the whole struct (spec.md §6).
type Position struct {
	ID             uuid.UUID
	Pair           string
	ExchangeName   string
	StakeAmount    float64
	OpenRate       float64
	Amount         float64
	Fee            float64 // already doubled (buy + sell) at creation, see Fee accounting note
	OpenDate       time.Time
	OpenOrderID    string
	CloseRate      *float64
	CloseProfit    *float64
	CloseDate      *time.Time
	IsOpen         bool
	State          State
	StatMinRate    float64
	StatMaxRate    float64
	StatTrailRef   *float64
}

// New opens a position at rate with the given stake/fee, matching the
// backtest simulator's entry (spec.md §4.6): stats are seeded from the
// entry rate and no trailing reference exists yet.
func New(pair, exchangeName string, openDate time.Time, rate, stakeAmount, feePerSide float64) *Position {
	return &Position{
		ID:           uuid.New(),
		Pair:         pair,
		ExchangeName: exchangeName,
		StakeAmount:  stakeAmount,
		OpenRate:     rate,
		Amount:       stakeAmount,
		Fee:          2 * feePerSide,
		OpenDate:     openDate,
		IsOpen:       true,
		State:        Open,
		StatMinRate:  rate,
		StatMaxRate:  rate,
	}
}

// Close finalizes a position on exit. Per spec.md invariant, is_open is
// false iff close_rate and close_date are both set.
func (p *Position) Close(rate float64, at time.Time, profit float64) {
	p.CloseRate = &rate
	p.CloseDate = &at
	p.CloseProfit = &profit
	p.IsOpen = false
	p.State = Closed
	p.OpenOrderID = ""
}

// UpdateStats folds a newly observed rate into the running min/max,
// called once per candle/tick for every open position before the exit
// rule evaluator and trailing-stop updater run.
func (p *Position) UpdateStats(rate float64) {
	if rate < p.StatMinRate {
		p.StatMinRate = rate
	}
	if rate > p.StatMaxRate {
		p.StatMaxRate = rate
	}
}

// Validate checks the invariants of spec.md §3. Used by tests and by
// the store boundary before persisting.
func (p *Position) Validate() error {
	if p.IsOpen {
		if p.CloseRate != nil || p.CloseDate != nil || p.CloseProfit != nil {
			return fmt.Errorf("position %s: open position has close fields set", p.ID)
		}
	} else {
		if p.CloseRate == nil || p.CloseDate == nil || p.CloseProfit == nil {
			return fmt.Errorf("position %s: closed position missing close fields", p.ID)
		}
		if p.OpenOrderID != "" {
			return fmt.Errorf("position %s: closed position has a dangling open_order_id", p.ID)
		}
	}
	if p.StatTrailRef != nil {
		if *p.StatTrailRef > p.StatMaxRate+1e-12 {
			return fmt.Errorf("position %s: trail ref %v exceeds max rate %v", p.ID, *p.StatTrailRef, p.StatMaxRate)
		}
	}
	if math.IsNaN(p.OpenRate) {
		return fmt.Errorf("position %s: open rate is NaN", p.ID)
	}
	return nil
}

// Profit computes profit(position, rate) per spec.md §4.1: fee is
// already doubled on the position, so it is subtracted once here, at
// fixed 8-significant-digit precision so live and backtest paths
// produce bit-identical results from identical inputs. rate == 0 is a
// legitimate price; only an absent rate falls back to CloseRate — the
// caller is responsible for that fallback (Profit itself never
// substitutes).
func (p *Position) Profit(rate float64) float64 {
	raw := (rate-p.OpenRate)/p.OpenRate - p.Fee
	return round8(raw)
}

// round8 rounds to 8 significant digits, the fixed precision spec.md
// §4.1 requires so live and backtest paths agree bit-for-bit on
// identical inputs.
func round8(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 8, 64), 64)
	return r
}
