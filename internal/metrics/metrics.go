// Package metrics exposes the engine's Prometheus instrumentation:
// bounded-cardinality reason labels plus the gauges/counters/histograms
// the live loop, backtest simulator, and control API update as they run.
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bounded cardinality constants for metric labels, so a misbehaving
// exchange or strategy can't blow up Prometheus label cardinality.
const (
	ExitReasonROI       = "roi"
	ExitReasonStopLoss  = "stop_loss"
	ExitReasonTrailing  = "trailing_stop"
	ExitReasonSellSig   = "sell_signal"
	ExitReasonForceSell = "force_sell"
	ExitReasonOther     = "other"

	ExchangeErrorTimeout     = "timeout"
	ExchangeErrorRateLimit   = "rate_limit"
	ExchangeErrorAuth        = "authentication"
	ExchangeErrorNetwork     = "network"
	ExchangeErrorInvalidReq  = "invalid_request"
	ExchangeErrorServerError = "server_error"
	ExchangeErrorOther       = "other"
)

// NormalizeExitReason maps an exitrule.Reason string to the bounded set.
func NormalizeExitReason(reason string) string {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "roi"):
		return ExitReasonROI
	case strings.Contains(lower, "stoploss") || strings.Contains(lower, "stop_loss"):
		return ExitReasonStopLoss
	case strings.Contains(lower, "trailing"):
		return ExitReasonTrailing
	case strings.Contains(lower, "force"):
		return ExitReasonForceSell
	case strings.Contains(lower, "sell"):
		return ExitReasonSellSig
	default:
		return ExitReasonOther
	}
}

// NormalizeExchangeError maps arbitrary error messages to a bounded set.
func NormalizeExchangeError(err error) string {
	if err == nil {
		return ""
	}
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return ExchangeErrorTimeout
	case strings.Contains(errStr, "rate") || strings.Contains(errStr, "429"):
		return ExchangeErrorRateLimit
	case strings.Contains(errStr, "auth") || strings.Contains(errStr, "401") || strings.Contains(errStr, "403"):
		return ExchangeErrorAuth
	case strings.Contains(errStr, "network") || strings.Contains(errStr, "connection"):
		return ExchangeErrorNetwork
	case strings.Contains(errStr, "400") || strings.Contains(errStr, "invalid"):
		return ExchangeErrorInvalidReq
	case strings.Contains(errStr, "500") || strings.Contains(errStr, "502") || strings.Contains(errStr, "503"):
		return ExchangeErrorServerError
	default:
		return ExchangeErrorOther
	}
}

// Position and trade metrics.
var (
	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "freqtrade_open_positions",
		Help: "Number of currently open positions",
	})

	TotalTrades = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freqtrade_trades_total",
		Help: "Total number of closed trades by exit reason",
	}, []string{"pair", "reason"})

	TotalPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "freqtrade_total_pnl",
		Help: "Cumulative realized profit across closed trades, in stake currency",
	})

	TradeProfit = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "freqtrade_trade_profit_ratio",
		Help:    "Per-trade profit ratio distribution",
		Buckets: []float64{-0.1, -0.05, -0.02, -0.01, 0, 0.01, 0.02, 0.05, 0.1},
	})
)

// Live loop metrics.
var (
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "freqtrade_tick_duration_ms",
		Help:    "Duration of one live tick (whitelist refresh + entry/exit evaluation) in milliseconds",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})

	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freqtrade_ticks_total",
		Help: "Total number of live ticks processed",
	})

	EngineState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "freqtrade_engine_state",
		Help: "Engine run state (1 = running, 0 = stopped)",
	})
)

// Backtest and hyperopt metrics.
var (
	BacktestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "freqtrade_backtest_duration_ms",
		Help:    "Duration of a full backtest run in milliseconds",
		Buckets: []float64{100, 500, 1000, 5000, 10000, 30000, 60000},
	})

	HyperoptTrialsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freqtrade_hyperopt_trials_total",
		Help: "Total number of hyperopt trials evaluated",
	})

	HyperoptBestLoss = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "freqtrade_hyperopt_best_loss",
		Help: "Best (lowest) loss score found so far by the hyperopt driver",
	})
)

// Exchange and control-surface metrics.
var (
	ExchangeAPILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "freqtrade_exchange_api_latency_ms",
		Help:    "Exchange API call latency in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"exchange", "endpoint"})

	ExchangeAPIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freqtrade_exchange_api_errors_total",
		Help: "Total exchange API errors by normalized category",
	}, []string{"exchange", "error_type"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "freqtrade_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half_open)",
	}, []string{"service"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "freqtrade_api_request_duration_ms",
		Help:    "Control API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	}, []string{"method", "path", "status_code"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freqtrade_http_requests_total",
		Help: "Total number of control API requests",
	}, []string{"method", "path", "status_code"})
)

// RecordAPIRequest records a control-surface HTTP request. Used by
// GinMiddleware in middleware.go.
func RecordAPIRequest(method, path, statusCode string, durationMs float64) {
	APIRequestDuration.WithLabelValues(method, path, statusCode).Observe(durationMs)
	HTTPRequests.WithLabelValues(method, path, statusCode).Inc()
}

// RecordTrade records a closed trade's exit reason and profit.
func RecordTrade(pair, exitReason string, profitRatio, profitAbs float64) {
	TotalTrades.WithLabelValues(pair, NormalizeExitReason(exitReason)).Inc()
	TradeProfit.Observe(profitRatio)
	TotalPnL.Add(profitAbs)
}

// RecordTick records one live-loop tick's duration.
func RecordTick(durationMs float64) {
	TicksTotal.Inc()
	TickDuration.Observe(durationMs)
}

// SetEngineRunning reports the engine's current run state.
func SetEngineRunning(running bool) {
	if running {
		EngineState.Set(1)
		return
	}
	EngineState.Set(0)
}

// RecordExchangeAPICall records an exchange API call's latency and,
// if err is non-nil, its normalized error category.
func RecordExchangeAPICall(exchange, endpoint string, durationMs float64, err error) {
	ExchangeAPILatency.WithLabelValues(exchange, endpoint).Observe(durationMs)
	if err != nil {
		ExchangeAPIErrors.WithLabelValues(exchange, NormalizeExchangeError(err)).Inc()
	}
}

// SetCircuitBreakerState reports a named circuit breaker's state
// (0=closed, 1=open, 2=half_open), matching gobreaker.State's ordering.
func SetCircuitBreakerState(service string, state int) {
	CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

var (
	bestLossMu  sync.Mutex
	bestLossSet bool
	bestLoss    float64
)

// RecordHyperoptTrial records one completed hyperopt trial and updates
// the best-loss gauge if loss improves on it.
func RecordHyperoptTrial(loss float64) {
	HyperoptTrialsTotal.Inc()

	bestLossMu.Lock()
	defer bestLossMu.Unlock()
	if !bestLossSet || loss < bestLoss {
		bestLoss = loss
		bestLossSet = true
		HyperoptBestLoss.Set(loss)
	}
}
