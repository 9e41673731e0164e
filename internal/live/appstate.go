package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// AppState mirrors spec.md §5's process-global state machine: RUNNING
// while the tick loop executes normally, STOPPED after a control
// command or an OperationalFault (spec.md §4.7 step 6).
type AppState string

const (
	StateStopped AppState = "STOPPED"
	StateRunning AppState = "RUNNING"
)

// appState is a mutex-guarded AppState with an optional NATS broadcast
// on every transition, grounded in the teacher's
// internal/orchestrator.go Pause/Resume (paused bool behind a
// sync.RWMutex, broadcasting a control event over NATS on change).
type appState struct {
	mu    sync.RWMutex
	state AppState
	nc    *nats.Conn
}

func newAppState(nc *nats.Conn) *appState {
	return &appState{state: StateStopped, nc: nc}
}

func (a *appState) get() AppState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *appState) set(s AppState, reason string) {
	a.mu.Lock()
	changed := a.state != s
	a.state = s
	a.mu.Unlock()

	if !changed {
		return
	}
	log.Info().Str("state", string(s)).Str("reason", reason).Msg("live: app state transition")
	a.broadcast(s, reason)
}

func (a *appState) broadcast(s AppState, reason string) {
	if a.nc == nil {
		return
	}
	event := map[string]interface{}{
		"event":     "app_state_changed",
		"state":     s,
		"reason":    reason,
		"timestamp": timeNow(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("live: marshal app state event")
		return
	}
	if err := a.nc.Publish("freqtrade.live.appstate", data); err != nil {
		log.Error().Err(err).Msg("live: publish app state event")
	}
}

// timeNow is a seam for deterministic tests.
var timeNow = time.Now
