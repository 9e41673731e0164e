// Package notify is the engine's single outbound notification point
// (spec.md §6): one notify(text) call fans out to zero or more
// configured channels, grounded in the teacher's internal/alerts
// Alerter/Manager pattern (alerts.go), simplified to the plain-text
// notifications the engine actually emits (order fills, exit reasons,
// AppState transitions) rather than the teacher's structured
// severity/metadata alert shape.
package notify

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Sink is one notification channel.
type Sink interface {
	Notify(ctx context.Context, text string) error
}

// Manager fans a single notification out to every configured Sink,
// logging (not failing) individual sink errors so one broken channel
// never blocks the others.
type Manager struct {
	sinks []Sink
}

// New builds a Manager over the given sinks.
func New(sinks ...Sink) *Manager {
	return &Manager{sinks: sinks}
}

// Add registers an additional sink, for channels (like Telegram's
// command listener) that need a handle to their owning Engine and so
// can only be constructed after the Manager already exists.
func (m *Manager) Add(sink Sink) {
	m.sinks = append(m.sinks, sink)
}

// Notify sends text to every sink.
func (m *Manager) Notify(ctx context.Context, text string) {
	for _, sink := range m.sinks {
		if err := sink.Notify(ctx, text); err != nil {
			log.Error().Err(err).Msg("notify: sink failed")
		}
	}
}

// LogSink logs notifications instead of sending them anywhere,
// matching the teacher's LogAlerter fallback channel.
type LogSink struct{}

func (LogSink) Notify(_ context.Context, text string) error {
	log.Info().Str("notify", text).Msg("engine notification")
	return nil
}
