// Package store defines the position persistence contract the live
// loop depends on (spec.md §6): every position mutation is flushed
// before the loop proceeds to the next suspension point, so a crash
// mid-tick never loses a position the venue already filled.
package store

import (
	"context"

	"github.com/kryofly/freqtrade/internal/position"
)

// Store persists and retrieves positions.
type Store interface {
	// Add inserts a newly created position.
	Add(ctx context.Context, p *position.Position) error

	// Flush persists the current state of an existing position (its
	// stats, trailing-stop reference, or close fields).
	Flush(ctx context.Context, p *position.Position) error

	// QueryOpen returns every position not yet CLOSED.
	QueryOpen(ctx context.Context) ([]*position.Position, error)

	// QueryAll returns every position, open or closed.
	QueryAll(ctx context.Context) ([]*position.Position, error)
}
