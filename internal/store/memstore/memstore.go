// Package memstore is an in-memory store.Store, backing backtests, dry
// runs, and unit tests that need a Store without a database.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kryofly/freqtrade/internal/position"
)

// Store is a mutex-guarded map of positions keyed by ID.
type Store struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*position.Position
}

// New builds an empty in-memory store.
func New() *Store {
	return &Store{rows: make(map[uuid.UUID]*position.Position)}
}

func (s *Store) Add(_ context.Context, p *position.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[p.ID] = p
	return nil
}

func (s *Store) Flush(_ context.Context, p *position.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[p.ID] = p
	return nil
}

func (s *Store) QueryOpen(ctx context.Context) ([]*position.Position, error) {
	all, err := s.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*position.Position, 0, len(all))
	for _, p := range all {
		if p.IsOpen {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) QueryAll(_ context.Context) ([]*position.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*position.Position, 0, len(s.rows))
	for _, p := range s.rows {
		out = append(out, p)
	}
	return out, nil
}
