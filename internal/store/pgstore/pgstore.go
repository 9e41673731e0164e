// Package pgstore is the production store.Store, backed by
// github.com/jackc/pgx/v5's pgxpool, grounded in the teacher's
// internal/db/db.go connection pool and internal/db/positions.go query
// shapes, adapted from the teacher's PositionSide/separate-fields model
// to serialize internal/position.Position directly.
package pgstore

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	vaultapi "github.com/hashicorp/vault/api"

	"github.com/kryofly/freqtrade/internal/position"
)

// pool is the subset of *pgxpool.Pool this package needs, narrowed so
// tests can substitute github.com/pashagolub/pgxmock/v3's mock pool.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Store is a pgxpool-backed store.Store.
type Store struct {
	pool pool
}

// Open connects to Postgres, preferring a connection string resolved
// from Vault (secret path "database/creds/freqtrade") and falling back
// to the DATABASE_URL environment variable, matching the teacher's
// Vault-then-env credential resolution in internal/db.New.
func Open(ctx context.Context) (*Store, error) {
	dsn := resolveDSN(ctx)
	if dsn == "" {
		return nil, fmt.Errorf("pgstore: DATABASE_URL not set and Vault credentials unavailable")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func resolveDSN(ctx context.Context) string {
	if addr := os.Getenv("VAULT_ADDR"); addr != "" {
		if client, err := vaultapi.NewClient(vaultapi.DefaultConfig()); err == nil {
			if secret, err := client.Logical().ReadWithContext(ctx, "database/creds/freqtrade"); err == nil && secret != nil {
				if dsn, ok := secret.Data["connection_string"].(string); ok && dsn != "" {
					return dsn
				}
			}
		}
	}
	return os.Getenv("DATABASE_URL")
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

func (s *Store) Add(ctx context.Context, p *position.Position) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO positions (
			id, pair, exchange_name, stake_amount, open_rate, amount, fee,
			open_date, open_order_id, is_open, state, stat_min_rate, stat_max_rate
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.Pair, p.ExchangeName, p.StakeAmount, p.OpenRate, p.Amount, p.Fee,
		p.OpenDate, p.OpenOrderID, p.IsOpen, p.State, p.StatMinRate, p.StatMaxRate,
	)
	if err != nil {
		return fmt.Errorf("pgstore: add position %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) Flush(ctx context.Context, p *position.Position) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE positions SET
			open_order_id = $2, close_rate = $3, close_profit = $4, close_date = $5,
			is_open = $6, state = $7, stat_min_rate = $8, stat_max_rate = $9, stat_trail_ref = $10
		WHERE id = $1`,
		p.ID, p.OpenOrderID, p.CloseRate, p.CloseProfit, p.CloseDate,
		p.IsOpen, p.State, p.StatMinRate, p.StatMaxRate, p.StatTrailRef,
	)
	if err != nil {
		return fmt.Errorf("pgstore: flush position %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) QueryOpen(ctx context.Context) ([]*position.Position, error) {
	return s.query(ctx, `SELECT
		id, pair, exchange_name, stake_amount, open_rate, amount, fee, open_date,
		open_order_id, close_rate, close_profit, close_date, is_open, state,
		stat_min_rate, stat_max_rate, stat_trail_ref
		FROM positions WHERE is_open = true`)
}

func (s *Store) QueryAll(ctx context.Context) ([]*position.Position, error) {
	return s.query(ctx, `SELECT
		id, pair, exchange_name, stake_amount, open_rate, amount, fee, open_date,
		open_order_id, close_rate, close_profit, close_date, is_open, state,
		stat_min_rate, stat_max_rate, stat_trail_ref
		FROM positions`)
}

func (s *Store) query(ctx context.Context, sql string) ([]*position.Position, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("pgstore: query: %w", err)
	}
	defer rows.Close()

	var out []*position.Position
	for rows.Next() {
		p := &position.Position{}
		if err := rows.Scan(
			&p.ID, &p.Pair, &p.ExchangeName, &p.StakeAmount, &p.OpenRate, &p.Amount, &p.Fee, &p.OpenDate,
			&p.OpenOrderID, &p.CloseRate, &p.CloseProfit, &p.CloseDate, &p.IsOpen, &p.State,
			&p.StatMinRate, &p.StatMaxRate, &p.StatTrailRef,
		); err != nil {
			return nil, fmt.Errorf("pgstore: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: rows: %w", err)
	}
	return out, nil
}
