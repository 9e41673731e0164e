package pgstore

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryofly/freqtrade/internal/position"
)

func TestAdd_InsertsPosition(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	p := position.New("BTC/USDT", "binance", time.Now(), 100, 10, 0.001)
	mock.ExpectExec("INSERT INTO positions").
		WithArgs(p.ID, p.Pair, p.ExchangeName, p.StakeAmount, p.OpenRate, p.Amount, p.Fee,
			p.OpenDate, p.OpenOrderID, p.IsOpen, p.State, p.StatMinRate, p.StatMaxRate).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := &Store{pool: mock}
	require.NoError(t, s.Add(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryOpen_ScansRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	p := position.New("ETH/USDT", "binance", time.Now(), 50, 5, 0.001)
	cols := []string{
		"id", "pair", "exchange_name", "stake_amount", "open_rate", "amount", "fee", "open_date",
		"open_order_id", "close_rate", "close_profit", "close_date", "is_open", "state",
		"stat_min_rate", "stat_max_rate", "stat_trail_ref",
	}
	rows := mock.NewRows(cols).AddRow(
		p.ID, p.Pair, p.ExchangeName, p.StakeAmount, p.OpenRate, p.Amount, p.Fee, p.OpenDate,
		p.OpenOrderID, p.CloseRate, p.CloseProfit, p.CloseDate, p.IsOpen, p.State,
		p.StatMinRate, p.StatMaxRate, p.StatTrailRef,
	)
	mock.ExpectQuery("SELECT(.|\n)*FROM positions WHERE is_open = true").WillReturnRows(rows)

	s := &Store{pool: mock}
	got, err := s.QueryOpen(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p.Pair, got[0].Pair)
}
