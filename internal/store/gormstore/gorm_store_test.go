package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gridsim/internal/store"
	"gridsim/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	st, err := NewGormStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestGormStore_EmptyDatabase(t *testing.T) {
	st := openTestStore(t)
	_, err := st.Load(context.Background())
	assert.ErrorIs(t, err, store.ErrStateNotFound)
}

func TestGormStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	want := types.LedgerState{
		Balances: types.Balances{"USDT": 19600, "OM": 50, "ETH": 0},
		Orders: []types.Order{
			{ID: "order_b", Market: "OMUSDT", Side: types.SideBuy, Price: 10, Quantity: 100, Status: types.OrderStatusFilled, CreatedAt: ts},
			{ID: "order_a", Market: "OMUSDT", Side: types.SideSell, Price: 12, Quantity: 50, Status: types.OrderStatusFilled, CreatedAt: ts.Add(time.Second)},
		},
		Trades: []types.Trade{
			{OrderID: "order_b", Market: "OMUSDT", Side: types.SideBuy, Price: 10, Quantity: 100, Value: 1000, EntryPrice: 10, CreatedAt: ts},
			{OrderID: "order_a", Market: "OMUSDT", Side: types.SideSell, Price: 12, Quantity: 50, Value: 600, EntryPrice: 10, RealizedPnL: 100, CreatedAt: ts.Add(time.Second)},
		},
	}
	require.NoError(t, st.Save(ctx, want))

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	t.Run("save replaces previous rows", func(t *testing.T) {
		reset := types.LedgerState{Balances: types.Balances{"USDT": 20000}, Orders: []types.Order{}, Trades: []types.Trade{}}
		require.NoError(t, st.Save(ctx, reset))
		got, err := st.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, reset, got)
	})
}
