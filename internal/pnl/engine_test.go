package pnl

import (
	"context"
	"testing"
	"time"

	"gridsim/internal/ledger"
	"gridsim/internal/market"
	"gridsim/internal/store/memstore"
	"gridsim/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.New(memstore.New(), ledger.Options{
		InitialBalances: types.Balances{"USDT": 20000},
		Now:             func() time.Time { return time.Unix(1700000000, 0) },
	})
	require.NoError(t, err)
	return l
}

func place(t *testing.T, l *ledger.Ledger, side types.Side, price, qty float64) {
	t.Helper()
	_, err := l.PlaceOrder(context.Background(), "OMUSDT", side, price, qty)
	require.NoError(t, err)
}

func TestEngine_Compute_Scenario(t *testing.T) {
	l := newLedger(t)
	place(t, l, types.SideBuy, 10, 100)
	place(t, l, types.SideSell, 12, 50)

	report := NewEngine(l, market.Static(11), 20000).Compute(context.Background(), "OMUSDT")

	assert.Equal(t, 100.0, report.RealizedPnL)
	// 50 OM left, entry 10, price 11
	assert.Equal(t, 50.0, report.UnrealizedPnL)
	assert.Equal(t, 150.0, report.TotalPnL)
	assert.Equal(t, 0.5, report.RealizedPnLPercent)
	assert.Equal(t, 0.25, report.UnrealizedPnLPercent)
	assert.Equal(t, 0.75, report.TotalPnLPercent)
	assert.Equal(t, 2, report.TotalTrades)
	assert.Equal(t, 100.0, report.WinRate)
	assert.Equal(t, 11.0, report.CurrentPrice)
	assert.Equal(t, 10.0, report.AverageEntryPrice)
	assert.Equal(t, 50.0, report.Position)
}

func TestEngine_Compute_NoSellsZeroWinRate(t *testing.T) {
	l := newLedger(t)
	place(t, l, types.SideBuy, 10, 10)

	report := NewEngine(l, market.Static(9), 20000).Compute(context.Background(), "OMUSDT")
	assert.Equal(t, 0.0, report.WinRate)
	assert.Equal(t, 0.0, report.RealizedPnL)
	assert.Equal(t, -10.0, report.UnrealizedPnL)
	assert.Equal(t, 1, report.TotalTrades)
}

func TestEngine_Compute_WinRate(t *testing.T) {
	l := newLedger(t)
	place(t, l, types.SideBuy, 10, 30)
	place(t, l, types.SideSell, 12, 10) // +20
	place(t, l, types.SideSell, 8, 10)  // -20
	place(t, l, types.SideSell, 11, 5)  // +5

	report := NewEngine(l, market.Static(10), 20000).Compute(context.Background(), "OMUSDT")
	assert.InDelta(t, 66.6666, report.WinRate, 0.001)
	assert.Equal(t, 5.0, report.RealizedPnL)
	assert.Equal(t, 4, report.TotalTrades)
}

func TestEngine_Compute_Degraded(t *testing.T) {
	l := newLedger(t)
	place(t, l, types.SideBuy, 10, 100)
	place(t, l, types.SideSell, 12, 50)

	t.Run("price unavailable", func(t *testing.T) {
		report := NewEngine(l, market.Static(0), 20000).Compute(context.Background(), "OMUSDT")
		assert.Equal(t, Report{TotalTrades: 2}, report)
	})

	t.Run("invalid market", func(t *testing.T) {
		report := NewEngine(l, market.Static(11), 20000).Compute(context.Background(), "OMBTC")
		assert.Equal(t, Report{}, report)
	})

	t.Run("zero initial value disables percentages", func(t *testing.T) {
		report := NewEngine(l, market.Static(11), 0).Compute(context.Background(), "OMUSDT")
		assert.Equal(t, 150.0, report.TotalPnL)
		assert.Zero(t, report.TotalPnLPercent)
		assert.Zero(t, report.RealizedPnLPercent)
		assert.Zero(t, report.UnrealizedPnLPercent)
	})
}

func TestEngine_Compute_FiltersOtherBases(t *testing.T) {
	l := newLedger(t)
	place(t, l, types.SideBuy, 10, 10)
	_, err := l.PlaceOrder(context.Background(), "ETHUSDT", types.SideBuy, 2000, 1)
	require.NoError(t, err)
	_, err = l.PlaceOrder(context.Background(), "ETHUSDT", types.SideSell, 2500, 1)
	require.NoError(t, err)

	report := NewEngine(l, market.Static(10), 20000).Compute(context.Background(), "OMUSDT")
	assert.Equal(t, 1, report.TotalTrades)
	assert.Zero(t, report.RealizedPnL)
	assert.Zero(t, report.WinRate)
}

func TestEngine_Compute_OracleSeesNormalizedMarket(t *testing.T) {
	l := newLedger(t)
	var asked string
	oracle := market.OracleFunc(func(_ context.Context, m string) (float64, bool) {
		asked = m
		return 1, true
	})
	NewEngine(l, oracle, 20000).Compute(context.Background(), "om/usdt")
	assert.Equal(t, "OMUSDT", asked)
}
