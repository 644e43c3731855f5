package grid

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gridsim/internal/ledger"
	"gridsim/internal/market"
	"gridsim/internal/store/memstore"
	"gridsim/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPlacer struct {
	mock.Mock
}

func (m *MockPlacer) PlaceOrder(ctx context.Context, mkt string, side types.Side, price, quantity float64) (types.OrderResult, error) {
	args := m.Called(mkt, side, price, quantity)
	return args.Get(0).(types.OrderResult), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendText(ctx context.Context, text string) error {
	return m.Called(text).Error(0)
}

func ok(id string) types.OrderResult {
	return types.OrderResult{ID: id, Status: types.OrderResultSuccess}
}

func TestRunner_Start_PlacesSeedAndLevels(t *testing.T) {
	plan, err := Compute(100, 1000, Options{})
	require.NoError(t, err)
	q := plan.QuantityPerGrid

	placer := new(MockPlacer)
	placer.On("PlaceOrder", "OMUSDT", types.SideBuy, 100.0, q).Return(ok("seed"), nil).Once()
	for i, level := range plan.GridPrices {
		side := types.SideBuy
		if level > 100 {
			side = types.SideSell
		}
		placer.On("PlaceOrder", "OMUSDT", side, level, q).Return(ok(fmt.Sprintf("l%d", i)), nil).Once()
	}
	n := new(MockNotifier)
	n.On("SendText", mock.MatchedBy(func(s string) bool { return len(s) > 0 })).Return(nil).Once()

	results, err := NewRunner(placer, market.Static(100), n).Start(context.Background(), "OMUSDT", plan)
	require.NoError(t, err)

	require.Len(t, results, 7)
	assert.Equal(t, "seed", results[0].ID)
	assert.Equal(t, "l5", results[6].ID)
	placer.AssertExpectations(t)
	n.AssertExpectations(t)
}

func TestRunner_Start_SkipsLevelsNearCurrent(t *testing.T) {
	plan := Plan{
		Spacing:         1,
		QuantityPerGrid: 2,
		GridPrices:      []float64{98, 99, 100.4, 101, 102},
	}
	placer := new(MockPlacer)
	placer.On("PlaceOrder", "OMUSDT", types.SideBuy, 100.0, 2.0).Return(ok("seed"), nil).Once()
	placer.On("PlaceOrder", "OMUSDT", types.SideBuy, 98.0, 2.0).Return(ok("b98"), nil).Once()
	placer.On("PlaceOrder", "OMUSDT", types.SideBuy, 99.0, 2.0).Return(ok("b99"), nil).Once()
	placer.On("PlaceOrder", "OMUSDT", types.SideSell, 101.0, 2.0).Return(ok("s101"), nil).Once()
	placer.On("PlaceOrder", "OMUSDT", types.SideSell, 102.0, 2.0).Return(ok("s102"), nil).Once()

	results, err := NewRunner(placer, market.Static(100), nil).Start(context.Background(), "om/usdt", plan)
	require.NoError(t, err)

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"seed", "b98", "b99", "s101", "s102"}, ids)
	placer.AssertNotCalled(t, "PlaceOrder", "OMUSDT", mock.Anything, 100.4, 2.0)
	placer.AssertExpectations(t)
}

func TestRunner_Start_PriceUnavailable(t *testing.T) {
	placer := new(MockPlacer)
	plan, err := Compute(100, 1000, Options{})
	require.NoError(t, err)

	_, err = NewRunner(placer, market.Static(0), nil).Start(context.Background(), "OMUSDT", plan)
	assert.ErrorIs(t, err, market.ErrPriceUnavailable)
	placer.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunner_Start_SeedFailureAborts(t *testing.T) {
	plan, err := Compute(100, 1000, Options{})
	require.NoError(t, err)
	seedErr := &ledger.InsufficientFundsError{Asset: "USDT", Required: 133.33, Available: 1}

	placer := new(MockPlacer)
	placer.On("PlaceOrder", "OMUSDT", types.SideBuy, 100.0, plan.QuantityPerGrid).
		Return(types.OrderResult{}, seedErr).Once()

	results, err := NewRunner(placer, market.Static(100), nil).Start(context.Background(), "OMUSDT", plan)
	assert.Nil(t, results)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	placer.AssertNumberOfCalls(t, "PlaceOrder", 1)
}

func TestRunner_Start_LevelFailureAborts(t *testing.T) {
	plan := Plan{Spacing: 1, QuantityPerGrid: 1, GridPrices: []float64{98, 99, 101, 102}}
	boom := errors.New("boom")

	placer := new(MockPlacer)
	placer.On("PlaceOrder", "OMUSDT", types.SideBuy, 100.0, 1.0).Return(ok("seed"), nil).Once()
	placer.On("PlaceOrder", "OMUSDT", types.SideBuy, 98.0, 1.0).Return(ok("b98"), nil).Once()
	placer.On("PlaceOrder", "OMUSDT", types.SideBuy, 99.0, 1.0).Return(types.OrderResult{}, boom).Once()
	n := new(MockNotifier)

	results, err := NewRunner(placer, market.Static(100), n).Start(context.Background(), "OMUSDT", plan)
	assert.Nil(t, results)
	assert.ErrorIs(t, err, boom)
	placer.AssertNumberOfCalls(t, "PlaceOrder", 3)
	n.AssertNotCalled(t, "SendText", mock.Anything)
}

func TestRunner_Start_EmptyPlan(t *testing.T) {
	placer := new(MockPlacer)
	_, err := NewRunner(placer, market.Static(100), nil).Start(context.Background(), "OMUSDT", Plan{})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
	placer.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunner_Start_CancelledContextStillCompletes(t *testing.T) {
	plan := Plan{Spacing: 1, QuantityPerGrid: 1, GridPrices: []float64{99, 101}}
	placer := new(MockPlacer)
	placer.On("PlaceOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(ok("x"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := NewRunner(placer, market.Static(100), nil).Start(ctx, "OMUSDT", plan)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestRunner_LaunchAgainstLedger(t *testing.T) {
	st := memstore.New()
	l, err := ledger.New(st, ledger.Options{})
	require.NoError(t, err)

	plan, results, err := NewRunner(l, market.Static(100), nil).Launch(context.Background(), "OMUSDT", 1000, Options{})
	require.NoError(t, err)
	require.Len(t, results, 7)
	assert.Equal(t, 1.333333, plan.QuantityPerGrid)

	snap := l.Snapshot()
	assert.Len(t, snap.Orders, 7)
	assert.Len(t, snap.Trades, 7)
	// seed + three buys in, three sells out
	assert.InDelta(t, 1.333333, snap.Balances["OM"], 1e-9)
	for _, b := range snap.Balances {
		assert.GreaterOrEqual(t, b, 0.0)
	}

	t.Run("partial grid stays committed", func(t *testing.T) {
		l2, err := ledger.New(memstore.New(), ledger.Options{InitialBalances: types.Balances{"USDT": 250}})
		require.NoError(t, err)
		_, _, err = NewRunner(l2, market.Static(100), nil).Launch(context.Background(), "OMUSDT", 1000, Options{})
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
		// seed (133.33) fits, the first level buy (~132.93) does not
		assert.Len(t, l2.Orders(), 1)
	})
}
