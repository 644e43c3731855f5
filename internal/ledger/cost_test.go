package ledger

import (
	"context"
	"testing"

	"gridsim/internal/store/memstore"
	"gridsim/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageEntryPrice(t *testing.T) {
	trades := []types.Trade{
		{Market: "OMUSDT", Side: types.SideBuy, Price: 10, Quantity: 100},
		{Market: "OMUSDT", Side: types.SideBuy, Price: 13, Quantity: 50},
		{Market: "OMUSDT", Side: types.SideSell, Price: 20, Quantity: 100},
		{Market: "ETHUSDT", Side: types.SideBuy, Price: 3000, Quantity: 1},
	}
	assert.Equal(t, 11.0, AverageEntryPrice(trades, "OM", "USDT"))
	assert.Equal(t, 3000.0, AverageEntryPrice(trades, "ETH", "USDT"))
	assert.Equal(t, 0.0, AverageEntryPrice(trades, "SOL", "USDT"))
	assert.Equal(t, 0.0, AverageEntryPrice(nil, "OM", "USDT"))
}

// The basis covers every buy ever recorded, including lots already sold.
// Lot matching (FIFO) would price the second sell at the 14.0 lot instead.
func TestAverageCostPolicyKeepsSoldLotsInBasis(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, memstore.New(), types.Balances{"USDT": 10000})

	_, err := l.PlaceOrder(ctx, "OMUSDT", types.SideBuy, 10, 100)
	require.NoError(t, err)
	_, err = l.PlaceOrder(ctx, "OMUSDT", types.SideSell, 12, 100)
	require.NoError(t, err)
	_, err = l.PlaceOrder(ctx, "OMUSDT", types.SideBuy, 14, 100)
	require.NoError(t, err)
	_, err = l.PlaceOrder(ctx, "OMUSDT", types.SideSell, 15, 100)
	require.NoError(t, err)

	trades := l.Trades()
	assert.Equal(t, 10.0, trades[1].EntryPrice)
	assert.Equal(t, 200.0, trades[1].RealizedPnL)

	// average over both buys: (10*100 + 14*100) / 200
	assert.Equal(t, 12.0, trades[3].EntryPrice)
	assert.Equal(t, 300.0, trades[3].RealizedPnL)
	fifoPnL := 100 * (15.0 - 14.0)
	assert.NotEqual(t, fifoPnL, trades[3].RealizedPnL)

	assert.Equal(t, 12.0, l.AverageEntryPrice("om"))
}
