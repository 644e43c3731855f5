package ledger

import (
	"gridsim/internal/pkg/decimalx"
	"gridsim/internal/pkg/symbol"
	"gridsim/internal/types"

	"github.com/shopspring/decimal"
)

// AverageEntryPrice is the quantity-weighted mean price of every buy trade
// ever recorded for base. Sold quantity is not removed from the basis, so
// the figure stays fixed until the next buy. Returns 0 with no buys.
func AverageEntryPrice(trades []types.Trade, base, quote string) float64 {
	return decimalx.Float(averageEntry(trades, base, quote))
}

func averageEntry(trades []types.Trade, base, quote string) decimal.Decimal {
	totalQty := decimal.Zero
	totalCost := decimal.Zero
	for _, t := range trades {
		if t.Side != types.SideBuy {
			continue
		}
		if symbol.ParseQuote(t.Market, quote).Base != base {
			continue
		}
		q := decimalx.From(t.Quantity)
		totalQty = totalQty.Add(q)
		totalCost = totalCost.Add(q.Mul(decimalx.From(t.Price)))
	}
	if !totalQty.IsPositive() {
		return decimal.Zero
	}
	return totalCost.Div(totalQty)
}
