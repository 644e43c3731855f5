// Package pnl reports realized and unrealized profit of the simulated account.
package pnl

import (
	"context"

	"gridsim/internal/ledger"
	"gridsim/internal/logger"
	"gridsim/internal/market"
	"gridsim/internal/pkg/decimalx"
	"gridsim/internal/pkg/symbol"
	"gridsim/internal/types"

	"github.com/shopspring/decimal"
)

// Report never carries nulls: a missing price yields zeros.
type Report struct {
	TotalPnL             float64 `json:"total_pnl"`
	TotalPnLPercent      float64 `json:"total_pnl_percent"`
	RealizedPnL          float64 `json:"realized_pnl"`
	RealizedPnLPercent   float64 `json:"realized_pnl_percent"`
	UnrealizedPnL        float64 `json:"unrealized_pnl"`
	UnrealizedPnLPercent float64 `json:"unrealized_pnl_percent"`
	TotalTrades          int     `json:"total_trades"`
	WinRate              float64 `json:"win_rate"`
	CurrentPrice         float64 `json:"current_price"`
	AverageEntryPrice    float64 `json:"average_entry_price"`
	Position             float64 `json:"position"`
}

// LedgerReader is the read side of the ledger.
type LedgerReader interface {
	Snapshot() types.LedgerState
	QuoteAsset() string
}

type Engine struct {
	ledger       LedgerReader
	oracle       market.PriceOracle
	initialValue decimal.Decimal
}

// NewEngine computes percentages against initialPortfolioValue; zero
// disables them.
func NewEngine(l LedgerReader, oracle market.PriceOracle, initialPortfolioValue float64) *Engine {
	return &Engine{ledger: l, oracle: oracle, initialValue: decimalx.From(initialPortfolioValue)}
}

// Compute reports PnL of mkt's base asset at the current price.
func (e *Engine) Compute(ctx context.Context, mkt string) Report {
	quote := e.ledger.QuoteAsset()
	sym := symbol.ParseQuote(mkt, quote)
	if !sym.Valid() {
		logger.Warnf("[pnl] %q is not a %s market, reporting zeros", mkt, quote)
		return Report{}
	}
	snap := e.ledger.Snapshot()
	trades := tradesOf(snap.Trades, sym.Base, quote)

	price, ok := e.oracle.LatestPrice(ctx, sym.Market())
	if !ok {
		logger.Warnf("[pnl] no price for %s, reporting zeros", sym.Market())
		return Report{TotalTrades: len(trades)}
	}

	realized := decimal.Zero
	sells, wins := 0, 0
	for _, t := range trades {
		if t.Side != types.SideSell {
			continue
		}
		sells++
		r := decimalx.From(t.RealizedPnL)
		realized = realized.Add(r)
		if r.IsPositive() {
			wins++
		}
	}

	current := decimalx.From(price)
	entry := decimalx.From(ledger.AverageEntryPrice(trades, sym.Base, quote))
	position := decimalx.From(snap.Balances[sym.Base])
	unrealized := position.Mul(current.Sub(entry))
	total := realized.Add(unrealized)

	winRate := decimal.Zero
	if sells > 0 {
		winRate = decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(sells))).Mul(decimal.NewFromInt(100))
	}

	return Report{
		TotalPnL:             decimalx.Float(total),
		TotalPnLPercent:      e.percent(total),
		RealizedPnL:          decimalx.Float(realized),
		RealizedPnLPercent:   e.percent(realized),
		UnrealizedPnL:        decimalx.Float(unrealized),
		UnrealizedPnLPercent: e.percent(unrealized),
		TotalTrades:          len(trades),
		WinRate:              decimalx.Float(winRate),
		CurrentPrice:         price,
		AverageEntryPrice:    decimalx.Float(entry),
		Position:             decimalx.Float(position),
	}
}

func (e *Engine) percent(v decimal.Decimal) float64 {
	if e.initialValue.IsZero() {
		return 0
	}
	return decimalx.Float(v.Div(e.initialValue).Mul(decimal.NewFromInt(100)))
}

func tradesOf(all []types.Trade, base, quote string) []types.Trade {
	out := make([]types.Trade, 0, len(all))
	for _, t := range all {
		if symbol.ParseQuote(t.Market, quote).Base == base {
			out = append(out, t)
		}
	}
	return out
}
