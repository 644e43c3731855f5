package market

import (
	"context"
	"errors"
)

// ErrPriceUnavailable is reported by callers that need a price and got none.
var ErrPriceUnavailable = errors.New("price unavailable")

// PriceOracle returns the last traded price of a market. ok is false when the
// feed is unreachable, answers non-2xx, returns garbage, or does not list the
// market; callers must not distinguish between these cases.
type PriceOracle interface {
	LatestPrice(ctx context.Context, market string) (price float64, ok bool)
}

// OracleFunc adapts a function to PriceOracle.
type OracleFunc func(ctx context.Context, market string) (float64, bool)

func (f OracleFunc) LatestPrice(ctx context.Context, market string) (float64, bool) {
	return f(ctx, market)
}

// Static always answers with the same price; zero or negative means unavailable.
type Static float64

func (s Static) LatestPrice(context.Context, string) (float64, bool) {
	if s <= 0 {
		return 0, false
	}
	return float64(s), true
}
