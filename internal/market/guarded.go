package market

import (
	"context"

	"gridsim/internal/logger"
	"gridsim/internal/pkg/circuit"
)

// Guarded wraps an oracle with a circuit breaker so a dead feed is not hit by
// every request.
type Guarded struct {
	inner   PriceOracle
	breaker *circuit.CircuitBreaker
}

func NewGuarded(inner PriceOracle, breaker *circuit.CircuitBreaker) *Guarded {
	return &Guarded{inner: inner, breaker: breaker}
}

func (g *Guarded) LatestPrice(ctx context.Context, market string) (float64, bool) {
	if g.breaker != nil && !g.breaker.Allow() {
		logger.Debugf("[market] breaker open, skipping price fetch for %s", market)
		return 0, false
	}
	price, ok := g.inner.LatestPrice(ctx, market)
	if g.breaker != nil {
		if ok {
			g.breaker.RecordSuccess()
		} else {
			g.breaker.RecordFailure()
		}
	}
	return price, ok
}
