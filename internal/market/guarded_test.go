package market

import (
	"context"
	"testing"
	"time"

	"gridsim/internal/pkg/circuit"

	"github.com/stretchr/testify/assert"
)

func TestGuarded_OpensAfterFailures(t *testing.T) {
	calls := 0
	ok := false
	inner := OracleFunc(func(context.Context, string) (float64, bool) {
		calls++
		return 1.5, ok
	})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	breaker := circuit.NewCircuitBreaker("test", 2, time.Minute).WithClock(func() time.Time { return now })
	g := NewGuarded(inner, breaker)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, got := g.LatestPrice(ctx, "OMUSDT")
		assert.False(t, got)
	}
	assert.Equal(t, 2, calls)

	_, got := g.LatestPrice(ctx, "OMUSDT")
	assert.False(t, got)
	assert.Equal(t, 2, calls, "open breaker must not reach the feed")

	now = now.Add(time.Minute)
	ok = true
	price, got := g.LatestPrice(ctx, "OMUSDT")
	assert.True(t, got)
	assert.Equal(t, 1.5, price)
	assert.Equal(t, circuit.StateClosed, breaker.State())
}

func TestStatic(t *testing.T) {
	p, ok := Static(10).LatestPrice(context.Background(), "OMUSDT")
	assert.True(t, ok)
	assert.Equal(t, 10.0, p)
	_, ok = Static(0).LatestPrice(context.Background(), "OMUSDT")
	assert.False(t, ok)
}
