package grid

import (
	"context"
	"fmt"
	"time"

	"gridsim/internal/gateway/notifier"
	"gridsim/internal/logger"
	"gridsim/internal/market"
	"gridsim/internal/pkg/decimalx"
	"gridsim/internal/pkg/symbol"
	"gridsim/internal/types"
)

const notifyTimeout = 5 * time.Second

// OrderPlacer is the ledger surface the runner drives.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, market string, side types.Side, price, quantity float64) (types.OrderResult, error)
}

// Runner seeds a position at the current price and lays a plan's levels
// around it, one PlaceOrder per level.
type Runner struct {
	placer   OrderPlacer
	oracle   market.PriceOracle
	notifier notifier.TextNotifier
	now      func() time.Time
}

func NewRunner(placer OrderPlacer, oracle market.PriceOracle, n notifier.TextNotifier) *Runner {
	if n == nil {
		n = notifier.Nop{}
	}
	return &Runner{placer: placer, oracle: oracle, notifier: n, now: time.Now}
}

// Start fetches the current price of mkt and places plan against it.
func (r *Runner) Start(ctx context.Context, mkt string, plan Plan) ([]types.OrderResult, error) {
	current, ok := r.oracle.LatestPrice(ctx, mkt)
	if !ok {
		return nil, fmt.Errorf("grid %s: %w", mkt, market.ErrPriceUnavailable)
	}
	return r.place(ctx, mkt, current, plan)
}

// Launch fetches the current price once, derives a plan from it and places it.
func (r *Runner) Launch(ctx context.Context, mkt string, totalCapital float64, opts Options) (Plan, []types.OrderResult, error) {
	current, ok := r.oracle.LatestPrice(ctx, mkt)
	if !ok {
		return Plan{}, nil, fmt.Errorf("grid %s: %w", mkt, market.ErrPriceUnavailable)
	}
	plan, err := Compute(current, totalCapital, opts)
	if err != nil {
		return Plan{}, nil, err
	}
	results, err := r.place(ctx, mkt, current, plan)
	if err != nil {
		return plan, nil, err
	}
	return plan, results, nil
}

// place is not transactional: orders committed before a failure stay in the
// ledger and the caller only sees the error.
func (r *Runner) place(ctx context.Context, mkt string, current float64, plan Plan) ([]types.OrderResult, error) {
	if len(plan.GridPrices) == 0 || !(plan.QuantityPerGrid > 0) {
		return nil, invalid("grid plan for %s has no levels or zero quantity", mkt)
	}
	mkt = symbol.Normalize(mkt)
	// Committed orders must not be unwound by a caller going away mid-ladder.
	placeCtx := context.WithoutCancel(ctx)
	qty := plan.QuantityPerGrid

	logger.Infof("[grid] %s seeding at %g qty=%g levels=%d", mkt, current, qty, len(plan.GridPrices))
	seed, err := r.placer.PlaceOrder(placeCtx, mkt, types.SideBuy, current, qty)
	if err != nil {
		logger.Warnf("[grid] %s seed order failed: %v", mkt, err)
		return nil, err
	}
	results := []types.OrderResult{seed}

	cur := decimalx.From(current)
	half := decimalx.From(plan.Spacing).Div(decimalx.From(2))
	for _, level := range plan.GridPrices {
		lv := decimalx.From(level)
		if lv.Sub(cur).Abs().LessThan(half) {
			logger.Debugf("[grid] %s skipping level %g near current %g", mkt, level, current)
			continue
		}
		side := types.SideBuy
		if lv.GreaterThan(cur) {
			side = types.SideSell
		}
		res, err := r.placer.PlaceOrder(placeCtx, mkt, side, level, qty)
		if err != nil {
			logger.Warnf("[grid] %s %s at %g failed after %d orders: %v", mkt, side, level, len(results), err)
			return nil, err
		}
		results = append(results, res)
	}

	logger.Infof("[grid] %s placed %d orders", mkt, len(results))
	msg := notifier.GridStarted(mkt, current, results, r.now()).RenderMarkdown()
	notifyCtx, cancel := context.WithTimeout(placeCtx, notifyTimeout)
	defer cancel()
	if err := r.notifier.SendText(notifyCtx, msg); err != nil {
		logger.Warnf("[grid] notify failed: %v", err)
	}
	return results, nil
}
