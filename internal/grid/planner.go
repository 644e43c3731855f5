// Package grid derives grid ladders from a reference price and lays them down
// against the simulated ledger.
package grid

import (
	"fmt"

	"gridsim/internal/ledger"
	"gridsim/internal/pkg/decimalx"

	"github.com/shopspring/decimal"
)

const (
	DefaultLevels             = 6
	DefaultMarginFraction     = 0.003
	DefaultCapitalUtilization = 0.8
)

// Options tunes Plan. Zero fields take the defaults.
type Options struct {
	Levels             int
	MarginFraction     float64
	CapitalUtilization float64
}

func (o Options) withDefaults() Options {
	if o.Levels == 0 {
		o.Levels = DefaultLevels
	}
	if o.MarginFraction == 0 {
		o.MarginFraction = DefaultMarginFraction
	}
	if o.CapitalUtilization == 0 {
		o.CapitalUtilization = DefaultCapitalUtilization
	}
	return o
}

// Plan is a derived grid; it is never persisted.
type Plan struct {
	CurrentPrice       float64   `json:"current_price"`
	UpperPrice         float64   `json:"upper_price"`
	LowerPrice         float64   `json:"lower_price"`
	Levels             int       `json:"grid_levels"`
	Spacing            float64   `json:"grid_spacing"`
	QuantityPerGrid    float64   `json:"quantity_per_grid"`
	EstimatedTotalCost float64   `json:"estimated_total_cost"`
	GridPrices         []float64 `json:"grid_prices"`
}

// Compute builds a symmetric grid of opts.Levels prices spanning
// currentPrice ± currentPrice×MarginFraction. Spacing is taken from the
// unrounded bounds; reported bounds are rounded to cents.
func Compute(currentPrice, totalCapital float64, opts Options) (Plan, error) {
	opts = opts.withDefaults()
	switch {
	case !decimalx.Positive(currentPrice):
		return Plan{}, invalid("current price must be a finite number > 0, got %g", currentPrice)
	case !decimalx.Positive(totalCapital):
		return Plan{}, invalid("total capital must be a finite number > 0, got %g", totalCapital)
	case opts.Levels < 2:
		return Plan{}, invalid("grid levels must be >= 2, got %d", opts.Levels)
	case !(decimalx.Positive(opts.MarginFraction) && opts.MarginFraction <= 1):
		return Plan{}, invalid("margin fraction must be in (0, 1], got %g", opts.MarginFraction)
	case !(decimalx.Positive(opts.CapitalUtilization) && opts.CapitalUtilization <= 1):
		return Plan{}, invalid("capital utilization must be in (0, 1], got %g", opts.CapitalUtilization)
	}

	price := decimalx.From(currentPrice)
	levels := decimal.NewFromInt(int64(opts.Levels))
	margin := price.Mul(decimalx.From(opts.MarginFraction))
	upper := price.Add(margin)
	lower := price.Sub(margin)
	spacing := upper.Sub(lower).Div(levels.Sub(decimal.NewFromInt(1)))

	usable := decimalx.From(totalCapital).Mul(decimalx.From(opts.CapitalUtilization))
	qty := usable.Div(levels.Mul(price)).Round(6)

	prices := make([]float64, opts.Levels)
	for i := range prices {
		level := lower.Add(spacing.Mul(decimal.NewFromInt(int64(i))))
		prices[i] = decimalx.Float(level.Round(2))
	}

	return Plan{
		CurrentPrice:       decimalx.Float(price.Round(2)),
		UpperPrice:         decimalx.Float(upper.Round(2)),
		LowerPrice:         decimalx.Float(lower.Round(2)),
		Levels:             opts.Levels,
		Spacing:            decimalx.Float(spacing.Round(8)),
		QuantityPerGrid:    decimalx.Float(qty),
		EstimatedTotalCost: decimalx.Float(qty.Mul(price).Mul(levels).Round(2)),
		GridPrices:         prices,
	}, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ledger.ErrInvalidInput, fmt.Sprintf(format, args...))
}
