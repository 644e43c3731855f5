package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gridsim/internal/logger"
	"gridsim/internal/market"
	"gridsim/internal/pkg/decimalx"
	symbolpkg "gridsim/internal/pkg/symbol"

	"github.com/adshao/go-binance/v2"
)

// Source serves spot last prices through the go-binance SDK.
type Source struct {
	cfg    Config
	client *binance.Client
}

var _ market.PriceOracle = (*Source)(nil)

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	client := binance.NewClient("", "")
	client.BaseURL = final.RESTBaseURL
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Source{
		cfg:    final,
		client: client,
	}
}

func (s *Source) LatestPrice(ctx context.Context, mkt string) (float64, bool) {
	symbol := symbolpkg.Normalize(mkt)
	if symbol == "" {
		return 0, false
	}
	price, err := s.fetch(ctx, symbol)
	if err != nil {
		logger.Warnf("[binance] price %s unavailable: %v", symbol, err)
		return 0, false
	}
	return price, true
}

func (s *Source) fetch(ctx context.Context, symbol string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.HTTPTimeout)
	defer cancel()
	prices, err := s.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range prices {
		if p == nil || !strings.EqualFold(p.Symbol, symbol) {
			continue
		}
		v, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			return 0, fmt.Errorf("parse price %q: %w", p.Price, err)
		}
		if !decimalx.Positive(v) {
			return 0, fmt.Errorf("unusable price %q", p.Price)
		}
		return v, nil
	}
	return 0, fmt.Errorf("symbol %s missing from response", symbol)
}
