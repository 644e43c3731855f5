package gateway

import (
	"fmt"
	"time"

	"gridsim/internal/config"
	"gridsim/internal/gateway/binance"
	"gridsim/internal/gateway/coindcx"
	"gridsim/internal/market"
	"gridsim/internal/pkg/circuit"
)

// NewOracleFromConfig builds the configured price feed behind a circuit breaker.
func NewOracleFromConfig(cfg *config.Config) (*market.Guarded, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	mc := cfg.Market
	timeout := time.Duration(mc.TimeoutSeconds) * time.Second
	var inner market.PriceOracle
	switch mc.Source {
	case "", config.SourceCoinDCX:
		inner = coindcx.New(coindcx.Config{BaseURL: mc.CoinDCXURL, Timeout: timeout})
	case config.SourceBinance:
		inner = binance.New(binance.Config{RESTBaseURL: mc.BinanceURL, HTTPTimeout: timeout})
	default:
		return nil, fmt.Errorf("unsupported market source: %s", mc.Source)
	}
	breaker := circuit.NewCircuitBreaker("market-"+mc.Source, mc.BreakerThreshold,
		time.Duration(mc.BreakerCooldownSeconds)*time.Second)
	return market.NewGuarded(inner, breaker), nil
}
