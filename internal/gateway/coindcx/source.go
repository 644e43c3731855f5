// Package coindcx reads last traded prices from the CoinDCX public ticker.
package coindcx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gridsim/internal/logger"
	"gridsim/internal/market"
	"gridsim/internal/pkg/decimalx"
	"gridsim/internal/pkg/symbol"

	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL = "https://api.coindcx.com"
	tickerPath     = "/exchange/ticker"
	maxBodyBytes   = 8 << 20
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	out.BaseURL = strings.TrimRight(strings.TrimSpace(out.BaseURL), "/")
	if out.BaseURL == "" {
		out.BaseURL = defaultBaseURL
	}
	if out.Timeout <= 0 {
		out.Timeout = 5 * time.Second
	}
	return out
}

// Source fetches the full ticker list and picks one market out of it.
type Source struct {
	cfg    Config
	client *http.Client
}

var _ market.PriceOracle = (*Source)(nil)

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	return &Source{cfg: final, client: &http.Client{Timeout: final.Timeout}}
}

// SetHTTPClient sets the HTTP client for testing.
func (s *Source) SetHTTPClient(client *http.Client) {
	s.client = client
}

func (s *Source) LatestPrice(ctx context.Context, mkt string) (float64, bool) {
	name := symbol.Normalize(mkt)
	if name == "" {
		return 0, false
	}
	price, err := s.fetch(ctx, name)
	if err != nil {
		logger.Warnf("[coindcx] price %s unavailable: %v", name, err)
		return 0, false
	}
	return price, true
}

func (s *Source) fetch(ctx context.Context, name string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+tickerPath, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return 0, fmt.Errorf("ticker status=%d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, err
	}
	if !gjson.ValidBytes(body) {
		return 0, fmt.Errorf("ticker body is not valid JSON")
	}
	res := gjson.GetBytes(body, fmt.Sprintf(`#(market==%q).last_price`, name))
	if !res.Exists() {
		return 0, fmt.Errorf("market %s not listed", name)
	}
	price := res.Float()
	if !decimalx.Positive(price) {
		return 0, fmt.Errorf("market %s has unusable last_price %q", name, res.Raw)
	}
	return price, nil
}
