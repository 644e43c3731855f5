package coindcx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const tickerBody = `[
  {"market": "BTCUSDT", "last_price": "64000.5", "volume": "10"},
  {"market": "OMUSDT", "last_price": "1.2345", "volume": "1000"},
  {"market": "ZEROUSDT", "last_price": "0"}
]`

func newServer(t *testing.T, status int, body string, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exchange/ticker", r.URL.Path)
		if delay > 0 {
			time.Sleep(delay)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSource_LatestPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("listed market", func(t *testing.T) {
		src := New(Config{BaseURL: newServer(t, http.StatusOK, tickerBody, 0).URL})
		price, ok := src.LatestPrice(ctx, "om/usdt")
		assert.True(t, ok)
		assert.Equal(t, 1.2345, price)
	})

	t.Run("unlisted market", func(t *testing.T) {
		src := New(Config{BaseURL: newServer(t, http.StatusOK, tickerBody, 0).URL})
		_, ok := src.LatestPrice(ctx, "SOLUSDT")
		assert.False(t, ok)
	})

	t.Run("zero price", func(t *testing.T) {
		src := New(Config{BaseURL: newServer(t, http.StatusOK, tickerBody, 0).URL})
		_, ok := src.LatestPrice(ctx, "ZEROUSDT")
		assert.False(t, ok)
	})

	t.Run("non-finite price", func(t *testing.T) {
		for _, last := range []string{`"1e999"`, `1e999`, `"-1e999"`} {
			body := `[{"market":"OMUSDT","last_price":` + last + `}]`
			src := New(Config{BaseURL: newServer(t, http.StatusOK, body, 0).URL})
			_, ok := src.LatestPrice(ctx, "OMUSDT")
			assert.False(t, ok, "last_price %s", last)
		}
	})

	t.Run("non-2xx", func(t *testing.T) {
		src := New(Config{BaseURL: newServer(t, http.StatusBadGateway, tickerBody, 0).URL})
		_, ok := src.LatestPrice(ctx, "OMUSDT")
		assert.False(t, ok)
	})

	t.Run("malformed body", func(t *testing.T) {
		src := New(Config{BaseURL: newServer(t, http.StatusOK, `[{"market":`, 0).URL})
		_, ok := src.LatestPrice(ctx, "OMUSDT")
		assert.False(t, ok)
	})

	t.Run("timeout", func(t *testing.T) {
		src := New(Config{BaseURL: newServer(t, http.StatusOK, tickerBody, 300*time.Millisecond).URL, Timeout: 50 * time.Millisecond})
		_, ok := src.LatestPrice(ctx, "OMUSDT")
		assert.False(t, ok)
	})

	t.Run("unreachable", func(t *testing.T) {
		src := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
		_, ok := src.LatestPrice(ctx, "OMUSDT")
		assert.False(t, ok)
	})
}
