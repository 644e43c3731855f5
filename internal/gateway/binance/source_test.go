package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newPriceServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSource_LatestPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("single symbol object", func(t *testing.T) {
		srv := newPriceServer(t, http.StatusOK, `{"symbol":"OMUSDT","price":"1.23000000"}`)
		src := New(Config{RESTBaseURL: srv.URL, HTTPTimeout: time.Second})
		price, ok := src.LatestPrice(ctx, "OM/USDT")
		assert.True(t, ok)
		assert.Equal(t, 1.23, price)
	})

	t.Run("list response", func(t *testing.T) {
		srv := newPriceServer(t, http.StatusOK, `[{"symbol":"ETHUSDT","price":"3000"},{"symbol":"OMUSDT","price":"2.5"}]`)
		src := New(Config{RESTBaseURL: srv.URL, HTTPTimeout: time.Second})
		price, ok := src.LatestPrice(ctx, "OMUSDT")
		assert.True(t, ok)
		assert.Equal(t, 2.5, price)
	})

	t.Run("api error", func(t *testing.T) {
		srv := newPriceServer(t, http.StatusBadRequest, `{"code":-1121,"msg":"Invalid symbol."}`)
		src := New(Config{RESTBaseURL: srv.URL, HTTPTimeout: time.Second})
		_, ok := src.LatestPrice(ctx, "NOPEUSDT")
		assert.False(t, ok)
	})

	t.Run("garbage price", func(t *testing.T) {
		srv := newPriceServer(t, http.StatusOK, `{"symbol":"OMUSDT","price":"abc"}`)
		src := New(Config{RESTBaseURL: srv.URL, HTTPTimeout: time.Second})
		_, ok := src.LatestPrice(ctx, "OMUSDT")
		assert.False(t, ok)
	})

	t.Run("non-finite price", func(t *testing.T) {
		for _, price := range []string{"Inf", "+Inf", "NaN", "1e999"} {
			srv := newPriceServer(t, http.StatusOK, `{"symbol":"OMUSDT","price":"`+price+`"}`)
			src := New(Config{RESTBaseURL: srv.URL, HTTPTimeout: time.Second})
			_, ok := src.LatestPrice(ctx, "OMUSDT")
			assert.False(t, ok, "price %s", price)
		}
	})

	t.Run("empty market", func(t *testing.T) {
		src := New(Config{})
		_, ok := src.LatestPrice(ctx, "  ")
		assert.False(t, ok)
	})
}
