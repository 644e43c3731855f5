package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuote(t *testing.T) {
	t.Run("strips quote suffix", func(t *testing.T) {
		sym := ParseQuote("OMUSDT", "USDT")
		assert.Equal(t, Symbol{Base: "OM", Quote: "USDT"}, sym)
		assert.Equal(t, "OMUSDT", sym.Market())
	})

	t.Run("normalizes separators and case", func(t *testing.T) {
		assert.Equal(t, "ETH", ParseQuote("eth/usdt", "usdt").Base)
		assert.Equal(t, "SOL", ParseQuote("SOL_USDT", "USDT").Base)
	})

	t.Run("rejects wrong quote or empty base", func(t *testing.T) {
		assert.False(t, ParseQuote("OMBTC", "USDT").Valid())
		assert.False(t, ParseQuote("USDT", "USDT").Valid())
		assert.False(t, ParseQuote("", "USDT").Valid())
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"OMUSDT", "OMUSDT"},
		{" om/usdt ", "OMUSDT"},
		{"btc_usdt", "BTCUSDT"},
		{"eth-usdt", "ETHUSDT"},
		{"OMUSDT:spot", "OMUSDT"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}
