package symbol

import (
	"strings"
)

const DefaultQuote = "USDT"

// Symbol is a spot market split into base and quote asset.
type Symbol struct {
	Base  string
	Quote string
}

// Market renders the concatenated exchange form, e.g. OMUSDT.
func (s Symbol) Market() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + s.Quote
}

func (s Symbol) Valid() bool {
	return s.Base != "" && s.Quote != ""
}

// Normalize upper-cases the market and drops separators ("om/usdt", "OM_USDT" -> "OMUSDT").
func Normalize(market string) string {
	s := strings.ToUpper(strings.TrimSpace(market))
	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[:idx]
	}
	return strings.NewReplacer("/", "", "_", "", "-", "").Replace(s)
}

// ParseQuote splits market against one specific quote asset. The result is
// invalid when market does not end with quote or the base part is empty.
func ParseQuote(market, quote string) Symbol {
	s := Normalize(market)
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if quote == "" || !strings.HasSuffix(s, quote) || len(s) <= len(quote) {
		return Symbol{}
	}
	return Symbol{Base: s[:len(s)-len(quote)], Quote: quote}
}
