package types

import (
	"sort"
	"strings"
	"time"
)

// Side is the direction of a simulated order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(raw string) (Side, bool) {
	switch Side(strings.ToLower(strings.TrimSpace(raw))) {
	case SideBuy:
		return SideBuy, true
	case SideSell:
		return SideSell, true
	default:
		return "", false
	}
}

// OrderStatus is fixed to FILLED: fills are simulated synchronously.
type OrderStatus string

const OrderStatusFilled OrderStatus = "FILLED"

// Balances maps an asset symbol to a non-negative quantity.
type Balances map[string]float64

// Clone returns an independent copy.
func (b Balances) Clone() Balances {
	out := make(Balances, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Assets lists the asset symbols in sorted order.
func (b Balances) Assets() []string {
	out := make([]string, 0, len(b))
	for k := range b {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type Order struct {
	ID        string      `json:"id"`
	Market    string      `json:"market"`
	Side      Side        `json:"side"`
	Price     float64     `json:"price"`
	Quantity  float64     `json:"quantity"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"timestamp"`
}

// Trade is the fill record of one Order. EntryPrice is the buy price for
// buys and the average cost basis at the time of sale for sells.
type Trade struct {
	OrderID     string    `json:"order_id"`
	Market      string    `json:"market"`
	Side        Side      `json:"side"`
	Price       float64   `json:"price"`
	Quantity    float64   `json:"quantity"`
	Value       float64   `json:"value"`
	EntryPrice  float64   `json:"entry_price"`
	RealizedPnL float64   `json:"realized_pnl"`
	CreatedAt   time.Time `json:"timestamp"`
}

// LedgerState is the persisted unit: balances plus both append-only logs.
type LedgerState struct {
	Balances Balances `json:"balances"`
	Orders   []Order  `json:"orders"`
	Trades   []Trade  `json:"trades"`
}

// Clone deep-copies the state so callers never share slices with the ledger.
func (s LedgerState) Clone() LedgerState {
	out := LedgerState{
		Balances: s.Balances.Clone(),
		Orders:   make([]Order, len(s.Orders)),
		Trades:   make([]Trade, len(s.Trades)),
	}
	copy(out.Orders, s.Orders)
	copy(out.Trades, s.Trades)
	return out
}

// OrderResult is what a mutating call hands back on success.
type OrderResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

const OrderResultSuccess = "SUCCESS"
