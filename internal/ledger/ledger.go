package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gridsim/internal/logger"
	"gridsim/internal/pkg/decimalx"
	"gridsim/internal/pkg/symbol"
	"gridsim/internal/store"
	"gridsim/internal/types"

	"github.com/google/uuid"
)

const DefaultInitialQuote = 20000

// Options configures a Ledger. Zero values fall back to a USDT account
// holding DefaultInitialQuote.
type Options struct {
	QuoteAsset      string
	InitialBalances types.Balances
	Now             func() time.Time
	NewID           func() string
}

// Ledger is the simulated spot account. Every mutation runs under one
// write lock covering check, update and persistence; in-memory state is only
// replaced after the store accepted the new state.
type Ledger struct {
	store   store.StateStore
	quote   string
	initial types.Balances
	now     func() time.Time
	newID   func() string

	mu    sync.RWMutex
	state types.LedgerState
}

func New(st store.StateStore, opts Options) (*Ledger, error) {
	if st == nil {
		return nil, fmt.Errorf("ledger: state store is required")
	}
	quote := strings.ToUpper(strings.TrimSpace(opts.QuoteAsset))
	if quote == "" {
		quote = symbol.DefaultQuote
	}
	initial := opts.InitialBalances.Clone()
	if len(initial) == 0 {
		initial = types.Balances{quote: DefaultInitialQuote}
	}
	if err := checkBalances(initial); err != nil {
		return nil, err
	}
	if _, ok := initial[quote]; !ok {
		initial[quote] = 0
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return "order_" + uuid.NewString() }
	}
	l := &Ledger{
		store:   st,
		quote:   quote,
		initial: initial,
		now:     now,
		newID:   newID,
	}
	l.state = l.freshState(initial)
	return l, nil
}

func (l *Ledger) QuoteAsset() string { return l.quote }

func (l *Ledger) InitialBalances() types.Balances { return l.initial.Clone() }

// Load replaces the in-memory state with the persisted one. A missing or
// unreadable state is logged and replaced by the initial balances.
func (l *Ledger) Load(ctx context.Context) {
	loaded, err := l.store.Load(ctx)
	if err == nil {
		err = checkBalances(loaded.Balances)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case errors.Is(err, store.ErrStateNotFound):
		logger.Infof("[ledger] no persisted state, starting from initial balances %v", l.initial)
		l.state = l.freshState(l.initial)
	case err != nil:
		logger.Errorf("[ledger] persisted state unreadable, starting from initial balances: %v", err)
		l.state = l.freshState(l.initial)
	default:
		if loaded.Balances == nil {
			loaded.Balances = types.Balances{}
		}
		l.state = loaded.Clone()
		logger.Infof("[ledger] state loaded orders=%d trades=%d", len(l.state.Orders), len(l.state.Trades))
	}
}

// Save writes the current state through the store.
func (l *Ledger) Save(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Save(ctx, l.state); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// PlaceOrder records an immediately filled order. Validation and balance
// failures leave the state untouched; a persistence failure does too.
func (l *Ledger) PlaceOrder(ctx context.Context, market string, side types.Side, price, quantity float64) (types.OrderResult, error) {
	sym, err := l.validateOrder(market, side, price, quantity)
	if err != nil {
		return types.OrderResult{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.state.Clone()
	p := decimalx.From(price)
	q := decimalx.From(quantity)
	notional := p.Mul(q)
	now := l.now()
	id := l.newID()

	trade := types.Trade{
		OrderID:   id,
		Market:    sym.Market(),
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Value:     decimalx.Float(notional),
		CreatedAt: now,
	}

	quoteBal := decimalx.From(next.Balances[sym.Quote])
	baseBal := decimalx.From(next.Balances[sym.Base])
	switch side {
	case types.SideBuy:
		if quoteBal.LessThan(notional) {
			logger.Warnf("[ledger] rejected buy %s: need %s %s, have %s", sym.Market(), notional, sym.Quote, quoteBal)
			return types.OrderResult{}, &InsufficientFundsError{
				Asset:     sym.Quote,
				Required:  decimalx.Float(notional),
				Available: decimalx.Float(quoteBal),
			}
		}
		next.Balances[sym.Quote] = decimalx.Float(quoteBal.Sub(notional))
		next.Balances[sym.Base] = decimalx.Float(baseBal.Add(q))
		trade.EntryPrice = price
	case types.SideSell:
		if baseBal.LessThan(q) {
			logger.Warnf("[ledger] rejected sell %s: need %s %s, have %s", sym.Market(), q, sym.Base, baseBal)
			return types.OrderResult{}, &InsufficientFundsError{
				Asset:     sym.Base,
				Required:  quantity,
				Available: decimalx.Float(baseBal),
			}
		}
		entry := averageEntry(next.Trades, sym.Base, sym.Quote)
		realized := q.Mul(p.Sub(entry))
		next.Balances[sym.Quote] = decimalx.Float(quoteBal.Add(notional))
		next.Balances[sym.Base] = decimalx.Float(baseBal.Sub(q))
		trade.EntryPrice = decimalx.Float(entry)
		trade.RealizedPnL = decimalx.Float(realized)
	}

	next.Orders = append(next.Orders, types.Order{
		ID:        id,
		Market:    sym.Market(),
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Status:    types.OrderStatusFilled,
		CreatedAt: now,
	})
	next.Trades = append(next.Trades, trade)

	if err := l.store.Save(ctx, next); err != nil {
		logger.Errorf("[ledger] persist order %s failed, rolled back: %v", id, err)
		return types.OrderResult{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	l.state = next
	logger.Infof("[ledger] order placed id=%s %s %s price=%g qty=%g", id, side, sym.Market(), price, quantity)
	return types.OrderResult{ID: id, Status: types.OrderResultSuccess}, nil
}

// Reset restores initial balances (the configured ones when initial is
// empty) and clears both logs.
func (l *Ledger) Reset(ctx context.Context, initial types.Balances) (types.LedgerState, error) {
	if len(initial) == 0 {
		initial = l.initial
	}
	if err := checkBalances(initial); err != nil {
		return types.LedgerState{}, err
	}
	next := l.freshState(initial)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Save(ctx, next); err != nil {
		logger.Errorf("[ledger] persist reset failed: %v", err)
		return types.LedgerState{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	l.state = next
	logger.Infof("[ledger] account reset balances=%v", next.Balances)
	return next.Clone(), nil
}

// Snapshot returns a deep copy consistent with the last committed mutation.
func (l *Ledger) Snapshot() types.LedgerState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Clone()
}

func (l *Ledger) Balances() types.Balances {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Balances.Clone()
}

func (l *Ledger) Orders() []types.Order {
	return l.Snapshot().Orders
}

func (l *Ledger) Trades() []types.Trade {
	return l.Snapshot().Trades
}

func (l *Ledger) AverageEntryPrice(base string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return AverageEntryPrice(l.state.Trades, strings.ToUpper(base), l.quote)
}

func (l *Ledger) validateOrder(market string, side types.Side, price, quantity float64) (symbol.Symbol, error) {
	sym := symbol.ParseQuote(market, l.quote)
	if !sym.Valid() {
		return symbol.Symbol{}, invalidInput("market %q is not a %s pair", market, l.quote)
	}
	if side != types.SideBuy && side != types.SideSell {
		return symbol.Symbol{}, invalidInput("unknown side %q", side)
	}
	if !decimalx.Positive(price) {
		return symbol.Symbol{}, invalidInput("price must be a finite number > 0, got %g", price)
	}
	if !decimalx.Positive(quantity) {
		return symbol.Symbol{}, invalidInput("quantity must be a finite number > 0, got %g", quantity)
	}
	return sym, nil
}

func (l *Ledger) freshState(balances types.Balances) types.LedgerState {
	return types.LedgerState{
		Balances: balances.Clone(),
		Orders:   []types.Order{},
		Trades:   []types.Trade{},
	}
}

func checkBalances(b types.Balances) error {
	for asset, qty := range b {
		if strings.TrimSpace(asset) == "" {
			return invalidInput("empty asset name")
		}
		if !decimalx.NonNegative(qty) {
			return invalidInput("balance of %s must be >= 0, got %g", asset, qty)
		}
	}
	return nil
}
