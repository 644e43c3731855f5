package app

import (
	"fmt"
	"strings"

	"gridsim/internal/config"
	"gridsim/internal/ledger"
)

type StartupSummary struct {
	Env      string
	HTTPAddr string
	Ledger   LedgerSummary
	Market   MarketSummary
	Grid     GridSummary
	Auth     AuthSummary
}

type LedgerSummary struct {
	Store    string
	Location string
	Quote    string
	Balances []string
	Orders   int
	Trades   int
}

type MarketSummary struct {
	Source  string
	URL     string
	Timeout int
}

type GridSummary struct {
	Market      string
	Levels      int
	Margin      float64
	Utilization float64
	Capital     float64
}

type AuthSummary struct {
	Identity bool
	Reset    bool
	Telegram bool
}

func buildSummary(cfg *config.Config, l *ledger.Ledger) *StartupSummary {
	snap := l.Snapshot()
	balances := make([]string, 0, len(snap.Balances))
	for _, asset := range snap.Balances.Assets() {
		balances = append(balances, fmt.Sprintf("%s=%g", asset, snap.Balances[asset]))
	}
	location := cfg.Ledger.StatePath
	switch cfg.Ledger.Store {
	case config.StoreSQLite:
		location = cfg.Ledger.DBPath
	case config.StoreMemory:
		location = "-"
	}
	url := cfg.Market.CoinDCXURL
	if cfg.Market.Source == config.SourceBinance {
		url = cfg.Market.BinanceURL
	}
	return &StartupSummary{
		Env:      cfg.App.Env,
		HTTPAddr: cfg.App.HTTPAddr,
		Ledger: LedgerSummary{
			Store:    cfg.Ledger.Store,
			Location: location,
			Quote:    l.QuoteAsset(),
			Balances: balances,
			Orders:   len(snap.Orders),
			Trades:   len(snap.Trades),
		},
		Market: MarketSummary{Source: cfg.Market.Source, URL: url, Timeout: cfg.Market.TimeoutSeconds},
		Grid: GridSummary{
			Market:      cfg.Grid.DefaultMarket,
			Levels:      cfg.Grid.Levels,
			Margin:      cfg.Grid.MarginFraction,
			Utilization: cfg.Grid.CapitalUtilization,
			Capital:     cfg.Grid.TotalCapital,
		},
		Auth: AuthSummary{
			Identity: cfg.Auth.IdentityEnabled(),
			Reset:    cfg.Auth.AdminToken != "",
			Telegram: cfg.Notify.Telegram.Enabled,
		},
	}
}

func (s *StartupSummary) Print() {
	fmt.Print(s.String())
}

func (s *StartupSummary) String() string {
	var b strings.Builder
	title := "STARTUP SUMMARY"
	b.WriteString(strings.Repeat("=", 80) + "\n")
	fmt.Fprintf(&b, "%*s\n", 40+len(title)/2, title)
	b.WriteString(strings.Repeat("=", 80) + "\n")

	fmt.Fprintf(&b, "  env: %s   http: %s\n\n", s.Env, s.HTTPAddr)

	b.WriteString("[LEDGER]\n")
	fmt.Fprintf(&b, "  store: %s (%s)\n", s.Ledger.Store, s.Ledger.Location)
	fmt.Fprintf(&b, "  quote: %s\n", s.Ledger.Quote)
	fmt.Fprintf(&b, "  balances: %s\n", formatList(s.Ledger.Balances))
	fmt.Fprintf(&b, "  orders: %d  trades: %d\n\n", s.Ledger.Orders, s.Ledger.Trades)

	b.WriteString("[MARKET]\n")
	fmt.Fprintf(&b, "  source: %s %s (timeout %ds)\n\n", s.Market.Source, s.Market.URL, s.Market.Timeout)

	b.WriteString("[GRID]\n")
	fmt.Fprintf(&b, "  market: %s  levels: %d  margin: %g  utilization: %g  capital: %g\n\n",
		s.Grid.Market, s.Grid.Levels, s.Grid.Margin, s.Grid.Utilization, s.Grid.Capital)

	b.WriteString("[ACCESS]\n")
	fmt.Fprintf(&b, "  identity check: %s  reset: %s  telegram: %s\n",
		onOff(s.Auth.Identity), onOff(s.Auth.Reset), onOff(s.Auth.Telegram))
	b.WriteString(strings.Repeat("=", 80) + "\n")
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
