package config

import "strings"

// Config is the root of the gridsim configuration file.
type Config struct {
	App    AppConfig    `toml:"app"`
	Ledger LedgerConfig `toml:"ledger"`
	Market MarketConfig `toml:"market"`
	Grid   GridConfig   `toml:"grid"`
	Auth   AuthConfig   `toml:"auth"`
	Notify NotifyConfig `toml:"notify"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// LedgerConfig selects the account's quote asset, its starting balances and
// where its state lives.
type LedgerConfig struct {
	QuoteAsset            string             `toml:"quote_asset"`
	InitialBalances       map[string]float64 `toml:"initial_balances"`
	InitialPortfolioValue float64            `toml:"initial_portfolio_value"`
	Store                 string             `toml:"store"` // "file" | "sqlite" | "memory"
	StatePath             string             `toml:"state_path"`
	DBPath                string             `toml:"db_path"`
}

type MarketConfig struct {
	Source                 string `toml:"source"` // "coindcx" | "binance"
	CoinDCXURL             string `toml:"coindcx_url"`
	BinanceURL             string `toml:"binance_url"`
	TimeoutSeconds         int    `toml:"timeout_seconds"`
	BreakerThreshold       int    `toml:"breaker_threshold"`
	BreakerCooldownSeconds int    `toml:"breaker_cooldown_seconds"`
}

type GridConfig struct {
	Levels             int     `toml:"levels"`
	MarginFraction     float64 `toml:"margin_fraction"`
	CapitalUtilization float64 `toml:"capital_utilization"`
	TotalCapital       float64 `toml:"total_capital"`
	DefaultMarket      string  `toml:"default_market"`
}

// AuthConfig guards the HTTP API. An empty IdentityURL disables bearer
// checks; an empty AdminToken disables reset entirely.
type AuthConfig struct {
	IdentityURL string `toml:"identity_url"`
	APIKey      string `toml:"api_key"`
	AdminToken  string `toml:"admin_token"`
}

func (a AuthConfig) IdentityEnabled() bool {
	return strings.TrimSpace(a.IdentityURL) != ""
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
