package config

import (
	"strings"
)

const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppHTTPAddr      = ":5000"
	defaultQuoteAsset       = "USDT"
	defaultInitialQuote     = 20000
	defaultLedgerStore      = StoreFile
	defaultStatePath        = "data/virtual_account.json"
	defaultDBPath           = "data/gridsim.db"
	defaultMarketSource     = SourceCoinDCX
	defaultCoinDCXURL       = "https://api.coindcx.com"
	defaultBinanceURL       = "https://api.binance.com"
	defaultMarketTimeout    = 5
	defaultBreakerThreshold = 3
	defaultBreakerCooldown  = 30
	defaultGridLevels       = 6
	defaultGridMargin       = 0.003
	defaultGridUtilization  = 0.8
	defaultGridTotalCapital = 1000
	defaultGridMarket       = "OMUSDT"
)

const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"

	SourceCoinDCX = "coindcx"
	SourceBinance = "binance"
)

var defaultTrackedAssets = []string{"OM", "ETH", "BNB", "XRP", "SOL"}

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Ledger.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Grid.applyDefaults(keys)
	c.Auth.normalize()
	c.Notify.Telegram.normalize()
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
	a.LogLevel = strings.ToLower(strings.TrimSpace(a.LogLevel))
	a.LogPath = strings.TrimSpace(a.LogPath)
}

func (l *LedgerConfig) applyDefaults(keys keySet) {
	if l == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("ledger.quote_asset", &l.QuoteAsset, defaultQuoteAsset),
		stringFieldDefault("ledger.store", &l.Store, defaultLedgerStore),
		stringFieldDefault("ledger.state_path", &l.StatePath, defaultStatePath),
		stringFieldDefault("ledger.db_path", &l.DBPath, defaultDBPath),
		fieldDefault{
			key:   "ledger.initial_portfolio_value",
			need:  func() bool { return l.InitialPortfolioValue == 0 },
			apply: func() { l.InitialPortfolioValue = defaultInitialQuote },
		},
	)
	l.QuoteAsset = strings.ToUpper(strings.TrimSpace(l.QuoteAsset))
	l.Store = strings.ToLower(strings.TrimSpace(l.Store))

	// viper lower-cases map keys; asset symbols are upper case everywhere else.
	balances := make(map[string]float64, len(l.InitialBalances))
	for asset, qty := range l.InitialBalances {
		asset = strings.ToUpper(strings.TrimSpace(asset))
		if asset == "" {
			continue
		}
		balances[asset] = qty
	}
	if len(balances) == 0 {
		balances[l.QuoteAsset] = defaultInitialQuote
		for _, asset := range defaultTrackedAssets {
			balances[asset] = 0
		}
	}
	l.InitialBalances = balances
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.source", &m.Source, defaultMarketSource),
		stringFieldDefault("market.coindcx_url", &m.CoinDCXURL, defaultCoinDCXURL),
		stringFieldDefault("market.binance_url", &m.BinanceURL, defaultBinanceURL),
		fieldDefault{
			key:   "market.timeout_seconds",
			need:  func() bool { return m.TimeoutSeconds <= 0 },
			apply: func() { m.TimeoutSeconds = defaultMarketTimeout },
		},
		fieldDefault{
			key:   "market.breaker_threshold",
			need:  func() bool { return m.BreakerThreshold <= 0 },
			apply: func() { m.BreakerThreshold = defaultBreakerThreshold },
		},
		fieldDefault{
			key:   "market.breaker_cooldown_seconds",
			need:  func() bool { return m.BreakerCooldownSeconds <= 0 },
			apply: func() { m.BreakerCooldownSeconds = defaultBreakerCooldown },
		},
	)
	m.Source = strings.ToLower(strings.TrimSpace(m.Source))
}

func (g *GridConfig) applyDefaults(keys keySet) {
	if g == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "grid.levels",
			need:  func() bool { return g.Levels == 0 },
			apply: func() { g.Levels = defaultGridLevels },
		},
		fieldDefault{
			key:   "grid.margin_fraction",
			need:  func() bool { return g.MarginFraction == 0 },
			apply: func() { g.MarginFraction = defaultGridMargin },
		},
		fieldDefault{
			key:   "grid.capital_utilization",
			need:  func() bool { return g.CapitalUtilization == 0 },
			apply: func() { g.CapitalUtilization = defaultGridUtilization },
		},
		fieldDefault{
			key:   "grid.total_capital",
			need:  func() bool { return g.TotalCapital == 0 },
			apply: func() { g.TotalCapital = defaultGridTotalCapital },
		},
		stringFieldDefault("grid.default_market", &g.DefaultMarket, defaultGridMarket),
	)
	g.DefaultMarket = strings.ToUpper(strings.TrimSpace(g.DefaultMarket))
}

func (a *AuthConfig) normalize() {
	a.IdentityURL = strings.TrimRight(strings.TrimSpace(a.IdentityURL), "/")
	a.APIKey = strings.TrimSpace(a.APIKey)
	a.AdminToken = strings.TrimSpace(a.AdminToken)
}

func (t *TelegramConfig) normalize() {
	t.BotToken = strings.TrimSpace(t.BotToken)
	t.ChatID = strings.TrimSpace(t.ChatID)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
