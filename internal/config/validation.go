package config

import (
	"fmt"
	"strings"

	"gridsim/internal/logger"
)

func validate(c *Config) error {
	if _, err := logger.ParseLevel(c.App.LogLevel); err != nil {
		return fmt.Errorf("app.log_level: %w", err)
	}
	if err := c.Ledger.validate(); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Grid.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (l *LedgerConfig) validate() error {
	if l.QuoteAsset == "" {
		return fmt.Errorf("ledger.quote_asset cannot be empty")
	}
	for asset, qty := range l.InitialBalances {
		if !(qty >= 0) {
			return fmt.Errorf("ledger.initial_balances.%s must be >= 0", strings.ToLower(asset))
		}
	}
	if l.InitialPortfolioValue < 0 {
		return fmt.Errorf("ledger.initial_portfolio_value must be >= 0")
	}
	switch l.Store {
	case StoreFile:
		if strings.TrimSpace(l.StatePath) == "" {
			return fmt.Errorf("ledger.state_path is required for the file store")
		}
	case StoreSQLite:
		if strings.TrimSpace(l.DBPath) == "" {
			return fmt.Errorf("ledger.db_path is required for the sqlite store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("ledger.store only supports file/sqlite/memory, got %q", l.Store)
	}
	return nil
}

func (m *MarketConfig) validate() error {
	switch m.Source {
	case SourceCoinDCX:
		if strings.TrimSpace(m.CoinDCXURL) == "" {
			return fmt.Errorf("market.coindcx_url cannot be empty")
		}
	case SourceBinance:
		if strings.TrimSpace(m.BinanceURL) == "" {
			return fmt.Errorf("market.binance_url cannot be empty")
		}
	default:
		return fmt.Errorf("unsupported market.source: %s", m.Source)
	}
	if m.TimeoutSeconds <= 0 {
		return fmt.Errorf("market.timeout_seconds must be > 0")
	}
	if m.BreakerThreshold <= 0 {
		return fmt.Errorf("market.breaker_threshold must be > 0")
	}
	if m.BreakerCooldownSeconds < 0 {
		return fmt.Errorf("market.breaker_cooldown_seconds must be >= 0")
	}
	return nil
}

func (g *GridConfig) validate() error {
	if g.Levels < 2 {
		return fmt.Errorf("grid.levels must be >= 2")
	}
	if g.MarginFraction <= 0 || g.MarginFraction > 1 {
		return fmt.Errorf("grid.margin_fraction must be in (0, 1]")
	}
	if g.CapitalUtilization <= 0 || g.CapitalUtilization > 1 {
		return fmt.Errorf("grid.capital_utilization must be in (0, 1]")
	}
	if g.TotalCapital <= 0 {
		return fmt.Errorf("grid.total_capital must be > 0")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if !n.Telegram.Enabled {
		return nil
	}
	if n.Telegram.BotToken == "" || n.Telegram.ChatID == "" {
		return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
	}
	return nil
}
