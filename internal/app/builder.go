package app

import (
	"context"
	"fmt"
	"time"

	"gridsim/internal/config"
	"gridsim/internal/gateway"
	"gridsim/internal/gateway/identity"
	"gridsim/internal/gateway/notifier"
	"gridsim/internal/grid"
	"gridsim/internal/ledger"
	"gridsim/internal/logger"
	"gridsim/internal/market"
	"gridsim/internal/pnl"
	"gridsim/internal/store"
	"gridsim/internal/store/filestore"
	"gridsim/internal/store/gormstore"
	"gridsim/internal/store/memstore"
	apihttp "gridsim/internal/transport/http/api"
)

type AppBuilder struct {
	cfg *config.Config

	storeFn    func(config.LedgerConfig) (store.StateStore, error)
	oracleFn   func(*config.Config) (market.PriceOracle, error)
	notifierFn func(config.TelegramConfig) notifier.TextNotifier
	authFn     func(config.AuthConfig) apihttp.Authenticator
}

type AppBuilderOption func(*AppBuilder)

// WithStore replaces the configured state store; used by tests.
func WithStore(st store.StateStore) AppBuilderOption {
	return func(b *AppBuilder) {
		b.storeFn = func(config.LedgerConfig) (store.StateStore, error) { return st, nil }
	}
}

// WithOracle replaces the configured price feed.
func WithOracle(o market.PriceOracle) AppBuilderOption {
	return func(b *AppBuilder) {
		b.oracleFn = func(*config.Config) (market.PriceOracle, error) { return o, nil }
	}
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		storeFn:    buildStateStore,
		oracleFn:   buildOracle,
		notifierFn: buildNotifier,
		authFn:     buildAuthenticator,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	st, err := b.storeFn(cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("state store: %w", err)
	}
	l, err := ledger.New(st, ledger.Options{
		QuoteAsset:      cfg.Ledger.QuoteAsset,
		InitialBalances: cfg.Ledger.InitialBalances,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	l.Load(ctx)

	oracle, err := b.oracleFn(cfg)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("price oracle: %w", err)
	}
	notify := b.notifierFn(cfg.Notify.Telegram)
	gridOpts := grid.Options{
		Levels:             cfg.Grid.Levels,
		MarginFraction:     cfg.Grid.MarginFraction,
		CapitalUtilization: cfg.Grid.CapitalUtilization,
	}

	server, err := apihttp.NewServer(apihttp.ServerConfig{
		Addr:       cfg.App.HTTPAddr,
		Account:    l,
		Grid:       grid.NewRunner(l, oracle, notify),
		PnL:        pnl.NewEngine(l, oracle, cfg.Ledger.InitialPortfolioValue),
		Oracle:     oracle,
		Auth:       b.authFn(cfg.Auth),
		AdminToken: cfg.Auth.AdminToken,
		GridDefaults: apihttp.GridDefaults{
			Options:       gridOpts,
			TotalCapital:  cfg.Grid.TotalCapital,
			DefaultMarket: cfg.Grid.DefaultMarket,
		},
		Notifier: notify,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &App{
		cfg:     cfg,
		store:   st,
		ledger:  l,
		http:    server,
		Summary: buildSummary(cfg, l),
	}, nil
}

func buildStateStore(cfg config.LedgerConfig) (store.StateStore, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		return gormstore.NewGormStore(cfg.DBPath)
	case config.StoreMemory:
		logger.Warnf("[app] memory state store: nothing survives a restart")
		return memstore.New(), nil
	case "", config.StoreFile:
		return filestore.New(cfg.StatePath)
	default:
		return nil, fmt.Errorf("unsupported ledger store: %s", cfg.Store)
	}
}

func buildOracle(cfg *config.Config) (market.PriceOracle, error) {
	return gateway.NewOracleFromConfig(cfg)
}

func buildNotifier(cfg config.TelegramConfig) notifier.TextNotifier {
	if !cfg.Enabled {
		return notifier.Nop{}
	}
	return notifier.NewTelegram(cfg.BotToken, cfg.ChatID)
}

func buildAuthenticator(cfg config.AuthConfig) apihttp.Authenticator {
	if !cfg.IdentityEnabled() {
		logger.Warnf("[app] auth.identity_url not set, balance endpoint is unauthenticated")
		return nil
	}
	return identity.New(identity.Config{BaseURL: cfg.IdentityURL, APIKey: cfg.APIKey, Timeout: 5 * time.Second})
}
