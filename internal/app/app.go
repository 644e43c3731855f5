package app

import (
	"context"
	"fmt"

	"gridsim/internal/config"
	"gridsim/internal/ledger"
	"gridsim/internal/logger"
	"gridsim/internal/store"
	apihttp "gridsim/internal/transport/http/api"

	"golang.org/x/sync/errgroup"
)

// App wires configuration to the ledger, price feed, grid engine and HTTP API.
type App struct {
	cfg        *config.Config
	configPath string
	store      store.StateStore
	ledger     *ledger.Ledger
	http       *apihttp.Server
	Summary    *StartupSummary
}

// NewApp builds the application without starting it.
func NewApp(ctx context.Context, cfg *config.Config, configPath string, opts ...AppBuilderOption) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	a, err := NewAppBuilder(cfg, opts...).Build(ctx)
	if err != nil {
		return nil, err
	}
	a.configPath = configPath
	return a, nil
}

// Run serves HTTP and watches the config file until ctx is done, then
// flushes and closes the state store.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Summary != nil {
		a.Summary.Print()
	}
	defer a.close()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.http.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	if a.configPath != "" {
		group.Go(func() error {
			if err := config.Watch(ctx, a.configPath, config.ApplyLogLevel); err != nil {
				logger.Warnf("[app] config watch disabled: %v", err)
			}
			return nil
		})
	}
	return group.Wait()
}

func (a *App) Ledger() *ledger.Ledger {
	if a == nil {
		return nil
	}
	return a.ledger
}

func (a *App) close() {
	if err := a.ledger.Save(context.Background()); err != nil {
		logger.Errorf("[app] final state save failed: %v", err)
	}
	if err := a.store.Close(); err != nil {
		logger.Warnf("[app] closing state store: %v", err)
	}
	logger.Infof("[app] stopped")
}
