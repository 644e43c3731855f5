package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gridsim/internal/config"
	"gridsim/internal/gateway/notifier"
	"gridsim/internal/market"
	"gridsim/internal/store/filestore"
	"gridsim/internal/store/gormstore"
	"gridsim/internal/store/memstore"
	"gridsim/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		App: config.AppConfig{Env: "test", LogLevel: "info", HTTPAddr: "127.0.0.1:0"},
		Ledger: config.LedgerConfig{
			QuoteAsset:            "USDT",
			InitialBalances:       map[string]float64{"USDT": 20000, "OM": 0},
			InitialPortfolioValue: 20000,
			Store:                 config.StoreFile,
			StatePath:             filepath.Join(dir, "state.json"),
			DBPath:                filepath.Join(dir, "state.db"),
		},
		Market: config.MarketConfig{Source: config.SourceCoinDCX, CoinDCXURL: "http://127.0.0.1:1", TimeoutSeconds: 1, BreakerThreshold: 1},
		Grid:   config.GridConfig{Levels: 6, MarginFraction: 0.003, CapitalUtilization: 0.8, TotalCapital: 1000, DefaultMarket: "OMUSDT"},
	}
}

func TestBuild_LoadsPersistedState(t *testing.T) {
	cfg := testConfig(t)
	st, err := filestore.New(cfg.Ledger.StatePath)
	require.NoError(t, err)
	require.NoError(t, st.Save(context.Background(), types.LedgerState{
		Balances: types.Balances{"USDT": 19000, "OM": 100},
	}))

	a, err := NewApp(context.Background(), cfg, "", WithOracle(market.Static(10)))
	require.NoError(t, err)
	assert.Equal(t, types.Balances{"USDT": 19000, "OM": 100}, a.Ledger().Balances())
	assert.Contains(t, a.Summary.String(), "OM=100")
	assert.Contains(t, a.Summary.String(), "reset: off")
}

func TestBuildStateStore(t *testing.T) {
	cfg := testConfig(t).Ledger
	tests := []struct {
		store string
		check func(t *testing.T, v any)
	}{
		{config.StoreFile, func(t *testing.T, v any) { assert.IsType(t, &filestore.Store{}, v) }},
		{config.StoreSQLite, func(t *testing.T, v any) { assert.IsType(t, &gormstore.GormStore{}, v) }},
		{config.StoreMemory, func(t *testing.T, v any) { assert.IsType(t, &memstore.Store{}, v) }},
	}
	for _, tt := range tests {
		t.Run(tt.store, func(t *testing.T) {
			cfg.Store = tt.store
			st, err := buildStateStore(cfg)
			require.NoError(t, err)
			defer st.Close()
			tt.check(t, st)
		})
	}
	cfg.Store = "redis"
	_, err := buildStateStore(cfg)
	assert.Error(t, err)
}

func TestBuild_StoreError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger.Store = "redis"
	_, err := NewApp(context.Background(), cfg, "")
	assert.Error(t, err)
}

func TestRun_StopsOnCancelAndFlushes(t *testing.T) {
	cfg := testConfig(t)
	st := memstore.New()
	a, err := NewApp(context.Background(), cfg, "", WithStore(st), WithOracle(market.Static(10)))
	require.NoError(t, err)
	a.Summary = nil

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("app did not stop")
	}
	loaded, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20000.0, loaded.Balances["USDT"])
}

func TestBuildNotifierAndAuth(t *testing.T) {
	assert.IsType(t, notifier.Nop{}, buildNotifier(config.TelegramConfig{}))
	assert.IsType(t, &notifier.Telegram{}, buildNotifier(config.TelegramConfig{Enabled: true, BotToken: "t", ChatID: "c"}))
	assert.Nil(t, buildAuthenticator(config.AuthConfig{}))
	assert.NotNil(t, buildAuthenticator(config.AuthConfig{IdentityURL: "https://id.example.com"}))
}
