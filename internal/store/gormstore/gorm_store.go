package gormstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gridsim/internal/store"
	"gridsim/internal/store/model"
	"gridsim/internal/types"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const batchSize = 200

// GormStore keeps the ledger state in SQLite. Each Save replaces the three
// tables inside one transaction.
type GormStore struct {
	db *gorm.DB
}

var _ store.StateStore = (*GormStore)(nil)

// NewGormStore opens (or creates) the database at path using the pure-Go
// modernc driver.
func NewGormStore(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return NewGormStoreFromDB(db)
}

func NewGormStoreFromDB(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	if err := db.AutoMigrate(
		&model.LedgerMetaModel{},
		&model.BalanceModel{},
		&model.OrderModel{},
		&model.TradeModel{},
	); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		// single writer; the ledger lock already serializes saves
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Load(ctx context.Context) (types.LedgerState, error) {
	db := s.db.WithContext(ctx)
	var meta model.LedgerMetaModel
	err := db.Where("id = ?", 1).First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.LedgerState{}, store.ErrStateNotFound
	}
	if err != nil {
		return types.LedgerState{}, err
	}

	var balances []model.BalanceModel
	if err := db.Find(&balances).Error; err != nil {
		return types.LedgerState{}, err
	}
	var orders []model.OrderModel
	if err := db.Order("position ASC").Find(&orders).Error; err != nil {
		return types.LedgerState{}, err
	}
	var trades []model.TradeModel
	if err := db.Order("position ASC").Find(&trades).Error; err != nil {
		return types.LedgerState{}, err
	}
	if len(orders) != meta.OrderCount || len(trades) != meta.TradeCount {
		return types.LedgerState{}, fmt.Errorf("gorm store: row counts diverge from meta (orders %d/%d trades %d/%d)",
			len(orders), meta.OrderCount, len(trades), meta.TradeCount)
	}

	state := types.LedgerState{
		Balances: make(types.Balances, len(balances)),
		Orders:   make([]types.Order, 0, len(orders)),
		Trades:   make([]types.Trade, 0, len(trades)),
	}
	for _, b := range balances {
		state.Balances[b.Asset] = b.Quantity
	}
	for _, o := range orders {
		state.Orders = append(state.Orders, types.Order{
			ID:        o.OrderID,
			Market:    o.Market,
			Side:      types.Side(o.Side),
			Price:     o.Price,
			Quantity:  o.Quantity,
			Status:    types.OrderStatus(o.Status),
			CreatedAt: fromUnixMilli(o.CreatedAtUnix),
		})
	}
	for _, t := range trades {
		state.Trades = append(state.Trades, types.Trade{
			OrderID:     t.OrderID,
			Market:      t.Market,
			Side:        types.Side(t.Side),
			Price:       t.Price,
			Quantity:    t.Quantity,
			Value:       t.Value,
			EntryPrice:  t.EntryPrice,
			RealizedPnL: t.RealizedPnL,
			CreatedAt:   fromUnixMilli(t.CreatedAtUnix),
		})
	}
	return state, nil
}

func (s *GormStore) Save(ctx context.Context, state types.LedgerState) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&model.BalanceModel{}, &model.OrderModel{}, &model.TradeModel{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return err
			}
		}

		assets := make([]string, 0, len(state.Balances))
		for asset := range state.Balances {
			assets = append(assets, asset)
		}
		sort.Strings(assets)
		balances := make([]model.BalanceModel, 0, len(assets))
		for _, asset := range assets {
			balances = append(balances, model.BalanceModel{Asset: asset, Quantity: state.Balances[asset]})
		}
		if len(balances) > 0 {
			if err := tx.CreateInBatches(balances, batchSize).Error; err != nil {
				return err
			}
		}

		if len(state.Orders) > 0 {
			orders := make([]model.OrderModel, 0, len(state.Orders))
			for i, o := range state.Orders {
				orders = append(orders, model.OrderModel{
					Position:      i + 1,
					OrderID:       o.ID,
					Market:        o.Market,
					Side:          string(o.Side),
					Price:         o.Price,
					Quantity:      o.Quantity,
					Status:        string(o.Status),
					CreatedAtUnix: toUnixMilli(o.CreatedAt),
				})
			}
			if err := tx.CreateInBatches(orders, batchSize).Error; err != nil {
				return err
			}
		}

		if len(state.Trades) > 0 {
			trades := make([]model.TradeModel, 0, len(state.Trades))
			for i, t := range state.Trades {
				trades = append(trades, model.TradeModel{
					Position:      i + 1,
					OrderID:       t.OrderID,
					Market:        t.Market,
					Side:          string(t.Side),
					Price:         t.Price,
					Quantity:      t.Quantity,
					Value:         t.Value,
					EntryPrice:    t.EntryPrice,
					RealizedPnL:   t.RealizedPnL,
					CreatedAtUnix: toUnixMilli(t.CreatedAt),
				})
			}
			if err := tx.CreateInBatches(trades, batchSize).Error; err != nil {
				return err
			}
		}

		meta := model.LedgerMetaModel{
			ID:          1,
			SavedAtUnix: time.Now().UnixMilli(),
			OrderCount:  len(state.Orders),
			TradeCount:  len(state.Trades),
		}
		return tx.Save(&meta).Error
	})
}

// Close closes the underlying database connection.
func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func fromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func toUnixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
