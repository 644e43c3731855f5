package model

// LedgerMetaModel has a single row marking that a state has been saved.
type LedgerMetaModel struct {
	ID          int   `gorm:"column:id;primaryKey"`
	SavedAtUnix int64 `gorm:"column:saved_at"`
	OrderCount  int   `gorm:"column:order_count"`
	TradeCount  int   `gorm:"column:trade_count"`
}

func (LedgerMetaModel) TableName() string { return "ledger_meta" }

type BalanceModel struct {
	Asset    string  `gorm:"column:asset;primaryKey"`
	Quantity float64 `gorm:"column:quantity"`
}

func (BalanceModel) TableName() string { return "ledger_balances" }

// OrderModel keeps the log position so reads preserve append order.
type OrderModel struct {
	Position      int     `gorm:"column:position;primaryKey;autoIncrement:false"`
	OrderID       string  `gorm:"column:order_id;uniqueIndex"`
	Market        string  `gorm:"column:market;index"`
	Side          string  `gorm:"column:side"`
	Price         float64 `gorm:"column:price"`
	Quantity      float64 `gorm:"column:quantity"`
	Status        string  `gorm:"column:status"`
	CreatedAtUnix int64   `gorm:"column:created_at"`
}

func (OrderModel) TableName() string { return "ledger_orders" }

type TradeModel struct {
	Position      int     `gorm:"column:position;primaryKey;autoIncrement:false"`
	OrderID       string  `gorm:"column:order_id;index"`
	Market        string  `gorm:"column:market;index"`
	Side          string  `gorm:"column:side"`
	Price         float64 `gorm:"column:price"`
	Quantity      float64 `gorm:"column:quantity"`
	Value         float64 `gorm:"column:value"`
	EntryPrice    float64 `gorm:"column:entry_price"`
	RealizedPnL   float64 `gorm:"column:realized_pnl"`
	CreatedAtUnix int64   `gorm:"column:created_at"`
}

func (TradeModel) TableName() string { return "ledger_trades" }
