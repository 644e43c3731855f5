package apihttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gridsim/internal/analysis/visual"
	"gridsim/internal/gateway/notifier"
	"gridsim/internal/grid"
	"gridsim/internal/ledger"
	"gridsim/internal/logger"
	"gridsim/internal/market"
	"gridsim/internal/pkg/decimalx"
	"gridsim/internal/pkg/symbol"
	"gridsim/internal/pnl"
	"gridsim/internal/types"

	"github.com/gin-gonic/gin"
)

// Account is the ledger surface served over HTTP.
type Account interface {
	PlaceOrder(ctx context.Context, market string, side types.Side, price, quantity float64) (types.OrderResult, error)
	Reset(ctx context.Context, initial types.Balances) (types.LedgerState, error)
	Balances() types.Balances
	Orders() []types.Order
	Trades() []types.Trade
	AverageEntryPrice(base string) float64
	QuoteAsset() string
}

type GridRunner interface {
	Launch(ctx context.Context, market string, totalCapital float64, opts grid.Options) (grid.Plan, []types.OrderResult, error)
}

type PnLReporter interface {
	Compute(ctx context.Context, market string) pnl.Report
}

type PriceOracle = market.PriceOracle

type Notifier = notifier.TextNotifier

// GridDefaults fill in grid requests that omit levels or capital.
type GridDefaults struct {
	Options       grid.Options
	TotalCapital  float64
	DefaultMarket string
}

type Router struct {
	account    Account
	grid       GridRunner
	pnl        PnLReporter
	oracle     PriceOracle
	auth       Authenticator
	adminToken string
	defaults   GridDefaults
	notifier   Notifier
}

func NewRouter(cfg ServerConfig) *Router {
	defaults := cfg.GridDefaults
	if defaults.DefaultMarket == "" {
		defaults.DefaultMarket = "OMUSDT"
	}
	if defaults.TotalCapital <= 0 {
		defaults.TotalCapital = 1000
	}
	n := cfg.Notifier
	if n == nil {
		n = notifier.Nop{}
	}
	return &Router{
		account:    cfg.Account,
		grid:       cfg.Grid,
		pnl:        cfg.PnL,
		oracle:     cfg.Oracle,
		auth:       cfg.Auth,
		adminToken: cfg.AdminToken,
		defaults:   defaults,
		notifier:   n,
	}
}

// Register mounts every route under group (normally /api).
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/market/price/:market", r.handleMarketPrice)

	gridGroup := group.Group("/grid")
	gridGroup.GET("/calculate", r.handleGridCalculate)
	gridGroup.POST("/start", r.handleGridStart)

	virtual := group.Group("/virtual")
	virtual.GET("/balance", requireAuth(r.auth), r.handleBalance)
	virtual.GET("/orders", r.handleOrders)
	virtual.GET("/trades", r.handleTrades)
	virtual.GET("/pnl", r.handlePnL)
	virtual.GET("/chart", r.handleChart)
	virtual.POST("/order", r.handlePlaceOrder)
	virtual.POST("/reset", requireAdmin(r.adminToken), r.handleReset)
}

func (r *Router) market(c *gin.Context) string {
	if m := symbol.Normalize(c.Query("market")); m != "" {
		return m
	}
	return r.defaults.DefaultMarket
}

func (r *Router) handleMarketPrice(c *gin.Context) {
	price, ok := r.oracle.LatestPrice(c.Request.Context(), symbol.Normalize(c.Param("market")))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"price": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"price": price})
}

func (r *Router) handleGridCalculate(c *gin.Context) {
	mkt := r.market(c)
	capital := r.defaults.TotalCapital
	if raw := strings.TrimSpace(c.Query("total_capital")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || !decimalx.Finite(v) {
			writeError(c, fmt.Errorf("%w: total_capital %q", ledger.ErrInvalidInput, raw))
			return
		}
		capital = v
	}
	opts := r.defaults.Options
	if raw := strings.TrimSpace(c.Query("grid_levels")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, fmt.Errorf("%w: grid_levels %q", ledger.ErrInvalidInput, raw))
			return
		}
		opts.Levels = v
	}

	current, ok := r.oracle.LatestPrice(c.Request.Context(), mkt)
	if !ok {
		writeError(c, fmt.Errorf("could not fetch current price for %s: %w", mkt, market.ErrPriceUnavailable))
		return
	}
	plan, err := grid.Compute(current, capital, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"current_price": current,
		"parameters":    plan,
	})
}

type gridStartRequest struct {
	Market       string   `json:"market"`
	GridLevels   *int     `json:"grid_levels"`
	TotalCapital *float64 `json:"total_capital"`
}

func (r *Router) handleGridStart(c *gin.Context) {
	var req gridStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err))
		return
	}
	mkt := symbol.Normalize(req.Market)
	if mkt == "" {
		mkt = r.defaults.DefaultMarket
	}
	opts := r.defaults.Options
	if req.GridLevels != nil {
		opts.Levels = *req.GridLevels
	}
	capital := r.defaults.TotalCapital
	if req.TotalCapital != nil {
		capital = *req.TotalCapital
	}

	logger.Infof("[http] grid start %s levels=%d capital=%g", mkt, opts.Levels, capital)
	plan, results, err := r.grid.Launch(c.Request.Context(), mkt, capital, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"message":    fmt.Sprintf("Successfully placed %d orders", len(results)),
		"orders":     results,
		"parameters": plan,
	})
}

func (r *Router) handleBalance(c *gin.Context) {
	c.JSON(http.StatusOK, r.account.Balances())
}

func (r *Router) handleOrders(c *gin.Context) {
	c.JSON(http.StatusOK, r.account.Orders())
}

func (r *Router) handleTrades(c *gin.Context) {
	c.JSON(http.StatusOK, r.account.Trades())
}

func (r *Router) handlePnL(c *gin.Context) {
	c.JSON(http.StatusOK, r.pnl.Compute(c.Request.Context(), r.market(c)))
}

type orderRequest struct {
	Market   string  `json:"market"`
	Side     string  `json:"side"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

func (r *Router) handlePlaceOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err))
		return
	}
	side, ok := types.ParseSide(req.Side)
	if !ok {
		writeError(c, fmt.Errorf("%w: unknown side %q", ledger.ErrInvalidInput, req.Side))
		return
	}
	res, err := r.account.PlaceOrder(c.Request.Context(), req.Market, side, req.Price, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type resetRequest struct {
	Balances types.Balances `json:"balances"`
}

func (r *Router) handleReset(c *gin.Context) {
	var req resetRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err))
			return
		}
	}
	state, err := r.account.Reset(c.Request.Context(), req.Balances)
	if err != nil {
		writeError(c, err)
		return
	}
	msg := notifier.AccountReset(state.Balances, time.Now()).RenderMarkdown()
	if err := r.notifier.SendText(c.Request.Context(), msg); err != nil {
		logger.Warnf("[http] reset notification failed: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Account reset successful",
		"data":    state,
	})
}

func (r *Router) handleChart(c *gin.Context) {
	mkt := r.market(c)
	sym := symbol.ParseQuote(mkt, r.account.QuoteAsset())
	if !sym.Valid() {
		writeError(c, fmt.Errorf("%w: market %q is not a %s pair", ledger.ErrInvalidInput, mkt, r.account.QuoteAsset()))
		return
	}
	all := r.account.Trades()
	trades := make([]types.Trade, 0, len(all))
	for _, t := range all {
		if t.Market == sym.Market() {
			trades = append(trades, t)
		}
	}
	var buf bytes.Buffer
	err := visual.RenderTrades(&buf, visual.TradeChartInput{
		Market:            sym.Market(),
		Trades:            trades,
		AverageEntryPrice: r.account.AverageEntryPrice(sym.Base),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidInput), errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrPriceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("[http] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"status": "error", "error": err.Error(), "message": err.Error()})
}
