package apihttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gridsim/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// Server exposes the simulated account and grid engine over HTTP.
type Server struct {
	addr    string
	handler http.Handler
}

// ServerConfig lists the server's collaborators. Auth may be nil to serve
// the balance endpoint unauthenticated.
type ServerConfig struct {
	Addr           string
	Account        Account
	Grid           GridRunner
	PnL            PnLReporter
	Oracle         PriceOracle
	Auth           Authenticator
	AdminToken     string
	GridDefaults   GridDefaults
	Notifier       Notifier
	AllowedOrigins []string
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Account == nil || cfg.Grid == nil || cfg.PnL == nil || cfg.Oracle == nil {
		return nil, errors.New("api server requires account, grid runner, pnl engine and price oracle")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":5000"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	NewRouter(cfg).Register(router.Group("/api"))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	handler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", adminTokenHeader},
	}).Handler(router)

	return &Server{addr: cfg.Addr, handler: handler}, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Handler returns the CORS-wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("[http] listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
