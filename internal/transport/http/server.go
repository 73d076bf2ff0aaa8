// Package httpapi exposes signal generation and history over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tradewind/internal/engine"
	"tradewind/internal/logger"
	"tradewind/internal/market"
	"tradewind/internal/store/sqlite"
)

// Server serves the /api/v1 signal endpoints.
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig describes the server dependencies. Store may be nil when
// persistence is disabled.
type ServerConfig struct {
	Addr    string
	Engine  *engine.Engine
	Source  market.Source
	Store   *sqlite.Store
	Account engine.Account
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Engine == nil || cfg.Source == nil {
		return nil, errors.New("http server requires engine and market source")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9980"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handlers{engine: cfg.Engine, source: cfg.Source, store: cfg.Store, account: cfg.Account}
	api := router.Group("/api/v1")
	api.POST("/signals/:symbol", h.generateSignal)
	api.GET("/signals", h.listSignals)
	api.GET("/signals/:symbol/chart", h.renderChart)

	return &Server{addr: cfg.Addr, router: router}, nil
}

// requestLogger traces API calls for operator debugging.
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

// Start serves until the context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

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
