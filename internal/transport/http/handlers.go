package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"tradewind/internal/engine"
	"tradewind/internal/logger"
	"tradewind/internal/market"
	"tradewind/internal/store/sqlite"
	"tradewind/internal/strategy"
	"tradewind/internal/visual"
)

type handlers struct {
	engine  *engine.Engine
	source  market.Source
	store   *sqlite.Store
	account engine.Account
}

// generateSignal runs a full analysis for the symbol and persists the
// resulting signal when a store is configured.
func (h *handlers) generateSignal(c *gin.Context) {
	sig, _, ok := h.generate(c)
	if !ok {
		return
	}
	if h.store != nil {
		if err := h.store.SaveSignal(c.Request.Context(), sig); err != nil {
			logger.Errorf("persist signal %s: %v", sig.ID, err)
		}
	}
	c.JSON(http.StatusOK, sig)
}

func (h *handlers) listSignals(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal persistence not enabled"})
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	signals, err := h.store.ListSignals(c.Request.Context(), c.Query("symbol"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if signals == nil {
		signals = []engine.TradeSignal{}
	}
	c.JSON(http.StatusOK, gin.H{"signals": signals, "count": len(signals)})
}

// renderChart generates a fresh signal and streams its candlestick chart
// as a standalone HTML page.
func (h *handlers) renderChart(c *gin.Context) {
	sig, snap, ok := h.generate(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := visual.WriteSignalChart(c.Writer, sig, snap); err != nil {
		logger.Errorf("render chart %s: %v", sig.Symbol, err)
	}
}

// generate fetches market data and runs the engine. On failure it writes
// the error response and returns ok=false.
func (h *handlers) generate(c *gin.Context) (*engine.TradeSignal, *market.Snapshot, bool) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	snap, err := h.source.FetchSnapshot(c.Request.Context(), symbol, market.RequiredTimeframes)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "market data unavailable: " + err.Error()})
		return nil, nil, false
	}

	req := engine.Request{
		Symbol:            symbol,
		Snapshot:          snap,
		Account:           h.account,
		PreferredStrategy: strategy.Kind(strings.ToUpper(c.Query("strategy"))),
	}
	sig, err := h.engine.Generate(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, nil, false
	}
	return sig, snap, true
}
