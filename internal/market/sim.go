package market

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Per-symbol anchors for the simulated feed. Unknown symbols fall back to
// price 1.0 and 1% volatility.
var simBasePrices = map[string]float64{
	"BTCUSD": 45000,
	"ETHUSD": 2500,
	"EURUSD": 1.0850,
	"GBPUSD": 1.2650,
	"USDJPY": 150.25,
	"AUDUSD": 0.6550,
	"USDCAD": 1.3650,
	"USDCHF": 0.8950,
	"NZDUSD": 0.6150,
	"EURGBP": 0.8650,
	"EURJPY": 162.50,
	"GBPJPY": 188.75,
	"XAUUSD": 2050.00,
	"CRUDE":  75.50,
	"BRENT":  78.20,
}

var simBaseVolatility = map[string]float64{
	"BTCUSD": 0.03,
	"ETHUSD": 0.04,
	"EURUSD": 0.005,
	"GBPUSD": 0.008,
	"USDJPY": 0.006,
	"AUDUSD": 0.007,
	"USDCAD": 0.005,
	"USDCHF": 0.005,
	"NZDUSD": 0.008,
	"EURGBP": 0.004,
	"EURJPY": 0.007,
	"GBPJPY": 0.009,
	"XAUUSD": 0.015,
	"CRUDE":  0.025,
	"BRENT":  0.025,
}

var simTimeframeMultiplier = map[string]float64{
	"5m":  0.5,
	"15m": 0.7,
	"30m": 1.0,
	"1h":  1.2,
}

// SimSource generates a plausible random-walk history per symbol/timeframe.
// It stands in for a live feed in the batch runner and in tests; a fixed seed
// makes its output reproducible.
type SimSource struct {
	mu   sync.Mutex
	rng  *rand.Rand
	bars int
	now  func() time.Time
}

func NewSimSource(seed int64) *SimSource {
	return &SimSource{
		rng:  rand.New(rand.NewSource(seed)),
		bars: 60,
		now:  time.Now,
	}
}

func (s *SimSource) FetchSnapshot(_ context.Context, symbol string, timeframes []string) (*Snapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("sim source: symbol required")
	}
	if len(timeframes) == 0 {
		timeframes = RequiredTimeframes
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	frames := make(map[string]Frame, len(timeframes))
	for _, tf := range timeframes {
		frames[tf] = s.generateFrame(symbol, tf)
	}
	return NewSnapshot(symbol, frames), nil
}

func (s *SimSource) generateFrame(symbol, tf string) Frame {
	base := simBasePrices[symbol]
	if base == 0 {
		base = 1.0
	}
	vol := simBaseVolatility[symbol]
	if vol == 0 {
		vol = 0.01
	}
	if mult, ok := simTimeframeMultiplier[strings.ToLower(tf)]; ok {
		vol *= mult
	}
	step := TimeframeDuration(tf)
	if step <= 0 {
		step = 5 * time.Minute
	}
	end := s.now().UTC().Truncate(step)

	bars := make([]Bar, 0, s.bars)
	price := base
	for i := 0; i < s.bars; i++ {
		open := price
		close := open * (1 + (s.rng.Float64()-0.5)*vol)
		high := math.Max(open, close) * (1 + s.rng.Float64()*vol*0.5)
		low := math.Min(open, close) * (1 - s.rng.Float64()*vol*0.5)
		bars = append(bars, Bar{
			OpenTime: end.Add(-time.Duration(s.bars-i) * step).UnixMilli(),
			Open:     round5(open),
			High:     round5(high),
			Low:      round5(low),
			Close:    round5(close),
			Volume:   math.Floor(s.rng.Float64() * 1_000_000),
		})
		price = close
	}
	return Frame{
		Bars: bars,
		Base: BaseIndicators{
			RSI:  30 + s.rng.Float64()*40,
			MACD: (s.rng.Float64() - 0.5) * 0.001,
			ATR:  base * 0.001 * (0.5 + s.rng.Float64()*0.5),
		},
	}
}

func round5(v float64) float64 {
	return math.Round(v*100000) / 100000
}
