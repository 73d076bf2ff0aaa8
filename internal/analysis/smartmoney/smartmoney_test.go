package smartmoney

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tradewind/internal/config"
	"tradewind/internal/market"
)

func frameOf(closes, volumes []float64) market.Frame {
	bars := make([]market.Bar, len(closes))
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	prev := closes[0]
	for i, c := range closes {
		open := prev
		hi, lo := open, c
		if c > hi {
			hi = c
		}
		if open < lo {
			lo = open
		}
		bars[i] = market.Bar{
			OpenTime: ts.Add(time.Duration(i) * 5 * time.Minute).UnixMilli(),
			Open:     open,
			High:     hi * 1.0002,
			Low:      lo * 0.9998,
			Close:    c,
			Volume:   volumes[i],
		}
		prev = c
	}
	return market.Frame{Bars: bars}
}

func snapshotOf(symbol string, frame market.Frame) *market.Snapshot {
	frames := map[string]market.Frame{}
	for _, tf := range market.RequiredTimeframes {
		frames[tf] = frame
	}
	return market.NewSnapshot(symbol, frames)
}

func TestClassifyFlowBuyingOnHighVolumeAboveVWAP(t *testing.T) {
	closes := []float64{100, 100.1, 100.2, 100.4, 100.7, 101.2}
	volumes := []float64{1000, 1000, 1000, 1100, 1200, 2500}
	prof := config.NewSymbolCatalog().Lookup("EURUSD")

	flow, strength := classifyFlow(frameOf(closes, volumes), prof)
	assert.Equal(t, FlowBuying, flow)
	assert.Greater(t, strength, 0.0)
	assert.LessOrEqual(t, strength, 1.0)
}

func TestClassifyFlowNeutralWithoutVolume(t *testing.T) {
	closes := []float64{100, 100.5, 101, 101.5, 102}
	volumes := []float64{1000, 1000, 1000, 1000, 1000}
	prof := config.NewSymbolCatalog().Lookup("EURUSD")

	flow, strength := classifyFlow(frameOf(closes, volumes), prof)
	assert.Equal(t, FlowNeutral, flow)
	assert.Zero(t, strength)
}

func TestVolumePatternAccumulation(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104, 105}
	volumes := []float64{1000, 1100, 1250, 1400, 1600, 1900}
	assert.Equal(t, PatternAccumulation, classifyVolumePattern(frameOf(closes, volumes)))
}

func TestVolumePatternDistribution(t *testing.T) {
	closes := []float64{105, 104, 103, 102, 101, 100}
	volumes := []float64{1000, 1100, 1250, 1400, 1600, 1900}
	assert.Equal(t, PatternDistribution, classifyVolumePattern(frameOf(closes, volumes)))
}

func TestVolumePatternConsolidationOnShortHistory(t *testing.T) {
	assert.Equal(t, PatternConsolidation, classifyVolumePattern(frameOf([]float64{100, 101}, []float64{1, 2})))
}

func TestOrderFlowBullish(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104, 105, 106, 107}
	volumes := []float64{500, 2000, 2000, 2000, 500, 2000, 2000, 2000}
	prof := config.NewSymbolCatalog().Lookup("EURUSD")
	assert.Equal(t, OrderFlowBullish, classifyOrderFlow(frameOf(closes, volumes), prof))
}

func TestOrderFlowNeutralWhenMixed(t *testing.T) {
	closes := []float64{100, 101, 100, 101, 100, 101, 100}
	volumes := []float64{2000, 2000, 2000, 2000, 2000, 2000, 2000}
	prof := config.NewSymbolCatalog().Lookup("EURUSD")
	assert.Equal(t, OrderFlowNeutral, classifyOrderFlow(frameOf(closes, volumes), prof))
}

func TestAnalyzeNeverSellingInStrongUptrend(t *testing.T) {
	closes := make([]float64, 30)
	volumes := make([]float64, 30)
	for i := range closes {
		closes[i] = 45000 + 60*float64(i)
		volumes[i] = 1000 + 40*float64(i)
	}
	snap := snapshotOf("BTCUSD", frameOf(closes, volumes))
	res := Analyze(snap, config.NewSymbolCatalog().Lookup("BTCUSD"))

	assert.NotEqual(t, FlowSelling, res.InstitutionalFlow)
	assert.Equal(t, PatternAccumulation, res.VolumePattern)
}

func TestLiquidityLevelsCappedAndDeduped(t *testing.T) {
	closes := make([]float64, 40)
	volumes := make([]float64, 40)
	for i := range closes {
		closes[i] = 45000 + 25*float64(i)
		volumes[i] = 1000
	}
	snap := snapshotOf("BTCUSD", frameOf(closes, volumes))
	res := Analyze(snap, config.NewSymbolCatalog().Lookup("BTCUSD"))

	assert.NotEmpty(t, res.LiquidityLevels)
	assert.LessOrEqual(t, len(res.LiquidityLevels), 8)
	for i := 1; i < len(res.LiquidityLevels); i++ {
		assert.LessOrEqual(t, res.LiquidityLevels[i].Score, res.LiquidityLevels[i-1].Score)
	}
	price := snap.LastPrice()
	for i, a := range res.LiquidityLevels {
		for j, b := range res.LiquidityLevels {
			if i == j {
				continue
			}
			assert.GreaterOrEqual(t, absDiff(a.Price, b.Price), price*0.001)
		}
	}
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestAnalyzeNilSnapshotNeutral(t *testing.T) {
	res := Analyze(nil, config.NewSymbolCatalog().Lookup("EURUSD"))
	assert.Equal(t, FlowNeutral, res.InstitutionalFlow)
	assert.Equal(t, PatternConsolidation, res.VolumePattern)
	assert.Equal(t, OrderFlowNeutral, res.OrderFlow)
	assert.Empty(t, res.LiquidityLevels)
}
