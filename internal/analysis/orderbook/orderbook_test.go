package orderbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tradewind/internal/config"
	"tradewind/internal/market"
)

func buildSnapshot(fastLast, slowLast, fastVol float64) *market.Snapshot {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	frameWith := func(last, vol float64) market.Frame {
		bars := make([]market.Bar, 20)
		for i := range bars {
			c := last * (1 - 0.0005*float64(len(bars)-1-i))
			bars[i] = market.Bar{
				OpenTime: ts.Add(time.Duration(i) * 5 * time.Minute).UnixMilli(),
				Open:     c, High: c * 1.0004, Low: c * 0.9996, Close: c,
				Volume: 1000,
			}
		}
		bars[len(bars)-1].Close = last
		bars[len(bars)-1].Volume = vol
		return market.Frame{Bars: bars}
	}
	return market.NewSnapshot("BTCUSD", map[string]market.Frame{
		"5m":  frameWith(fastLast, fastVol),
		"15m": frameWith(slowLast, 1000),
		"30m": frameWith(slowLast, 1000),
	})
}

func TestAnalyzeDeterministicForSeed(t *testing.T) {
	prof := config.NewSymbolCatalog().Lookup("BTCUSD")
	snap := buildSnapshot(45100, 45000, 2000)

	a := Analyze(snap, prof, 42)
	b := Analyze(snap, prof, 42)
	assert.Equal(t, a, b)

	c := Analyze(snap, prof, 43)
	assert.NotEqual(t, a.Spread, c.Spread)
}

func TestImbalanceBounds(t *testing.T) {
	prof := config.NewSymbolCatalog().Lookup("BTCUSD")
	for seed := int64(0); seed < 20; seed++ {
		res := Analyze(buildSnapshot(45100, 45000, 2000), prof, seed)
		assert.GreaterOrEqual(t, res.Imbalance, -1.0)
		assert.LessOrEqual(t, res.Imbalance, 1.0)
		assert.Greater(t, res.Spread, 0.0)
		assert.Greater(t, res.BidDepth, 0.0)
		assert.Greater(t, res.AskDepth, 0.0)
	}
}

func TestClassifyFlowBuying(t *testing.T) {
	snap := buildSnapshot(45500, 45000, 2500)
	flow, strength, large := classifyFlow(snap)
	assert.Equal(t, FlowBuying, flow)
	assert.Greater(t, strength, 0.0)
	assert.True(t, large)
}

func TestClassifyFlowNeutralOnThinVolume(t *testing.T) {
	snap := buildSnapshot(45500, 45000, 900)
	flow, strength, large := classifyFlow(snap)
	assert.Equal(t, FlowNeutral, flow)
	assert.Zero(t, strength)
	assert.False(t, large)
}

func TestFuturesBasisClassification(t *testing.T) {
	prof := config.NewSymbolCatalog().Lookup("BTCUSD")
	seen := map[Basis]bool{}
	for seed := int64(0); seed < 50; seed++ {
		res := Analyze(buildSnapshot(45100, 45000, 2000), prof, seed)
		seen[res.FuturesBasis] = true
		switch {
		case res.Rollover > 0.2:
			assert.Equal(t, BasisContango, res.FuturesBasis)
		case res.Rollover < -0.2:
			assert.Equal(t, BasisBackwardation, res.FuturesBasis)
		default:
			assert.Equal(t, BasisNeutral, res.FuturesBasis)
		}
	}
	assert.GreaterOrEqual(t, len(seen), 2)
}

func TestLiquidityZonesSortedWithinWindow(t *testing.T) {
	prof := config.NewSymbolCatalog().Lookup("BTCUSD")
	res := Analyze(buildSnapshot(45100, 45000, 2000), prof, 7)
	price := 45100.0
	assert.NotEmpty(t, res.LiquidityZones)
	for i, z := range res.LiquidityZones {
		assert.InDelta(t, price, z.Price, price*0.02)
		if i > 0 {
			assert.GreaterOrEqual(t, z.Price, res.LiquidityZones[i-1].Price)
		}
	}
}

func TestAnalyzeNilSnapshotNeutral(t *testing.T) {
	res := Analyze(nil, config.NewSymbolCatalog().Lookup("BTCUSD"), 1)
	assert.Equal(t, FlowNeutral, res.InstitutionalFlow)
	assert.Equal(t, ProfileBalanced, res.VolumeProfile)
	assert.Equal(t, BasisNeutral, res.FuturesBasis)
	assert.Zero(t, res.Spread)
}
