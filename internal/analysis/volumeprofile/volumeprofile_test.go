package volumeprofile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tradewind/internal/market"
)

func frameOf(closes []float64, lastVolume float64) market.Frame {
	bars := make([]market.Bar, len(closes))
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, c := range closes {
		vol := 1000.0
		if i == len(closes)-1 {
			vol = lastVolume
		}
		bars[i] = market.Bar{
			OpenTime: ts.Add(time.Duration(i) * 5 * time.Minute).UnixMilli(),
			Open:     c,
			High:     c * 1.0003,
			Low:      c * 0.9997,
			Close:    c,
			Volume:   vol,
		}
	}
	return market.Frame{Bars: bars}
}

func snapshotOf(frame market.Frame) *market.Snapshot {
	frames := map[string]market.Frame{}
	for _, tf := range market.RequiredTimeframes {
		frames[tf] = frame
	}
	return market.NewSnapshot("EURUSD", frames)
}

func TestAnalyzeAboveVWAP(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 1.08 + 0.0004*float64(i)
	}
	res := Analyze(snapshotOf(frameOf(closes, 1000)))

	assert.Equal(t, PositionAbove, res.Overall)
	assert.Len(t, res.Timeframes, len(market.RequiredTimeframes))
	for _, read := range res.Timeframes {
		assert.Equal(t, PositionAbove, read.Position)
		assert.Greater(t, read.Deviation, 0.0)
	}
	assert.GreaterOrEqual(t, res.TrendStrength, 0.0)
	assert.LessOrEqual(t, res.TrendStrength, 1.0)
}

func TestAnalyzeFlatIsAt(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 1.085
	}
	res := Analyze(snapshotOf(frameOf(closes, 1000)))
	assert.Equal(t, PositionAt, res.Overall)
	assert.Equal(t, SignalNeutral, res.SignalType)
}

func TestDistributionHighLow(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104}
	dist, _ := distribution(frameOf(closes, 5000))
	assert.Equal(t, DistributionHigh, dist)

	dist, _ = distribution(frameOf(closes, 200))
	assert.Equal(t, DistributionLow, dist)

	dist, _ = distribution(frameOf(closes, 1000))
	assert.Equal(t, DistributionNormal, dist)
}

func TestDistributionNodes(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104, 105}
	_, nodes := distribution(frameOf(closes, 5000))
	assert.Len(t, nodes, 4)
	assert.Equal(t, "high_volume", nodes[0].Kind)
	assert.Equal(t, 105.0, nodes[0].Price)
	assert.Equal(t, "low_volume", nodes[2].Kind)
}

func TestBandLevelsWindowAndDedup(t *testing.T) {
	price := 1.085
	reads := []TimeframeRead{
		{Timeframe: "5m", VWAP: 1.085},
		{Timeframe: "15m", VWAP: 1.0851},
	}
	levels := bandLevels(reads, price)
	assert.NotEmpty(t, levels)
	for i, lv := range levels {
		assert.GreaterOrEqual(t, lv, price*0.95)
		assert.LessOrEqual(t, lv, price*1.05)
		if i > 0 {
			assert.GreaterOrEqual(t, lv-levels[i-1], price*0.001)
		}
	}
}

func TestAnalyzeNilSnapshotNeutral(t *testing.T) {
	res := Analyze(nil)
	assert.Equal(t, PositionAt, res.Overall)
	assert.Equal(t, SignalNeutral, res.SignalType)
	assert.Equal(t, DistributionNormal, res.Distribution)
}
