package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradewind/internal/market"
)

func closeFrame(lastClose float64) market.Frame {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, 30)
	for i := range bars {
		c := lastClose * (1 - 0.0001*float64(len(bars)-1-i))
		bars[i] = market.Bar{
			OpenTime: start.Add(time.Duration(i) * 5 * time.Minute).UnixMilli(),
			Open:     c * 0.9998,
			High:     c * 1.0005,
			Low:      c * 0.9995,
			Close:    c,
			Volume:   1000,
		}
	}
	return market.Frame{Bars: bars}
}

func TestProfileFor(t *testing.T) {
	p, ok := ProfileFor(Scalping)
	require.True(t, ok)
	assert.Equal(t, 90, p.MinConfidence)
	assert.Equal(t, 1.5, p.RiskReward)
	assert.Equal(t, 15*time.Minute, p.MaxHolding)

	_, ok = ProfileFor(Kind("MARTINGALE"))
	assert.False(t, ok)
}

func TestSelectHonorsQualifiedPreference(t *testing.T) {
	cond := Conditions{Volatility: 0.002, TrendStrength: 0.7, Confidence: 92}
	p := Select(Scalping, cond)
	assert.Equal(t, Scalping, p.Kind)
}

func TestSelectRejectsUnderqualifiedPreference(t *testing.T) {
	// Confidence below the scalping minimum falls back to scoring.
	cond := Conditions{Volatility: 0.005, TrendStrength: 0.6, Confidence: 85}
	p := Select(Scalping, cond)
	assert.NotEqual(t, Scalping, p.Kind)
	assert.Equal(t, Intraday, p.Kind)
}

func TestSelectScalpingConditions(t *testing.T) {
	cond := Conditions{Volatility: 0.002, TrendStrength: 0.9, Confidence: 95}
	p := Select("", cond)
	assert.Equal(t, Scalping, p.Kind)
}

func TestSelectSwingConditions(t *testing.T) {
	cond := Conditions{Volatility: 0.01, TrendStrength: 0.35, Confidence: 76}
	p := Select("", cond)
	assert.Equal(t, Swing, p.Kind)
}

func TestSelectTieDefaultsIntraday(t *testing.T) {
	p := Select("", Conditions{})
	assert.Equal(t, Intraday, p.Kind)
}

func TestTrendStrengthMonotonicCloses(t *testing.T) {
	snap := market.NewSnapshot("EURUSD", map[string]market.Frame{
		"5m":  closeFrame(1.1000),
		"15m": closeFrame(1.1010),
		"30m": closeFrame(1.1020),
	})
	strength := TrendStrength(snap)
	assert.Greater(t, strength, 0.0)
	assert.LessOrEqual(t, strength, 1.0)
}

func TestTrendStrengthMixedClosesZero(t *testing.T) {
	snap := market.NewSnapshot("EURUSD", map[string]market.Frame{
		"5m":  closeFrame(1.1010),
		"15m": closeFrame(1.1000),
		"30m": closeFrame(1.1020),
	})
	assert.Zero(t, TrendStrength(snap))
}

func TestTrendStrengthNilSnapshot(t *testing.T) {
	assert.Zero(t, TrendStrength(nil))
	assert.Zero(t, MarketVolatility(nil))
}

func TestMarketVolatilityPositive(t *testing.T) {
	snap := market.NewSnapshot("EURUSD", map[string]market.Frame{
		"5m":  closeFrame(1.1000),
		"15m": closeFrame(1.1005),
		"30m": closeFrame(1.1010),
	})
	vol := MarketVolatility(snap)
	assert.Greater(t, vol, 0.0)
	assert.Less(t, vol, 0.05)
}
