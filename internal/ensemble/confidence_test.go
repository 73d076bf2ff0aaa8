package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradewind/internal/analysis/forecast"
	"tradewind/internal/analysis/indicator"
)

func alignedLongSets() []indicator.Set {
	return []indicator.Set{
		{RSI: 62, MACD: indicator.MACD{Line: 5}, ROC: 1.2, SMA20: 101, SMA50: 100},
		{RSI: 58, MACD: indicator.MACD{Line: 3}, ROC: 0.8, SMA20: 100.5, SMA50: 100},
		{RSI: 55, MACD: indicator.MACD{Line: 2}, ROC: 0.4, SMA20: 100.2, SMA50: 100},
	}
}

func TestScoreConfidenceAlignedLong(t *testing.T) {
	b := ScoreConfidence(ConfidenceInputs{
		Direction:     DirectionLong,
		Sets:          alignedLongSets(),
		TrendStrength: 0.8,
		Regime:        forecast.RegimeNormal,
		WinRate:       0.74,
		Floor:         70,
		Ceiling:       95,
	})

	assert.GreaterOrEqual(t, b.Confidence, 70)
	assert.LessOrEqual(t, b.Confidence, 95)
	assert.Len(t, b.Factors, 8)
	assert.Equal(t, 100.0, b.Factors["multi_timeframe_confluence"])
	assert.Equal(t, 90.0, b.Factors["volatility_filter"])
	assert.Equal(t, 90.0, b.Factors["historical_performance"])
	assert.Equal(t, 80.0, b.Factors["momentum_strength"])
}

func TestScoreConfidenceBandClamp(t *testing.T) {
	// Everything misaligned still lands on the configured floor.
	b := ScoreConfidence(ConfidenceInputs{
		Direction:     DirectionLong,
		Sets:          []indicator.Set{{RSI: 80, MACD: indicator.MACD{Line: -3}, ROC: -2, SMA20: 99, SMA50: 100}},
		TrendStrength: 0,
		Regime:        forecast.RegimeExtreme,
		Floor:         70,
		Ceiling:       95,
	})
	assert.Equal(t, 70, b.Confidence)
	assert.Less(t, b.Score, 70.0)
}

func TestScoreConfidenceExtremeRegimePenalty(t *testing.T) {
	in := ConfidenceInputs{
		Direction:     DirectionLong,
		Sets:          alignedLongSets(),
		TrendStrength: 0.5,
		WinRate:       0.74,
		Regime:        forecast.RegimeNormal,
		Ceiling:       100,
	}
	normal := ScoreConfidence(in)

	in.Regime = forecast.RegimeExtreme
	extreme := ScoreConfidence(in)

	assert.Less(t, extreme.Score, normal.Score)
	assert.Equal(t, 20.0, extreme.Factors["volatility_filter"])
}

func TestScoreConfidenceStrongTrendBoost(t *testing.T) {
	in := ConfidenceInputs{
		Direction:     DirectionLong,
		Sets:          alignedLongSets(),
		TrendStrength: 0.3,
		Regime:        forecast.RegimeNormal,
		Ceiling:       100,
	}
	weak := ScoreConfidence(in)

	in.TrendStrength = 0.9
	strong := ScoreConfidence(in)

	assert.Greater(t, strong.Score, weak.Score)
}

func TestScoreConfidenceNoHistoryNeutral(t *testing.T) {
	b := ScoreConfidence(ConfidenceInputs{
		Direction: DirectionLong,
		Sets:      alignedLongSets(),
		Regime:    forecast.RegimeNormal,
	})
	assert.Equal(t, 60.0, b.Factors["historical_performance"])
}

func TestGradeBands(t *testing.T) {
	assert.Equal(t, "A+", gradeFor(92))
	assert.Equal(t, "A", gradeFor(86))
	assert.Equal(t, "B+", gradeFor(81))
	assert.Equal(t, "B", gradeFor(76))
	assert.Equal(t, "C", gradeFor(65))
	assert.Equal(t, "D", gradeFor(50))
	assert.Equal(t, "F", gradeFor(30))
}

func TestScoreConfidenceEmptySetsNeutral(t *testing.T) {
	b := ScoreConfidence(ConfidenceInputs{Direction: DirectionShort, Floor: 70, Ceiling: 95})
	assert.GreaterOrEqual(t, b.Confidence, 70)
	assert.Equal(t, 50.0, b.Factors["technical_alignment"])
	assert.Equal(t, 50.0, b.Factors["multi_timeframe_confluence"])
}
