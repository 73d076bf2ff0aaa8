package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func constantSeries(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func risingSeries(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestRSIShortHistoryNeutral(t *testing.T) {
	assert.Equal(t, 50.0, RSI(risingSeries(100, 1, 10), 14))
}

func TestRSIAllGains(t *testing.T) {
	assert.InDelta(t, 100.0, RSI(risingSeries(100, 1, 30), 14), 1e-6)
}

func TestMACDSignalTracksLine(t *testing.T) {
	m := ComputeMACD(risingSeries(100, 0.5, 40))
	assert.Greater(t, m.Line, 0.0)
	assert.Equal(t, m.Line, m.Signal)
	assert.Equal(t, 0.0, m.Histogram)
}

func TestMACDShortHistoryZero(t *testing.T) {
	m := ComputeMACD(risingSeries(100, 1, 20))
	assert.Equal(t, MACD{}, m)
}

func TestBollingerFallbackBand(t *testing.T) {
	b := ComputeBollinger(constantSeries(200, 5), 20, 2)
	assert.InDelta(t, 204, b.Upper, 1e-9)
	assert.InDelta(t, 200, b.Middle, 1e-9)
	assert.InDelta(t, 196, b.Lower, 1e-9)
	assert.InDelta(t, 0.04, b.Bandwidth, 1e-9)
	assert.False(t, b.Squeeze)
}

func TestBollingerFlatSeriesSqueezes(t *testing.T) {
	b := ComputeBollinger(constantSeries(100, 30), 20, 2)
	assert.InDelta(t, 100, b.Middle, 1e-9)
	assert.InDelta(t, 0, b.Bandwidth, 1e-9)
	assert.True(t, b.Squeeze)
}

func TestStochasticRange(t *testing.T) {
	highs := risingSeries(101, 1, 20)
	lows := risingSeries(99, 1, 20)
	closes := risingSeries(100.5, 1, 20)
	s := ComputeStochastic(highs, lows, closes, 14)
	assert.Equal(t, s.K, s.D)
	assert.GreaterOrEqual(t, s.K, 0.0)
	assert.LessOrEqual(t, s.K, 100.0)
}

func TestStochasticFlatWindowNeutral(t *testing.T) {
	flat := constantSeries(100, 20)
	s := ComputeStochastic(flat, flat, flat, 14)
	assert.Equal(t, Stochastic{K: 50, D: 50}, s)
}

func TestROC(t *testing.T) {
	closes := risingSeries(100, 1, 20)
	// 12 bars back from 119 is 107.
	assert.InDelta(t, (119.0-107.0)/107.0*100, ROC(closes, 12), 0.01)
	assert.Equal(t, 0.0, ROC(risingSeries(100, 1, 10), 12))
}

func TestATRSingleBarFallback(t *testing.T) {
	assert.InDelta(t, 3, ATR([]float64{103}, []float64{100}, []float64{102}, 14), 1e-9)
}

func TestATRAveragesTrueRanges(t *testing.T) {
	highs := constantSeries(102, 20)
	lows := constantSeries(98, 20)
	closes := constantSeries(100, 20)
	assert.InDelta(t, 4, ATR(highs, lows, closes, 14), 1e-9)
}
