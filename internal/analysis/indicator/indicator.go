package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"tradewind/internal/market"
)

// MACD holds the fast-signal variant used across the analyzers: the signal
// line tracks the MACD line itself, so the histogram stays at zero and the
// line's sign carries the momentum read.
type MACD struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

type Bollinger struct {
	Upper     float64 `json:"upper"`
	Middle    float64 `json:"middle"`
	Lower     float64 `json:"lower"`
	Bandwidth float64 `json:"bandwidth"`
	Squeeze   bool    `json:"squeeze"`
}

type Stochastic struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
}

// Set is the full indicator read for one timeframe.
type Set struct {
	RSI        float64    `json:"rsi"`
	MACD       MACD       `json:"macd"`
	Bollinger  Bollinger  `json:"bollinger"`
	Stochastic Stochastic `json:"stochastic"`
	ROC        float64    `json:"roc"`
	ATR        float64    `json:"atr"`
	SMA20      float64    `json:"sma20"`
	SMA50      float64    `json:"sma50"`
}

// Compute calculates the indicator set for one frame. Short histories get
// neutral values instead of errors so a thin timeframe never aborts a run.
func Compute(frame market.Frame) Set {
	closes := frame.Closes()
	highs := frame.Highs()
	lows := frame.Lows()

	return Set{
		RSI:        RSI(closes, 14),
		MACD:       ComputeMACD(closes),
		Bollinger:  ComputeBollinger(closes, 20, 2),
		Stochastic: ComputeStochastic(highs, lows, closes, 14),
		ROC:        ROC(closes, 12),
		ATR:        ATR(highs, lows, closes, 14),
		SMA20:      smaLast(closes, 20),
		SMA50:      smaLast(closes, 50),
	}
}

// ComputeAll runs Compute for every frame in the snapshot.
func ComputeAll(snap *market.Snapshot) map[string]Set {
	out := make(map[string]Set, len(snap.Frames))
	for tf, frame := range snap.Frames {
		out[tf] = Compute(frame)
	}
	return out
}

// RSI is Wilder-smoothed. Neutral 50 below period+1 samples, 100 when no
// losses occurred in the window.
func RSI(closes []float64, period int) float64 {
	if period <= 0 {
		period = 14
	}
	if len(closes) < period+1 {
		return 50
	}
	series := sanitizeSeries(talib.Rsi(closes, period))
	v := lastValid(series)
	if v == 0 && len(series) == 0 {
		return 50
	}
	return v
}

// ComputeMACD returns the 12/26 EMA difference with the signal pinned to the
// line. EMAs seed from the first sample rather than a warmup SMA.
func ComputeMACD(closes []float64) MACD {
	if len(closes) < 26 {
		return MACD{}
	}
	line := emaLast(closes, 12) - emaLast(closes, 26)
	line = round4(line)
	return MACD{Line: line, Signal: line, Histogram: 0}
}

// ComputeBollinger returns the period SMA band. With fewer samples than the
// period it degrades to a fixed two percent band around the last close.
func ComputeBollinger(closes []float64, period int, dev float64) Bollinger {
	if period <= 0 {
		period = 20
	}
	if dev <= 0 {
		dev = 2
	}
	if len(closes) == 0 {
		return Bollinger{Bandwidth: 0.04}
	}
	if len(closes) < period {
		c := closes[len(closes)-1]
		return Bollinger{
			Upper:     round4(c * 1.02),
			Middle:    round4(c),
			Lower:     round4(c * 0.98),
			Bandwidth: 0.04,
			Squeeze:   false,
		}
	}
	window := closes[len(closes)-period:]
	sma := mean(window)
	variance := 0.0
	for _, v := range window {
		d := v - sma
		variance += d * d
	}
	sigma := math.Sqrt(variance / float64(period))
	upper := sma + dev*sigma
	lower := sma - dev*sigma
	bandwidth := 0.0
	if sma != 0 {
		bandwidth = (upper - lower) / sma
	}
	return Bollinger{
		Upper:     round4(upper),
		Middle:    round4(sma),
		Lower:     round4(lower),
		Bandwidth: bandwidth,
		Squeeze:   bandwidth < 0.02,
	}
}

// ComputeStochastic is the raw %K over the lookback window with %D pinned to
// %K. Neutral 50/50 on thin history or a flat window.
func ComputeStochastic(highs, lows, closes []float64, period int) Stochastic {
	if period <= 0 {
		period = 14
	}
	if len(closes) < period || len(highs) < period || len(lows) < period {
		return Stochastic{K: 50, D: 50}
	}
	hh := highs[len(highs)-period]
	ll := lows[len(lows)-period]
	for i := len(highs) - period + 1; i < len(highs); i++ {
		if highs[i] > hh {
			hh = highs[i]
		}
	}
	for i := len(lows) - period + 1; i < len(lows); i++ {
		if lows[i] < ll {
			ll = lows[i]
		}
	}
	if hh == ll {
		return Stochastic{K: 50, D: 50}
	}
	c := closes[len(closes)-1]
	k := round4(((c - ll) / (hh - ll)) * 100)
	return Stochastic{K: k, D: k}
}

// ROC is the percent change against period bars back. Zero on thin history.
func ROC(closes []float64, period int) float64 {
	if period <= 0 {
		period = 12
	}
	if len(closes) < period+1 {
		return 0
	}
	series := sanitizeSeries(talib.Roc(closes, period))
	return lastValid(series)
}

// ATR averages the last up-to-14 true ranges. Single-bar histories fall back
// to the bar range.
func ATR(highs, lows, closes []float64, period int) float64 {
	if period <= 0 {
		period = 14
	}
	n := len(closes)
	if n == 0 || len(highs) != n || len(lows) != n {
		return 0
	}
	if n < 2 {
		return round4(highs[0] - lows[0])
	}
	trs := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		trs = append(trs, math.Max(hl, math.Max(hc, lc)))
	}
	if len(trs) > period {
		trs = trs[len(trs)-period:]
	}
	return round4(mean(trs))
}

func emaLast(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	multiplier := 2.0 / float64(period+1)
	ema := values[0]
	for _, v := range values[1:] {
		ema = (v-ema)*multiplier + ema
	}
	return ema
}

func smaLast(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(values) < period {
		return round4(mean(values))
	}
	return round4(mean(values[len(values)-period:]))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sanitizeSeries(src []float64) []float64 {
	out := make([]float64, 0, len(src))
	for _, v := range src {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, round4(v))
	}
	return out
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) && !math.IsInf(series[i], 0) {
			return series[i]
		}
	}
	return 0
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
