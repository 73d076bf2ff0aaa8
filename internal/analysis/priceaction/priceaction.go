package priceaction

import (
	"math"
	"sort"

	"tradewind/internal/config"
	"tradewind/internal/market"
)

type Trend string

const (
	TrendUp       Trend = "UPTREND"
	TrendDown     Trend = "DOWNTREND"
	TrendSideways Trend = "SIDEWAYS"
)

type Structure string

const (
	StructureBullish Structure = "BULLISH"
	StructureBearish Structure = "BEARISH"
	StructureNeutral Structure = "NEUTRAL"
)

// Result is the structure read for one snapshot.
type Result struct {
	Trend               Trend     `json:"trend"`
	TrendStrength       float64   `json:"trend_strength"`
	Structure           Structure `json:"structure"`
	KeyLevels           []float64 `json:"key_levels"`
	BreakoutProbability float64   `json:"breakout_probability"`
}

const swingLookback = 10

// Analyze derives trend, structure, key levels and breakout probability from
// the snapshot. Degenerate input yields a neutral result, never an error.
func Analyze(snap *market.Snapshot, prof config.SymbolProfile) Result {
	res := Result{
		Trend:               TrendSideways,
		Structure:           StructureNeutral,
		BreakoutProbability: 30,
	}
	if snap == nil || !snap.Usable() {
		res.BreakoutProbability = 20
		return res
	}

	strength := TrendScore(snap)
	res.TrendStrength = strength
	switch {
	case strength >= 0.3:
		res.Trend = TrendUp
	case strength <= -0.3:
		res.Trend = TrendDown
	}

	frame := widestFrame(snap)
	res.Structure = classifyStructure(frame, snap.LastPrice())
	res.KeyLevels = KeyLevels(frame, snap.LastPrice())
	res.BreakoutProbability = breakoutProbability(frame, prof)
	return res
}

// TrendScore returns the momentum-and-volume trend score in [-1,1]: the
// consistent-direction ratio of per-timeframe returns, nudged 0.2 toward the
// move when the fastest timeframe carries outsized volume.
func TrendScore(snap *market.Snapshot) float64 {
	tfs := snap.Timeframes()
	if len(tfs) == 0 {
		return 0
	}
	var up, down int
	var retSum float64
	for _, tf := range tfs {
		frame := snap.Frames[tf]
		closes := frame.Closes()
		if len(closes) < 2 {
			continue
		}
		first, last := closes[0], closes[len(closes)-1]
		if first == 0 {
			continue
		}
		ret := (last - first) / first
		retSum += ret
		switch {
		case ret > 0:
			up++
		case ret < 0:
			down++
		}
	}
	total := up + down
	if total == 0 {
		return 0
	}
	score := float64(up-down) / float64(total)

	// Volume confirmation on the fastest timeframe.
	fast := snap.Frames[tfs[0]]
	if len(fast.Bars) > 0 {
		avg := fast.AvgVolume()
		lastVol := fast.Bars[len(fast.Bars)-1].Volume
		if avg > 0 && lastVol > avg*1.2 {
			if retSum > 0 {
				score += 0.2
			} else if retSum < 0 {
				score -= 0.2
			}
		}
	}
	return clamp(score, -1, 1)
}

func classifyStructure(frame market.Frame, price float64) Structure {
	highs := frame.Highs()
	lows := frame.Lows()
	if len(highs) < swingLookback || price <= 0 {
		return StructureNeutral
	}
	recentHigh := maxOf(highs[len(highs)-swingLookback:])
	recentLow := minOf(lows[len(lows)-swingLookback:])
	switch {
	case price > recentHigh*0.999:
		return StructureBullish
	case price < recentLow*1.001:
		return StructureBearish
	default:
		return StructureNeutral
	}
}

var fibRatios = []float64{0.236, 0.382, 0.5, 0.618, 0.786}

// KeyLevels merges swing extremes, Fibonacci retracements and the frame VWAP,
// deduplicated and rounded to 5 decimals, sorted ascending.
func KeyLevels(frame market.Frame, price float64) []float64 {
	highs := frame.Highs()
	lows := frame.Lows()
	if len(highs) == 0 || len(lows) == 0 {
		return nil
	}
	look := swingLookback
	if len(highs) < look {
		look = len(highs)
	}
	maxHigh := maxOf(highs[len(highs)-look:])
	minLow := minOf(lows[len(lows)-look:])

	levels := []float64{maxHigh, minLow, (maxHigh + minLow) / 2}
	span := maxHigh - minLow
	for _, ratio := range fibRatios {
		levels = append(levels, maxHigh-span*ratio)
	}
	if vwap := frame.VWAP(); vwap > 0 {
		levels = append(levels, vwap)
	}

	return dedupLevels(levels, price)
}

func breakoutProbability(frame market.Frame, prof config.SymbolProfile) float64 {
	bars := frame.Bars
	if len(bars) < 2 {
		return 20
	}
	n := len(bars)
	last := bars[n-1]

	var rangeSum float64
	for _, b := range bars {
		rangeSum += b.High - b.Low
	}
	avgRange := rangeSum / float64(n)
	curRange := last.High - last.Low

	factor := 0.0
	if avgRange > 0 && curRange < avgRange*0.7 {
		factor += 0.25
	}
	if avg := frame.AvgVolume(); avg > 0 && last.Volume > avg*1.2 {
		factor += 0.3
	}
	// Time compression: recent ranges shrinking against the full window.
	if n >= 5 && avgRange > 0 {
		var recent float64
		for _, b := range bars[n-5:] {
			recent += b.High - b.Low
		}
		if recent/5 < avgRange*0.5 {
			factor += 0.2
		}
	}
	// Volatility expectation for the symbol.
	if last.Close > 0 && prof.VolatilityMultiplier > 0 {
		expected := last.Close * 0.01 * prof.VolatilityMultiplier
		if expected > 0 {
			factor += 0.2 * math.Min(1, curRange/expected)
		}
	}

	return clamp(factor*100+30, 20, 95)
}

func dedupLevels(levels []float64, price float64) []float64 {
	tolerance := price * 0.001
	if tolerance <= 0 {
		tolerance = 1e-9
	}
	sort.Float64s(levels)
	out := make([]float64, 0, len(levels))
	for _, lv := range levels {
		if lv <= 0 {
			continue
		}
		lv = round5(lv)
		if len(out) > 0 && math.Abs(lv-out[len(out)-1]) < tolerance {
			continue
		}
		out = append(out, lv)
	}
	return out
}

func widestFrame(snap *market.Snapshot) market.Frame {
	tfs := snap.Timeframes()
	if len(tfs) == 0 {
		return market.Frame{}
	}
	return snap.Frames[tfs[len(tfs)-1]]
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round5(v float64) float64 {
	return math.Round(v*100000) / 100000
}
