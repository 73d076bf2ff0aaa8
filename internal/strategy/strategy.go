// Package strategy holds the fixed trading-strategy profiles, the selector
// that matches a profile to current market conditions, and the price-target
// and position-sizing arithmetic.
package strategy

import (
	"math"
	"time"

	"tradewind/internal/analysis/indicator"
	"tradewind/internal/market"
)

type Kind string

const (
	Scalping Kind = "SCALPING"
	Intraday Kind = "INTRADAY"
	Swing    Kind = "SWING"
)

// Profile is an immutable strategy configuration. Profiles are static
// process-wide state, defined once below.
type Profile struct {
	Kind                  Kind
	Name                  string
	Timeframes            []string
	RiskReward            float64
	StopLossMultiplier    float64
	TakeProfitMultiplier  float64
	MaxHolding            time.Duration
	MinConfidence         int
	MaxLotSize            float64
	VolatilityThreshold   float64
	TrendStrengthRequired float64
	MarketConditions      []string
}

var profiles = map[Kind]Profile{
	Scalping: {
		Kind:                  Scalping,
		Name:                  "Scalping",
		Timeframes:            []string{"1m", "5m"},
		RiskReward:            1.5,
		StopLossMultiplier:    0.8,
		TakeProfitMultiplier:  1.2,
		MaxHolding:            15 * time.Minute,
		MinConfidence:         90,
		MaxLotSize:            0.5,
		VolatilityThreshold:   0.002,
		TrendStrengthRequired: 0.7,
		MarketConditions:      []string{"HIGH_VOLUME", "TRENDING", "LOW_SPREAD"},
	},
	Intraday: {
		Kind:                  Intraday,
		Name:                  "Intraday",
		Timeframes:            []string{"5m", "15m", "30m"},
		RiskReward:            2.0,
		StopLossMultiplier:    1.0,
		TakeProfitMultiplier:  2.0,
		MaxHolding:            8 * time.Hour,
		MinConfidence:         80,
		MaxLotSize:            1.0,
		VolatilityThreshold:   0.005,
		TrendStrengthRequired: 0.5,
		MarketConditions:      []string{"NORMAL_VOLUME", "TRENDING", "BREAKOUT"},
	},
	Swing: {
		Kind:                  Swing,
		Name:                  "Swing Trading",
		Timeframes:            []string{"30m", "1h", "4h"},
		RiskReward:            3.0,
		StopLossMultiplier:    1.5,
		TakeProfitMultiplier:  4.5,
		MaxHolding:            168 * time.Hour,
		MinConfidence:         75,
		MaxLotSize:            2.0,
		VolatilityThreshold:   0.01,
		TrendStrengthRequired: 0.3,
		MarketConditions:      []string{"ANY_VOLUME", "REVERSAL", "CONSOLIDATION"},
	},
}

// selectionOrder fixes the scoring iteration so ties keep the INTRADAY
// default: a candidate must strictly beat the incumbent.
var selectionOrder = []Kind{Scalping, Intraday, Swing}

func ProfileFor(kind Kind) (Profile, bool) {
	p, ok := profiles[kind]
	return p, ok
}

// Conditions summarizes the market state the selector scores against.
type Conditions struct {
	Volatility    float64
	TrendStrength float64
	Confidence    int
}

// Select returns the profile for the current conditions. A preferred kind
// is honored only when it qualifies; otherwise all profiles are scored and
// the best wins, with INTRADAY as the tie default.
func Select(preferred Kind, cond Conditions) Profile {
	if preferred != "" {
		if p, ok := profiles[preferred]; ok && isValid(p, cond) {
			return p
		}
	}

	best := profiles[Intraday]
	bestScore := score(best, cond)
	for _, kind := range selectionOrder {
		p := profiles[kind]
		if s := score(p, cond); s > bestScore {
			best, bestScore = p, s
		}
	}
	return best
}

// isValid gates a caller preference: confidence must clear the profile
// minimum, volatility must stay within twice the threshold, and the trend
// must carry at least 80% of the required strength.
func isValid(p Profile, cond Conditions) bool {
	return cond.Confidence >= p.MinConfidence &&
		cond.Volatility <= p.VolatilityThreshold*2 &&
		cond.TrendStrength >= p.TrendStrengthRequired*0.8
}

// score rates a profile 0-100: confidence fit up to 40 points, volatility
// fit up to 30, trend fit up to 30.
func score(p Profile, cond Conditions) float64 {
	var s float64

	if cond.Confidence >= p.MinConfidence {
		fit := float64(cond.Confidence-p.MinConfidence) / float64(100-p.MinConfidence) * 40
		s += math.Min(40, fit)
	}

	volFit := 1 - math.Abs(cond.Volatility-p.VolatilityThreshold)/p.VolatilityThreshold
	s += math.Max(0, volFit*30)

	if cond.TrendStrength >= p.TrendStrengthRequired {
		fit := (cond.TrendStrength - p.TrendStrengthRequired) / (1 - p.TrendStrengthRequired) * 30
		s += math.Min(30, fit)
	}
	return s
}

// MarketVolatility averages ATR relative to price across all timeframes.
func MarketVolatility(snap *market.Snapshot) float64 {
	if snap == nil {
		return 0
	}
	var sum float64
	var n int
	for _, tf := range snap.Timeframes() {
		frame, ok := snap.Frame(tf)
		if !ok {
			continue
		}
		last, ok := frame.Last()
		if !ok || last.Close == 0 {
			continue
		}
		set := indicator.Compute(frame)
		sum += set.ATR / last.Close
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// TrendStrength measures cross-timeframe close alignment: when the last
// closes are monotonic from fastest to slowest the strength is the total
// move relative to the average price, otherwise zero.
func TrendStrength(snap *market.Snapshot) float64 {
	if snap == nil {
		return 0
	}
	var closes []float64
	for _, tf := range snap.Timeframes() {
		frame, ok := snap.Frame(tf)
		if !ok {
			continue
		}
		if last, ok := frame.Last(); ok {
			closes = append(closes, last.Close)
		}
	}
	if len(closes) < 2 {
		return 0
	}

	up, down := true, true
	var sum float64
	for i, c := range closes {
		sum += c
		if i == 0 {
			continue
		}
		if c < closes[i-1] {
			up = false
		}
		if c > closes[i-1] {
			down = false
		}
	}
	if !up && !down {
		return 0
	}
	avg := sum / float64(len(closes))
	if avg == 0 {
		return 0
	}
	move := math.Abs(closes[0] - closes[len(closes)-1])
	return math.Min(1, move/avg*100)
}
