package ensemble

import (
	"math"

	"tradewind/internal/analysis/forecast"
	"tradewind/internal/analysis/indicator"
)

// Factor weights for the confidence score. They sum to 1.
var confidenceWeights = map[string]float64{
	"technical_alignment":        0.25,
	"multi_timeframe_confluence": 0.20,
	"volume_confirmation":        0.10,
	"market_conditions":          0.15,
	"historical_performance":     0.10,
	"risk_adjustment":            0.10,
	"momentum_strength":          0.05,
	"volatility_filter":          0.05,
}

// ConfidenceInputs feeds the factor calculations. Sets is ordered fastest
// timeframe first. WinRate of zero means no history and scores neutral.
type ConfidenceInputs struct {
	Direction     Direction
	Sets          []indicator.Set
	TrendStrength float64
	Regime        forecast.Regime
	WinRate       float64
	Floor         int
	Ceiling       int
}

// ConfidenceBreakdown is the graded score with its per-factor components,
// each in [0,100].
type ConfidenceBreakdown struct {
	Factors    map[string]float64 `json:"factors"`
	Score      float64            `json:"score"`
	Grade      string             `json:"grade"`
	Confidence int                `json:"confidence"`
}

// ScoreConfidence blends the eight factors into a weighted score, applies
// the regime and trend adjustments, grades it and clamps the final value to
// the configured band.
func ScoreConfidence(in ConfidenceInputs) ConfidenceBreakdown {
	factors := map[string]float64{
		"technical_alignment":        technicalAlignment(in.Sets, in.Direction),
		"multi_timeframe_confluence": timeframeConfluence(in.Sets, in.Direction),
		"volume_confirmation":        volumeConfirmation(in.Sets),
		"market_conditions":          marketConditions(in.Regime, in.TrendStrength),
		"historical_performance":     historicalPerformance(in.WinRate),
		"risk_adjustment":            riskAdjustment(in.Regime, in.TrendStrength),
		"momentum_strength":          momentumStrength(in.Sets, in.Direction),
		"volatility_filter":          volatilityFilter(in.Regime),
	}

	var score, totalWeight float64
	for name, value := range factors {
		weight := confidenceWeights[name]
		score += value * weight
		totalWeight += weight
	}
	if totalWeight > 0 {
		score /= totalWeight
	}

	if in.Regime == forecast.RegimeExtreme {
		score *= 0.7
	}
	if math.Abs(in.TrendStrength) >= 0.7 {
		score *= 1.1
	}
	score = math.Min(100, score)

	floor, ceiling := in.Floor, in.Ceiling
	if ceiling <= 0 {
		ceiling = 95
	}
	if floor < 0 {
		floor = 0
	}
	confidence := int(math.Round(score))
	if confidence < floor {
		confidence = floor
	}
	if confidence > ceiling {
		confidence = ceiling
	}

	return ConfidenceBreakdown{
		Factors:    factors,
		Score:      score,
		Grade:      gradeFor(score),
		Confidence: confidence,
	}
}

func gradeFor(score float64) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 85:
		return "A"
	case score >= 80:
		return "B+"
	case score >= 75:
		return "B"
	case score >= 60:
		return "C"
	case score >= 45:
		return "D"
	default:
		return "F"
	}
}

// technicalAlignment counts RSI, MACD and moving-average agreement with the
// chosen direction across all timeframes, normalized to [0,100].
func technicalAlignment(sets []indicator.Set, direction Direction) float64 {
	if len(sets) == 0 {
		return 50
	}
	long := direction == DirectionLong

	var score, totalWeight float64

	const rsiWeight = 3.0
	for _, s := range sets {
		if long {
			switch {
			case s.RSI < 40:
				score += 10 * rsiWeight
			case s.RSI > 50 && s.RSI < 70:
				score += 5 * rsiWeight
			}
		} else {
			switch {
			case s.RSI > 60:
				score += 10 * rsiWeight
			case s.RSI < 50 && s.RSI > 30:
				score += 5 * rsiWeight
			}
		}
	}
	totalWeight += 10 * rsiWeight * float64(len(sets))

	const macdWeight = 4.0
	for _, s := range sets {
		if (long && s.MACD.Line > 0) || (!long && s.MACD.Line < 0) {
			score += 15 * macdWeight
		}
	}
	totalWeight += 15 * macdWeight * float64(len(sets))

	const maWeight = 2.0
	for _, s := range sets {
		if s.SMA50 == 0 {
			continue
		}
		gap := (s.SMA20 - s.SMA50) / s.SMA50
		if long {
			if gap > 0.0005 {
				score += 20 * maWeight
			} else if gap > 0 {
				score += 10 * maWeight
			}
		} else {
			if gap < -0.0005 {
				score += 20 * maWeight
			} else if gap < 0 {
				score += 10 * maWeight
			}
		}
	}
	totalWeight += 20 * maWeight * float64(len(sets))

	return math.Min(100, score/totalWeight*100)
}

// timeframeConfluence is the fraction of timeframes whose rate of change
// points the same way as the decision.
func timeframeConfluence(sets []indicator.Set, direction Direction) float64 {
	if len(sets) == 0 {
		return 50
	}
	long := direction == DirectionLong
	agree := 0
	for _, s := range sets {
		if (long && s.ROC > 0) || (!long && s.ROC < 0) {
			agree++
		}
	}
	return float64(agree) / float64(len(sets)) * 100
}

// volumeConfirmation proxies volume support by momentum agreement with the
// fastest timeframe.
func volumeConfirmation(sets []indicator.Set) float64 {
	if len(sets) == 0 {
		return 50
	}
	lead := sets[0].ROC
	agree := 0
	for _, s := range sets {
		if sign(s.ROC) == sign(lead) {
			agree++
		}
	}
	return float64(agree) / float64(len(sets)) * 100
}

func marketConditions(regime forecast.Regime, trendStrength float64) float64 {
	score := 60.0
	switch regime {
	case forecast.RegimeNormal:
		score += 10
	case forecast.RegimeLow:
		score -= 5
	case forecast.RegimeHigh:
		score -= 10
	case forecast.RegimeExtreme:
		score -= 25
	}
	score += math.Abs(trendStrength) * 20
	return clamp100(score)
}

func historicalPerformance(winRate float64) float64 {
	if winRate <= 0 {
		return 60
	}
	switch {
	case winRate > 0.7:
		return 90
	case winRate > 0.6:
		return 80
	case winRate > 0.5:
		return 70
	case winRate > 0.4:
		return 60
	case winRate > 0.3:
		return 50
	default:
		return 30
	}
}

func riskAdjustment(regime forecast.Regime, trendStrength float64) float64 {
	score := 70.0
	switch regime {
	case forecast.RegimeLow:
		score += 15
	case forecast.RegimeNormal:
		score += 10
	case forecast.RegimeHigh:
		score -= 10
	case forecast.RegimeExtreme:
		score -= 30
	}
	abs := math.Abs(trendStrength)
	switch {
	case abs >= 0.7:
		score += 15
	case abs >= 0.3:
		score += 5
	default:
		score -= 10
	}
	return clamp100(score)
}

// momentumStrength rewards rate-of-change alignment on the two fastest
// timeframes, acceleration on the fastest, and MACD agreement.
func momentumStrength(sets []indicator.Set, direction Direction) float64 {
	if len(sets) == 0 {
		return 50
	}
	fast := sets[0]
	mid := fast
	if len(sets) > 1 {
		mid = sets[1]
	}
	long := direction == DirectionLong

	score := 0.0
	fastAligned := (long && fast.ROC > 0) || (!long && fast.ROC < 0)
	midAligned := (long && mid.ROC > 0) || (!long && mid.ROC < 0)
	switch {
	case fastAligned && midAligned:
		score += 40
	case fastAligned || midAligned:
		score += 20
	}
	if fastAligned && ((long && fast.ROC > mid.ROC) || (!long && fast.ROC < mid.ROC)) {
		score += 20
	}
	if (long && fast.MACD.Line > 0) || (!long && fast.MACD.Line < 0) {
		score += 20
	}
	return math.Min(100, score)
}

func volatilityFilter(regime forecast.Regime) float64 {
	switch regime {
	case forecast.RegimeNormal:
		return 90
	case forecast.RegimeLow:
		return 70
	case forecast.RegimeHigh:
		return 60
	case forecast.RegimeExtreme:
		return 20
	default:
		return 50
	}
}

func clamp100(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
