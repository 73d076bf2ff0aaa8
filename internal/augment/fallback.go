package augment

import "math"

// HeuristicFallback votes across the full analyzer context. Positive votes
// favor LONG. Confidence grows with the vote margin, capped at 90.
func HeuristicFallback(s Summary) Result {
	var delta, totalWeight float64
	vote := func(v, weight float64) {
		delta += v * weight
		totalWeight += weight
	}

	// Price momentum.
	vote(signOf(s.Momentum), 3)
	// Volume confirmation rides the momentum direction.
	if s.VolumeConfirmed {
		vote(signOf(s.Momentum), 2)
	} else {
		totalWeight += 2
	}
	// RSI extremes vote mean-reversion.
	switch {
	case s.RSI < 30:
		vote(1, 2)
	case s.RSI > 70:
		vote(-1, 2)
	default:
		totalWeight += 2
	}
	vote(signOf(s.MACD), 1)

	// Already-computed category reads.
	vote(trendVote(s.Trend), 2)
	vote(structureVote(s.Structure), 1)
	vote(flowVote(s.InstitutionalFlow), 2)
	vote(patternVote(s.VolumePattern), 1)
	vote(orderFlowVote(s.OrderFlow), 1)

	direction := DirectionLong
	if delta < 0 {
		direction = DirectionShort
	}
	confidence := 70
	if totalWeight > 0 {
		confidence = int(math.Min(90, 70+(math.Abs(delta)/totalWeight)*20))
	}
	return Result{
		Direction:  direction,
		Confidence: clampConfidence(confidence),
		Provenance: ProvenanceFallbackHeuristic,
	}
}

// BasicFallback votes on momentum, volume/candle direction and RSI extremes
// only. Used when no analyzer context is available.
func BasicFallback(s Summary) Result {
	var strength float64
	var delta float64

	if s.Momentum != 0 {
		delta += signOf(s.Momentum)
		strength++
	}
	if s.VolumeConfirmed {
		delta += signOf(s.Momentum)
		strength++
	}
	switch {
	case s.RSI < 30:
		delta++
		strength++
	case s.RSI > 70:
		delta--
		strength++
	}

	direction := DirectionLong
	if delta < 0 {
		direction = DirectionShort
	}
	return Result{
		Direction:  direction,
		Confidence: clampConfidence(int(math.Min(90, 70+strength*5))),
		Provenance: ProvenanceFallbackBasic,
	}
}

func signOf(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func trendVote(trend string) float64 {
	switch trend {
	case "UPTREND":
		return 1
	case "DOWNTREND":
		return -1
	default:
		return 0
	}
}

func structureVote(structure string) float64 {
	switch structure {
	case "BULLISH":
		return 1
	case "BEARISH":
		return -1
	default:
		return 0
	}
}

func flowVote(flow string) float64 {
	switch flow {
	case "BUYING":
		return 1
	case "SELLING":
		return -1
	default:
		return 0
	}
}

func patternVote(pattern string) float64 {
	switch pattern {
	case "ACCUMULATION":
		return 1
	case "DISTRIBUTION":
		return -1
	default:
		return 0
	}
}

func orderFlowVote(flow string) float64 {
	switch flow {
	case "BULLISH":
		return 1
	case "BEARISH":
		return -1
	default:
		return 0
	}
}
