package smartmoney

import (
	"math"
	"sort"

	"tradewind/internal/config"
	"tradewind/internal/market"
)

type Flow string

const (
	FlowBuying  Flow = "BUYING"
	FlowSelling Flow = "SELLING"
	FlowNeutral Flow = "NEUTRAL"
)

type VolumePattern string

const (
	PatternAccumulation  VolumePattern = "ACCUMULATION"
	PatternDistribution  VolumePattern = "DISTRIBUTION"
	PatternConsolidation VolumePattern = "CONSOLIDATION"
)

type OrderFlow string

const (
	OrderFlowBullish OrderFlow = "BULLISH"
	OrderFlowBearish OrderFlow = "BEARISH"
	OrderFlowNeutral OrderFlow = "NEUTRAL"
)

// LiquidityLevel is one ranked price level attracting resting orders.
type LiquidityLevel struct {
	Price  float64 `json:"price"`
	Kind   string  `json:"kind"`
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
}

type Result struct {
	InstitutionalFlow Flow             `json:"institutional_flow"`
	FlowStrength      float64          `json:"flow_strength"`
	VolumePattern     VolumePattern    `json:"volume_pattern"`
	OrderFlow         OrderFlow        `json:"order_flow"`
	LiquidityLevels   []LiquidityLevel `json:"liquidity_levels"`
}

const maxLiquidityLevels = 8

// Analyze classifies institutional participation from volume and price
// co-movement. Degenerate input yields the neutral result.
func Analyze(snap *market.Snapshot, prof config.SymbolProfile) Result {
	res := Result{
		InstitutionalFlow: FlowNeutral,
		VolumePattern:     PatternConsolidation,
		OrderFlow:         OrderFlowNeutral,
	}
	if snap == nil || !snap.Usable() {
		return res
	}
	tfs := snap.Timeframes()
	fast := snap.Frames[tfs[0]]

	res.InstitutionalFlow, res.FlowStrength = classifyFlow(fast, prof)
	res.VolumePattern = classifyVolumePattern(fast)
	res.OrderFlow = classifyOrderFlow(fast, prof)
	res.LiquidityLevels = liquidityLevels(snap, prof)
	return res
}

// classifyFlow compares price deviation from VWAP against a 0.3% band,
// requiring the last bar to carry symbol-significant volume.
func classifyFlow(frame market.Frame, prof config.SymbolProfile) (Flow, float64) {
	if len(frame.Bars) == 0 {
		return FlowNeutral, 0
	}
	vwap := frame.VWAP()
	avgVol := frame.AvgVolume()
	last := frame.Bars[len(frame.Bars)-1]
	if vwap <= 0 || avgVol <= 0 {
		return FlowNeutral, 0
	}
	threshold := prof.VolumeSignificance
	if threshold <= 0 {
		threshold = 1.2
	}
	if last.Volume < avgVol*threshold {
		return FlowNeutral, 0
	}
	deviation := (last.Close - vwap) / vwap
	strength := math.Min(1, math.Abs(deviation)*100+0.3)
	switch {
	case deviation > 0.003:
		return FlowBuying, strength
	case deviation < -0.003:
		return FlowSelling, strength
	default:
		return FlowNeutral, 0
	}
}

// classifyVolumePattern scores per-bar price/volume co-movement. Rising
// volume into rising price accumulates, rising volume into falling price
// distributes, everything else is consolidation.
func classifyVolumePattern(frame market.Frame) VolumePattern {
	bars := frame.Bars
	if len(bars) < 3 {
		return PatternConsolidation
	}
	avgVol := frame.AvgVolume()
	if avgVol <= 0 {
		return PatternConsolidation
	}
	var accumulation, distribution float64
	for i := 1; i < len(bars); i++ {
		priceDelta := bars[i].Close - bars[i-1].Close
		volDelta := bars[i].Volume - bars[i-1].Volume
		if volDelta <= 0 {
			continue
		}
		weight := bars[i].Volume / avgVol
		switch {
		case priceDelta > 0:
			accumulation += weight
		case priceDelta < 0:
			distribution += weight
		}
	}
	switch {
	case accumulation > distribution:
		return PatternAccumulation
	case distribution > accumulation:
		return PatternDistribution
	default:
		return PatternConsolidation
	}
}

// classifyOrderFlow takes the fraction of significant-volume bars that closed
// up. Above 0.65 reads bullish, below 0.35 bearish.
func classifyOrderFlow(frame market.Frame, prof config.SymbolProfile) OrderFlow {
	bars := frame.Bars
	avgVol := frame.AvgVolume()
	if len(bars) == 0 || avgVol <= 0 {
		return OrderFlowNeutral
	}
	threshold := prof.VolumeSignificance
	if threshold <= 0 {
		threshold = 1.2
	}
	var up, down int
	for _, b := range bars {
		if b.Volume < avgVol*threshold {
			continue
		}
		switch {
		case b.Close > b.Open:
			up++
		case b.Close < b.Open:
			down++
		}
	}
	total := up + down
	if total == 0 {
		return OrderFlowNeutral
	}
	ratio := float64(up) / float64(total)
	switch {
	case ratio > 0.65:
		return OrderFlowBullish
	case ratio < 0.35:
		return OrderFlowBearish
	default:
		return OrderFlowNeutral
	}
}

var liquidityFib = []float64{0.236, 0.382, 0.5, 0.618, 0.786}

// liquidityLevels ranks candidate levels by weight discounted with distance
// from the current price, keeping the top entries.
func liquidityLevels(snap *market.Snapshot, prof config.SymbolProfile) []LiquidityLevel {
	price := snap.LastPrice()
	if price <= 0 {
		return nil
	}
	var candidates []LiquidityLevel
	add := func(p float64, kind string, weight float64) {
		if p <= 0 {
			return
		}
		candidates = append(candidates, LiquidityLevel{Price: round5(p), Kind: kind, Weight: weight})
	}

	var maxHigh, minLow float64
	for _, tf := range snap.Timeframes() {
		frame := snap.Frames[tf]
		if len(frame.Bars) == 0 {
			continue
		}
		highs := frame.Highs()
		lows := frame.Lows()
		hi := maxOf(highs)
		lo := minOf(lows)
		add(hi, "prior_high", 0.8)
		add(lo, "prior_low", 0.8)
		add(frame.VWAP(), "vwap", 0.7)
		if maxHigh == 0 || hi > maxHigh {
			maxHigh = hi
		}
		if minLow == 0 || lo < minLow {
			minLow = lo
		}
	}

	if maxHigh > minLow && minLow > 0 {
		span := maxHigh - minLow
		for _, ratio := range liquidityFib {
			add(maxHigh-span*ratio, "fibonacci", 0.5)
		}
	}

	minor, major := prof.PsychSpacing(price)
	add(math.Round(price/minor)*minor, "psychological", 0.6)
	add(math.Round(price/major)*major, "psychological", 0.7)

	for i := range candidates {
		dist := math.Abs(candidates[i].Price-price) / price
		candidates[i].Score = candidates[i].Weight / (1 + dist*10)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })

	tolerance := price * 0.001
	out := make([]LiquidityLevel, 0, maxLiquidityLevels)
	for _, c := range candidates {
		dup := false
		for _, kept := range out {
			if math.Abs(kept.Price-c.Price) < tolerance {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		out = append(out, c)
		if len(out) == maxLiquidityLevels {
			break
		}
	}
	return out
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

func round5(v float64) float64 {
	return math.Round(v*100000) / 100000
}
