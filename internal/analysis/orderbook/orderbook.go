package orderbook

import (
	"math"
	"math/rand"
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

type Profile string

const (
	ProfileAccumulation Profile = "ACCUMULATION"
	ProfileDistribution Profile = "DISTRIBUTION"
	ProfileBalanced     Profile = "BALANCED"
)

type Basis string

const (
	BasisContango      Basis = "CONTANGO"
	BasisBackwardation Basis = "BACKWARDATION"
	BasisNeutral       Basis = "NEUTRAL"
)

// Zone is one liquidity cluster near the current price.
type Zone struct {
	Price  float64 `json:"price"`
	Weight float64 `json:"weight"`
	Kind   string  `json:"kind"`
}

// Result combines the synthetic book state with volume-derived reads. Depth,
// spread and futures metrics are simulated from the seed; the flow and
// profile classifications come from the snapshot itself.
type Result struct {
	Spread            float64 `json:"spread"`
	BidDepth          float64 `json:"bid_depth"`
	AskDepth          float64 `json:"ask_depth"`
	Imbalance         float64 `json:"imbalance"`
	ImpactPrice       float64 `json:"impact_price"`
	InstitutionalFlow Flow    `json:"institutional_flow"`
	FlowStrength      float64 `json:"flow_strength"`
	LargeOrders       bool    `json:"large_orders"`
	VolumeProfile     Profile `json:"volume_profile"`
	LiquidityZones    []Zone  `json:"liquidity_zones"`
	Rollover          float64 `json:"rollover"`
	OpenInterest      float64 `json:"open_interest"`
	FuturesBasis      Basis   `json:"futures_basis"`
}

// Analyze builds the microstructure read. The seed drives every synthetic
// quantity so equal seeds give equal results.
func Analyze(snap *market.Snapshot, prof config.SymbolProfile, seed int64) Result {
	res := Result{
		InstitutionalFlow: FlowNeutral,
		VolumeProfile:     ProfileBalanced,
		FuturesBasis:      BasisNeutral,
	}
	if snap == nil || !snap.Usable() {
		return res
	}
	price := snap.LastPrice()
	if price <= 0 {
		return res
	}
	rng := rand.New(rand.NewSource(seed))

	res.Spread = price * prof.BaseSpread * (0.8 + rng.Float64()*0.4)
	res.BidDepth = 50000 + rng.Float64()*100000
	res.AskDepth = 40000 + rng.Float64()*120000
	res.Imbalance = (res.BidDepth - res.AskDepth) / (res.BidDepth + res.AskDepth)
	res.ImpactPrice = price + res.Spread*sign(res.Imbalance)*math.Abs(res.Imbalance)

	res.InstitutionalFlow, res.FlowStrength, res.LargeOrders = classifyFlow(snap)
	res.VolumeProfile = classifyProfile(snap)
	res.LiquidityZones = liquidityZones(snap, prof, price)

	res.Rollover = -0.5 + rng.Float64()
	res.OpenInterest = 100000 + rng.Float64()*500000
	switch {
	case res.Rollover > 0.2:
		res.FuturesBasis = BasisContango
	case res.Rollover < -0.2:
		res.FuturesBasis = BasisBackwardation
	}
	return res
}

// classifyFlow compares the fastest timeframe against the next one up:
// price leading with above-average volume reads as institutional buying.
func classifyFlow(snap *market.Snapshot) (Flow, float64, bool) {
	tfs := snap.Timeframes()
	if len(tfs) < 2 {
		return FlowNeutral, 0, false
	}
	fast := snap.Frames[tfs[0]]
	slow := snap.Frames[tfs[1]]
	if fast.Empty() || slow.Empty() {
		return FlowNeutral, 0, false
	}
	fastClose := fast.Bars[len(fast.Bars)-1].Close
	slowClose := slow.Bars[len(slow.Bars)-1].Close
	fastVol := fast.Bars[len(fast.Bars)-1].Volume
	avgVol := fast.AvgVolume()
	if slowClose <= 0 || avgVol <= 0 {
		return FlowNeutral, 0, false
	}
	large := fastVol > avgVol*2
	delta := (fastClose - slowClose) / slowClose
	strength := math.Min(1, math.Abs(delta)*100+0.3)
	switch {
	case delta > 0 && fastVol > avgVol*1.2:
		return FlowBuying, strength, large
	case delta < 0 && fastVol > avgVol*1.2:
		return FlowSelling, strength, large
	default:
		return FlowNeutral, 0, large
	}
}

func classifyProfile(snap *market.Snapshot) Profile {
	tfs := snap.Timeframes()
	frame := snap.Frames[tfs[0]]
	bars := frame.Bars
	if len(bars) < 4 {
		return ProfileBalanced
	}
	half := len(bars) / 2
	var volA, volB, priceA, priceB float64
	for _, b := range bars[:half] {
		volA += b.Volume
		priceA += b.Close
	}
	for _, b := range bars[half:] {
		volB += b.Volume
		priceB += b.Close
	}
	volA /= float64(half)
	volB /= float64(len(bars) - half)
	priceA /= float64(half)
	priceB /= float64(len(bars) - half)
	if volA <= 0 || priceA <= 0 {
		return ProfileBalanced
	}
	volTrend := (volB - volA) / volA
	priceTrend := (priceB - priceA) / priceA
	switch {
	case volTrend > 0.1 && priceTrend > 0:
		return ProfileAccumulation
	case volTrend > 0.1 && priceTrend < 0:
		return ProfileDistribution
	default:
		return ProfileBalanced
	}
}

// liquidityZones collects window extremes and psychological levels within
// two percent of price, sorted by price.
func liquidityZones(snap *market.Snapshot, prof config.SymbolProfile, price float64) []Zone {
	var zones []Zone
	add := func(p, weight float64, kind string) {
		if p <= 0 || math.Abs(p-price)/price > 0.02 {
			return
		}
		zones = append(zones, Zone{Price: round5(p), Weight: weight, Kind: kind})
	}

	tfs := snap.Timeframes()
	weights := []float64{0.6, 0.8}
	for i, tf := range tfs {
		if i >= len(weights) {
			break
		}
		frame := snap.Frames[tf]
		if frame.Empty() {
			continue
		}
		highs := frame.Highs()
		lows := frame.Lows()
		add(maxOf(highs), weights[i], "window_high")
		add(minOf(lows), weights[i], "window_low")
	}
	add(price, 0.5, "current")

	minor, major := prof.PsychSpacing(price)
	add(math.Round(price/minor)*minor, 0.7, "psychological")
	add(math.Round(price/major)*major, 0.7, "psychological")

	sort.Slice(zones, func(i, j int) bool { return zones[i].Price < zones[j].Price })
	return zones
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

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func round5(v float64) float64 {
	return math.Round(v*100000) / 100000
}
