package optionsflow

import (
	"math"
	"math/rand"

	"tradewind/internal/config"
	"tradewind/internal/market"
)

type Impact string

const (
	ImpactHigh   Impact = "HIGH"
	ImpactMedium Impact = "MEDIUM"
	ImpactLow    Impact = "LOW"
)

type Flow string

const (
	FlowBuying  Flow = "BUYING"
	FlowSelling Flow = "SELLING"
	FlowNeutral Flow = "NEUTRAL"
)

// DeltaWall is a strike attracting hedging pressure.
type DeltaWall struct {
	Strike   float64 `json:"strike"`
	Strength float64 `json:"strength"`
}

type Result struct {
	ImpliedVolatility float64     `json:"implied_volatility"`
	GammaLevel        float64     `json:"gamma_level"`
	GammaDirection    float64     `json:"gamma_direction"`
	GammaImpact       Impact      `json:"gamma_impact"`
	DeltaWalls        []DeltaWall `json:"delta_walls"`
	NearestStrike     float64     `json:"nearest_strike"`
	PinProbability    float64     `json:"pin_probability"`
	PinRisk           Impact      `json:"pin_risk"`
	MarketMakerFlow   Flow        `json:"market_maker_flow"`
	FlowStrength      float64     `json:"flow_strength"`
	ExpectedVolatility float64    `json:"expected_volatility"`
}

const annualization = 252 * 24 * 12 // 5-minute bars per trading year

// Analyze derives the option-hedging pressure picture. The gamma level and
// wall strengths are synthesized from the seed; implied volatility comes
// from realized bar ranges.
func Analyze(snap *market.Snapshot, prof config.SymbolProfile, seed int64) Result {
	res := Result{
		ImpliedVolatility: 0.2,
		GammaImpact:       ImpactLow,
		PinRisk:           ImpactLow,
		MarketMakerFlow:   FlowNeutral,
	}
	if snap == nil || !snap.Usable() {
		return res
	}
	price := snap.LastPrice()
	if price <= 0 {
		return res
	}
	rng := rand.New(rand.NewSource(seed))

	res.ImpliedVolatility = impliedVolatility(snap)

	mult := prof.GammaMultiplier
	if mult <= 0 {
		mult = 1
	}
	res.GammaLevel = (rng.Float64() - 0.5) * 2 * mult
	if res.GammaLevel >= 0 {
		res.GammaDirection = 0.3
	} else {
		res.GammaDirection = -0.3
	}
	abs := math.Abs(res.GammaLevel)
	switch {
	case abs > 0.7:
		res.GammaImpact = ImpactHigh
	case abs > 0.4:
		res.GammaImpact = ImpactMedium
	}

	spacing := prof.StrikeStep(price)
	res.NearestStrike = math.Round(price/spacing) * spacing
	res.DeltaWalls = deltaWalls(price, res.NearestStrike, spacing, rng)

	strikeDist := math.Abs(price-res.NearestStrike) / price
	res.PinProbability = (1 - math.Min(1, strikeDist*20)) * (1 - math.Min(1, res.ImpliedVolatility*2))
	switch {
	case res.PinProbability > 0.7:
		res.PinRisk = ImpactHigh
	case res.PinProbability > 0.4:
		res.PinRisk = ImpactMedium
	}

	res.MarketMakerFlow, res.FlowStrength = makerFlow(snap, res.GammaLevel)
	res.ExpectedVolatility = res.ImpliedVolatility * (1 + abs*0.2)
	return res
}

// impliedVolatility annualizes the average absolute bar body across
// timeframes. Clamped to [0.05, 2.0], defaulting to 0.2 with no data.
func impliedVolatility(snap *market.Snapshot) float64 {
	var sum float64
	var n int
	for _, tf := range snap.Timeframes() {
		frame := snap.Frames[tf]
		if frame.Empty() {
			continue
		}
		last := frame.Bars[len(frame.Bars)-1]
		if last.Open <= 0 {
			continue
		}
		sum += math.Abs(last.Close-last.Open) / last.Open
		n++
	}
	if n == 0 {
		return 0.2
	}
	vol := (sum / float64(n)) * math.Sqrt(annualization)
	return clamp(vol, 0.05, 2.0)
}

// deltaWalls places candidate walls three strikes either side of the money,
// strength decaying with distance. Weak walls are discarded.
func deltaWalls(price, nearest, spacing float64, rng *rand.Rand) []DeltaWall {
	var walls []DeltaWall
	for i := -3; i <= 3; i++ {
		if i == 0 {
			continue
		}
		strike := nearest + float64(i)*spacing
		if strike <= 0 {
			continue
		}
		dist := math.Abs(strike-price) / price
		base := 1 - math.Min(0.8, dist*50)
		strength := base * (0.5 + rng.Float64()*0.5)
		if strength > 0.3 {
			walls = append(walls, DeltaWall{Strike: round5(strike), Strength: strength})
		}
	}
	return walls
}

// makerFlow reads hedging direction: positive gamma into a rising tape means
// dealers sell into strength, negative gamma into a falling tape means they
// buy weakness.
func makerFlow(snap *market.Snapshot, gammaLevel float64) (Flow, float64) {
	tfs := snap.Timeframes()
	fast := snap.Frames[tfs[0]]
	if len(fast.Bars) < 2 {
		return FlowNeutral, 0
	}
	last := fast.Bars[len(fast.Bars)-1]
	prev := fast.Bars[len(fast.Bars)-2]
	if prev.Close <= 0 {
		return FlowNeutral, 0
	}
	delta := (last.Close - prev.Close) / prev.Close
	strength := math.Abs(gammaLevel) * math.Min(1, last.Volume/50000)
	switch {
	case gammaLevel > 0 && delta > 0.001:
		return FlowSelling, strength
	case gammaLevel < 0 && delta < -0.001:
		return FlowBuying, strength
	default:
		return FlowNeutral, 0
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round5(v float64) float64 {
	return math.Round(v*100000) / 100000
}
