package forecast

import (
	"math"
	"math/rand"
	"sort"

	"tradewind/internal/config"
	"tradewind/internal/market"
)

type Regime string

const (
	RegimeLow     Regime = "LOW"
	RegimeNormal  Regime = "NORMAL"
	RegimeHigh    Regime = "HIGH"
	RegimeExtreme Regime = "EXTREME"
)

// Horizon is one point forecast with its confidence and bounds.
type Horizon struct {
	Label      string  `json:"label"`
	Scale      float64 `json:"scale"`
	Price      float64 `json:"price"`
	Confidence float64 `json:"confidence"`
	RangeLow   float64 `json:"range_low"`
	RangeHigh  float64 `json:"range_high"`
}

// Interval is a parametric confidence interval at one time horizon.
type Interval struct {
	Hours  float64 `json:"hours"`
	Low68  float64 `json:"low_68"`
	High68 float64 `json:"high_68"`
	Low95  float64 `json:"low_95"`
	High95 float64 `json:"high_95"`
	Low99  float64 `json:"low_99"`
	High99 float64 `json:"high_99"`
}

// Channel is the detected trend channel, if any.
type Channel struct {
	Direction string  `json:"direction"`
	Strength  float64 `json:"strength"`
	Upper     float64 `json:"upper"`
	Lower     float64 `json:"lower"`
}

type Result struct {
	Horizons   []Horizon  `json:"horizons"`
	Intervals  []Interval `json:"intervals"`
	Volatility float64    `json:"volatility"`
	Regime     Regime     `json:"regime"`
	FibTargets []float64  `json:"fib_targets"`
	Channel    *Channel   `json:"channel,omitempty"`
}

var horizonDefs = []struct {
	label string
	scale float64
	hours float64
}{
	{"1h", 1, 1},
	{"4h", 2, 4},
	{"1d", 4, 24},
	{"1w", 12, 168},
}

var fibRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1.0, 1.236, 1.618}

// Analyze projects the price over fixed horizons with a geometric random
// walk around the symbol drift. Equal seeds give equal projections.
func Analyze(snap *market.Snapshot, prof config.SymbolProfile, seed int64) Result {
	res := Result{Volatility: 0.02, Regime: RegimeNormal}
	if snap == nil || !snap.Usable() {
		return res
	}
	price := snap.LastPrice()
	if price <= 0 {
		return res
	}
	rng := rand.New(rand.NewSource(seed))

	vol := historicalVolatility(snap)
	res.Volatility = vol
	res.Regime = classifyRegime(vol)

	for _, def := range horizonDefs {
		diffusion := vol * math.Sqrt(def.scale)
		shock := (rng.Float64()*2 - 1) * 0.7
		logReturn := prof.Drift*def.scale + diffusion*shock
		res.Horizons = append(res.Horizons, Horizon{
			Label:      def.label,
			Scale:      def.scale,
			Price:      round5(price * math.Exp(logReturn)),
			Confidence: 0.8 * math.Exp(-def.scale*0.1),
			RangeLow:   round5(price * math.Exp(prof.Drift*def.scale-2*diffusion)),
			RangeHigh:  round5(price * math.Exp(prof.Drift*def.scale+2*diffusion)),
		})
	}

	for _, def := range horizonDefs {
		scaled := vol * math.Sqrt(def.hours/24)
		res.Intervals = append(res.Intervals, Interval{
			Hours:  def.hours,
			Low68:  round5(price * (1 - scaled)),
			High68: round5(price * (1 + scaled)),
			Low95:  round5(price * (1 - 2*scaled)),
			High95: round5(price * (1 + 2*scaled)),
			Low99:  round5(price * (1 - 3*scaled)),
			High99: round5(price * (1 + 3*scaled)),
		})
	}

	res.FibTargets = fibTargets(snap, price)
	res.Channel = trendChannel(snap)
	return res
}

// historicalVolatility is the dispersion of the per-timeframe open-to-close
// returns of the latest bars, defaulting to 0.02.
func historicalVolatility(snap *market.Snapshot) float64 {
	var returns []float64
	for _, tf := range snap.Timeframes() {
		frame := snap.Frames[tf]
		if frame.Empty() {
			continue
		}
		last := frame.Bars[len(frame.Bars)-1]
		if last.Open > 0 {
			returns = append(returns, (last.Close-last.Open)/last.Open)
		}
	}
	if len(returns) < 2 {
		return 0.02
	}
	m := mean(returns)
	var variance float64
	for _, r := range returns {
		d := r - m
		variance += d * d
	}
	v := math.Sqrt(variance / float64(len(returns)))
	if v == 0 {
		return 0.02
	}
	return v
}

func classifyRegime(vol float64) Regime {
	switch {
	case vol < 0.01:
		return RegimeLow
	case vol < 0.03:
		return RegimeNormal
	case vol < 0.06:
		return RegimeHigh
	default:
		return RegimeExtreme
	}
}

// fibTargets projects retracements and extensions from the widest frame's
// swing, keeping only levels within 20% of price.
func fibTargets(snap *market.Snapshot, price float64) []float64 {
	tfs := snap.Timeframes()
	frame := snap.Frames[tfs[len(tfs)-1]]
	if frame.Empty() {
		return nil
	}
	highs := frame.Highs()
	lows := frame.Lows()
	maxHigh := maxOf(highs)
	minLow := minOf(lows)
	span := maxHigh - minLow
	if span <= 0 {
		return nil
	}

	var levels []float64
	for _, ratio := range fibRatios {
		levels = append(levels, maxHigh-span*ratio) // retracement
		levels = append(levels, maxHigh+span*ratio) // extension
	}
	sort.Float64s(levels)

	tolerance := price * 0.001
	out := make([]float64, 0, len(levels))
	for _, lv := range levels {
		if lv < price*0.8 || lv > price*1.2 {
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

// trendChannel detects a directional channel on the widest frame when the
// consistent-move strength clears 0.3.
func trendChannel(snap *market.Snapshot) *Channel {
	tfs := snap.Timeframes()
	frame := snap.Frames[tfs[len(tfs)-1]]
	closes := frame.Closes()
	if len(closes) < 5 {
		return nil
	}
	var upMove, downMove float64
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		change := (closes[i] - closes[i-1]) / closes[i-1]
		if change > 0 {
			upMove += change
		} else {
			downMove += -change
		}
	}
	last := closes[len(closes)-1]
	upStrength := math.Min(1, upMove*100)
	downStrength := math.Min(1, downMove*100)
	switch {
	case upStrength > 0.3 && upStrength > downStrength*1.5:
		return &Channel{
			Direction: "up",
			Strength:  upStrength,
			Upper:     round5(last * 1.02),
			Lower:     round5(last * 0.995),
		}
	case downStrength > 0.3 && downStrength > upStrength*1.5:
		return &Channel{
			Direction: "down",
			Strength:  downStrength,
			Upper:     round5(last * 1.005),
			Lower:     round5(last * 0.98),
		}
	default:
		return nil
	}
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
