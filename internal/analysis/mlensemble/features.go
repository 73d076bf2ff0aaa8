package mlensemble

import (
	"math"
	"strings"
	"time"

	"tradewind/internal/market"
)

// Features is the normalized input vector the models vote on, extracted from
// the fastest timeframe with cross-timeframe momentum context.
type Features struct {
	Returns             [5]float64 `json:"returns"`
	Ranges              [5]float64 `json:"ranges"`
	MomentumShort       float64    `json:"momentum_short"`
	MomentumLong        float64    `json:"momentum_long"`
	BodyRatio           float64    `json:"body_ratio"`
	PositionInRange     float64    `json:"position_in_range"`
	VolumeRatio         float64    `json:"volume_ratio"`
	VolumeChange        float64    `json:"volume_change"`
	VolumePriceMomentum float64    `json:"volume_price_momentum"`
	RSI                 float64    `json:"rsi"`
	MACD                float64    `json:"macd"`
	ATRRatio            float64    `json:"atr_ratio"`
	TimeOfDay           float64    `json:"time_of_day"`
	DayOfWeek           float64    `json:"day_of_week"`
	Trend               float64    `json:"trend"`
	RealizedVol         float64    `json:"realized_vol"`
	RangeRatio          float64    `json:"range_ratio"`
	AvgReturn           float64    `json:"avg_return"`
}

const vectorSize = 50

var oneHotSymbols = []string{"BTCUSD", "ETHUSD", "EURUSD", "GBPUSD", "XAUUSD"}

// ExtractFeatures builds the feature set. All values are guarded; degenerate
// input produces the zero set with RSI pinned neutral.
func ExtractFeatures(snap *market.Snapshot) Features {
	f := Features{RSI: 0.5}
	if snap == nil || !snap.Usable() {
		return f
	}
	tfs := snap.Timeframes()
	fast := snap.Frames[tfs[0]]
	bars := fast.Bars
	if len(bars) < 2 {
		return f
	}
	n := len(bars)

	for i := 0; i < 5 && i < n-1; i++ {
		cur := bars[n-1-i]
		prev := bars[n-2-i]
		if prev.Close > 0 {
			f.Returns[i] = (cur.Close - prev.Close) / prev.Close
		}
		if cur.Close > 0 {
			f.Ranges[i] = (cur.High - cur.Low) / cur.Close
		}
	}

	last := bars[n-1]
	if len(tfs) >= 2 {
		mid := snap.Frames[tfs[1]]
		if midClose := lastClose(mid); midClose > 0 {
			f.MomentumShort = (last.Close - midClose) / midClose
		}
		if len(tfs) >= 3 {
			slow := snap.Frames[tfs[2]]
			midClose := lastClose(mid)
			if slowClose := lastClose(slow); slowClose > 0 && midClose > 0 {
				f.MomentumLong = (midClose - slowClose) / slowClose
			}
		}
	}

	if span := last.High - last.Low; span > 0 {
		f.BodyRatio = math.Abs(last.Close-last.Open) / span
		f.PositionInRange = (last.Close - last.Low) / span
	}

	avgVol := fast.AvgVolume()
	if avgVol > 0 {
		f.VolumeRatio = last.Volume / avgVol
	}
	prev := bars[n-2]
	if prev.Volume > 0 {
		f.VolumeChange = (last.Volume - prev.Volume) / prev.Volume
	}
	if prev.Close > 0 {
		priceDelta := (last.Close - prev.Close) / prev.Close
		f.VolumePriceMomentum = priceDelta * math.Min(2, f.VolumeRatio)
	}

	f.RSI = fast.Base.RSI / 100
	if f.RSI <= 0 || f.RSI > 1 {
		f.RSI = 0.5
	}
	f.MACD = math.Tanh(fast.Base.MACD)
	if last.Close > 0 {
		f.ATRRatio = fast.Base.ATR / last.Close
	}

	openedAt := time.UnixMilli(last.OpenTime).UTC()
	f.TimeOfDay = math.Sin(2 * math.Pi * float64(openedAt.Hour()) / 24)
	f.DayOfWeek = math.Sin(2 * math.Pi * float64(openedAt.Weekday()) / 7)

	f.Trend = trendDirection(fast.Closes())
	f.RealizedVol = stdev(f.Returns[:])
	f.AvgReturn = meanOf(f.Returns[:])
	if avgRange := meanOf(f.Ranges[:]); avgRange > 0 {
		f.RangeRatio = f.Ranges[0] / avgRange
	}
	return f
}

// Vector flattens the features with the symbol one-hot tail, zero padded to
// the fixed model width.
func (f Features) Vector(symbol string) []float64 {
	v := make([]float64, 0, vectorSize)
	v = append(v, f.Returns[:]...)
	v = append(v, f.Ranges[:]...)
	v = append(v,
		f.MomentumShort, f.MomentumLong, f.BodyRatio, f.PositionInRange,
		f.VolumeRatio, f.VolumeChange, f.VolumePriceMomentum,
		f.RSI, f.MACD, f.ATRRatio, f.TimeOfDay, f.DayOfWeek,
		f.Trend, f.RealizedVol, f.RangeRatio, f.AvgReturn,
	)
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	for _, s := range oneHotSymbols {
		if s == sym {
			v = append(v, 1)
		} else {
			v = append(v, 0)
		}
	}
	for len(v) < vectorSize {
		v = append(v, 0)
	}
	return v[:vectorSize]
}

// consistentReturns reports whether every recorded return shares one sign.
func (f Features) consistentReturns() bool {
	var pos, neg int
	for _, r := range f.Returns {
		switch {
		case r > 0:
			pos++
		case r < 0:
			neg++
		}
	}
	return (pos > 0) != (neg > 0)
}

func trendDirection(closes []float64) float64 {
	if len(closes) < 3 {
		return 0
	}
	up, down := true, true
	start := len(closes) - 3
	for i := start + 1; i < len(closes); i++ {
		if closes[i] <= closes[i-1] {
			up = false
		}
		if closes[i] >= closes[i-1] {
			down = false
		}
	}
	switch {
	case up:
		return 1
	case down:
		return -1
	default:
		return 0
	}
}

func lastClose(frame market.Frame) float64 {
	if len(frame.Bars) == 0 {
		return 0
	}
	return frame.Bars[len(frame.Bars)-1].Close
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := meanOf(values)
	var variance float64
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}
