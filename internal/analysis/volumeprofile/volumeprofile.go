package volumeprofile

import (
	"math"
	"sort"

	"tradewind/internal/market"
)

type Position string

const (
	PositionAbove Position = "ABOVE"
	PositionBelow Position = "BELOW"
	PositionAt    Position = "AT"
)

type SignalType string

const (
	SignalTrendContinuation SignalType = "TREND_CONTINUATION"
	SignalMeanReversion     SignalType = "MEAN_REVERSION"
	SignalNeutral           SignalType = "NEUTRAL"
)

type Distribution string

const (
	DistributionHigh   Distribution = "HIGH"
	DistributionLow    Distribution = "LOW"
	DistributionNormal Distribution = "NORMAL"
)

// TimeframeRead is the VWAP position of one timeframe.
type TimeframeRead struct {
	Timeframe string   `json:"timeframe"`
	VWAP      float64  `json:"vwap"`
	Position  Position `json:"position"`
	Deviation float64  `json:"deviation"`
}

// VolumeNode marks a price level with unusually high or low traded volume.
type VolumeNode struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
	Kind   string  `json:"kind"`
}

type Result struct {
	Timeframes    []TimeframeRead `json:"timeframes"`
	Overall       Position        `json:"overall"`
	TrendStrength float64         `json:"trend_strength"`
	SignalType    SignalType      `json:"signal_type"`
	Levels        []float64       `json:"levels"`
	Distribution  Distribution    `json:"distribution"`
	Nodes         []VolumeNode    `json:"nodes"`
}

const atBand = 0.001

// Analyze reads price position against per-timeframe VWAPs and classifies
// the volume distribution. Neutral result on degenerate input.
func Analyze(snap *market.Snapshot) Result {
	res := Result{
		Overall:      PositionAt,
		SignalType:   SignalNeutral,
		Distribution: DistributionNormal,
	}
	if snap == nil || !snap.Usable() {
		return res
	}
	price := snap.LastPrice()
	if price <= 0 {
		return res
	}

	tfs := snap.Timeframes()
	var above, below int
	var weighted, weightSum float64
	for i, tf := range tfs {
		frame := snap.Frames[tf]
		vwap := frame.VWAP()
		if vwap <= 0 {
			continue
		}
		deviation := (price - vwap) / vwap
		read := TimeframeRead{Timeframe: tf, VWAP: round5(vwap), Deviation: deviation}
		switch {
		case deviation > atBand:
			read.Position = PositionAbove
			above++
		case deviation < -atBand:
			read.Position = PositionBelow
			below++
		default:
			read.Position = PositionAt
		}
		res.Timeframes = append(res.Timeframes, read)

		weight := float64(i + 1)
		weighted += deviation * 100 * weight
		weightSum += weight
	}
	if len(res.Timeframes) == 0 {
		return res
	}

	switch {
	case above > below:
		res.Overall = PositionAbove
	case below > above:
		res.Overall = PositionBelow
	}

	if weightSum > 0 {
		res.TrendStrength = math.Min(1, math.Abs(weighted/weightSum))
	}

	aligned := above == len(res.Timeframes) || below == len(res.Timeframes)
	switch {
	case aligned && res.TrendStrength > 0.6:
		res.SignalType = SignalTrendContinuation
	case res.TrendStrength > 0.8:
		res.SignalType = SignalMeanReversion
	}

	res.Levels = bandLevels(res.Timeframes, price)
	res.Distribution, res.Nodes = distribution(snap.Frames[tfs[0]])
	return res
}

// bandLevels emits one and two sigma bands around each VWAP, filtered to a
// five percent window around price and deduplicated at 0.1%.
func bandLevels(reads []TimeframeRead, price float64) []float64 {
	var levels []float64
	for _, r := range reads {
		sigma := r.VWAP * 0.01
		for _, mult := range []float64{-2, -1, 1, 2} {
			levels = append(levels, r.VWAP+sigma*mult)
		}
		levels = append(levels, r.VWAP)
	}
	sort.Float64s(levels)
	tolerance := price * 0.001
	out := make([]float64, 0, len(levels))
	for _, lv := range levels {
		if lv < price*0.95 || lv > price*1.05 {
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

// distribution flags the current bar volume against the frame average and
// locates the two highest and two lowest volume nodes.
func distribution(frame market.Frame) (Distribution, []VolumeNode) {
	bars := frame.Bars
	if len(bars) == 0 {
		return DistributionNormal, nil
	}
	avg := frame.AvgVolume()
	if avg <= 0 {
		return DistributionNormal, nil
	}
	dist := DistributionNormal
	last := bars[len(bars)-1]
	switch {
	case last.Volume > avg*1.5:
		dist = DistributionHigh
	case last.Volume < avg*0.5:
		dist = DistributionLow
	}

	if len(bars) < 4 {
		return dist, nil
	}
	sorted := append([]market.Bar(nil), bars...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Volume > sorted[j].Volume })
	nodes := []VolumeNode{
		{Price: round5(sorted[0].Close), Volume: sorted[0].Volume, Kind: "high_volume"},
		{Price: round5(sorted[1].Close), Volume: sorted[1].Volume, Kind: "high_volume"},
		{Price: round5(sorted[len(sorted)-1].Close), Volume: sorted[len(sorted)-1].Volume, Kind: "low_volume"},
		{Price: round5(sorted[len(sorted)-2].Close), Volume: sorted[len(sorted)-2].Volume, Kind: "low_volume"},
	}
	return dist, nodes
}

func round5(v float64) float64 {
	return math.Round(v*100000) / 100000
}
