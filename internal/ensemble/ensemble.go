// Package ensemble merges the analyzer outputs into a single directional
// decision via a fixed weighted vote, and scores the decision's confidence
// on a separate multi-factor path.
package ensemble

import (
	"tradewind/internal/analysis/mlensemble"
	"tradewind/internal/analysis/orderbook"
	"tradewind/internal/analysis/priceaction"
	"tradewind/internal/analysis/smartmoney"
	"tradewind/internal/analysis/volumeprofile"
	"tradewind/internal/augment"
)

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Category weights. The total across all categories is 100; the orderbook
// vote only counts when its flow strength clears the gate.
const (
	weightTrend         = 10
	weightStructure     = 10
	weightInstFlow      = 8
	weightVolumeProfile = 6
	weightOrderFlow     = 6
	weightAugment       = 10
	weightVWAP          = 15
	weightML            = 15
	weightOrderbook     = 10

	orderbookStrengthGate = 0.6
)

// Inputs carries every analyzer read the combiner votes on.
type Inputs struct {
	PriceAction   priceaction.Result
	SmartMoney    smartmoney.Result
	VolumeProfile volumeprofile.Result
	Orderbook     orderbook.Result
	ML            mlensemble.Result
	Augment       augment.Result
}

// Decision is the combined vote. Factors holds the signed per-category
// contribution: positive pushed bullish, negative pushed bearish.
type Decision struct {
	Direction    Direction          `json:"direction"`
	BullishScore float64            `json:"bullish_score"`
	BearishScore float64            `json:"bearish_score"`
	Factors      map[string]float64 `json:"factors"`
}

// Combine runs the weighted vote. Ties resolve to SHORT: only a strict
// bullish majority produces LONG.
func Combine(in Inputs) Decision {
	d := Decision{Factors: make(map[string]float64)}

	vote := func(category string, bullish bool, weight float64) {
		if weight == 0 {
			return
		}
		if bullish {
			d.BullishScore += weight
			d.Factors[category] = weight
		} else {
			d.BearishScore += weight
			d.Factors[category] = -weight
		}
	}

	switch in.PriceAction.Trend {
	case priceaction.TrendUp:
		vote("price_action_trend", true, weightTrend)
	case priceaction.TrendDown:
		vote("price_action_trend", false, weightTrend)
	}
	switch in.PriceAction.Structure {
	case priceaction.StructureBullish:
		vote("price_action_structure", true, weightStructure)
	case priceaction.StructureBearish:
		vote("price_action_structure", false, weightStructure)
	}

	switch in.SmartMoney.InstitutionalFlow {
	case smartmoney.FlowBuying:
		vote("smart_money_flow", true, weightInstFlow)
	case smartmoney.FlowSelling:
		vote("smart_money_flow", false, weightInstFlow)
	}
	switch in.SmartMoney.VolumePattern {
	case smartmoney.PatternAccumulation:
		vote("volume_pattern", true, weightVolumeProfile)
	case smartmoney.PatternDistribution:
		vote("volume_pattern", false, weightVolumeProfile)
	}
	switch in.SmartMoney.OrderFlow {
	case smartmoney.OrderFlowBullish:
		vote("order_flow", true, weightOrderFlow)
	case smartmoney.OrderFlowBearish:
		vote("order_flow", false, weightOrderFlow)
	}

	switch in.Augment.Direction {
	case augment.DirectionLong:
		vote("augmentation", true, weightAugment)
	case augment.DirectionShort:
		vote("augmentation", false, weightAugment)
	}

	if bullish, weight := vwapVote(in.VolumeProfile); weight > 0 {
		vote("vwap", bullish, weight)
	}

	switch in.ML.Consensus {
	case mlensemble.SignalLong:
		vote("ml_consensus", true, weightML*in.ML.Confidence)
	case mlensemble.SignalShort:
		vote("ml_consensus", false, weightML*in.ML.Confidence)
	}

	if in.Orderbook.FlowStrength > orderbookStrengthGate {
		switch in.Orderbook.InstitutionalFlow {
		case orderbook.FlowBuying:
			vote("orderbook_flow", true, weightOrderbook)
		case orderbook.FlowSelling:
			vote("orderbook_flow", false, weightOrderbook)
		}
	}

	if d.BullishScore > d.BearishScore {
		d.Direction = DirectionLong
	} else {
		d.Direction = DirectionShort
	}
	return d
}

// vwapVote reads the volume-profile position through its signal type: in a
// continuation regime price above VWAP is bullish, in a mean-reversion
// regime the same position is bearish. A neutral signal type counts the
// position at half weight.
func vwapVote(vp volumeprofile.Result) (bullish bool, weight float64) {
	var above bool
	switch vp.Overall {
	case volumeprofile.PositionAbove:
		above = true
	case volumeprofile.PositionBelow:
		above = false
	default:
		return false, 0
	}

	switch vp.SignalType {
	case volumeprofile.SignalTrendContinuation:
		return above, weightVWAP
	case volumeprofile.SignalMeanReversion:
		return !above, weightVWAP
	default:
		return above, weightVWAP / 2.0
	}
}
