package strategy

import (
	"math"

	"github.com/shopspring/decimal"

	"tradewind/internal/config"
	"tradewind/internal/ensemble"
)

// Targets carries the concrete prices for one signal. Prices are rounded to
// 5 decimals, the realized risk/reward ratio to 2.
type Targets struct {
	Entry      float64 `json:"entry"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	Risk       float64 `json:"risk"`
	Reward     float64 `json:"reward"`
	RiskReward float64 `json:"risk_reward"`
}

// PriceTargets derives stop and take-profit from the profile's ATR
// multipliers, enforcing the symbol's minimum movement so targets never
// collapse onto the entry on a dead tape.
func PriceTargets(p Profile, price, atr float64, direction ensemble.Direction, prof config.SymbolProfile) Targets {
	adjustedATR := atr * prof.VolatilityMultiplier
	stopDist := adjustedATR * p.StopLossMultiplier
	takeDist := adjustedATR * p.TakeProfitMultiplier
	minMove := prof.MinMovement

	var stop, take float64
	if direction == ensemble.DirectionLong {
		stop = math.Min(price-stopDist, price-minMove)
		take = math.Max(price+takeDist, price+minMove*p.RiskReward)
	} else {
		stop = math.Max(price+stopDist, price+minMove)
		take = math.Min(price-takeDist, price-minMove*p.RiskReward)
	}

	risk := math.Abs(price - stop)
	reward := math.Abs(take - price)
	ratio := 0.0
	if risk > 0 {
		ratio = reward / risk
	}

	return Targets{
		Entry:      round5(price),
		StopLoss:   round5(stop),
		TakeProfit: round5(take),
		Risk:       round5(risk),
		Reward:     round5(reward),
		RiskReward: round2(ratio),
	}
}

// PositionSize converts the account risk budget into lots, capped by the
// profile's maximum and floored at the broker minimum of 0.01.
func PositionSize(p Profile, balance, riskPercentage, riskAmount float64) float64 {
	if balance <= 0 || riskPercentage <= 0 || riskAmount <= 0 {
		return 0.01
	}
	maxRisk := balance * (riskPercentage / 100)
	size := round2(math.Min(maxRisk/riskAmount, p.MaxLotSize))
	if size < 0.01 {
		return 0.01
	}
	return size
}

func round5(v float64) float64 {
	return decimal.NewFromFloat(v).Round(5).InexactFloat64()
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
