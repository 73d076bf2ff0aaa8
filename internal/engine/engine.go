// Package engine orchestrates one signal-generation run: analyzer fan-out,
// augmentation, the ensemble vote, strategy selection and sizing. Each run
// is independent and all-or-nothing; a cancelled request leaves nothing
// behind.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tradewind/internal/analysis/forecast"
	"tradewind/internal/analysis/indicator"
	"tradewind/internal/analysis/mlensemble"
	"tradewind/internal/analysis/optionsflow"
	"tradewind/internal/analysis/orderbook"
	"tradewind/internal/analysis/priceaction"
	"tradewind/internal/analysis/smartmoney"
	"tradewind/internal/analysis/volumeprofile"
	"tradewind/internal/augment"
	"tradewind/internal/config"
	"tradewind/internal/ensemble"
	"tradewind/internal/logger"
	"tradewind/internal/market"
	"tradewind/internal/strategy"
)

var ErrInvalidRequest = errors.New("invalid signal request")

// Account is the risk context for position sizing.
type Account struct {
	Balance        float64
	RiskPercentage float64
}

// Request asks for one signal over a snapshot. PreferredStrategy is
// optional; when set it is validated against market conditions and may be
// overridden.
type Request struct {
	Symbol            string
	Snapshot          *market.Snapshot
	Account           Account
	PreferredStrategy strategy.Kind
}

// Analysis is the immutable audit record attached to a signal: every
// intermediate analyzer result that fed the decision.
type Analysis struct {
	Indicators    map[string]indicator.Set     `json:"indicators"`
	PriceAction   priceaction.Result           `json:"price_action"`
	SmartMoney    smartmoney.Result            `json:"smart_money"`
	VolumeProfile volumeprofile.Result         `json:"volume_profile"`
	Orderbook     orderbook.Result             `json:"orderbook"`
	OptionsFlow   optionsflow.Result           `json:"options_flow"`
	ML            mlensemble.Result            `json:"ml"`
	Forecast      forecast.Result              `json:"forecast"`
	Augment       augment.Result               `json:"augment"`
	Decision      ensemble.Decision            `json:"decision"`
	Confidence    ensemble.ConfidenceBreakdown `json:"confidence"`
}

// TradeSignal is the engine output. It is created once and never mutated;
// persistence and delivery are the caller's concern.
type TradeSignal struct {
	ID           string             `json:"id"`
	Symbol       string             `json:"symbol"`
	Direction    ensemble.Direction `json:"direction"`
	Strategy     strategy.Kind      `json:"strategy"`
	Targets      strategy.Targets   `json:"targets"`
	Confidence   int                `json:"confidence"`
	Grade        string             `json:"grade"`
	PositionSize float64            `json:"position_size"`
	Analysis     Analysis           `json:"analysis"`
	CreatedAt    time.Time          `json:"created_at"`
}

// Engine wires the analyzers to the augmentation client and the strategy
// layer. Safe for concurrent use.
type Engine struct {
	catalog *config.SymbolCatalog
	augment *augment.Client
	floor   int
	ceiling int
	seedFn  func() int64
	nowFn   func() time.Time
}

type Option func(*Engine)

// WithSeedFn overrides the seed source for the synthetic analyzers.
func WithSeedFn(fn func() int64) Option {
	return func(e *Engine) { e.seedFn = fn }
}

// WithConfidenceBand overrides the confidence clamp band.
func WithConfidenceBand(floor, ceiling int) Option {
	return func(e *Engine) { e.floor, e.ceiling = floor, ceiling }
}

func New(catalog *config.SymbolCatalog, augmentClient *augment.Client, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		augment: augmentClient,
		floor:   70,
		ceiling: 95,
		seedFn:  func() int64 { return rand.Int63() },
		nowFn:   time.Now,
	}
	if e.catalog == nil {
		e.catalog = config.NewSymbolCatalog()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate runs the full pipeline for one request.
func (e *Engine) Generate(ctx context.Context, req Request) (*TradeSignal, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	snap := req.Snapshot.Backfill(market.RequiredTimeframes)
	prof := e.catalog.Lookup(req.Symbol)
	seed := e.seedFn()

	var analysis Analysis
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		analysis.Indicators = indicator.ComputeAll(snap)
		return gctx.Err()
	})
	g.Go(func() error {
		analysis.PriceAction = priceaction.Analyze(snap, prof)
		return gctx.Err()
	})
	g.Go(func() error {
		analysis.SmartMoney = smartmoney.Analyze(snap, prof)
		return gctx.Err()
	})
	g.Go(func() error {
		analysis.VolumeProfile = volumeprofile.Analyze(snap)
		return gctx.Err()
	})
	g.Go(func() error {
		analysis.Orderbook = orderbook.Analyze(snap, prof, seed)
		return gctx.Err()
	})
	g.Go(func() error {
		analysis.OptionsFlow = optionsflow.Analyze(snap, prof, seed)
		return gctx.Err()
	})
	g.Go(func() error {
		analysis.ML = mlensemble.Analyze(snap, seed)
		return gctx.Err()
	})
	g.Go(func() error {
		analysis.Forecast = forecast.Analyze(snap, prof, seed)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	analysis.Augment = e.augment.GetDirectionalAssessment(ctx, e.buildSummary(snap, analysis))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	analysis.Decision = ensemble.Combine(ensemble.Inputs{
		PriceAction:   analysis.PriceAction,
		SmartMoney:    analysis.SmartMoney,
		VolumeProfile: analysis.VolumeProfile,
		Orderbook:     analysis.Orderbook,
		ML:            analysis.ML,
		Augment:       analysis.Augment,
	})

	sets := orderedSets(snap, analysis.Indicators)
	analysis.Confidence = ensemble.ScoreConfidence(ensemble.ConfidenceInputs{
		Direction:     analysis.Decision.Direction,
		Sets:          sets,
		TrendStrength: analysis.PriceAction.TrendStrength,
		Regime:        analysis.Forecast.Regime,
		WinRate:       analysis.ML.Backtest.Accuracy,
		Floor:         e.floor,
		Ceiling:       e.ceiling,
	})

	cond := strategy.Conditions{
		Volatility:    strategy.MarketVolatility(snap),
		TrendStrength: strategy.TrendStrength(snap),
		Confidence:    analysis.Confidence.Confidence,
	}
	profile := strategy.Select(req.PreferredStrategy, cond)

	price := snap.LastPrice()
	atr := fastATR(sets)
	targets := strategy.PriceTargets(profile, price, atr, analysis.Decision.Direction, prof)
	size := strategy.PositionSize(profile, req.Account.Balance, req.Account.RiskPercentage, targets.Risk)

	signal := &TradeSignal{
		ID:           uuid.NewString(),
		Symbol:       snap.Symbol,
		Direction:    analysis.Decision.Direction,
		Strategy:     profile.Kind,
		Targets:      targets,
		Confidence:   analysis.Confidence.Confidence,
		Grade:        analysis.Confidence.Grade,
		PositionSize: size,
		Analysis:     analysis,
		CreatedAt:    e.nowFn(),
	}
	logger.Infof("signal %s %s %s conf=%d size=%.2f entry=%.5f provenance=%s",
		signal.Symbol, signal.Direction, signal.Strategy, signal.Confidence,
		signal.PositionSize, signal.Targets.Entry, analysis.Augment.Provenance)
	return signal, nil
}

func validate(req Request) error {
	switch {
	case req.Symbol == "":
		return fmt.Errorf("%w: empty symbol", ErrInvalidRequest)
	case req.Snapshot == nil || !req.Snapshot.Usable():
		return fmt.Errorf("%w: unusable snapshot", ErrInvalidRequest)
	case req.Account.Balance <= 0:
		return fmt.Errorf("%w: non-positive balance", ErrInvalidRequest)
	case req.Account.RiskPercentage <= 0 || req.Account.RiskPercentage > 100:
		return fmt.Errorf("%w: risk percentage out of range", ErrInvalidRequest)
	}
	return nil
}

// buildSummary flattens the analyzer reads into the augmentation context.
func (e *Engine) buildSummary(snap *market.Snapshot, a Analysis) augment.Summary {
	s := augment.Summary{
		Symbol:              snap.Symbol,
		Price:               snap.LastPrice(),
		Trend:               string(a.PriceAction.Trend),
		TrendStrength:       a.PriceAction.TrendStrength,
		Structure:           string(a.PriceAction.Structure),
		BreakoutProbability: a.PriceAction.BreakoutProbability,
		InstitutionalFlow:   string(a.SmartMoney.InstitutionalFlow),
		VolumePattern:       string(a.SmartMoney.VolumePattern),
		OrderFlow:           string(a.SmartMoney.OrderFlow),
		VWAPPosition:        string(a.VolumeProfile.Overall),
		MLConsensus:         string(a.ML.Consensus),
		MLConfidence:        a.ML.Confidence,
		KeyLevels:           a.PriceAction.KeyLevels,
		HasAnalyzerContext:  true,
	}

	tfs := snap.Timeframes()
	if len(tfs) > 0 {
		set := a.Indicators[tfs[0]]
		s.RSI = set.RSI
		s.MACD = set.MACD.Line
		s.ATR = set.ATR

		if frame, ok := snap.Frame(tfs[0]); ok {
			closes := frame.Closes()
			if n := len(closes); n >= 2 && closes[n-2] != 0 {
				s.Momentum = (closes[n-1] - closes[n-2]) / closes[n-2]
			}
			volumes := frame.Volumes()
			if avg := frame.AvgVolume(); avg > 0 && len(volumes) > 0 {
				s.VolumeConfirmed = volumes[len(volumes)-1] > avg*1.2
			}
		}
	}
	return s
}

// orderedSets returns the per-timeframe indicator sets fastest first.
func orderedSets(snap *market.Snapshot, sets map[string]indicator.Set) []indicator.Set {
	var out []indicator.Set
	for _, tf := range snap.Timeframes() {
		if set, ok := sets[tf]; ok {
			out = append(out, set)
		}
	}
	return out
}

func fastATR(sets []indicator.Set) float64 {
	if len(sets) == 0 {
		return 0
	}
	return sets[0].ATR
}
