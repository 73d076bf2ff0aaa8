package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"tradewind/internal/engine"
	"tradewind/internal/logger"
	"tradewind/internal/market"
	"tradewind/internal/notifier"
	"tradewind/internal/visual"
)

// SignalStore is the persistence slice the runner needs.
type SignalStore interface {
	SaveSignal(ctx context.Context, signal *engine.TradeSignal) error
}

// AuditLog records every kept signal for later review. Optional.
type AuditLog interface {
	RecordSignal(ctx context.Context, signal *engine.TradeSignal) (int64, error)
}

// Runner generates one signal per configured symbol, keeps the strongest
// ones and hands them to the store and the notifier.
type Runner struct {
	Source  market.Source
	Engine  *engine.Engine
	Store   SignalStore
	Audit   AuditLog
	Notify  notifier.TextNotifier
	Symbols []string
	Top     int
	Account engine.Account

	// ChartDir, when set, receives one HTML chart per kept signal.
	ChartDir string

	// FetchConcurrency bounds parallel snapshot fetches; zero means 4.
	FetchConcurrency int
}

// RunOnce executes one batch. Per-symbol failures are logged and skipped;
// the batch itself only fails when the context dies.
func (r *Runner) RunOnce(ctx context.Context) ([]*engine.TradeSignal, error) {
	if r == nil || r.Source == nil || r.Engine == nil || len(r.Symbols) == 0 {
		return nil, nil
	}
	limit := r.FetchConcurrency
	if limit <= 0 {
		limit = 4
	}

	type run struct {
		signal   *engine.TradeSignal
		snapshot *market.Snapshot
	}
	runs := make([]run, len(r.Symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, symbol := range r.Symbols {
		g.Go(func() error {
			snap, err := r.Source.FetchSnapshot(gctx, symbol, market.RequiredTimeframes)
			if err != nil {
				logger.Warnf("runner %s: snapshot fetch failed: %v", symbol, err)
				return nil
			}
			snap = sanitizeSnapshot(snap)
			signal, err := r.Engine.Generate(gctx, engine.Request{
				Symbol:   symbol,
				Snapshot: snap,
				Account:  r.Account,
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warnf("runner %s: signal generation failed: %v", symbol, err)
				return nil
			}
			runs[i] = run{signal: signal, snapshot: snap}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := make([]run, 0, len(runs))
	for _, rn := range runs {
		if rn.signal != nil {
			kept = append(kept, rn)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].signal.Confidence > kept[j].signal.Confidence
	})
	if r.Top > 0 && len(kept) > r.Top {
		kept = kept[:r.Top]
	}

	out := make([]*engine.TradeSignal, 0, len(kept))
	for _, rn := range kept {
		signal := rn.signal
		out = append(out, signal)
		if r.Store != nil {
			if err := r.Store.SaveSignal(ctx, signal); err != nil {
				logger.Errorf("runner %s: store signal: %v", signal.Symbol, err)
			}
		}
		if r.Audit != nil {
			if _, err := r.Audit.RecordSignal(ctx, signal); err != nil {
				logger.Warnf("runner %s: audit log: %v", signal.Symbol, err)
			}
		}
		if r.ChartDir != "" {
			if path, err := visual.SaveSignalChart(r.ChartDir, signal, rn.snapshot); err != nil {
				logger.Warnf("runner %s: chart: %v", signal.Symbol, err)
			} else {
				logger.Debugf("runner %s: chart written to %s", signal.Symbol, path)
			}
		}
		if err := notifier.NotifySignal(r.Notify, signal); err != nil {
			logger.Warnf("runner %s: notify: %v", signal.Symbol, err)
		}
	}
	logger.Infof("runner: batch done, %d/%d signals kept", len(out), len(r.Symbols))
	logger.InfoBlock(batchSummary(out))
	return out, nil
}

func batchSummary(signals []*engine.TradeSignal) string {
	if len(signals) == 0 {
		return ""
	}
	var b strings.Builder
	for i, s := range signals {
		fmt.Fprintf(&b, "#%d %s %s %s conf=%d entry=%.5f\n",
			i+1, s.Symbol, s.Direction, s.Strategy, s.Confidence, s.Targets.Entry)
	}
	return b.String()
}

// sanitizeSnapshot rebuilds the snapshot without in-progress bars.
func sanitizeSnapshot(snap *market.Snapshot) *market.Snapshot {
	if snap == nil {
		return nil
	}
	frames := make(map[string]market.Frame, len(snap.Frames))
	for tf, frame := range snap.Frames {
		frame.Bars = DropUnclosedBar(frame.Bars, market.TimeframeDuration(tf))
		frames[tf] = frame
	}
	return market.NewSnapshot(snap.Symbol, frames)
}
