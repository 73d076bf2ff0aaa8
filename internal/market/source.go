package market

import "context"

// Source delivers multi-timeframe history for one instrument. Implementations
// may return partial coverage; callers backfill before analysis.
type Source interface {
	FetchSnapshot(ctx context.Context, symbol string, timeframes []string) (*Snapshot, error)
}
