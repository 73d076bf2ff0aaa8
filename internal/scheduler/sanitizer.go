package scheduler

import (
	"time"

	"tradewind/internal/market"
)

const DefaultBarCloseGrace = 10 * time.Second

// DropUnclosedBar drops the last bar of a frame when it is still
// in-progress. Feed providers commonly include the current, not-yet-closed
// bar, which would skew volume and momentum reads.
func DropUnclosedBar(bars []market.Bar, interval time.Duration) []market.Bar {
	return dropUnclosedBarAt(bars, interval, time.Now().UTC(), DefaultBarCloseGrace)
}

func dropUnclosedBarAt(bars []market.Bar, interval time.Duration, now time.Time, grace time.Duration) []market.Bar {
	if len(bars) == 0 || interval <= 0 {
		return bars
	}
	if grace < 0 {
		grace = 0
	}
	last := bars[len(bars)-1]
	if last.OpenTime <= 0 {
		return bars
	}
	cutoff := time.UnixMilli(last.OpenTime).Add(interval).Add(grace)
	if now.Before(cutoff) {
		return bars[:len(bars)-1]
	}
	return bars
}
