package market

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// RequiredTimeframes are the frames every signal request is analyzed on.
var RequiredTimeframes = []string{"5m", "15m", "30m"}

// Snapshot is a read-only multi-timeframe view of one instrument, built once
// per signal request and shared by all analyzers. Callers must not mutate it
// after construction.
type Snapshot struct {
	Symbol    string           `json:"symbol"`
	CreatedAt time.Time        `json:"created_at"`
	Frames    map[string]Frame `json:"frames"`
}

func NewSnapshot(symbol string, frames map[string]Frame) *Snapshot {
	cp := make(map[string]Frame, len(frames))
	for tf, f := range frames {
		cp[strings.ToLower(strings.TrimSpace(tf))] = f
	}
	return &Snapshot{
		Symbol:    strings.ToUpper(strings.TrimSpace(symbol)),
		CreatedAt: time.Now().UTC(),
		Frames:    cp,
	}
}

// Frame returns the history of one timeframe.
func (s *Snapshot) Frame(tf string) (Frame, bool) {
	if s == nil {
		return Frame{}, false
	}
	f, ok := s.Frames[strings.ToLower(strings.TrimSpace(tf))]
	if !ok || f.Empty() {
		return Frame{}, false
	}
	return f, true
}

// LastPrice returns the most recent close of the smallest populated timeframe.
func (s *Snapshot) LastPrice() float64 {
	if s == nil {
		return 0
	}
	tfs := s.Timeframes()
	for _, tf := range tfs {
		if f, ok := s.Frame(tf); ok {
			if last, ok := f.Last(); ok {
				return last.Close
			}
		}
	}
	return 0
}

// Timeframes lists the populated timeframes, shortest duration first.
func (s *Snapshot) Timeframes() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Frames))
	for tf, f := range s.Frames {
		if !f.Empty() {
			out = append(out, tf)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return TimeframeDuration(out[i]) < TimeframeDuration(out[j])
	})
	return out
}

// Usable reports whether at least one timeframe carries bars.
func (s *Snapshot) Usable() bool {
	return s != nil && len(s.Timeframes()) > 0
}

// Backfill returns a snapshot that carries every required timeframe, filling
// each missing one with the frame of the nearest populated duration. The
// provider may legitimately deliver partial coverage; analysis always runs on
// the full required set.
func (s *Snapshot) Backfill(required []string) *Snapshot {
	if s == nil || len(required) == 0 {
		return s
	}
	have := s.Timeframes()
	if len(have) == 0 {
		return s
	}
	frames := make(map[string]Frame, len(s.Frames))
	for tf, f := range s.Frames {
		frames[tf] = f
	}
	for _, tf := range required {
		tf = strings.ToLower(strings.TrimSpace(tf))
		if f, ok := frames[tf]; ok && !f.Empty() {
			continue
		}
		nearest := nearestTimeframe(tf, have)
		frames[tf] = frames[nearest]
	}
	cp := *s
	cp.Frames = frames
	return &cp
}

func nearestTimeframe(want string, have []string) string {
	target := TimeframeDuration(want)
	best := have[0]
	bestDiff := math.MaxFloat64
	for _, tf := range have {
		diff := math.Abs(float64(TimeframeDuration(tf) - target))
		if diff < bestDiff {
			bestDiff = diff
			best = tf
		}
	}
	return best
}

// TimeframeDuration parses labels like "5m", "1h", "1d", "1w" into a duration.
// Unknown labels come back as 0 so they sort first rather than failing.
func TimeframeDuration(tf string) time.Duration {
	tf = strings.ToLower(strings.TrimSpace(tf))
	if tf == "" {
		return 0
	}
	unit := tf[len(tf)-1]
	num, err := strconv.Atoi(tf[:len(tf)-1])
	if err != nil || num <= 0 {
		return 0
	}
	switch unit {
	case 's':
		return time.Duration(num) * time.Second
	case 'm':
		return time.Duration(num) * time.Minute
	case 'h':
		return time.Duration(num) * time.Hour
	case 'd':
		return time.Duration(num) * 24 * time.Hour
	case 'w':
		return time.Duration(num) * 7 * 24 * time.Hour
	default:
		return 0
	}
}

// ValidateTimeframe rejects labels TimeframeDuration cannot parse.
func ValidateTimeframe(tf string) error {
	if TimeframeDuration(tf) <= 0 {
		return fmt.Errorf("invalid timeframe %q", tf)
	}
	return nil
}
