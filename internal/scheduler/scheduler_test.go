package scheduler

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradewind/internal/augment"
	"tradewind/internal/config"
	"tradewind/internal/engine"
	"tradewind/internal/market"
	"tradewind/internal/notifier"
)

type memStore struct {
	mu      sync.Mutex
	signals []*engine.TradeSignal
	err     error
}

func (m *memStore) SaveSignal(_ context.Context, s *engine.TradeSignal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.signals = append(m.signals, s)
	return nil
}

type memAudit struct {
	mu      sync.Mutex
	records []string
}

func (m *memAudit) RecordSignal(_ context.Context, s *engine.TradeSignal) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, s.ID)
	return int64(len(m.records)), nil
}

type memNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (m *memNotifier) SendText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, text)
	return nil
}

type failingSource struct{}

func (failingSource) FetchSnapshot(context.Context, string, []string) (*market.Snapshot, error) {
	return nil, errors.New("feed down")
}

type stubProvider struct{}

func (stubProvider) ID() string { return "stub" }

func (stubProvider) Call(context.Context, string, string) (string, error) {
	return "DIRECTION: LONG\nCONFIDENCE: 80", nil
}

func testRunner(store *memStore, notify notifier.TextNotifier, symbols []string, top int) *Runner {
	eng := engine.New(config.NewSymbolCatalog(), augment.NewClient(stubProvider{}, nil),
		engine.WithSeedFn(func() int64 { return 11 }))
	return &Runner{
		Source:  market.NewSimSource(42),
		Engine:  eng,
		Store:   store,
		Notify:  notify,
		Symbols: symbols,
		Top:     top,
		Account: engine.Account{Balance: 10000, RiskPercentage: 2},
	}
}

func TestRunOnceGeneratesStoresAndNotifies(t *testing.T) {
	store := &memStore{}
	notify := &memNotifier{}
	audit := &memAudit{}
	r := testRunner(store, notify, []string{"EURUSD", "BTCUSD", "XAUUSD"}, 2)
	r.Audit = audit

	kept, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, kept, 2)

	// Ranked by confidence, strongest first.
	assert.GreaterOrEqual(t, kept[0].Confidence, kept[1].Confidence)
	assert.Len(t, store.signals, 2)
	assert.Len(t, notify.messages, 2)
	assert.Len(t, audit.records, 2)
}

func TestBatchSummary(t *testing.T) {
	assert.Empty(t, batchSummary(nil))

	sigs := []*engine.TradeSignal{
		{Symbol: "EURUSD", Direction: "LONG", Strategy: "INTRADAY", Confidence: 82},
		{Symbol: "BTCUSD", Direction: "SHORT", Strategy: "SCALPING", Confidence: 74},
	}
	out := batchSummary(sigs)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "#1 EURUSD LONG")
	assert.Contains(t, lines[1], "#2 BTCUSD SHORT")
}

func TestRunOnceWritesCharts(t *testing.T) {
	dir := t.TempDir()
	r := testRunner(&memStore{}, nil, []string{"EURUSD"}, 0)
	r.ChartDir = dir

	kept, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, kept, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "eurusd_"))
}

func TestRunOnceKeepsAllWhenTopZero(t *testing.T) {
	store := &memStore{}
	r := testRunner(store, nil, []string{"EURUSD", "BTCUSD"}, 0)

	kept, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, kept, 2)
}

func TestRunOnceSkipsFailedFetches(t *testing.T) {
	store := &memStore{}
	r := testRunner(store, nil, []string{"EURUSD"}, 3)
	r.Source = failingSource{}

	kept, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, kept)
	assert.Empty(t, store.signals)
}

func TestRunOnceNilRunnerSafe(t *testing.T) {
	var r *Runner
	kept, err := r.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, kept)
}

func TestAlignedSchedulerRunsAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewAlignedScheduler(ctx, 50*time.Millisecond, 0)

	var mu sync.Mutex
	runs := 0
	done := make(chan struct{})
	go func() {
		s.Start(func() {
			mu.Lock()
			runs++
			if runs >= 2 {
				cancel()
			}
			mu.Unlock()
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, runs, 2)
}

func TestAlignedSchedulerInvalidIntervalExits(t *testing.T) {
	s := NewAlignedScheduler(context.Background(), 0, 0)
	done := make(chan struct{})
	go func() {
		s.Start(func() {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler with zero interval should return immediately")
	}
}

func TestDropUnclosedBar(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 3, 0, 0, time.UTC)
	bars := []market.Bar{
		{OpenTime: now.Add(-10 * time.Minute).UnixMilli(), Close: 1},
		{OpenTime: now.Add(-5 * time.Minute).UnixMilli(), Close: 2},
		{OpenTime: now.UnixMilli(), Close: 3},
	}

	trimmed := dropUnclosedBarAt(bars, 5*time.Minute, now, DefaultBarCloseGrace)
	require.Len(t, trimmed, 2)
	assert.Equal(t, 2.0, trimmed[len(trimmed)-1].Close)

	// All bars closed: nothing dropped.
	later := now.Add(6 * time.Minute)
	assert.Len(t, dropUnclosedBarAt(bars, 5*time.Minute, later, DefaultBarCloseGrace), 3)
}

func TestDropUnclosedBarEdgeCases(t *testing.T) {
	assert.Empty(t, dropUnclosedBarAt(nil, time.Minute, time.Now(), 0))

	bars := []market.Bar{{Close: 1}}
	assert.Len(t, dropUnclosedBarAt(bars, 0, time.Now(), 0), 1)
	assert.Len(t, dropUnclosedBarAt(bars, time.Minute, time.Now(), 0), 1)
}
