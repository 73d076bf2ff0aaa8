package auditlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradewind/internal/augment"
	"tradewind/internal/engine"
	"tradewind/internal/ensemble"
	"tradewind/internal/strategy"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleSignal(id, symbol string) *engine.TradeSignal {
	return &engine.TradeSignal{
		ID:         id,
		Symbol:     symbol,
		Direction:  ensemble.DirectionLong,
		Strategy:   strategy.Intraday,
		Confidence: 82,
		Grade:      "B+",
		Analysis: engine.Analysis{
			Augment: augment.Result{
				Direction:  augment.DirectionLong,
				Confidence: 80,
				Provenance: augment.ProvenanceLive,
			},
			Decision: ensemble.Decision{
				Direction:    ensemble.DirectionLong,
				BullishScore: 64,
				BearishScore: 23,
				Factors:      map[string]float64{"vwap": 15},
			},
		},
		CreatedAt: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecordSignalAndList(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	id, err := st.RecordSignal(ctx, sampleSignal("sig-1", "EURUSD"))
	require.NoError(t, err)
	assert.Positive(t, id)

	recs, err := st.List(ctx, "eurusd", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "sig-1", rec.SignalID)
	assert.Equal(t, "EURUSD", rec.Symbol)
	assert.Equal(t, "LONG", rec.Direction)
	assert.Equal(t, "LIVE", rec.AugmentProvenance)
	assert.Equal(t, 64.0, rec.BullishScore)
	assert.Contains(t, rec.FactorsJSON, `"vwap":15`)
}

func TestListNewestFirstWithLimit(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		sig := sampleSignal("sig-"+string(rune('a'+i)), "BTCUSD")
		sig.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		_, err := st.RecordSignal(ctx, sig)
		require.NoError(t, err)
	}

	recs, err := st.List(ctx, "BTCUSD", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "sig-d", recs[0].SignalID)
	assert.Equal(t, "sig-c", recs[1].SignalID)
}

func TestListAllSymbols(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.RecordSignal(ctx, sampleSignal("sig-1", "EURUSD"))
	require.NoError(t, err)
	_, err = st.RecordSignal(ctx, sampleSignal("sig-2", "BTCUSD"))
	require.NoError(t, err)

	recs, err := st.List(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestCountByProvenance(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	live := sampleSignal("sig-1", "EURUSD")
	_, err := st.RecordSignal(ctx, live)
	require.NoError(t, err)

	fallback := sampleSignal("sig-2", "EURUSD")
	fallback.Analysis.Augment.Provenance = augment.ProvenanceFallbackHeuristic
	_, err = st.RecordSignal(ctx, fallback)
	require.NoError(t, err)
	_, err = st.RecordSignal(ctx, fallback)
	require.NoError(t, err)

	counts, err := st.CountByProvenance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["LIVE"])
	assert.Equal(t, int64(2), counts["FALLBACK_HEURISTIC"])
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestClosedStoreErrors(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.Close())

	_, err := st.Insert(context.Background(), Record{SignalID: "x", Symbol: "EURUSD"})
	assert.Error(t, err)
}
