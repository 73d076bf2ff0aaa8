package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := NewBreaker("test", 3, time.Minute)

	assert.True(t, b.Allow())
	b.RecordFailure()
	b.RecordFailure()
	assert.True(t, b.Allow())
	assert.Equal(t, StateClosed, b.CurrentState())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.CurrentState())
	assert.False(t, b.Allow())
}

func TestBreakerProbesAfterCooldown(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	b := NewBreaker("test", 1, time.Minute)
	b.nowFn = func() time.Time { return now }

	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(2 * time.Minute)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.CurrentState())

	// A failed probe reopens, a successful one closes.
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.CurrentState())

	now = now.Add(2 * time.Minute)
	assert.True(t, b.Allow())
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.CurrentState())
	assert.True(t, b.Allow())
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker("test", 2, time.Minute)
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.CurrentState())
}

func TestNilBreakerIsNoop(t *testing.T) {
	var b *Breaker
	assert.True(t, b.Allow())
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.CurrentState())
}
