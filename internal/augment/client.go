package augment

import (
	"context"
	"time"

	"tradewind/internal/logger"
	"tradewind/internal/pkg/circuit"
)

const (
	breakerThreshold = 5
	breakerCooldown  = 2 * time.Minute
)

// Client wraps the provider with the cache, a circuit breaker and the
// fallback chain. The cache is constructor-injected so instances stay
// independent.
type Client struct {
	provider Provider
	cache    *Cache
	breaker  *circuit.Breaker
	nowFn    func() time.Time
}

func NewClient(provider Provider, cache *Cache) *Client {
	if cache == nil {
		cache = NewCache(bucketSize)
	}
	name := "augment"
	if provider != nil {
		name = "augment:" + provider.ID()
	}
	return &Client{
		provider: provider,
		cache:    cache,
		breaker:  circuit.NewBreaker(name, breakerThreshold, breakerCooldown),
		nowFn:    time.Now,
	}
}

// GetDirectionalAssessment returns a usable result in every case: cached,
// live, or one of the two fallbacks. It never returns an error.
func (c *Client) GetDirectionalAssessment(ctx context.Context, s Summary) Result {
	key := c.cache.Key(s.Symbol, s.Price, c.nowFn())
	if cached, ok := c.cache.Get(key); ok {
		cached.Provenance = ProvenanceCached
		return cached
	}

	if c.provider != nil && c.breaker.Allow() {
		system, user := BuildPrompt(s)
		raw, err := c.provider.Call(ctx, system, user)
		if err == nil {
			c.breaker.RecordSuccess()
			direction, confidence := ParseResponse(raw)
			res := Result{Direction: direction, Confidence: confidence, Provenance: ProvenanceLive}
			c.cache.Put(key, res)
			return res
		}
		c.breaker.RecordFailure()
		logger.Warnf("augment call failed (%s), using fallback: %v", s.Symbol, err)
	}

	if s.HasAnalyzerContext {
		return HeuristicFallback(s)
	}
	return BasicFallback(s)
}
