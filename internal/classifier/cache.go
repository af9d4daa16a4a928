package classifier

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"aufseher/internal/metrics"
)

// Classifier returns a spam verdict for a text.
type Classifier interface {
	IsSpam(ctx context.Context, text string) (bool, error)
}

// Cached remembers successful verdicts by exact text for a limited time.
// Errors are never cached.
type Cached struct {
	next  Classifier
	cache *expirable.LRU[string, bool]
}

// NewCached wraps next with an LRU of the given capacity and entry lifetime.
func NewCached(next Classifier, capacity int, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: expirable.NewLRU[string, bool](capacity, nil, ttl),
	}
}

// IsSpam returns the cached verdict for text or asks the wrapped classifier.
func (c *Cached) IsSpam(ctx context.Context, text string) (bool, error) {
	if spam, ok := c.cache.Get(text); ok {
		metrics.ClassifierRequests.WithLabelValues("cached").Inc()
		return spam, nil
	}
	spam, err := c.next.IsSpam(ctx, text)
	if err != nil {
		return false, err
	}
	c.cache.Add(text, spam)
	return spam, nil
}
