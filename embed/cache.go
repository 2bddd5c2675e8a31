package embed

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

/*
CachedEncoder memoizes another encoder by exact text.

Cached vectors are copied on the way in and out, so callers may normalize
or otherwise modify what they get back.
*/
type CachedEncoder struct {
	inner Encoder
	cache *lru.Cache
}

func NewCachedEncoder(inner Encoder, size int) (*CachedEncoder, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	return &CachedEncoder{inner: inner, cache: cache}, nil
}

func (c *CachedEncoder) Dimensions() int {
	return c.inner.Dimensions()
}

func (c *CachedEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := c.cache.Get(text); ok {
		return clone(cached.([]float32)), nil
	}

	v, err := c.inner.Encode(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, clone(v))
	return v, nil
}

// Len returns the number of cached texts.
func (c *CachedEncoder) Len() int {
	return c.cache.Len()
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
