package search

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/poiesic/wikipath/ai"
	"github.com/poiesic/wikipath/metrics"
	"golang.org/x/sync/singleflight"
)

// SimilarityCache scores topic labels by the cosine similarity of their
// embeddings. Embeddings are computed once per label and kept for the
// lifetime of the cache, which is one search session. Safe for concurrent use.
type SimilarityCache struct {
	embedder ai.Embedder

	mu      sync.RWMutex
	vectors map[string][]float32
	group   singleflight.Group
}

// NewSimilarityCache creates an empty cache backed by embedder.
func NewSimilarityCache(embedder ai.Embedder) *SimilarityCache {
	return &SimilarityCache{
		embedder: embedder,
		vectors:  make(map[string][]float32),
	}
}

// Similarity returns the cosine similarity of the embeddings of a and b, in [-1, 1].
func (c *SimilarityCache) Similarity(ctx context.Context, a, b string) (float64, error) {
	va, err := c.Embedding(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := c.Embedding(ctx, b)
	if err != nil {
		return 0, err
	}
	if len(va) != len(vb) {
		return 0, fmt.Errorf("%w: dimension mismatch %d != %d", ErrSimilarityCompute, len(va), len(vb))
	}
	return Cosine(va, vb), nil
}

// Embedding returns the unit-normalized embedding of label.
// Concurrent misses for the same label share one embedder call.
func (c *SimilarityCache) Embedding(ctx context.Context, label string) ([]float32, error) {
	c.mu.RLock()
	v, ok := c.vectors[label]
	c.mu.RUnlock()
	if ok {
		metrics.Default().IncCacheLookup("similarity", true)
		return v, nil
	}
	metrics.Default().IncCacheLookup("similarity", false)

	result, err, _ := c.group.Do(label, func() (any, error) {
		c.mu.RLock()
		v, ok := c.vectors[label]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}

		raw, err := c.embedder.EmbedText(ctx, label)
		if err != nil {
			return nil, fmt.Errorf("%w: embedding %q: %w", ErrSimilarityCompute, label, err)
		}
		if len(raw) == 0 {
			return nil, fmt.Errorf("%w: empty embedding for %q", ErrSimilarityCompute, label)
		}
		v = Normalize(raw)

		c.mu.Lock()
		c.vectors[label] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]float32), nil
}

// Len returns the number of cached embeddings.
func (c *SimilarityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}

// Normalize returns a unit-length copy of v. A zero vector is returned as a zero copy.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Cosine returns the cosine similarity of two equal-length vectors.
// Zero vectors have similarity 0 with everything.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
