package reembed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/wikipath/ai"
	"github.com/poiesic/wikipath/metrics"
	"github.com/poiesic/wikipath/search"
	"github.com/poiesic/wikipath/storage"
)

// StoredEmbedder answers embedding requests from a vector store.
// Labels without a stored vector are embedded by the live embedder and
// written back. Safe for concurrent use.
type StoredEmbedder struct {
	vectors storage.VectorRepository
	model   string
	live    ai.Embedder
	logger  *slog.Logger
}

var _ ai.Embedder = (*StoredEmbedder)(nil)

// NewStoredEmbedder creates a read-through embedder over vectors stored under model.
// live may be nil, in which case labels without a stored vector fail with storage.ErrNotFound.
func NewStoredEmbedder(vectors storage.VectorRepository, model string, live ai.Embedder, logger *slog.Logger) (*StoredEmbedder, error) {
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StoredEmbedder{
		vectors: vectors,
		model:   model,
		live:    live,
		logger:  logger.With("component", "stored_embedder", "model", model),
	}, nil
}

// EmbedText returns the stored vector for text, embedding it on a miss.
func (s *StoredEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	v, err := s.lookup(ctx, text)
	if err != nil || v != nil {
		return v, err
	}
	if s.live == nil {
		return nil, fmt.Errorf("%w: no stored vector for %q", storage.ErrNotFound, text)
	}

	raw, err := s.live.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	v = search.Normalize(raw)
	s.store(ctx, map[string][]float32{text: v})
	return v, nil
}

// EmbedTexts returns vectors for texts in order. Misses are embedded in one live call.
func (s *StoredEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []int
	for i, text := range texts {
		v, err := s.lookup(ctx, text)
		if err != nil {
			return nil, err
		}
		if v == nil {
			missing = append(missing, i)
			continue
		}
		out[i] = v
	}
	if len(missing) == 0 {
		return out, nil
	}
	if s.live == nil {
		return nil, fmt.Errorf("%w: no stored vector for %q", storage.ErrNotFound, texts[missing[0]])
	}

	batch := make([]string, len(missing))
	for j, i := range missing {
		batch[j] = texts[i]
	}
	raw, err := s.live.EmbedTexts(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(raw) != len(batch) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(batch), len(raw))
	}

	fresh := make(map[string][]float32, len(batch))
	for j, i := range missing {
		out[i] = search.Normalize(raw[j])
		fresh[texts[i]] = out[i]
	}
	s.store(ctx, fresh)
	return out, nil
}

// lookup returns nil without error on a miss.
func (s *StoredEmbedder) lookup(ctx context.Context, text string) ([]float32, error) {
	v, err := s.vectors.GetVector(ctx, s.model, text)
	switch {
	case err == nil:
		metrics.Default().IncCacheLookup("vectors", true)
		return v, nil
	case errors.Is(err, storage.ErrNotFound):
		metrics.Default().IncCacheLookup("vectors", false)
		return nil, nil
	default:
		return nil, fmt.Errorf("reading stored vector for %q: %w", text, err)
	}
}

// store writes vectors back. Failures only cost a future re-embedding.
func (s *StoredEmbedder) store(ctx context.Context, vectors map[string][]float32) {
	if err := s.vectors.PutVectors(ctx, s.model, vectors); err != nil {
		s.logger.Warn("failed to store vectors", "count", len(vectors), "err", err)
	}
}

// StoredProvider wraps an ai.AIProvider so every variant's embedder reads
// through the vector store. Vectors are keyed by variant name, matching what
// Reembedder writes.
type StoredProvider struct {
	provider  ai.AIProvider
	vectors   storage.VectorRepository
	logger    *slog.Logger
	mu        sync.Mutex
	embedders map[ai.ModelVariant]*StoredEmbedder
}

var _ ai.AIProvider = (*StoredProvider)(nil)

// NewStoredProvider creates a provider serving stored vectors in front of provider.
func NewStoredProvider(provider ai.AIProvider, vectors storage.VectorRepository, logger *slog.Logger) (*StoredProvider, error) {
	if provider == nil {
		return nil, errors.New("AI provider required")
	}
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StoredProvider{
		provider:  provider,
		vectors:   vectors,
		logger:    logger,
		embedders: make(map[ai.ModelVariant]*StoredEmbedder),
	}, nil
}

// Embedder returns the read-through embedder for variant.
func (p *StoredProvider) Embedder(variant ai.ModelVariant) (ai.Embedder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.embedders[variant]; ok {
		return e, nil
	}
	live, err := p.provider.Embedder(variant)
	if err != nil {
		return nil, err
	}
	e, err := NewStoredEmbedder(p.vectors, string(variant), live, p.logger)
	if err != nil {
		return nil, err
	}
	p.embedders[variant] = e
	return e, nil
}

// Close closes the wrapped provider. The vector repository is owned by the caller.
func (p *StoredProvider) Close() error {
	return p.provider.Close()
}
