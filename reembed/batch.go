package reembed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/wikipath/ai"
	"github.com/poiesic/wikipath/search"
	"github.com/poiesic/wikipath/storage"
)

// BatchProcessor embeds batches of titles and stores the vectors.
type BatchProcessor struct {
	vectors        storage.VectorRepository
	embedder       ai.Embedder
	model          string
	maxRetries     int
	retryBaseDelay time.Duration
	skipExisting   bool
}

// NewBatchProcessor creates a new batch processor storing vectors under model.
// maxRetries: maximum number of attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(vectors storage.VectorRepository, embedder ai.Embedder, model string, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		vectors:        vectors,
		embedder:       embedder,
		model:          model,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// SkipExisting makes Process leave titles that already have a vector alone.
func (bp *BatchProcessor) SkipExisting(skip bool) *BatchProcessor {
	bp.skipExisting = skip
	return bp
}

// Process embeds titles and stores their normalized vectors.
// It returns the number of titles skipped because a vector was already stored.
func (bp *BatchProcessor) Process(ctx context.Context, titles []string) (int, error) {
	if len(titles) == 0 {
		return 0, nil
	}

	pending := titles
	if bp.skipExisting {
		pending = make([]string, 0, len(titles))
		for _, title := range titles {
			_, err := bp.vectors.GetVector(ctx, bp.model, title)
			switch {
			case err == nil:
				continue
			case errors.Is(err, storage.ErrNotFound):
				pending = append(pending, title)
			default:
				return 0, fmt.Errorf("checking stored vector for %q: %w", title, err)
			}
		}
	}
	skipped := len(titles) - len(pending)
	if len(pending) == 0 {
		return skipped, nil
	}

	// Generate embeddings with retry
	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, pending)
		if errors.Is(err, ai.ErrUnknownModel) {
			return Permanent(err)
		}
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return skipped, fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(pending) {
		return skipped, fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(pending), len(embeddings))
	}

	batch := make(map[string][]float32, len(pending))
	for i, title := range pending {
		batch[title] = search.Normalize(embeddings[i])
	}

	if err := bp.vectors.PutVectors(ctx, bp.model, batch); err != nil {
		return skipped, fmt.Errorf("failed to store vectors: %w", err)
	}

	return skipped, nil
}
