// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/wikipath/ai"
	"github.com/poiesic/wikipath/storage"
)

// Config holds configuration for an embedding run.
type Config struct {
	// BatchSize is the number of titles embedded per request
	BatchSize int

	// ReportInterval is how often to report progress (number of titles)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for a failed batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// SkipExisting leaves titles with a stored vector alone, so an
	// interrupted run can be resumed
	SkipExisting bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 1000,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		SkipExisting:   true,
	}
}

// Reembedder embeds every stored page title for one model variant.
type Reembedder struct {
	pages     storage.PageRepository
	variant   ai.ModelVariant
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *TitleIterator
}

// NewReembedder creates a new reembedder.
// Vectors are stored under the variant name.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(
	pages storage.PageRepository,
	vectors storage.VectorRepository,
	embedder ai.Embedder,
	variant ai.ModelVariant,
	config *Config,
	progress io.Writer,
) (*Reembedder, error) {
	if pages == nil {
		return nil, ErrPageRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	processor := NewBatchProcessor(vectors, embedder, string(variant), config.MaxRetries, config.RetryDelay).
		SkipExisting(config.SkipExisting)

	return &Reembedder{
		pages:     pages,
		variant:   variant,
		config:    config,
		progress:  progress,
		processor: processor,
		iterator:  NewTitleIterator(pages, config.BatchSize),
	}, nil
}

// Run embeds all stored titles.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	total, err := r.pages.CountPages(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pages: %w", err)
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No pages found in database (0 pages)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Embedding %d titles with %s (batch size: %d)\n",
		total, r.variant, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(titles []string) error {
		skipped, err := r.processor.Process(ctx, titles)
		if err != nil {
			return fmt.Errorf("failed to process batch starting at %q: %w", titles[0], err)
		}
		tracker.Add(len(titles), skipped)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Embedding complete. %d titles (%d already stored) in %v (%.1f titles/sec)\n",
		total, tracker.Skipped(), elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}
