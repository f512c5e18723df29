package storage

import (
	"context"

	"github.com/poiesic/wikipath/core"
)

// Resolver canonicalizes topic labels.
type Resolver interface {
	// Resolve returns the canonical title for label, following redirects.
	// Returns ErrNotFound if no page matches.
	Resolve(ctx context.Context, label string) (string, error)
}

// LinkSource enumerates the outgoing links of a page.
type LinkSource interface {
	// Links returns the outgoing links of the page with the given canonical title,
	// in document order. Returns an empty slice for pages without links and
	// ErrNotFound if the page is unknown.
	Links(ctx context.Context, title string) ([]core.Link, error)
}

// LinkRepository provides read access to the link graph.
// Implementations must be thread-safe and support concurrent access.
type LinkRepository interface {
	Resolver
	LinkSource

	// Close releases resources held by the repository.
	Close() error
}

// PageRepository provides operations for managing pages in a writable store.
type PageRepository interface {
	LinkRepository

	// AddPages stores pages, replacing existing pages with the same title.
	// IDs are derived from titles and UpdatedAt is set on every page.
	// Returns the pages with IDs and timestamps populated.
	AddPages(ctx context.Context, pages ...*core.Page) ([]*core.Page, error)

	// GetPage retrieves a page by exact title.
	// Returns ErrNotFound if the page doesn't exist.
	GetPage(ctx context.Context, title string) (*core.Page, error)

	// AddRedirect records that from is an alternate title of the page titled to.
	AddRedirect(ctx context.Context, from, to string) error

	// CountPages returns the number of stored pages.
	CountPages(ctx context.Context) (int, error)

	// ForEachTitle calls fn with batches of stored page titles in key order.
	// Iteration stops on the first error from fn.
	ForEachTitle(ctx context.Context, batchSize int, fn func(titles []string) error) error
}

// VectorRepository stores precomputed label embeddings per model variant.
type VectorRepository interface {
	// GetVector returns the stored embedding for label under model.
	// Returns ErrNotFound if none is stored.
	GetVector(ctx context.Context, model, label string) ([]float32, error)

	// PutVectors stores embeddings keyed by label under model.
	PutVectors(ctx context.Context, model string, vectors map[string][]float32) error

	// Close releases resources held by the repository.
	Close() error
}
