package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/wikipath/core"
	"github.com/poiesic/wikipath/storage"
)

// PageRepository implements storage.PageRepository for BadgerDB.
type PageRepository struct {
	backend *Backend
}

var _ storage.PageRepository = (*PageRepository)(nil)

// NewPageRepository creates a new PageRepository.
func NewPageRepository(backend *Backend) (*PageRepository, error) {
	return &PageRepository{
		backend: backend,
	}, nil
}

// Close releases resources. PageRepository has no resources to release.
func (r *PageRepository) Close() error {
	return nil
}

// AddPages stores pages, replacing existing pages with the same title.
func (r *PageRepository) AddPages(ctx context.Context, pages ...*core.Page) ([]*core.Page, error) {
	for _, page := range pages {
		if err := core.ValidatePage(page); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, page := range pages {
			page.Id = core.PageID(page.Title)
			page.UpdatedAt = now

			if err := tx.Set(makePageKey(page.Id), storage.MarshalPage(page)); err != nil {
				return err
			}

			// First writer owns the case-folded title
			foldKey := makeFoldKey(page.Title)
			if _, err := tx.Get(foldKey); errors.Is(err, badger.ErrKeyNotFound) {
				if err := tx.Set(foldKey, []byte(page.Title)); err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return pages, nil
}

// GetPage retrieves a page by exact title.
func (r *PageRepository) GetPage(ctx context.Context, title string) (*core.Page, error) {
	var result *core.Page
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readPage(tx, makePageKey(core.PageID(title)))
		if err != nil {
			return err
		}
		if result == nil || result.Title != title {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// AddRedirect records that from is an alternate title of the page titled to.
func (r *PageRepository) AddRedirect(ctx context.Context, from, to string) error {
	if from == "" || to == "" {
		return storage.ErrInvalidQuery
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeRedirectKey(from), []byte(to)); err != nil {
			return err
		}
		foldKey := makeFoldKey(from)
		if _, err := tx.Get(foldKey); errors.Is(err, badger.ErrKeyNotFound) {
			if err := tx.Set(foldKey, []byte(to)); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Resolve returns the canonical title for label.
// Lookup order: exact title, redirect, case-insensitive match. Each step is
// tried with the label as given and in normalized form.
func (r *PageRepository) Resolve(ctx context.Context, label string) (string, error) {
	candidates := []string{label}
	if normalized := core.NormalizeTitle(label); normalized != label {
		candidates = append(candidates, normalized)
	}

	var resolved string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, title := range candidates {
			page, err := readPage(tx, makePageKey(core.PageID(title)))
			if err != nil {
				return err
			}
			if page != nil && page.Title == title {
				resolved = title
				return nil
			}
		}
		for _, title := range candidates {
			target, err := readString(tx, makeRedirectKey(title))
			if err != nil {
				return err
			}
			if target != "" {
				resolved = target
				return nil
			}
		}
		for _, title := range candidates {
			target, err := readString(tx, makeFoldKey(title))
			if err != nil {
				return err
			}
			if target != "" {
				resolved = target
				return nil
			}
		}
		return storage.ErrNotFound
	}, false)
	return resolved, err
}

// Links returns the outgoing links of a page in document order.
func (r *PageRepository) Links(ctx context.Context, title string) ([]core.Link, error) {
	page, err := r.GetPage(ctx, title)
	if err != nil {
		return nil, err
	}
	if page.Links == nil {
		return []core.Link{}, nil
	}
	return page.Links, nil
}

// CountPages returns the number of stored pages.
func (r *PageRepository) CountPages(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(pagePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// ForEachTitle calls fn with batches of stored page titles in key order.
func (r *PageRepository) ForEachTitle(ctx context.Context, batchSize int, fn func(titles []string) error) error {
	if batchSize <= 0 {
		return storage.ErrInvalidQuery
	}

	// Collect under the read transaction, call fn outside it so fn may write
	var titles []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(pagePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var page *core.Page
			err := iter.Item().Value(func(val []byte) error {
				var err error
				page, err = storage.UnmarshalPage(val)
				return err
			})
			if err != nil {
				return err
			}
			titles = append(titles, page.Title)
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	for i := 0; i < len(titles); i += batchSize {
		end := min(i+batchSize, len(titles))
		if err := fn(titles[i:end]); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Helper methods

// readPage reads a page from the transaction.
func readPage(tx *badger.Txn, key []byte) (*core.Page, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var page *core.Page
	err = item.Value(func(val []byte) error {
		var err error
		page, err = storage.UnmarshalPage(val)
		return err
	})
	return page, err
}

// readString reads a string value, returning "" when the key is absent.
func readString(tx *badger.Txn, key []byte) (string, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}
