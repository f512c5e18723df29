package wikiapi

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/wikipath/core"
	"github.com/poiesic/wikipath/storage"
)

// Fallback reads from a primary repository and falls back to a secondary one,
// usually a Client, for pages the primary does not know or has no links for.
type Fallback struct {
	primary   storage.LinkRepository
	secondary storage.LinkRepository
	logger    *slog.Logger
}

var _ storage.LinkRepository = (*Fallback)(nil)

// NewFallback composes primary and secondary.
func NewFallback(primary, secondary storage.LinkRepository, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With("component", "fallback"),
	}
}

// Resolve tries the primary first and the secondary when the primary has no match.
func (f *Fallback) Resolve(ctx context.Context, label string) (string, error) {
	title, err := f.primary.Resolve(ctx, label)
	if err == nil || !errors.Is(err, storage.ErrNotFound) {
		return title, err
	}
	f.logger.Debug("resolving remotely", "label", label)
	return f.secondary.Resolve(ctx, label)
}

// Links tries the primary first and the secondary when the primary does not
// know the page or lists no links for it. If the secondary fails after the
// primary returned an empty list, the empty list is returned.
func (f *Fallback) Links(ctx context.Context, title string) ([]core.Link, error) {
	links, err := f.primary.Links(ctx, title)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if err == nil && len(links) > 0 {
		return links, nil
	}

	remote, remoteErr := f.secondary.Links(ctx, title)
	if remoteErr != nil {
		if err == nil {
			f.logger.Debug("remote links unavailable", "title", title, "err", remoteErr)
			return links, nil
		}
		return nil, remoteErr
	}
	return remote, nil
}

// Close closes both repositories.
func (f *Fallback) Close() error {
	return errors.Join(f.primary.Close(), f.secondary.Close())
}
