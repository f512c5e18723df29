package search

import (
	"context"
	"errors"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/wikipath/core"
	"github.com/poiesic/wikipath/metrics"
	"github.com/poiesic/wikipath/storage"
	"golang.org/x/sync/singleflight"
)

// DefaultSuccessorCacheSize is the number of pages whose links are kept
// when no size is configured.
const DefaultSuccessorCacheSize = 10000

// SuccessorCache is a bounded, least-recently-used cache of filtered link
// lists keyed by exact page title. Safe for concurrent use.
type SuccessorCache struct {
	links *lru.Cache[string, []core.Link]
	group singleflight.Group
}

// NewSuccessorCache creates a cache holding at most size pages.
func NewSuccessorCache(size int) (*SuccessorCache, error) {
	if size <= 0 {
		size = DefaultSuccessorCacheSize
	}
	links, err := lru.New[string, []core.Link](size)
	if err != nil {
		return nil, err
	}
	return &SuccessorCache{links: links}, nil
}

// Len returns the number of cached pages.
func (c *SuccessorCache) Len() int {
	return c.links.Len()
}

// Purge empties the cache.
func (c *SuccessorCache) Purge() {
	c.links.Purge()
}

// SuccessorProvider lists the links a search may follow from a page.
type SuccessorProvider struct {
	source storage.LinkSource
	cache  *SuccessorCache
	logger *slog.Logger
}

// NewSuccessorProvider creates a provider reading from source through cache.
func NewSuccessorProvider(source storage.LinkSource, cache *SuccessorCache, logger *slog.Logger) *SuccessorProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &SuccessorProvider{
		source: source,
		cache:  cache,
		logger: logger,
	}
}

// Successors returns the followable links of the page titled label, in
// document order. Links into non-article namespaces are skipped, and the
// list ends at the first link inside a reference-style section. Source
// failures are logged and yield no links; they are not cached.
//
// Concurrent misses for one label share a single fetch. The fetch is not
// tied to any one caller's cancellation, so a caller that gives up leaves
// the fetch running for the others.
func (p *SuccessorProvider) Successors(ctx context.Context, label string) []core.Link {
	if links, ok := p.cache.links.Get(label); ok {
		metrics.Default().IncCacheLookup("successors", true)
		return links
	}
	metrics.Default().IncCacheLookup("successors", false)

	fetchCtx := context.WithoutCancel(ctx)
	ch := p.cache.group.DoChan(label, func() (any, error) {
		if links, ok := p.cache.links.Get(label); ok {
			return links, nil
		}
		raw, err := p.source.Links(fetchCtx, label)
		if err != nil {
			return nil, err
		}
		links := FilterLinks(raw)
		p.cache.links.Add(label, links)
		return links, nil
	})

	select {
	case <-ctx.Done():
		p.logger.Debug("stopped waiting for links", "title", label, "err", ctx.Err())
		return nil
	case res := <-ch:
		if res.Err != nil {
			p.logFetchError(ctx, label, res.Err)
			return nil
		}
		return res.Val.([]core.Link)
	}
}

func (p *SuccessorProvider) logFetchError(ctx context.Context, label string, err error) {
	switch {
	case ctx.Err() != nil:
		p.logger.Debug("links fetched after cancellation", "title", label, "err", err)
	case errors.Is(err, storage.ErrNotFound):
		p.logger.Debug("page has no link list", "title", label)
	default:
		p.logger.Warn("failed to fetch links", "title", label, "err", err)
	}
}

// FilterLinks drops links a search never follows. The input is not modified.
func FilterLinks(links []core.Link) []core.Link {
	out := make([]core.Link, 0, len(links))
	for _, link := range links {
		if core.IsReferenceSection(link.Section) {
			break
		}
		if core.IsExcludedNamespace(link.Target) {
			continue
		}
		out = append(out, link)
	}
	return out
}
