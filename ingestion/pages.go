package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/wikipath/core"
	"github.com/poiesic/wikipath/storage"
)

// pageProcessor writes article records as pages.
type pageProcessor struct {
	pages  storage.PageRepository
	logger *slog.Logger
}

var _ processor = (*pageProcessor)(nil)

func newPageProcessor(pages storage.PageRepository, logger *slog.Logger) (processor, error) {
	if pages == nil {
		return nil, ErrPageRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &pageProcessor{
		pages:  pages,
		logger: logger.With("processor", "pages"),
	}, nil
}

func (pp *pageProcessor) accepts(rec *Record) bool {
	return !rec.IsRedirect()
}

// process stores the batch in one write.
func (pp *pageProcessor) process(ctx context.Context, records []*Record) error {
	batch := make([]*core.Page, len(records))
	for i, rec := range records {
		batch[i] = rec.Page()
	}

	pp.logger.Debug("writing pages", "pages", len(batch))
	if _, err := pp.pages.AddPages(ctx, batch...); err != nil {
		return fmt.Errorf("writing %d pages starting at %q: %w", len(batch), batch[0].Title, err)
	}
	return nil
}

// redirectProcessor writes redirect records.
type redirectProcessor struct {
	pages  storage.PageRepository
	logger *slog.Logger
}

var _ processor = (*redirectProcessor)(nil)

func newRedirectProcessor(pages storage.PageRepository, logger *slog.Logger) (processor, error) {
	if pages == nil {
		return nil, ErrPageRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &redirectProcessor{
		pages:  pages,
		logger: logger.With("processor", "redirects"),
	}, nil
}

func (rp *redirectProcessor) accepts(rec *Record) bool {
	return rec.IsRedirect()
}

func (rp *redirectProcessor) process(ctx context.Context, records []*Record) error {
	rp.logger.Debug("writing redirects", "redirects", len(records))
	for _, rec := range records {
		if err := rp.pages.AddRedirect(ctx, rec.Title, rec.Redirect); err != nil {
			return fmt.Errorf("redirect %q -> %q: %w", rec.Title, rec.Redirect, err)
		}
	}
	return nil
}
