package ingestion

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/wikipath/storage"
)

const (
	// DefaultBatchSize is the number of records written per storage transaction.
	DefaultBatchSize = 500

	// maxLineSize bounds a single snapshot line. Hub pages carry thousands of links.
	maxLineSize = 16 * 1024 * 1024
)

// Pipeline loads snapshots into a page repository.
// Batches are written concurrently by a worker pool.
type Pipeline struct {
	pages        storage.PageRepository
	pool         *ants.Pool
	processors   []processor
	batchSize    int
	maxMalformed int // 0 means unlimited
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent writes.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many records are written per transaction.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		p.batchSize = size
		return nil
	}
}

// WithMaxMalformed aborts a load once more than limit lines failed to parse.
// Default is 0, which never aborts.
func WithMaxMalformed(limit int) Option {
	return func(p *Pipeline) error {
		if limit < 0 {
			return fmt.Errorf("malformed limit must not be negative, got %d", limit)
		}
		p.maxMalformed = limit
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline writing to pages.
func NewPipeline(pages storage.PageRepository, opts ...Option) (*Pipeline, error) {
	if pages == nil {
		return nil, ErrPageRepositoryRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		pages:     pages,
		pool:      pool,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create processors after options are applied (so they get the final logger)
	pageProc, err := newPageProcessor(pages, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	redirectProc, err := newRedirectProcessor(pages, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.processors = []processor{pageProc, redirectProc}

	return p, nil
}

// Stats summarizes one load.
type Stats struct {
	Pages        int
	Redirects    int
	Links        int
	DroppedLinks int
	Malformed    int
	Elapsed      time.Duration
}

// IngestFile loads the snapshot at path.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Ingest(ctx, f)
}

// Ingest reads a snapshot from r and writes its pages and redirects.
// It returns once every batch is written or the first write fails.
// The returned stats count what was read, even on error.
func (p *Pipeline) Ingest(ctx context.Context, r io.Reader) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
		cancel()
	}

	submit := func(proc processor, batch []*Record) error {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if runCtx.Err() != nil {
				return
			}
			if err := proc.process(runCtx, batch); err != nil {
				p.logger.Error("error writing batch", "records", len(batch), "err", err)
				fail(err)
			}
		})
		if err != nil {
			wg.Done()
		}
		return err
	}

	pending := make([][]*Record, len(p.processors))
	flush := func(i int) error {
		if len(pending[i]) == 0 {
			return nil
		}
		batch := pending[i]
		pending[i] = make([]*Record, 0, p.batchSize)
		return submit(p.processors[i], batch)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	var readErr error
scan:
	for scanner.Scan() {
		lineNo++
		if runCtx.Err() != nil {
			break
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		rec, dropped, err := ParseRecord(line)
		if err != nil {
			stats.Malformed++
			p.logger.Warn("skipping malformed line", "line", lineNo, "err", err)
			if p.maxMalformed > 0 && stats.Malformed > p.maxMalformed {
				readErr = fmt.Errorf("%w: %d (line %d)", ErrTooManyMalformed, stats.Malformed, lineNo)
				break
			}
			continue
		}

		if rec.IsRedirect() {
			stats.Redirects++
		} else {
			stats.Pages++
			stats.Links += len(rec.Links)
		}
		stats.DroppedLinks += dropped

		for i, proc := range p.processors {
			if !proc.accepts(rec) {
				continue
			}
			pending[i] = append(pending[i], rec)
			if len(pending[i]) >= p.batchSize {
				if err := flush(i); err != nil {
					readErr = err
					break scan
				}
			}
			break
		}
	}
	if readErr == nil {
		readErr = scanner.Err()
	}

	if readErr == nil && runCtx.Err() == nil {
		for i := range pending {
			if err := flush(i); err != nil {
				readErr = err
				break
			}
		}
	}

	wg.Wait()
	stats.Elapsed = time.Since(start)

	errMu.Lock()
	writeErr := firstErr
	errMu.Unlock()

	if err := errors.Join(readErr, writeErr); err != nil {
		return stats, err
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	p.logger.Info("snapshot loaded",
		"pages", stats.Pages,
		"redirects", stats.Redirects,
		"links", stats.Links,
		"malformed", stats.Malformed,
		"elapsed", stats.Elapsed)
	return stats, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
