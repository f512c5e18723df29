package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/poiesic/wikipath/core"
	"github.com/poiesic/wikipath/metrics"
	"github.com/poiesic/wikipath/storage"
)

const (
	queryExactTitle = `SELECT id, title FROM pages WHERE title = ? LIMIT 1`
	queryFoldTitle  = `SELECT id, title FROM pages WHERE title = ? COLLATE NOCASE ORDER BY id LIMIT 1`
	queryLinks      = `SELECT p.title, COALESCE(l.anchor, '') FROM links l JOIN pages p ON p.id = l.to_id WHERE l.from_id = ? ORDER BY l.rowid`
)

// Tuning applied to the first pooled connection on open. Failures are
// logged, not fatal.
var readOnlyPragmas = []string{
	"PRAGMA query_only = ON",
	"PRAGMA temp_store = MEMORY",
	"PRAGMA cache_size = -65536",
	"PRAGMA mmap_size = 268435456",
}

// SnapshotRepository implements storage.LinkRepository over a SQLite file.
type SnapshotRepository struct {
	db     *sql.DB
	logger *slog.Logger

	stmtMu sync.RWMutex
	stmts  map[string]*sql.Stmt
}

var _ storage.LinkRepository = (*SnapshotRepository)(nil)

// Option configures a SnapshotRepository.
type Option func(*SnapshotRepository) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *SnapshotRepository) error {
		r.logger = logger
		return nil
	}
}

// Open opens the snapshot at path for reading.
func Open(ctx context.Context, path string, opts ...Option) (*SnapshotRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty snapshot path", storage.ErrInvalidQuery)
	}
	r := &SnapshotRepository{
		logger: slog.Default(),
		stmts:  make(map[string]*sql.Stmt),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "sqlite-snapshot")

	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		// Opening would create an empty database
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to open snapshot: %w", err)
		}
		dsn = "file:" + path
	}
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	r.db = db

	for _, pragma := range readOnlyPragmas {
		// Some pragmas return a row, so run them as queries
		rows, err := db.QueryContext(ctx, pragma)
		if err != nil {
			r.logger.Warn("pragma failed", "pragma", pragma, "err", err)
			continue
		}
		rows.Close()
	}
	return r, nil
}

// Close releases prepared statements and the database handle.
func (r *SnapshotRepository) Close() error {
	r.stmtMu.Lock()
	for _, stmt := range r.stmts {
		stmt.Close()
	}
	r.stmts = map[string]*sql.Stmt{}
	r.stmtMu.Unlock()
	return r.db.Close()
}

// Resolve returns the canonical title for label. Lookup order: exact title,
// normalized title, then a case-insensitive match.
func (r *SnapshotRepository) Resolve(ctx context.Context, label string) (title string, err error) {
	done := metrics.TimeOp("snapshot_resolve")
	defer func() { done(err == nil || errors.Is(err, storage.ErrNotFound)) }()

	candidates := []string{label}
	if normalized := core.NormalizeTitle(label); normalized != label {
		candidates = append(candidates, normalized)
	}
	for _, query := range []string{queryExactTitle, queryFoldTitle} {
		for _, candidate := range candidates {
			_, title, err := r.lookup(ctx, query, candidate)
			if err == nil {
				return title, nil
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return "", err
			}
		}
	}
	return "", storage.ErrNotFound
}

// Links returns the outgoing links of the page titled title.
func (r *SnapshotRepository) Links(ctx context.Context, title string) (links []core.Link, err error) {
	done := metrics.TimeOp("snapshot_links")
	defer func() { done(err == nil || errors.Is(err, storage.ErrNotFound)) }()

	id, _, err := r.lookup(ctx, queryExactTitle, title)
	if err != nil {
		return nil, err
	}

	stmt, err := r.prepared(ctx, queryLinks)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query links of %q: %w", title, err)
	}
	defer rows.Close()

	links = []core.Link{}
	for rows.Next() {
		var link core.Link
		if err := rows.Scan(&link.Target, &link.DisplayText); err != nil {
			return nil, fmt.Errorf("failed to scan link of %q: %w", title, err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read links of %q: %w", title, err)
	}
	return links, nil
}

func (r *SnapshotRepository) lookup(ctx context.Context, query, title string) (int64, string, error) {
	stmt, err := r.prepared(ctx, query)
	if err != nil {
		return 0, "", err
	}
	var id int64
	var found string
	err = stmt.QueryRowContext(ctx, title).Scan(&id, &found)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", storage.ErrNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("failed to look up %q: %w", title, err)
	}
	return id, found, nil
}

// prepared returns a cached prepared statement for query.
func (r *SnapshotRepository) prepared(ctx context.Context, query string) (*sql.Stmt, error) {
	r.stmtMu.RLock()
	stmt, ok := r.stmts[query]
	r.stmtMu.RUnlock()
	if ok {
		metrics.Default().IncCacheLookup("snapshot_stmt", true)
		return stmt, nil
	}
	metrics.Default().IncCacheLookup("snapshot_stmt", false)

	r.stmtMu.Lock()
	defer r.stmtMu.Unlock()
	if stmt, ok := r.stmts[query]; ok {
		return stmt, nil
	}
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	r.stmts[query] = stmt
	return stmt, nil
}
