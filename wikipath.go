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


// Package wikipath finds hyperlink paths between two topics of a knowledge base.
//
// A Database bundles the link sources and the embedding provider a search
// needs. Links come from any combination of an ingested badger store, a
// read-only SQLite snapshot and the live MediaWiki API, consulted in that
// order. When a badger store is open, title embeddings are read from and
// written back to it.
package wikipath

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/wikipath/ai"
	"github.com/poiesic/wikipath/ai/openai"
	"github.com/poiesic/wikipath/ingestion"
	"github.com/poiesic/wikipath/reembed"
	"github.com/poiesic/wikipath/search"
	"github.com/poiesic/wikipath/storage"
	"github.com/poiesic/wikipath/storage/badger"
	"github.com/poiesic/wikipath/storage/sqlite"
	"github.com/poiesic/wikipath/wikiapi"
)

var (
	// ErrNoLinkSource is returned when Open is given neither a database path,
	// a snapshot nor a remote endpoint.
	ErrNoLinkSource = errors.New("no link source configured")

	// ErrNoDatabase is returned by operations that need the badger store when none is open.
	ErrNoDatabase = errors.New("no database open")
)

// Database holds the storage and AI services behind path searches.
type Database struct {
	backend      *badger.Backend
	pages        storage.PageRepository
	vectors      storage.VectorRepository
	links        storage.LinkRepository
	provider     ai.AIProvider
	liveProvider ai.AIProvider
	aiConfig     *ai.Config
	logger       *slog.Logger
}

// Option configures a Database.
type Option func(*options)

type options struct {
	aiConfig   *ai.Config
	provider   ai.AIProvider
	inMemory   bool
	snapshot   string
	remote     string
	remoteOpts []wikiapi.Option
	logger     *slog.Logger
}

// WithAIConfig sets the embedding service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) Option {
	return func(o *options) {
		o.aiConfig = config
	}
}

// WithProvider uses provider instead of building one from the AI config.
// The Database takes ownership and closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithInMemory opens a throwaway in-memory badger store instead of a directory.
func WithInMemory() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// WithSnapshot adds the SQLite link snapshot at path as a link source.
func WithSnapshot(path string) Option {
	return func(o *options) {
		o.snapshot = path
	}
}

// WithRemote adds the MediaWiki API at endpoint as the last link source.
func WithRemote(endpoint string, opts ...wikiapi.Option) Option {
	return func(o *options) {
		o.remote = endpoint
		o.remoteOpts = opts
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open opens the badger store at path, if path is non-empty, plus whatever
// other link sources the options name.
func Open(ctx context.Context, path string, opts ...Option) (db *Database, err error) {
	o := &options{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	db = &Database{
		aiConfig: o.aiConfig,
		logger:   o.logger,
	}
	// Unwind whatever was opened when a later step fails
	defer func() {
		if err != nil {
			db.Close()
			db = nil
		}
	}()

	var sources []storage.LinkRepository

	if path != "" || o.inMemory {
		db.backend, err = badger.OpenBackend(path, o.inMemory)
		if err != nil {
			return db, err
		}
		if db.pages, err = badger.NewPageRepository(db.backend); err != nil {
			return db, err
		}
		if db.vectors, err = badger.NewVectorRepository(db.backend); err != nil {
			return db, err
		}
		sources = append(sources, db.pages)
	}

	if o.snapshot != "" {
		snapshot, err := sqlite.Open(ctx, o.snapshot, sqlite.WithLogger(o.logger))
		if err != nil {
			return db, err
		}
		// A curated snapshot outranks ingested pages
		sources = append([]storage.LinkRepository{snapshot}, sources...)
	}

	if o.remote != "" {
		remoteOpts := append([]wikiapi.Option{wikiapi.WithLogger(o.logger)}, o.remoteOpts...)
		client, err := wikiapi.NewClient(o.remote, remoteOpts...)
		if err != nil {
			closeAll(sources)
			return db, err
		}
		sources = append(sources, client)
	}

	if len(sources) == 0 {
		return db, ErrNoLinkSource
	}
	db.links = sources[0]
	for _, next := range sources[1:] {
		db.links = wikiapi.NewFallback(db.links, next, o.logger)
	}

	db.liveProvider = o.provider
	if db.liveProvider == nil {
		if db.liveProvider, err = openai.NewProvider(o.aiConfig); err != nil {
			return db, err
		}
	}
	db.provider = db.liveProvider
	if db.vectors != nil {
		if db.provider, err = reembed.NewStoredProvider(db.liveProvider, db.vectors, o.logger); err != nil {
			return db, err
		}
	}

	return db, nil
}

func closeAll(sources []storage.LinkRepository) {
	for _, s := range sources {
		s.Close()
	}
}

// Close releases every resource the Database opened.
func (db *Database) Close() error {
	var errs []error

	// Close AI provider first
	if db.liveProvider != nil {
		if err := db.liveProvider.Close(); err != nil {
			db.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}

	// Closing the link chain closes every source in it
	if db.links != nil {
		if err := db.links.Close(); err != nil {
			db.logger.Error("error closing link sources", "err", err)
			errs = append(errs, err)
		}
	}
	if db.vectors != nil {
		if err := db.vectors.Close(); err != nil {
			db.logger.Error("error closing vector repository", "err", err)
			errs = append(errs, err)
		}
	}

	// Close backend
	if db.backend != nil {
		if err := db.backend.Close(); err != nil {
			db.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PageRepository returns the badger page store, or nil when none is open.
func (db *Database) PageRepository() storage.PageRepository {
	return db.pages
}

// VectorRepository returns the badger vector store, or nil when none is open.
func (db *Database) VectorRepository() storage.VectorRepository {
	return db.vectors
}

// Links returns the composed link source.
func (db *Database) Links() storage.LinkRepository {
	return db.links
}

// Provider returns the embedding provider searches use.
func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// NewFinder creates a path finder over the composed link source.
// opts are applied after the Database defaults.
func (db *Database) NewFinder(opts ...search.Option) (*search.Finder, error) {
	defaults := []search.Option{
		search.WithLogger(db.logger),
		search.WithDefaultVariant(db.aiConfig.DefaultVariant),
	}
	return search.NewFinder(db.links, db.provider, append(defaults, opts...)...)
}

// NewIngestionPipeline creates a pipeline loading snapshots into the badger store.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	if db.pages == nil {
		return nil, ErrNoDatabase
	}
	defaults := []ingestion.Option{ingestion.WithLogger(db.logger)}
	return ingestion.NewPipeline(db.pages, append(defaults, opts...)...)
}

// NewReembedder creates a reembedder storing vectors for variant.
// Titles are embedded by the live provider, never from stored vectors.
func (db *Database) NewReembedder(variant ai.ModelVariant, config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	if db.pages == nil {
		return nil, ErrNoDatabase
	}
	embedder, err := db.liveProvider.Embedder(variant)
	if err != nil {
		return nil, err
	}
	return reembed.NewReembedder(db.pages, db.vectors, embedder, variant, config, progress)
}
