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


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/wikipath"
	"github.com/poiesic/wikipath/config"
	"github.com/poiesic/wikipath/core"
	"github.com/poiesic/wikipath/ingestion"
	"github.com/poiesic/wikipath/metrics"
	"github.com/poiesic/wikipath/reembed"
	"github.com/poiesic/wikipath/search"
	"github.com/poiesic/wikipath/server"
	"github.com/poiesic/wikipath/stream"
	"github.com/poiesic/wikipath/wikiapi"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "wikipath",
		Usage: "Find hyperlink paths between topics of a knowledge base",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "find",
				Usage:     "Search for a path and print the event stream as NDJSON",
				ArgsUsage: "START GOAL",
				Action:    findCommand,
				Flags: append(sourceFlags(),
					&cli.StringFlag{
						Name:    "model",
						Aliases: []string{"m"},
						Usage:   "Embedding model variant (0, 1, 2 or minilm, gist, medembed)",
					},
					&cli.DurationFlag{
						Name:  "budget",
						Usage: "Time limit for the search",
					},
				),
			},
			{
				Name:   "serve",
				Usage:  "Serve path searches over HTTP",
				Action: serveCommand,
				Flags: append(sourceFlags(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
					},
				),
			},
			{
				Name:   "ingest",
				Usage:  "Load a JSONL link snapshot into the database",
				Action: ingestCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the JSONL snapshot",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records written per transaction",
						Value: ingestion.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent writers (0 picks half the CPUs)",
					},
					&cli.IntFlag{
						Name:  "max-malformed",
						Usage: "Abort after this many malformed lines (0 never aborts)",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Embed all stored titles for a model variant",
				Action: reembedCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:    "model",
						Aliases: []string{"m"},
						Usage:   "Embedding model variant (defaults to the configured default)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of titles to embed in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N titles",
						Value: 1000,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed batches",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-embed titles that already have a stored vector",
					},
				},
			},
		},
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB database directory",
	}
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		dbFlag(),
		&cli.StringFlag{
			Name:  "snapshot",
			Usage: "Path to a read-only SQLite link snapshot",
		},
		&cli.BoolFlag{
			Name:  "remote",
			Usage: "Fall back to the live MediaWiki API",
		},
	}
}

// setup loads configuration and configures logging.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg

	level := c.String("log-level")
	if !c.IsSet("log-level") && cfg.Log.Level != "" {
		level = cfg.Log.Level
	}
	return setupLogger(level)
}

func setupLogger(levelStr string) error {
	// Map string to slog.Level
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Logs go to stderr so stdout carries only the event stream
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// commandConfig returns the loaded configuration with the command's flags applied.
func commandConfig(c *cli.Context) (*config.Config, error) {
	cfg, ok := c.App.Metadata[configKey].(*config.Config)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	if c.IsSet("db") {
		cfg.DB = c.String("db")
	}
	if c.IsSet("snapshot") {
		cfg.Snapshot = c.String("snapshot")
	}
	if c.IsSet("remote") {
		cfg.Remote.Enabled = c.Bool("remote")
	}
	if c.IsSet("budget") {
		cfg.Search.Budget = c.Duration("budget")
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*wikipath.Database, error) {
	aiConfig, err := cfg.AIConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []wikipath.Option{
		wikipath.WithAIConfig(aiConfig),
		wikipath.WithLogger(slog.Default()),
	}
	if cfg.Snapshot != "" {
		opts = append(opts, wikipath.WithSnapshot(cfg.Snapshot))
	}
	if cfg.Remote.Enabled {
		opts = append(opts, wikipath.WithRemote(cfg.Remote.Endpoint,
			wikiapi.WithUserAgent(cfg.Remote.UserAgent),
			wikiapi.WithTimeout(cfg.Remote.Timeout),
			wikiapi.WithBreaker(
				cfg.CircuitBreaker.MaxRequests,
				cfg.CircuitBreaker.Interval,
				cfg.CircuitBreaker.Timeout,
				cfg.CircuitBreaker.ReadyToTripRatio,
			),
		))
	}

	db, err := wikipath.Open(ctx, cfg.DB, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func newFinder(db *wikipath.Database, cfg *config.Config) (*search.Finder, error) {
	opts := []search.Option{
		search.WithBudget(cfg.Search.Budget),
		search.WithSuccessorCacheSize(cfg.Search.SuccessorCacheSize),
	}
	if cfg.Search.PoolSize > 0 {
		opts = append(opts, search.WithPoolSize(cfg.Search.PoolSize))
	}
	return db.NewFinder(opts...)
}

func findCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected START and GOAL, got %d arguments", c.NArg())
	}
	cfg, err := commandConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	finder, err := newFinder(db, cfg)
	if err != nil {
		return fmt.Errorf("failed to create finder: %w", err)
	}
	defer finder.Release()

	req := &core.Request{
		Start: c.Args().Get(0),
		Goal:  c.Args().Get(1),
		Model: c.String("model"),
	}
	enc := stream.NewEncoder(c.App.Writer)
	result, err := finder.Find(ctx, req, enc.Encode)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	slog.Info("search finished",
		"session", result.SessionID,
		"forward", len(result.Forward),
		"backward", len(result.Backward),
		"elapsed", result.Elapsed)
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := commandConfig(c)
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	finder, err := newFinder(db, cfg)
	if err != nil {
		return fmt.Errorf("failed to create finder: %w", err)
	}
	defer finder.Release()

	opts := []server.Option{server.WithLogger(slog.Default())}
	if cfg.Metrics.Enabled {
		recorder := metrics.EnablePrometheus()
		opts = append(opts, server.WithMetricsHandler(recorder.Handler()))
	}

	srv, err := server.New(finder, opts...)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func ingestCommand(c *cli.Context) error {
	cfg, err := commandConfig(c)
	if err != nil {
		return err
	}
	if cfg.DB == "" {
		return errors.New("database path is required")
	}
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ingestion needs only the badger store
	cfg.Snapshot = ""
	cfg.Remote.Enabled = false
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := []ingestion.Option{
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithMaxMalformed(c.Int("max-malformed")),
	}
	if c.Int("workers") > 0 {
		opts = append(opts, ingestion.WithPoolSize(c.Int("workers")))
	}
	pipeline, err := db.NewIngestionPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.DB)
	fmt.Fprintf(c.App.ErrWriter, "Snapshot: %s\n", c.String("file"))

	stats, err := pipeline.IngestFile(ctx, c.String("file"))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(c.App.ErrWriter, "Loaded %d pages, %d redirects and %d links in %v (%d malformed lines, %d blank links dropped)\n",
		stats.Pages, stats.Redirects, stats.Links, stats.Elapsed.Round(time.Millisecond), stats.Malformed, stats.DroppedLinks)
	return nil
}

func reembedCommand(c *cli.Context) error {
	cfg, err := commandConfig(c)
	if err != nil {
		return err
	}
	if cfg.DB == "" {
		return errors.New("database path is required")
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		SkipExisting:   !c.Bool("force"),
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	aiConfig, err := cfg.AIConfig()
	if err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}
	variant, err := aiConfig.ResolveVariant(c.String("model"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Snapshot = ""
	cfg.Remote.Enabled = false
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	reembedder, err := db.NewReembedder(variant, reembedConfig, c.App.ErrWriter)
	if err != nil {
		return fmt.Errorf("failed to create reembedder: %w", err)
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.DB)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s (%s)\n", aiConfig.Models[variant], variant)
	fmt.Fprintln(c.App.ErrWriter)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}
