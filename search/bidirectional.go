package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/wikipath/ai"
	"github.com/poiesic/wikipath/core"
	"github.com/poiesic/wikipath/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/poiesic/wikipath/search"

// DefaultPoolSize is the number of workers stepping engines when none is configured.
const DefaultPoolSize = 64

// Sink receives the events of a search in order. Returning an error aborts the search.
type Sink func(event *core.Event) error

// Result describes a search in which at least one direction reached its goal.
type Result struct {
	SessionID string
	Forward   core.Path // Path from start to goal, nil if the forward search failed
	Backward  core.Path // Path from goal to start, nil if the backward search failed
	Elapsed   time.Duration
}

// Finder runs bidirectional path searches over a link repository.
// A Finder is safe for concurrent use; each Find call is an independent session
// sharing only the successor cache and the worker pool.
type Finder struct {
	links          storage.LinkRepository
	provider       ai.AIProvider
	defaultVariant ai.ModelVariant
	successors     *SuccessorCache
	cacheSize      int
	budget         time.Duration
	pool           *ants.Pool
	poolSize       int
	monitor        Monitor
	logger         *slog.Logger
	tracer         trace.Tracer
	now            func() time.Time
}

// Option configures a Finder.
type Option func(*Finder) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finder) error {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger
		return nil
	}
}

// WithBudget sets the wall-clock budget of each search.
// Default is DefaultBudget.
func WithBudget(budget time.Duration) Option {
	return func(f *Finder) error {
		if budget <= 0 {
			return fmt.Errorf("budget must be positive, got %s", budget)
		}
		f.budget = budget
		return nil
	}
}

// WithSuccessorCacheSize sets how many pages' link lists are cached.
// Default is DefaultSuccessorCacheSize.
func WithSuccessorCacheSize(size int) Option {
	return func(f *Finder) error {
		if size < 1 {
			return fmt.Errorf("successor cache size must be positive, got %d", size)
		}
		f.cacheSize = size
		return nil
	}
}

// WithPoolSize sets the number of workers stepping engines across all sessions.
// Default is DefaultPoolSize.
func WithPoolSize(size int) Option {
	return func(f *Finder) error {
		if size < 2 {
			size = 2
		}
		f.poolSize = size
		return nil
	}
}

// WithMonitor adds a monitor observing every session.
// Sessions report to a MetricsMonitor as well, unless monitor is a
// *NoopMonitor, which replaces every monitor set so far.
func WithMonitor(monitor Monitor) Option {
	return func(f *Finder) error {
		switch monitor.(type) {
		case nil:
		case *NoopMonitor:
			f.monitor = monitor
		default:
			f.monitor = Monitors{f.monitor, monitor}
		}
		return nil
	}
}

// WithDefaultVariant sets the embedding model used when a request names none.
// Default is ai.VariantMiniLM.
func WithDefaultVariant(variant ai.ModelVariant) Option {
	return func(f *Finder) error {
		f.defaultVariant = variant
		return nil
	}
}

// WithTracer sets the tracer for session and step spans.
// Default is the global OpenTelemetry tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(f *Finder) error {
		if tracer != nil {
			f.tracer = tracer
		}
		return nil
	}
}

// NewFinder creates a Finder reading links from links and embeddings from provider.
func NewFinder(links storage.LinkRepository, provider ai.AIProvider, opts ...Option) (*Finder, error) {
	if links == nil {
		return nil, ErrLinkSourceRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	f := &Finder{
		links:          links,
		provider:       provider,
		defaultVariant: ai.VariantMiniLM,
		cacheSize:      DefaultSuccessorCacheSize,
		budget:         DefaultBudget,
		poolSize:       DefaultPoolSize,
		monitor:        &MetricsMonitor{},
		logger:         slog.Default(),
		tracer:         otel.Tracer(tracerName),
		now:            time.Now,
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	f.logger = f.logger.With("component", "finder")

	successors, err := NewSuccessorCache(f.cacheSize)
	if err != nil {
		return nil, err
	}
	f.successors = successors

	pool, err := ants.NewPool(f.poolSize)
	if err != nil {
		return nil, err
	}
	f.pool = pool

	return f, nil
}

// Release stops the worker pool. The Finder must not be used afterwards.
func (f *Finder) Release() {
	f.pool.Release()
}

// SuccessorCache returns the cache shared by all sessions.
func (f *Finder) SuccessorCache() *SuccessorCache {
	return f.successors
}

type stepResult struct {
	event *core.Event
	err   error
}

// Find searches for a path from req.Start to req.Goal and, concurrently, from
// req.Goal to req.Start. Every tick advances both directions by one step and
// hands their events to sink, forward first. The search ends once both
// directions have finished or failed.
//
// If an endpoint does not resolve, sink receives a single untagged error event
// and Find returns an error wrapping ErrInvalidEndpoint. If neither direction
// reaches its goal, Find returns an error wrapping ErrNoPathFound together with
// the causes. Invalid requests are rejected with core.ErrInvalidRequest before
// anything is emitted.
func (f *Finder) Find(ctx context.Context, req *core.Request, sink Sink) (result *Result, err error) {
	if sink == nil {
		return nil, ErrSinkRequired
	}
	if err := core.ValidateRequest(req); err != nil {
		return nil, err
	}
	variant := f.defaultVariant
	if req.Model != "" {
		variant, err = ai.ParseModelVariant(req.Model)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrInvalidRequest, err)
		}
	}
	embedder, err := f.provider.Embedder(variant)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidRequest, err)
	}

	id := uuid.NewString()
	logger := f.logger.With("session", id)
	ctx, span := f.tracer.Start(ctx, "search.find", trace.WithAttributes(
		attribute.String("session", id),
		attribute.String("start", req.Start),
		attribute.String("goal", req.Goal),
		attribute.String("model", string(variant)),
	))
	defer span.End()

	session := &Session{
		ID:         id,
		Resolver:   f.links,
		Successors: NewSuccessorProvider(f.links, f.successors, logger),
		Similarity: NewSimilarityCache(embedder),
		Budget:     newBudgetWithClock(f.budget, f.now),
		Logger:     logger,
		Tracer:     f.tracer,
	}

	f.monitor.Start(id, req)
	logger.Info("search started", "start", req.Start, "goal", req.Goal, "model", variant)

	outcome := OutcomeAborted
	defer func() {
		elapsed := session.Budget.Elapsed()
		f.monitor.Finish(id, outcome, elapsed)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("outcome", string(outcome)))
		logger.Info("search ended", "outcome", outcome, "elapsed", elapsed)
	}()

	engines := []*Engine{
		NewEngine(core.Forward, req.Start, req.Goal, session),
		NewEngine(core.Backward, req.Goal, req.Start, session),
	}
	live := []bool{true, true}
	result = &Result{SessionID: id}
	var causes []error

	emit := func(event *core.Event) error {
		f.monitor.Event(id, event)
		return sink(event)
	}

	for live[0] || live[1] {
		if err := ctx.Err(); err != nil {
			outcome = OutcomeCancelled
			return nil, err
		}

		results := f.stepAll(ctx, engines, live)

		// Both engines resolve the same endpoints; report the failure once
		for i := range engines {
			if live[i] && results[i].event != nil && results[i].event.Kind == core.EventError && results[i].event.Direction == "" {
				outcome = OutcomeEndpoint
				if err := emit(results[i].event); err != nil {
					return nil, err
				}
				return nil, results[i].event.Err
			}
		}

		for i, engine := range engines {
			if !live[i] {
				continue
			}
			r := results[i]
			if r.err != nil {
				live[i] = false
				if ctxErr := ctx.Err(); ctxErr != nil {
					outcome = OutcomeCancelled
					return nil, ctxErr
				}
				causes = append(causes, r.err)
				if errors.Is(r.err, ErrNoPathFound) {
					logger.Info("frontier exhausted", "direction", engine.Direction(), "ticks", engine.Ticks())
					continue
				}
				logger.Warn("direction failed", "direction", engine.Direction(), "err", r.err)
				event := &core.Event{
					Kind:      core.EventError,
					Direction: engine.Direction(),
					Elapsed:   session.Budget.Elapsed(),
					Err:       r.err,
				}
				if err := emit(event); err != nil {
					return nil, err
				}
				continue
			}

			if r.event.Kind != core.EventError {
				f.monitor.Tick(id, engine.Direction(), r.event.Path.Last().Target, engine.FrontierLen())
			}
			if err := emit(r.event); err != nil {
				return nil, err
			}
			if !r.event.Terminal() {
				continue
			}
			live[i] = false
			switch r.event.Kind {
			case core.EventFinished:
				logger.Info("path found", "direction", engine.Direction(), "hops", len(r.event.Path)-1, "ticks", engine.Ticks())
				if engine.Direction() == core.Forward {
					result.Forward = r.event.Path
				} else {
					result.Backward = r.event.Path
				}
			case core.EventError:
				logger.Info("direction stopped", "direction", engine.Direction(), "err", r.event.Err)
				causes = append(causes, r.event.Err)
			}
		}
	}

	result.Elapsed = session.Budget.Elapsed()
	if result.Forward == nil && result.Backward == nil {
		outcome = OutcomeNotFound
		return nil, errors.Join(append([]error{ErrNoPathFound}, causes...)...)
	}
	outcome = OutcomeFound
	return result, nil
}

// stepAll advances every live engine by one step concurrently and waits for all of them.
func (f *Finder) stepAll(ctx context.Context, engines []*Engine, live []bool) []stepResult {
	results := make([]stepResult, len(engines))
	var wg sync.WaitGroup
	for i, engine := range engines {
		if !live[i] {
			continue
		}
		step := func() {
			event, err := engine.Step(ctx)
			results[i] = stepResult{event: event, err: err}
		}
		wg.Add(1)
		if err := f.pool.Submit(func() {
			defer wg.Done()
			step()
		}); err != nil {
			f.logger.Debug("pool unavailable, stepping inline", "err", err)
			step()
			wg.Done()
		}
	}
	wg.Wait()
	return results
}
