package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/wikipath/core"
	"github.com/poiesic/wikipath/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// State is the lifecycle state of an Engine.
type State int

const (
	StateInitializing State = iota
	StateSearching
	StateFinished
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateSearching:
		return "searching"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session holds the collaborators shared by the engines of one search.
type Session struct {
	ID         string
	Resolver   storage.Resolver
	Successors *SuccessorProvider
	Similarity *SimilarityCache
	Budget     *Budget
	Logger     *slog.Logger
	Tracer     trace.Tracer
}

// Engine searches one direction, from a start label toward a goal label.
// Each call to Step advances the search by one tick. An Engine is not safe
// for concurrent use.
type Engine struct {
	direction core.Direction
	start     string
	goal      string
	session   *Session
	logger    *slog.Logger

	state    State
	err      error
	frontier *Frontier
	visited  map[string]struct{}
	ticks    int
}

// NewEngine creates an engine searching from start to goal.
func NewEngine(direction core.Direction, start, goal string, session *Session) *Engine {
	if session.Logger == nil {
		session.Logger = slog.Default()
	}
	if session.Tracer == nil {
		session.Tracer = noop.NewTracerProvider().Tracer("")
	}
	if session.Budget == nil {
		session.Budget = NewBudget(DefaultBudget)
	}
	return &Engine{
		direction: direction,
		start:     start,
		goal:      goal,
		session:   session,
		logger:    session.Logger.With("direction", string(direction)),
		state:     StateInitializing,
		frontier:  NewFrontier(),
		visited:   make(map[string]struct{}),
	}
}

// Direction returns the direction this engine searches in.
func (e *Engine) Direction() core.Direction {
	return e.direction
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Err returns the error that moved the engine to StateFailed.
func (e *Engine) Err() error {
	return e.err
}

// FrontierLen returns the number of entries waiting on the frontier.
func (e *Engine) FrontierLen() int {
	return e.frontier.Len()
}

// Ticks returns the number of nodes expanded so far.
func (e *Engine) Ticks() int {
	return e.ticks
}

// Step advances the search by one tick and returns the event it produced.
//
// The first call resolves the start and goal labels. If either does not
// resolve, Step returns an untagged error event wrapping ErrInvalidEndpoint.
// Otherwise every call expands the best node on the frontier and returns its
// path as a progress event, or as a finished event when the node is the goal.
// A tick that finds the budget spent returns an error event wrapping
// ErrBudgetExceeded.
//
// Step returns an error, and no event, when the frontier runs dry
// (ErrNoPathFound), when a similarity cannot be computed
// (ErrSimilarityCompute), when ctx is done, or when the engine already
// terminated (ErrEngineDone).
func (e *Engine) Step(ctx context.Context) (*core.Event, error) {
	switch e.state {
	case StateFinished, StateFailed:
		return nil, ErrEngineDone
	}
	if err := ctx.Err(); err != nil {
		return nil, e.fail(err)
	}

	ctx, span := e.session.Tracer.Start(ctx, "search.step", trace.WithAttributes(
		attribute.String("session", e.session.ID),
		attribute.String("direction", string(e.direction)),
		attribute.Int("tick", e.ticks+1),
	))
	defer span.End()

	if e.state == StateInitializing {
		if event := e.initialize(ctx); event != nil {
			span.RecordError(event.Err)
			return event, nil
		}
	}

	event, err := e.tick(ctx)
	if err != nil {
		span.RecordError(err)
	}
	return event, err
}

// initialize resolves the endpoints and seeds the frontier. It returns a
// terminal event when an endpoint does not resolve.
func (e *Engine) initialize(ctx context.Context) *core.Event {
	start, err := e.resolve(ctx, e.start)
	if err == nil {
		e.start = start
		e.goal, err = e.resolve(ctx, e.goal)
	}
	if err != nil {
		e.fail(err)
		return &core.Event{
			Kind:    core.EventError,
			Elapsed: e.session.Budget.Elapsed(),
			Err:     err,
		}
	}

	e.logger.Debug("engine initialized", "start", e.start, "goal", e.goal)
	e.frontier.Push(e.start, core.RootPath(e.start), 0)
	e.state = StateSearching
	return nil
}

func (e *Engine) resolve(ctx context.Context, label string) (string, error) {
	title, err := e.session.Resolver.Resolve(ctx, label)
	if errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("%w: no page named %q", ErrInvalidEndpoint, label)
	}
	if err != nil {
		return "", fmt.Errorf("%w: resolving %q: %w", ErrInvalidEndpoint, label, err)
	}
	return title, nil
}

func (e *Engine) tick(ctx context.Context) (*core.Event, error) {
	// Already expanded nodes are dropped without costing a tick
	var entry Entry
	for {
		var ok bool
		entry, ok = e.frontier.Pop()
		if !ok {
			return nil, e.fail(fmt.Errorf("%w: frontier exhausted after %d ticks", ErrNoPathFound, e.ticks))
		}
		if _, seen := e.visited[entry.Node]; !seen {
			break
		}
	}

	elapsed := e.session.Budget.Elapsed()
	if e.session.Budget.Exceeded() {
		err := e.fail(fmt.Errorf("%w: %s elapsed", ErrBudgetExceeded, elapsed.Round(10*time.Millisecond)))
		return &core.Event{
			Kind:      core.EventError,
			Direction: e.direction,
			Elapsed:   elapsed,
			Err:       err,
		}, nil
	}

	e.ticks++
	event := &core.Event{
		Kind:      core.EventProgress,
		Direction: e.direction,
		Path:      entry.Path,
		Elapsed:   elapsed,
	}
	e.visited[entry.Node] = struct{}{}

	if core.SameLabel(entry.Node, e.goal) {
		e.state = StateFinished
		event.Kind = core.EventFinished
		e.logger.Debug("goal reached", "ticks", e.ticks, "hops", len(entry.Path)-1)
		return event, nil
	}

	for _, link := range e.session.Successors.Successors(ctx, entry.Node) {
		if _, seen := e.visited[link.Target]; seen {
			continue
		}
		priority, err := e.session.Similarity.Similarity(ctx, link.Target, e.goal)
		if err != nil {
			return nil, e.fail(err)
		}
		path := CleanPath(entry.Path.Extend(core.Step{
			Target:      link.Target,
			DisplayText: link.DisplayText,
			Origin:      entry.Node,
		}))
		e.frontier.Push(link.Target, path, priority)
	}
	return event, nil
}

func (e *Engine) fail(err error) error {
	e.state = StateFailed
	e.err = err
	return err
}
