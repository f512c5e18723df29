package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/wikipath/ai"
	"github.com/poiesic/wikipath/ai/mock"
	"github.com/poiesic/wikipath/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, g *stubGraph, embedder ai.Embedder, clock *fakeClock, budget time.Duration) *Session {
	t.Helper()
	cache, err := NewSuccessorCache(100)
	require.NoError(t, err)
	if clock == nil {
		clock = newFakeClock()
	}
	return &Session{
		ID:         "test",
		Resolver:   g,
		Successors: NewSuccessorProvider(g, cache, nil),
		Similarity: NewSimilarityCache(embedder),
		Budget:     newBudgetWithClock(budget, clock.Now),
	}
}

func TestEngine_SingleHop(t *testing.T) {
	g := newStubGraph(map[string][]string{"A": {"B"}})
	e := NewEngine(core.Forward, "A", "B", newTestSession(t, g, mock.NewMockEmbedder(), nil, time.Minute))
	ctx := context.Background()
	assert.Equal(t, StateInitializing, e.State())

	event, err := e.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.EventProgress, event.Kind)
	assert.Equal(t, core.Forward, event.Direction)
	assert.Equal(t, core.Path{{Target: "A", DisplayText: "A", Origin: ""}}, event.Path)
	assert.Equal(t, StateSearching, e.State())

	event, err = e.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.EventFinished, event.Kind)
	assert.Equal(t, core.Path{
		{Target: "A", DisplayText: "A", Origin: ""},
		{Target: "B", DisplayText: "B-link", Origin: "A"},
	}, event.Path)
	assert.Equal(t, StateFinished, e.State())
	assert.Equal(t, 2, e.Ticks())

	_, err = e.Step(ctx)
	assert.ErrorIs(t, err, ErrEngineDone)
}

func TestEngine_StartIsGoal(t *testing.T) {
	g := newStubGraph(map[string][]string{"Physics": {"Energy"}})
	e := NewEngine(core.Backward, "physics", "PHYSICS", newTestSession(t, g, mock.NewMockEmbedder(), nil, time.Minute))

	event, err := e.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.EventFinished, event.Kind)
	assert.Equal(t, core.Backward, event.Direction)
	assert.Equal(t, core.RootPath("Physics"), event.Path)
	assert.Equal(t, 0, g.calls("Physics"), "goal node is never expanded")
}

func TestEngine_InvalidEndpoint(t *testing.T) {
	g := newStubGraph(map[string][]string{"A": {"B"}})

	for _, tt := range []struct{ start, goal string }{{"Nowhere", "A"}, {"A", "Nowhere"}} {
		t.Run(tt.start+"->"+tt.goal, func(t *testing.T) {
			e := NewEngine(core.Forward, tt.start, tt.goal, newTestSession(t, g, mock.NewMockEmbedder(), nil, time.Minute))

			event, err := e.Step(context.Background())
			require.NoError(t, err)
			assert.Equal(t, core.EventError, event.Kind)
			assert.Empty(t, event.Direction)
			assert.Empty(t, event.Path)
			assert.ErrorIs(t, event.Err, ErrInvalidEndpoint)
			assert.Contains(t, event.Err.Error(), "Nowhere")
			assert.Equal(t, StateFailed, e.State())

			_, err = e.Step(context.Background())
			assert.ErrorIs(t, err, ErrEngineDone)
		})
	}
}

func TestEngine_BudgetExceeded(t *testing.T) {
	g := newStubGraph(map[string][]string{"A": {"B"}, "B": {"C"}, "Goal": {}})
	clock := newFakeClock()
	e := NewEngine(core.Forward, "A", "Goal", newTestSession(t, g, mock.NewMockEmbedder(), clock, time.Second))
	ctx := context.Background()

	event, err := e.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.EventProgress, event.Kind)

	clock.Advance(1500 * time.Millisecond)
	event, err = e.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.EventError, event.Kind)
	assert.Equal(t, core.Forward, event.Direction)
	assert.ErrorIs(t, event.Err, ErrBudgetExceeded)
	assert.Equal(t, 1500*time.Millisecond, event.Elapsed)
	assert.True(t, event.Terminal())
	assert.ErrorIs(t, e.Err(), ErrBudgetExceeded)
	assert.Equal(t, 1, e.Ticks())
}

func TestEngine_NoPathFound(t *testing.T) {
	g := newStubGraph(map[string][]string{"A": {"C"}, "B": {}})
	e := NewEngine(core.Forward, "A", "B", newTestSession(t, g, mock.NewMockEmbedder(), nil, time.Minute))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		event, err := e.Step(ctx)
		require.NoError(t, err)
		assert.Equal(t, core.EventProgress, event.Kind)
	}
	event, err := e.Step(ctx)
	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrNoPathFound)
	assert.Equal(t, StateFailed, e.State())
}

func TestEngine_SimilarityFailure(t *testing.T) {
	g := newStubGraph(map[string][]string{"A": {"B"}, "Goal": {}})
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}
	e := NewEngine(core.Forward, "A", "Goal", newTestSession(t, g, embedder, nil, time.Minute))

	event, err := e.Step(context.Background())
	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrSimilarityCompute)
	assert.Equal(t, StateFailed, e.State())
}

func TestEngine_FollowsMostSimilarLink(t *testing.T) {
	g := newStubGraph(map[string][]string{
		"Start": {"Unrelated", "Close", "Opposite"},
		"Goal":  {},
	})
	embedder := mock.NewMockEmbedder().WithVectors(map[string][]float32{
		"Goal":      {1, 0},
		"Close":     {0.9, 0.1},
		"Unrelated": {0, 1},
		"Opposite":  {-1, 0},
	})
	e := NewEngine(core.Forward, "Start", "Goal", newTestSession(t, g, embedder, nil, time.Minute))
	ctx := context.Background()

	var order []string
	for {
		event, err := e.Step(ctx)
		if errors.Is(err, ErrNoPathFound) {
			break
		}
		require.NoError(t, err)
		order = append(order, event.Path.Last().Target)
	}
	assert.Equal(t, []string{"Start", "Close", "Unrelated", "Opposite"}, order)
	assert.Equal(t, 1, embedder.TextCount("Goal"))
}

func TestEngine_CyclicGraphNeverRepeatsOrigins(t *testing.T) {
	nodes := []string{"A", "B", "C", "D", "E"}
	adjacency := map[string][]string{"Goal": {}}
	for _, from := range nodes {
		for _, to := range nodes {
			if from != to {
				adjacency[from] = append(adjacency[from], to)
			}
		}
	}
	g := newStubGraph(adjacency)
	e := NewEngine(core.Forward, "A", "Goal", newTestSession(t, g, mock.NewMockEmbedder(), nil, time.Minute))
	ctx := context.Background()

	expanded := map[string]int{}
	for {
		event, err := e.Step(ctx)
		if errors.Is(err, ErrNoPathFound) {
			break
		}
		require.NoError(t, err)

		origins := map[string]bool{}
		for _, s := range event.Path {
			assert.False(t, origins[s.Origin], "origin %q repeated in %v", s.Origin, event.Path)
			origins[s.Origin] = true
		}
		expanded[event.Path.Last().Target]++
	}

	assert.Len(t, expanded, len(nodes))
	for node, n := range expanded {
		assert.Equal(t, 1, n, "node %s expanded more than once", node)
		assert.Equal(t, 1, g.calls(node), "links of %s fetched more than once", node)
	}
}

func TestEngine_CancelledContext(t *testing.T) {
	g := newStubGraph(map[string][]string{"A": {"B"}})
	e := NewEngine(core.Forward, "A", "B", newTestSession(t, g, mock.NewMockEmbedder(), nil, time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Step(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, e.State())
}
