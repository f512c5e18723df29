package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/wikipath/core"
	"github.com/poiesic/wikipath/storage"
)

// stubGraph is an in-memory link repository that counts link lookups.
type stubGraph struct {
	mu        sync.Mutex
	pages     map[string][]core.Link
	linkErrs  map[string]error
	linkCalls map[string]int
}

var _ storage.LinkRepository = (*stubGraph)(nil)

// newStubGraph builds a graph from adjacency lists. Every link's display
// text is its target followed by "-link".
func newStubGraph(adjacency map[string][]string) *stubGraph {
	g := &stubGraph{
		pages:     make(map[string][]core.Link),
		linkErrs:  make(map[string]error),
		linkCalls: make(map[string]int),
	}
	for title, targets := range adjacency {
		links := make([]core.Link, 0, len(targets))
		for _, target := range targets {
			links = append(links, core.Link{Target: target, DisplayText: target + "-link"})
			if _, ok := adjacency[target]; !ok {
				if _, ok := g.pages[target]; !ok {
					g.pages[target] = []core.Link{}
				}
			}
		}
		g.pages[title] = links
	}
	return g
}

func (g *stubGraph) Resolve(_ context.Context, label string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.pages[label]; ok {
		return label, nil
	}
	for title := range g.pages {
		if strings.EqualFold(title, label) {
			return title, nil
		}
	}
	return "", storage.ErrNotFound
}

func (g *stubGraph) Links(_ context.Context, title string) ([]core.Link, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.linkCalls[title]++
	if err, ok := g.linkErrs[title]; ok {
		return nil, err
	}
	links, ok := g.pages[title]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return links, nil
}

func (g *stubGraph) Close() error { return nil }

func (g *stubGraph) calls(title string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.linkCalls[title]
}

func (g *stubGraph) setLinks(title string, links []core.Link) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pages[title] = links
}

func (g *stubGraph) failLinks(title string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.linkErrs[title] = err
}

// fakeClock is a settable clock safe for concurrent reads.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// eventLog collects events passed to a Sink.
type eventLog struct {
	events []*core.Event
}

func (l *eventLog) sink(event *core.Event) error {
	l.events = append(l.events, event)
	return nil
}

func (l *eventLog) forDirection(d core.Direction) []*core.Event {
	var out []*core.Event
	for _, e := range l.events {
		if e.Direction == d {
			out = append(out, e)
		}
	}
	return out
}
