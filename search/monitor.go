package search

import (
	"time"

	"github.com/poiesic/wikipath/core"
	"github.com/poiesic/wikipath/metrics"
)

// Monitor provides hooks to observe a search session.
// Implement this interface to track ticks and events as they happen.
// Hooks for one session are never called concurrently.
type Monitor interface {
	Start(sessionID string, req *core.Request)
	Tick(sessionID string, direction core.Direction, node string, frontier int)
	Event(sessionID string, event *core.Event)
	Finish(sessionID string, outcome Outcome, elapsed time.Duration)
}

// Outcome summarizes how a session ended.
type Outcome string

const (
	OutcomeFound     Outcome = "found"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeEndpoint  Outcome = "invalid_endpoint"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeAborted   Outcome = "aborted"
)

// NoopMonitor ignores every hook. Pass it to WithMonitor to keep a Finder
// off the metrics recorder.
type NoopMonitor struct{}

var _ Monitor = (*NoopMonitor)(nil)

func (n *NoopMonitor) Start(_ string, _ *core.Request)                  {}
func (n *NoopMonitor) Tick(_ string, _ core.Direction, _ string, _ int) {}
func (n *NoopMonitor) Event(_ string, _ *core.Event)                    {}
func (n *NoopMonitor) Finish(_ string, _ Outcome, _ time.Duration)      {}

// MetricsMonitor records ticks and session outcomes on the default metrics recorder.
type MetricsMonitor struct{}

var _ Monitor = (*MetricsMonitor)(nil)

func (m *MetricsMonitor) Start(_ string, _ *core.Request) {}

func (m *MetricsMonitor) Tick(_ string, direction core.Direction, _ string, _ int) {
	metrics.Default().IncTicks(string(direction))
}

func (m *MetricsMonitor) Event(_ string, _ *core.Event) {}

func (m *MetricsMonitor) Finish(_ string, outcome Outcome, elapsed time.Duration) {
	rec := metrics.Default()
	rec.IncSearchTotal(string(outcome))
	rec.ObserveSearchSeconds(string(outcome), elapsed.Seconds())
}

// Monitors fans hooks out to several monitors in order.
type Monitors []Monitor

var _ Monitor = (Monitors)(nil)

func (ms Monitors) Start(id string, req *core.Request) {
	for _, m := range ms {
		m.Start(id, req)
	}
}

func (ms Monitors) Tick(id string, direction core.Direction, node string, frontier int) {
	for _, m := range ms {
		m.Tick(id, direction, node, frontier)
	}
}

func (ms Monitors) Event(id string, event *core.Event) {
	for _, m := range ms {
		m.Event(id, event)
	}
}

func (ms Monitors) Finish(id string, outcome Outcome, elapsed time.Duration) {
	for _, m := range ms {
		m.Finish(id, outcome, elapsed)
	}
}
