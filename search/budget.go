package search

import "time"

// DefaultBudget is the wall-clock time a search may run when none is configured.
const DefaultBudget = 60 * time.Second

// Budget bounds the wall-clock time of a search. It is checked once per tick,
// so work already in flight is never interrupted.
type Budget struct {
	Max   time.Duration
	start time.Time
	now   func() time.Time
}

// NewBudget creates a budget of max, started now.
func NewBudget(max time.Duration) *Budget {
	return newBudgetWithClock(max, time.Now)
}

func newBudgetWithClock(max time.Duration, now func() time.Time) *Budget {
	if max <= 0 {
		max = DefaultBudget
	}
	return &Budget{Max: max, start: now(), now: now}
}

// Elapsed returns the time since the budget started.
func (b *Budget) Elapsed() time.Duration {
	return b.now().Sub(b.start)
}

// Exceeded reports whether more than Max has elapsed.
func (b *Budget) Exceeded() bool {
	return b.Elapsed() > b.Max
}
