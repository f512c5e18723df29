package search

import (
	"container/heap"

	"github.com/poiesic/wikipath/core"
)

// Entry is a candidate node waiting on the frontier together with the path
// that reached it.
type Entry struct {
	Node     string
	Path     core.Path
	Priority float64
	seq      uint64
}

// entryHeap orders entries by priority, highest first, then by insertion order.
type entryHeap []*Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(*Entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Frontier is a max-priority queue of entries. Entries with equal priority
// come out in the order they were pushed. Not safe for concurrent use.
type Frontier struct {
	entries entryHeap
	nextSeq uint64
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{}
}

// Push adds node, reached by path, with the given priority.
func (f *Frontier) Push(node string, path core.Path, priority float64) {
	heap.Push(&f.entries, &Entry{
		Node:     node,
		Path:     path,
		Priority: priority,
		seq:      f.nextSeq,
	})
	f.nextSeq++
}

// Pop removes and returns the highest priority entry.
// The second result is false when the frontier is empty.
func (f *Frontier) Pop() (Entry, bool) {
	if len(f.entries) == 0 {
		return Entry{}, false
	}
	return *heap.Pop(&f.entries).(*Entry), true
}

// Empty reports whether the frontier holds no entries.
func (f *Frontier) Empty() bool {
	return len(f.entries) == 0
}

// Len returns the number of queued entries.
func (f *Frontier) Len() int {
	return len(f.entries)
}
