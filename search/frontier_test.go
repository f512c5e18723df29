package search

import (
	"testing"

	"github.com/poiesic/wikipath/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontier_PopOrder(t *testing.T) {
	f := NewFrontier()
	assert.True(t, f.Empty())

	_, ok := f.Pop()
	assert.False(t, ok)

	f.Push("low", core.RootPath("low"), 0.1)
	f.Push("tie-1", core.RootPath("tie-1"), 0.5)
	f.Push("high", core.RootPath("high"), 0.9)
	f.Push("tie-2", core.RootPath("tie-2"), 0.5)
	f.Push("negative", core.RootPath("negative"), -0.3)
	f.Push("tie-3", core.RootPath("tie-3"), 0.5)
	assert.Equal(t, 6, f.Len())

	var got []string
	last := 2.0
	for !f.Empty() {
		e, ok := f.Pop()
		require.True(t, ok)
		assert.LessOrEqual(t, e.Priority, last)
		last = e.Priority
		got = append(got, e.Node)
	}
	assert.Equal(t, []string{"high", "tie-1", "tie-2", "tie-3", "low", "negative"}, got)
}

func TestFrontier_FIFOAcrossInterleavedPushes(t *testing.T) {
	f := NewFrontier()
	f.Push("a", nil, 1)
	f.Push("b", nil, 1)

	e, _ := f.Pop()
	assert.Equal(t, "a", e.Node)

	f.Push("c", nil, 1)
	e, _ = f.Pop()
	assert.Equal(t, "b", e.Node)
	e, _ = f.Pop()
	assert.Equal(t, "c", e.Node)
}

func TestFrontier_KeepsPath(t *testing.T) {
	f := NewFrontier()
	path := core.RootPath("A").Extend(core.Step{Target: "B", DisplayText: "b", Origin: "A"})
	f.Push("B", path, 0.2)

	e, ok := f.Pop()
	require.True(t, ok)
	assert.Equal(t, path, e.Path)
	assert.Equal(t, 0, f.Len())
}
