package stream

import (
	"bytes"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/wikipath/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder_Lines(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	root := core.RootPath("A")
	full := root.Extend(core.Step{Target: "B", DisplayText: "B & co", Origin: "A"})
	events := []*core.Event{
		{Kind: core.EventProgress, Direction: core.Forward, Path: root, Elapsed: 420 * time.Millisecond},
		{Kind: core.EventFinished, Direction: core.Forward, Path: full, Elapsed: 1029 * time.Millisecond},
		{Kind: core.EventError, Direction: core.Backward, Err: errors.New("search budget exceeded"), Elapsed: 60010 * time.Millisecond},
		{Kind: core.EventError, Err: fmt.Errorf("invalid endpoint: %q", "Atlantis")},
	}
	for _, e := range events {
		require.NoError(t, enc.Encode(e))
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `{"direction":"forward","path":[{"target":"A","displayText":"A","origin":""}],"time":0.42}`, lines[0])
	assert.Equal(t, `{"direction":"forward","path":[{"target":"A","displayText":"A","origin":""},{"target":"B","displayText":"B & co","origin":"A"}],"time":1.03,"finished":true}`, lines[1])
	assert.Equal(t, `{"direction":"backward","error":"search budget exceeded","time":60.01}`, lines[2])
	assert.Equal(t, `{"error":"invalid endpoint: \"Atlantis\""}`, lines[3])
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, "0.00", Seconds(0).String())
	assert.Equal(t, "0.01", Seconds(5*time.Millisecond+time.Microsecond).String())
	assert.Equal(t, "12.35", Seconds(12345*time.Millisecond+time.Millisecond).String())
}

func TestEncoder_FlushesHTTPResponses(t *testing.T) {
	rec := httptest.NewRecorder()
	enc := NewEncoder(rec)

	require.NoError(t, enc.Encode(&core.Event{Kind: core.EventProgress, Direction: core.Backward, Path: core.RootPath("Z")}))
	assert.True(t, rec.Flushed)
	assert.Contains(t, rec.Body.String(), `"direction":"backward"`)
}
