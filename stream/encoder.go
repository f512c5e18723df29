package stream

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/poiesic/wikipath/core"
)

// ContentType is the media type of an encoded stream.
const ContentType = "application/x-ndjson"

// Message is the wire form of one event.
type Message struct {
	Direction core.Direction `json:"direction,omitempty"`
	Path      core.Path      `json:"path,omitempty"`
	Error     string         `json:"error,omitempty"`
	Time      json.Number    `json:"time,omitempty"`
	Finished  bool           `json:"finished,omitempty"`
}

// MessageFor converts an event to its wire form. Endpoint errors carry no
// direction and no time.
func MessageFor(event *core.Event) Message {
	switch {
	case event.Kind == core.EventError && event.Direction == "":
		return Message{Error: errorText(event.Err)}
	case event.Kind == core.EventError:
		return Message{
			Direction: event.Direction,
			Error:     errorText(event.Err),
			Time:      Seconds(event.Elapsed),
		}
	default:
		return Message{
			Direction: event.Direction,
			Path:      event.Path,
			Time:      Seconds(event.Elapsed),
			Finished:  event.Kind == core.EventFinished,
		}
	}
}

// Seconds formats d as seconds with two decimals.
func Seconds(d time.Duration) json.Number {
	return json.Number(strconv.FormatFloat(d.Seconds(), 'f', 2, 64))
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// Encoder writes events to w, one JSON object per line. If w is an
// http.Flusher it is flushed after every line. Safe for concurrent use.
type Encoder struct {
	mu      sync.Mutex
	enc     *json.Encoder
	flusher http.Flusher
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	flusher, _ := w.(http.Flusher)
	return &Encoder{enc: enc, flusher: flusher}
}

// Encode writes one event.
func (e *Encoder) Encode(event *core.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(MessageFor(event)); err != nil {
		return err
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}
