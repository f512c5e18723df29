package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Page IDs are content-based hashes of the canonical title.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// PageID returns the storage ID of the page with the given canonical title.
func PageID(title string) ID {
	return IDFromContent(title)
}

// Link is an outgoing hyperlink found on a page.
type Link struct {
	Target      string // Title of the linked page
	DisplayText string // Anchor text as rendered on the source page
	Section     string // Heading of the section containing the link, empty for the lead
}

// Page is a knowledge base article with its outgoing links in document order.
type Page struct {
	Id        ID
	Title     string
	Links     []Link
	UpdatedAt time.Time
}

// Step is one hop of a path. Origin is the page the link was found on;
// the root step of a path has an empty Origin.
type Step struct {
	Target      string `json:"target"`
	DisplayText string `json:"displayText"`
	Origin      string `json:"origin"`
}

// Path is an ordered sequence of steps starting at the search root.
type Path []Step

// RootPath returns the single-step path a search starts from.
func RootPath(label string) Path {
	return Path{{Target: label, DisplayText: label}}
}

// Extend returns a copy of p with s appended. The receiver is never modified,
// so paths held by other frontier entries stay intact.
func (p Path) Extend(s Step) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// Last returns the final step of the path.
func (p Path) Last() Step {
	if len(p) == 0 {
		return Step{}
	}
	return p[len(p)-1]
}

// Direction tags which side of a bidirectional search produced an event.
type Direction string

const (
	// Forward searches from the start label toward the goal label.
	Forward Direction = "forward"
	// Backward searches from the goal label toward the start label.
	Backward Direction = "backward"
)

// SameLabel reports whether two topic labels name the same node when
// checking whether a search reached its goal.
func SameLabel(a, b string) bool {
	return strings.EqualFold(a, b)
}

// EventKind classifies search events.
type EventKind int

const (
	// EventProgress reports the path of the node expanded on a tick.
	EventProgress EventKind = iota + 1
	// EventFinished reports the path that reached the goal.
	EventFinished
	// EventError reports a terminal failure.
	EventError
)

// Event is produced by a search engine for every tick and every terminal transition.
type Event struct {
	Kind      EventKind
	Direction Direction // Empty for endpoint errors, which precede direction tagging
	Path      Path
	Elapsed   time.Duration
	Err       error
}

// Terminal reports whether the event ends the producing search.
func (e *Event) Terminal() bool {
	return e.Kind == EventFinished || e.Kind == EventError
}

// Request describes one path search between two topics.
type Request struct {
	Start string `form:"startWord" json:"startWord" validate:"required,max=512"`
	Goal  string `form:"endWord" json:"endWord" validate:"required,max=512"`
	Model string `form:"model" json:"model" validate:"omitempty,max=64"`
}
