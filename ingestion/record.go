package ingestion

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poiesic/wikipath/core"
)

// Record is one decoded snapshot line.
type Record struct {
	Title    string       `json:"title"`
	Redirect string       `json:"redirect,omitempty"`
	Links    []LinkRecord `json:"links,omitempty"`
}

// LinkRecord is the snapshot form of a link.
type LinkRecord struct {
	Target  string `json:"target"`
	Text    string `json:"text,omitempty"`
	Section string `json:"section,omitempty"`
}

// IsRedirect reports whether the record names an alternate title.
func (r *Record) IsRedirect() bool {
	return r.Redirect != ""
}

// ParseRecord decodes and normalizes one snapshot line.
// Links with blank targets are dropped; the number dropped is returned.
func ParseRecord(line []byte) (*Record, int, error) {
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	rec.Title = core.NormalizeTitle(rec.Title)
	if rec.Title == "" {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedRecord, core.ErrEmptyTitle)
	}
	if len(rec.Title) > core.MaxLabelLength {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedRecord, core.ErrLabelTooLong)
	}

	if rec.Redirect != "" {
		rec.Redirect = core.NormalizeTitle(rec.Redirect)
		rec.Links = nil
		return &rec, 0, nil
	}

	dropped := 0
	links := rec.Links[:0]
	for _, l := range rec.Links {
		l.Target = core.NormalizeTitle(l.Target)
		if l.Target == "" {
			dropped++
			continue
		}
		l.Section = strings.TrimSpace(l.Section)
		links = append(links, l)
	}
	rec.Links = links
	return &rec, dropped, nil
}

// Page converts a non-redirect record to a page.
func (r *Record) Page() *core.Page {
	page := &core.Page{
		Title: r.Title,
		Links: make([]core.Link, len(r.Links)),
	}
	for i, l := range r.Links {
		text := l.Text
		if text == "" {
			text = l.Target
		}
		page.Links[i] = core.Link{
			Target:      l.Target,
			DisplayText: text,
			Section:     l.Section,
		}
	}
	return page
}
