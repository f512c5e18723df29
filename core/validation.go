// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLabelLength is the longest topic label accepted, in bytes.
// MediaWiki titles are capped at 255 bytes; the slack covers redirects with fragments.
const MaxLabelLength = 512

// NormalizeTitle converts a title to canonical form: underscores become spaces,
// runs of whitespace collapse, and the first rune is upper-cased.
func NormalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "_", " ")
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return title
	}
	r, size := utf8.DecodeRuneInString(title)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return title
	}
	return string(unicode.ToUpper(r)) + title[size:]
}

// ValidatePage validates a Page according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - Every link must pass ValidateLink
//
// NOT validated:
//   - ID (derived from the title on insert)
//   - Link targets existing as pages (dangling links are allowed)
func ValidatePage(page *Page) error {
	if page == nil {
		return fmt.Errorf("%w: page is nil", ErrInvalidPage)
	}

	if strings.TrimSpace(page.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPage, ErrEmptyTitle)
	}
	if len(page.Title) > MaxLabelLength {
		return fmt.Errorf("%w: %w", ErrInvalidPage, ErrLabelTooLong)
	}

	for i := range page.Links {
		if err := ValidateLink(&page.Links[i]); err != nil {
			return fmt.Errorf("%w: link %d: %w", ErrInvalidPage, i, err)
		}
	}

	return nil
}

// ValidateLink validates a Link.
func ValidateLink(link *Link) error {
	if link == nil {
		return fmt.Errorf("%w: link is nil", ErrInvalidLink)
	}
	if strings.TrimSpace(link.Target) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLink, ErrEmptyTarget)
	}
	return nil
}

// ValidateRequest checks presence and shape of the search inputs.
// Model selectors are checked by the caller against the configured variants.
func ValidateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Start) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrEmptyStart)
	}
	if strings.TrimSpace(req.Goal) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrEmptyGoal)
	}
	if len(req.Start) > MaxLabelLength || len(req.Goal) > MaxLabelLength {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrLabelTooLong)
	}
	return nil
}
