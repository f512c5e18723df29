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

import "errors"

// Domain validation errors
var (
	// ErrInvalidPage indicates a Page failed validation.
	ErrInvalidPage = errors.New("invalid page")

	// ErrInvalidLink indicates a Link failed validation.
	ErrInvalidLink = errors.New("invalid link")

	// ErrInvalidRequest indicates a search Request failed validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmptyTitle indicates a page title is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyTarget indicates a link target is empty.
	ErrEmptyTarget = errors.New("link target cannot be empty")

	// ErrEmptyStart indicates the start label is empty.
	ErrEmptyStart = errors.New("start label cannot be empty")

	// ErrEmptyGoal indicates the goal label is empty.
	ErrEmptyGoal = errors.New("goal label cannot be empty")

	// ErrLabelTooLong indicates a label exceeds MaxLabelLength bytes.
	ErrLabelTooLong = errors.New("label too long")
)
