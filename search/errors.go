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


package search

import "errors"

var (
	// ErrLinkSourceRequired is returned when a link repository is not provided.
	ErrLinkSourceRequired = errors.New("link repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrSinkRequired is returned when Find is called without an event sink.
	ErrSinkRequired = errors.New("event sink required")

	// ErrInvalidEndpoint is returned when the start or goal label does not resolve to a page.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrBudgetExceeded is returned when a direction runs out of wall-clock time.
	ErrBudgetExceeded = errors.New("search budget exceeded")

	// ErrNoPathFound is returned when no direction reached its goal.
	ErrNoPathFound = errors.New("no path found")

	// ErrSimilarityCompute is returned when an embedding could not be computed.
	ErrSimilarityCompute = errors.New("similarity computation failed")

	// ErrEngineDone is returned by Step once an engine has terminated.
	ErrEngineDone = errors.New("engine already terminated")
)
