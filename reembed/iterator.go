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


package reembed

import (
	"context"

	"github.com/poiesic/wikipath/storage"
)

const (
	// DefaultBatchSize is the default number of titles embedded per request
	DefaultBatchSize = 100
)

// TitleIterator iterates over all stored page titles in batches.
type TitleIterator struct {
	pages     storage.PageRepository
	batchSize int
}

// NewTitleIterator creates a new title iterator.
// batchSize: number of titles per batch; values <= 0 select DefaultBatchSize
func NewTitleIterator(pages storage.PageRepository, batchSize int) *TitleIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &TitleIterator{
		pages:     pages,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of titles.
// Iteration stops on first error from fn or when all titles are visited.
// Context cancellation is checked between batches.
func (it *TitleIterator) ForEach(ctx context.Context, fn func(titles []string) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return it.pages.ForEachTitle(ctx, it.batchSize, fn)
}
