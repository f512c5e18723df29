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

// Package storage provides the storage abstraction layer for the link graph.
//
// This package defines repository interfaces that decouple the path finder
// from where pages and links live. Three backends implement them:
//
//   - storage/badger: writable page, redirect and vector store (BadgerDB)
//   - storage/sqlite: read-only snapshot database with pages and links tables
//   - wikiapi: live MediaWiki API, usually as a fallback
//
// # Interfaces
//
//   - Resolver: canonicalizes topic labels, following redirects
//   - LinkSource: enumerates a page's outgoing links
//   - LinkRepository: Resolver + LinkSource, what the search consumes
//   - PageRepository: writable LinkRepository used by ingestion
//   - VectorRepository: precomputed embeddings keyed by model and label
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	pages := badger.NewPageRepository(backend)
//	title, err := pages.Resolve(ctx, "albert einstein")
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
