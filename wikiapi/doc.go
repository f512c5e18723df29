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


// Package wikiapi reads titles and links from a live MediaWiki Action API.
//
// Client implements storage.LinkRepository so it can stand in for a local
// store, and Fallback puts it behind a local store for pages the store lacks.
// Requests pass through a circuit breaker so an unreachable wiki fails fast
// instead of stalling every search tick.
package wikiapi
