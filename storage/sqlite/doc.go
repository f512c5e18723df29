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


// Package sqlite provides a read-only link repository over a SQLite snapshot
// of the knowledge base, opened through libsql.
//
// The snapshot schema is:
//
//	pages(id INTEGER PRIMARY KEY, title TEXT)
//	links(from_id INTEGER, to_id INTEGER, anchor TEXT)
//
// Links are returned in rowid order, which is the order they were written.
package sqlite
