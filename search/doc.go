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


// Package search finds chains of hyperlinks between two topics.
//
// The search is a greedy best-first walk over the link graph: every
// candidate link is scored by the embedding similarity of its target label
// to the destination label, and the highest scoring candidate is expanded
// next. A Finder runs two such walks at once, one from the start toward the
// goal and one from the goal toward the start, advancing each by one tick at
// a time and streaming every tick's path to a Sink.
//
// The building blocks are usable on their own:
//   - Frontier is the priority queue of candidate paths
//   - CleanPath removes loops from a candidate path
//   - SimilarityCache scores labels against each other
//   - SuccessorProvider lists the followable links of a page
//   - Engine is one direction of the search as a step-wise state machine
package search
