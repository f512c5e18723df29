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

// Package ai provides abstractions for the embedding services used by wikipath.
//
// The path finder ranks candidate links by the cosine similarity between the
// embedding of a link target and the embedding of the search goal. This package
// defines the interfaces the search depends on and the named model variants a
// caller can choose between.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - AIProvider: Hands out one Embedder per ModelVariant and owns their lifecycle
//
// # Model Variants
//
// Three variants are built in, each selectable by name or by the numeric
// selector used by the web client:
//
//	"0" or "minilm"    all-MiniLM-L6-v2
//	"1" or "gist"      GIST-small-Embedding-v0
//	"2" or "medembed"  MedEmbed-small-v0.1
//
// The model identifier sent to the embedding service for each variant is
// configurable through Config.Models.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles with call counting and deterministic vectors
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithEmbeddingHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	embedder, err := provider.Embedder(ai.VariantMiniLM)
//	vector, err := embedder.EmbedText(ctx, "Albert Einstein")
package ai
