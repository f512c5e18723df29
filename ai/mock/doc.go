// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder and ai.AIProvider
// for use in unit tests. The mocks run without an embedding service and give
// controlled, deterministic vectors.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embedder, _ := mockProvider.Embedder(ai.VariantMiniLM)
//
//	// Scripted vectors to steer similarity
//	mockEmbedder := mock.NewMockEmbedder().WithVectors(map[string][]float32{
//	    "Goal": {1, 0},
//	    "Near": {0.9, 0.1},
//	})
//
//	// Check call counts
//	count := mockEmbedder.TextCount("Near")
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockProvider: Serves one mock embedder for every built-in variant
package mock
