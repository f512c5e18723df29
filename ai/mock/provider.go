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

package mock

import (
	"fmt"

	"github.com/poiesic/wikipath/ai"
)

// MockProvider is a test double for ai.AIProvider.
// Every built-in variant is served by the same mock embedder unless
// overridden with SetEmbedder.
type MockProvider struct {
	embedder  *MockEmbedder
	overrides map[ai.ModelVariant]*MockEmbedder
	closed    bool
}

// NewMockProvider creates a new mock provider with a default mock embedder.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder() to access the concrete type for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{embedder: NewMockEmbedder()}
}

// NewMockProviderWithEmbedder creates a mock provider serving the given embedder.
func NewMockProviderWithEmbedder(embedder *MockEmbedder) *MockProvider {
	return &MockProvider{embedder: embedder}
}

// SetEmbedder serves a dedicated embedder for one variant.
func (p *MockProvider) SetEmbedder(variant ai.ModelVariant, embedder *MockEmbedder) {
	if p.overrides == nil {
		p.overrides = make(map[ai.ModelVariant]*MockEmbedder)
	}
	p.overrides[variant] = embedder
}

// Embedder returns the mock embedder for a variant.
func (p *MockProvider) Embedder(variant ai.ModelVariant) (ai.Embedder, error) {
	if e, ok := p.overrides[variant]; ok {
		return e, nil
	}
	for _, v := range ai.Variants() {
		if v == variant {
			return p.embedder, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ai.ErrUnknownModel, variant)
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockEmbedder returns the default mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}
