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

package openai

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/wikipath/ai"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
// Embedders are created on first use and shared afterwards.
type Provider struct {
	config    *ai.Config
	mu        sync.Mutex
	embedders map[ai.ModelVariant]*Embedder
	logger    *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Provider{
		config:    config,
		embedders: make(map[ai.ModelVariant]*Embedder),
		logger:    slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the embedding service for a model variant.
func (p *Provider) Embedder(variant ai.ModelVariant) (ai.Embedder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.embedders[variant]; ok {
		return e, nil
	}

	model, ok := p.config.Models[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ai.ErrUnknownModel, variant)
	}

	e, err := newEmbedder(p.config, model)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("created embedder", "variant", variant, "model", model)
	p.embedders[variant] = e
	return e, nil
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
