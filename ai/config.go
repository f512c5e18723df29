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

package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds configuration for embedding service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingToken is the API token sent to the embedding service.
	// Local OpenAI-compatible servers accept any value.
	EmbeddingToken string

	// Models maps each variant to the model identifier served by EmbeddingHost.
	Models map[ModelVariant]string

	// DefaultVariant is used when a request does not name a model.
	DefaultVariant ModelVariant
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingToken sets the embedding service API token.
func WithEmbeddingToken(token string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingToken = token
	}
}

// WithModel sets the model identifier for one variant.
func WithModel(variant ModelVariant, model string) ConfigOption {
	return func(c *Config) {
		if c.Models == nil {
			c.Models = make(map[ModelVariant]string)
		}
		c.Models[variant] = model
	}
}

// WithDefaultVariant sets the variant used when none is requested.
func WithDefaultVariant(variant ModelVariant) ConfigOption {
	return func(c *Config) {
		c.DefaultVariant = variant
	}
}

// DefaultConfig returns a Config with sensible defaults for a local OpenAI-compatible service.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:  "http://localhost:11434/v1",
		EmbeddingToken: "none",
		Models: map[ModelVariant]string{
			VariantMiniLM:   "all-minilm",
			VariantGIST:     "gist-small-embedding",
			VariantMedEmbed: "medembed-small",
		},
		DefaultVariant: VariantMiniLM,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithEmbeddingHost("http://localhost:11434"),
//	    WithModel(VariantGIST, "avsolatorio/gist-small-embedding-v0"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	if c.EmbeddingToken == "" {
		c.EmbeddingToken = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if len(c.Models) == 0 {
		return errors.New("ai config: at least one model is required")
	}
	for variant, model := range c.Models {
		if model == "" {
			return fmt.Errorf("ai config: model for variant %q is empty", variant)
		}
	}
	if _, ok := c.Models[c.DefaultVariant]; !ok {
		return fmt.Errorf("ai config: default variant %q has no model", c.DefaultVariant)
	}
	return nil
}

// ResolveVariant maps a request's model selector to a configured variant.
// An empty selector yields DefaultVariant.
func (c *Config) ResolveVariant(selector string) (ModelVariant, error) {
	if strings.TrimSpace(selector) == "" {
		return c.DefaultVariant, nil
	}
	variant, err := ParseModelVariant(selector)
	if err != nil {
		return "", err
	}
	if _, ok := c.Models[variant]; !ok {
		return "", fmt.Errorf("%w: %q is not configured", ErrUnknownModel, variant)
	}
	return variant, nil
}
