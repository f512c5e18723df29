package ai

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownModel is returned for model selectors that name no known variant.
var ErrUnknownModel = errors.New("unknown model variant")

// ModelVariant names an embedding model the caller can search with.
type ModelVariant string

const (
	// VariantMiniLM is the general purpose all-MiniLM-L6-v2 sentence model.
	VariantMiniLM ModelVariant = "minilm"
	// VariantGIST is GIST-small-Embedding-v0.
	VariantGIST ModelVariant = "gist"
	// VariantMedEmbed is MedEmbed-small-v0.1, tuned for medical text.
	VariantMedEmbed ModelVariant = "medembed"
)

// numeric selectors sent by the web client
var selectors = map[string]ModelVariant{
	"0": VariantMiniLM,
	"1": VariantGIST,
	"2": VariantMedEmbed,
}

// Variants returns the built-in variants in selector order.
func Variants() []ModelVariant {
	return []ModelVariant{VariantMiniLM, VariantGIST, VariantMedEmbed}
}

// ParseModelVariant accepts a variant name or its numeric selector.
func ParseModelVariant(s string) (ModelVariant, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if v, ok := selectors[s]; ok {
		return v, nil
	}
	for _, v := range Variants() {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}
