package openai

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/wikipath/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		provider, err := NewProvider(ai.DefaultConfig())
		require.NoError(t, err)
		require.NotNil(t, provider)
		assert.NoError(t, provider.Close())
	})

	t.Run("invalid configuration", func(t *testing.T) {
		_, err := NewProvider(ai.NewConfig(ai.WithEmbeddingHost("")))
		assert.Error(t, err)
	})
}

func TestProvider_Embedder(t *testing.T) {
	provider, err := NewProvider(ai.NewConfig(ai.WithEmbeddingHost("http://127.0.0.1:1")))
	require.NoError(t, err)
	defer provider.Close()

	t.Run("each built-in variant", func(t *testing.T) {
		for _, v := range ai.Variants() {
			e, err := provider.Embedder(v)
			require.NoError(t, err, "variant %s", v)
			assert.NotNil(t, e)
		}
	})

	t.Run("embedder is reused", func(t *testing.T) {
		a, err := provider.Embedder(ai.VariantGIST)
		require.NoError(t, err)
		b, err := provider.Embedder(ai.VariantGIST)
		require.NoError(t, err)
		assert.Same(t, a.(*Embedder), b.(*Embedder))
	})

	t.Run("unknown variant", func(t *testing.T) {
		_, err := provider.Embedder(ai.ModelVariant("bert"))
		assert.ErrorIs(t, err, ai.ErrUnknownModel)
	})
}

func TestNewEmbedder(t *testing.T) {
	e, err := NewEmbedder(ai.DefaultConfig(), ai.VariantMedEmbed)
	require.NoError(t, err)
	assert.Equal(t, "medembed-small", e.(*Embedder).model)

	_, err = NewEmbedder(ai.DefaultConfig(), ai.ModelVariant("nope"))
	assert.ErrorIs(t, err, ai.ErrUnknownModel)
}

type stubDocuments struct {
	vectors [][]float32
	err     error
}

func (s stubDocuments) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return s.vectors, s.err
}

func (s stubDocuments) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, errors.New("not used")
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	newStubbed := func(stub stubDocuments) *Embedder {
		return &Embedder{embedder: stub, model: "all-minilm", logger: slog.Default()}
	}
	ctx := context.Background()

	t.Run("one vector per label", func(t *testing.T) {
		e := newStubbed(stubDocuments{vectors: [][]float32{{1, 0}, {0, 1}}})
		got, err := e.EmbedTexts(ctx, []string{"Physics", "Energy"})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		single := newStubbed(stubDocuments{vectors: [][]float32{{1, 0}}})
		vector, err := single.EmbedText(ctx, "Physics")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0}, vector)
	})

	t.Run("extra vectors", func(t *testing.T) {
		e := newStubbed(stubDocuments{vectors: [][]float32{{1, 0}, {0, 1}}})
		_, err := e.EmbedText(ctx, "Physics")
		assert.ErrorIs(t, err, ErrShortResponse)
	})

	t.Run("no labels skips the request", func(t *testing.T) {
		e := newStubbed(stubDocuments{err: errors.New("should not be called")})
		got, err := e.EmbedTexts(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("missing vectors", func(t *testing.T) {
		e := newStubbed(stubDocuments{vectors: [][]float32{{1, 0}}})
		_, err := e.EmbedTexts(ctx, []string{"Physics", "Energy"})
		assert.ErrorIs(t, err, ErrShortResponse)
	})

	t.Run("empty vector", func(t *testing.T) {
		e := newStubbed(stubDocuments{vectors: [][]float32{{}}})
		_, err := e.EmbedText(ctx, "Physics")
		assert.ErrorIs(t, err, ErrShortResponse)
	})

	t.Run("request failure", func(t *testing.T) {
		boom := errors.New("connection refused")
		e := newStubbed(stubDocuments{err: boom})
		_, err := e.EmbedText(ctx, "Physics")
		assert.ErrorIs(t, err, boom)
	})
}
