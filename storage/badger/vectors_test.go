package badger

import (
	"context"
	"testing"

	"github.com/poiesic/wikipath/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorRepository(t *testing.T) {
	pageRepo, vectorRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { vectorRepo.Close(); pageRepo.Close(); backend.Close() }()

	ctx := context.Background()

	err = vectorRepo.PutVectors(ctx, "all-minilm", map[string][]float32{
		"Cat": {1, 0},
		"Dog": {0.6, 0.8},
	})
	require.NoError(t, err)

	t.Run("stored vector", func(t *testing.T) {
		v, err := vectorRepo.GetVector(ctx, "all-minilm", "Dog")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.6, 0.8}, v)
	})

	t.Run("models are isolated", func(t *testing.T) {
		_, err := vectorRepo.GetVector(ctx, "medembed-small", "Dog")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("labels are case sensitive", func(t *testing.T) {
		_, err := vectorRepo.GetVector(ctx, "all-minilm", "dog")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("empty model rejected", func(t *testing.T) {
		err := vectorRepo.PutVectors(ctx, "", map[string][]float32{"X": {1}})
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})
}
