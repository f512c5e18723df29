package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/wikipath/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./wikipath_db", cfg.DB)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 60*time.Second, cfg.Search.Budget)
	assert.Equal(t, 10000, cfg.Search.SuccessorCacheSize)
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.False(t, cfg.Remote.Enabled)
	assert.Equal(t, "https://en.wikipedia.org/w/api.php", cfg.Remote.Endpoint)

	aiCfg, err := cfg.AIConfig()
	require.NoError(t, err)
	assert.Equal(t, ai.VariantMiniLM, aiCfg.DefaultVariant)
	assert.Equal(t, "all-minilm", aiCfg.Models[ai.VariantMiniLM])
	assert.Equal(t, "medembed-small", aiCfg.Models[ai.VariantMedEmbed])
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wikipath.yaml")
	yaml := `
db: /data/wiki
snapshot: /data/my_wiki.db
remote:
  enabled: true
embedding:
  host: http://embeddings:8080
  default_model: gist
  models:
    gist: avsolatorio/gist-small-embedding-v0
search:
  budget: 30s
  pool_size: 8
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/wiki", cfg.DB)
	assert.Equal(t, "/data/my_wiki.db", cfg.Snapshot)
	assert.True(t, cfg.Remote.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Search.Budget)
	assert.Equal(t, 8, cfg.Search.PoolSize)

	aiCfg, err := cfg.AIConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://embeddings:8080/v1", aiCfg.EmbeddingHost)
	assert.Equal(t, ai.VariantGIST, aiCfg.DefaultVariant)
	assert.Equal(t, "avsolatorio/gist-small-embedding-v0", aiCfg.Models[ai.VariantGIST])
	assert.Equal(t, "all-minilm", aiCfg.Models[ai.VariantMiniLM], "unset variants keep their defaults")
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("WIKIPATH_SEARCH_BUDGET", "5s")
	t.Setenv("WIKIPATH_DB", "/tmp/other")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Search.Budget)
	assert.Equal(t, "/tmp/other", cfg.DB)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad budget", func(t *testing.T) {
		t.Setenv("WIKIPATH_SEARCH_BUDGET", "-1s")
		_, err := Load("")
		assert.ErrorContains(t, err, "search.budget")
	})

	t.Run("unknown default model", func(t *testing.T) {
		t.Setenv("WIKIPATH_EMBEDDING_DEFAULT_MODEL", "bert")
		_, err := Load("")
		assert.ErrorIs(t, err, ai.ErrUnknownModel)
	})
}
