package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, 20, cfg.Retrieval.MaxArticles)
	assert.Equal(t, 6, cfg.Retrieval.TopK)
	assert.True(t, cfg.Retrieval.SecondPassEnable)
	assert.Equal(t, 64, cfg.Cache.LeadSize)
}

func TestLoadOverlaysFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[corpus]
dir = "/srv/corpus"

[server]
addr = "0.0.0.0:9000"

[retrieval]
top_k = 10
title_sim_exit = 0.5
second_pass_enable = false
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/corpus", cfg.Corpus.Dir)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Retrieval.TopK)
	assert.Equal(t, 0.5, cfg.Retrieval.TitleSimExit)
	assert.False(t, cfg.Retrieval.SecondPassEnable)

	// Untouched values keep their defaults.
	assert.Equal(t, 20, cfg.Retrieval.MaxArticles)
	assert.Equal(t, 160, cfg.Retrieval.ChunkTokens)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[corpus`), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[retrieval]
max_articles = 5
`), 0600))

	t.Setenv("ARCHIVIST_MAX_ARTICLES", "40")
	t.Setenv("ARCHIVIST_OLLAMA_URL", "http://ollama.internal:11434")
	t.Setenv("ARCHIVIST_SIM_THRESHOLD", "0.3")
	t.Setenv("ARCHIVIST_SUGGESTION_LIMIT", "30")
	t.Setenv("ARCHIVIST_CHUNK_TOKENS", "200")
	t.Setenv("ARCHIVIST_CHUNK_OVERLAP", "40")
	t.Setenv("ARCHIVIST_SECOND_PASS_ENABLE", "false")
	t.Setenv("ARCHIVIST_SECOND_PASS_FACTOR", "3.5")
	t.Setenv("ARCHIVIST_LEAD_CACHE_SIZE", "16")
	t.Setenv("ARCHIVIST_SUGGEST_CACHE_SIZE", "32")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.Retrieval.MaxArticles)
	assert.Equal(t, "http://ollama.internal:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, 0.3, cfg.Retrieval.SimThreshold)
	assert.Equal(t, 30, cfg.Retrieval.SuggestionLimit)
	assert.Equal(t, 200, cfg.Retrieval.ChunkTokens)
	assert.Equal(t, 40, cfg.Retrieval.ChunkOverlap)
	assert.False(t, cfg.Retrieval.SecondPassEnable)
	assert.Equal(t, 3.5, cfg.Retrieval.SecondPassFactor)
	assert.Equal(t, 16, cfg.Cache.LeadSize)
	assert.Equal(t, 32, cfg.Cache.SuggestSize)
}

func TestEnvironmentIgnoresMalformedBool(t *testing.T) {
	t.Setenv("ARCHIVIST_SECOND_PASS_ENABLE", "maybe")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.True(t, cfg.Retrieval.SecondPassEnable)
}

func TestEnvironmentIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("ARCHIVIST_TOP_K", "lots")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Retrieval.TopK)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Corpus.Dir = "/data/pages"
	cfg.Retrieval.TopPages = 5
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/pages", loaded.Corpus.Dir)
	assert.Equal(t, 5, loaded.Retrieval.TopPages)
}

func TestPipelineCarriesCacheSizes(t *testing.T) {
	cfg := Default()
	cfg.Cache.LeadSize = 7
	cfg.Cache.SuggestSize = 9

	rc := cfg.Pipeline()
	assert.Equal(t, 7, rc.LeadCacheSize)
	assert.Equal(t, 9, rc.SuggestCacheSize)
	assert.Equal(t, cfg.Retrieval.TopK, rc.TopK)
}
