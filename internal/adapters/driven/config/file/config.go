// Package file loads archivist configuration from a TOML file, with
// environment variable overrides for deployment tuning.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/corvidae-labs/archivist/internal/core/domain"
)

// Config is the full archivist configuration.
type Config struct {
	Corpus    CorpusConfig    `toml:"corpus"`
	Server    ServerConfig    `toml:"server"`
	Ollama    OllamaConfig    `toml:"ollama"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Cache     CacheConfig     `toml:"cache"`
}

// CorpusConfig locates the document corpus and its index.
type CorpusConfig struct {
	// Dir is the root directory of the document corpus.
	Dir string `toml:"dir"`

	// IndexDir holds the lexical index database. Defaults to
	// ~/.archivist/index.
	IndexDir string `toml:"index_dir"`

	// WatchIndex reattaches to the index when it is rebuilt on disk.
	WatchIndex bool `toml:"watch_index"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// OllamaConfig configures the embedding and generation backends.
type OllamaConfig struct {
	BaseURL    string `toml:"base_url"`
	EmbedModel string `toml:"embed_model"`
	ChatModel  string `toml:"chat_model"`
}

// RetrievalConfig mirrors the pipeline tuning knobs.
type RetrievalConfig struct {
	MaxArticles      int     `toml:"max_articles"`
	MaxChunks        int     `toml:"max_chunks"`
	RecallLimit      int     `toml:"recall_limit"`
	TopPages         int     `toml:"top_pages"`
	TopK             int     `toml:"top_k"`
	SuggestionLimit  int     `toml:"suggestion_limit"`
	ChunkTokens      int     `toml:"chunk_tokens"`
	ChunkOverlap     int     `toml:"chunk_overlap"`
	TitleSimExit     float64 `toml:"title_sim_exit"`
	SimThreshold     float64 `toml:"sim_threshold"`
	SecondPassEnable bool    `toml:"second_pass_enable"`
	SecondPassFactor float64 `toml:"second_pass_factor"`
	EmbedParallelism int     `toml:"embed_parallelism"`
	MaxContextTokens int     `toml:"max_context_tokens"`
}

// CacheConfig sizes the in-memory caches.
type CacheConfig struct {
	LeadSize    int `toml:"lead_size"`
	SuggestSize int `toml:"suggest_size"`
}

// DefaultAddr is the default HTTP listen address.
const DefaultAddr = "127.0.0.1:8787"

// Default returns the configuration used when no file or overrides are
// present.
func Default() Config {
	rc := domain.DefaultRetrievalConfig()
	return Config{
		Corpus: CorpusConfig{
			WatchIndex: true,
		},
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
		},
		Retrieval: RetrievalConfig{
			MaxArticles:      rc.MaxArticles,
			MaxChunks:        rc.MaxChunks,
			RecallLimit:      rc.RecallLimit,
			TopPages:         rc.TopPages,
			TopK:             rc.TopK,
			SuggestionLimit:  rc.SuggestionLimit,
			ChunkTokens:      rc.ChunkTokens,
			ChunkOverlap:     rc.ChunkOverlap,
			TitleSimExit:     rc.TitleSimExit,
			SimThreshold:     rc.SimThreshold,
			SecondPassEnable: true,
			SecondPassFactor: rc.SecondPassFactor,
			EmbedParallelism: rc.EmbedParallelism,
			MaxContextTokens: 2700,
		},
		Cache: CacheConfig{
			LeadSize:    64,
			SuggestSize: 128,
		},
	}
}

// DefaultPath returns the default configuration file path,
// ~/.archivist/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".archivist", "config.toml"), nil
}

// Load reads configuration from the given TOML file, layering it over
// the defaults and applying environment overrides last. A missing file
// is not an error; the defaults are used.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Save writes the configuration to the given path, creating the
// directory if needed.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// applyEnv overlays ARCHIVIST_* environment variables.
func applyEnv(cfg *Config) {
	envString("ARCHIVIST_CORPUS_DIR", &cfg.Corpus.Dir)
	envString("ARCHIVIST_INDEX_DIR", &cfg.Corpus.IndexDir)
	envString("ARCHIVIST_ADDR", &cfg.Server.Addr)
	envString("ARCHIVIST_OLLAMA_URL", &cfg.Ollama.BaseURL)
	envString("ARCHIVIST_EMBED_MODEL", &cfg.Ollama.EmbedModel)
	envString("ARCHIVIST_CHAT_MODEL", &cfg.Ollama.ChatModel)

	envInt("ARCHIVIST_MAX_ARTICLES", &cfg.Retrieval.MaxArticles)
	envInt("ARCHIVIST_MAX_CHUNKS", &cfg.Retrieval.MaxChunks)
	envInt("ARCHIVIST_RECALL_LIMIT", &cfg.Retrieval.RecallLimit)
	envInt("ARCHIVIST_TOP_PAGES", &cfg.Retrieval.TopPages)
	envInt("ARCHIVIST_TOP_K", &cfg.Retrieval.TopK)
	envInt("ARCHIVIST_SUGGESTION_LIMIT", &cfg.Retrieval.SuggestionLimit)
	envInt("ARCHIVIST_CHUNK_TOKENS", &cfg.Retrieval.ChunkTokens)
	envInt("ARCHIVIST_CHUNK_OVERLAP", &cfg.Retrieval.ChunkOverlap)
	envInt("ARCHIVIST_EMBED_PARALLELISM", &cfg.Retrieval.EmbedParallelism)
	envFloat("ARCHIVIST_TITLE_SIM_EXIT", &cfg.Retrieval.TitleSimExit)
	envFloat("ARCHIVIST_SIM_THRESHOLD", &cfg.Retrieval.SimThreshold)
	envFloat("ARCHIVIST_SECOND_PASS_FACTOR", &cfg.Retrieval.SecondPassFactor)
	envBool("ARCHIVIST_SECOND_PASS_ENABLE", &cfg.Retrieval.SecondPassEnable)

	envInt("ARCHIVIST_LEAD_CACHE_SIZE", &cfg.Cache.LeadSize)
	envInt("ARCHIVIST_SUGGEST_CACHE_SIZE", &cfg.Cache.SuggestSize)
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(name string, dst *float64) {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Pipeline converts the file-level retrieval settings into the domain
// configuration consumed by the orchestrator.
func (c Config) Pipeline() domain.RetrievalConfig {
	return domain.RetrievalConfig{
		MaxArticles:      c.Retrieval.MaxArticles,
		MaxChunks:        c.Retrieval.MaxChunks,
		RecallLimit:      c.Retrieval.RecallLimit,
		TopPages:         c.Retrieval.TopPages,
		TopK:             c.Retrieval.TopK,
		SuggestionLimit:  c.Retrieval.SuggestionLimit,
		ChunkTokens:      c.Retrieval.ChunkTokens,
		ChunkOverlap:     c.Retrieval.ChunkOverlap,
		TitleSimExit:     c.Retrieval.TitleSimExit,
		SimThreshold:     c.Retrieval.SimThreshold,
		SecondPassEnable: c.Retrieval.SecondPassEnable,
		SecondPassFactor: c.Retrieval.SecondPassFactor,
		LeadCacheSize:    c.Cache.LeadSize,
		SuggestCacheSize: c.Cache.SuggestSize,
		EmbedParallelism: c.Retrieval.EmbedParallelism,
	}
}
