// Package config loads verbatim settings from YAML, .env files and
// VERBATIM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/verbatim/ai"
	"github.com/poiesic/verbatim/answer"
	"github.com/poiesic/verbatim/cache"
	"github.com/poiesic/verbatim/ranking"
	"github.com/poiesic/verbatim/retrieval"
	"github.com/poiesic/verbatim/selection"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment variable read by ApplyEnv.
const EnvPrefix = "VERBATIM_"

// Store kinds for the durable cache.
const (
	StoreBadger = "badger"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds all verbatim configuration.
type Config struct {
	// Language selects prompts, messages and labels: "en" or "tr".
	Language      string                 `yaml:"language"`
	TranscriptDir string                 `yaml:"transcript_dir"`
	AnalysisDir   string                 `yaml:"analysis_dir"`
	AI            ai.Config              `yaml:"ai"`
	Qdrant        QdrantConfig           `yaml:"qdrant"`
	Search        retrieval.SearchConfig `yaml:"search"`
	QuickSearch   retrieval.SearchConfig `yaml:"quick_search"`
	Ranking       ranking.Weights        `yaml:"ranking"`
	Budget        selection.Budget       `yaml:"budget"`
	Timeouts      answer.Timeouts        `yaml:"timeouts"`
	// Workers sizes the generation pool. Zero picks a size from the CPU count.
	Workers int          `yaml:"workers"`
	Cache   CacheConfig  `yaml:"cache"`
	Batch   BatchConfig  `yaml:"batch"`
	Server  ServerConfig `yaml:"server"`
}

// QdrantConfig locates the vector collection holding transcript passages.
type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
	// WithVectors asks qdrant to return stored vectors so ranking can skip re-embedding.
	WithVectors bool `yaml:"with_vectors"`
}

// CacheConfig controls the answer cache.
type CacheConfig struct {
	// Store is badger, sqlite or memory.
	Store          string `yaml:"store"`
	Path           string `yaml:"path"`
	SweepEvery     int    `yaml:"sweep_every"`
	CleanThreshold int    `yaml:"clean_threshold"`
	KeepCount      int    `yaml:"keep_count"`
	SaveEvery      int    `yaml:"save_every"`
}

// BatchConfig controls parallel question answering.
type BatchConfig struct {
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns a Config with the standard settings.
func Default() *Config {
	return &Config{
		Language:      "en",
		TranscriptDir: "transcripts",
		AnalysisDir:   "analyses",
		AI:            *ai.DefaultConfig(),
		Qdrant: QdrantConfig{
			URL:        "http://localhost:6333",
			Collection: "transcripts",
		},
		Search:      retrieval.DefaultSearch(),
		QuickSearch: retrieval.QuickSearch(),
		Ranking:     ranking.DefaultWeights(),
		Budget:      selection.DefaultBudget(),
		Timeouts:    answer.DefaultTimeouts(),
		Cache: CacheConfig{
			Store:          StoreBadger,
			Path:           "data/cache",
			SweepEvery:     cache.DefaultSweepEvery,
			CleanThreshold: cache.DefaultCleanThreshold,
			KeepCount:      cache.DefaultKeepCount,
			SaveEvery:      cache.DefaultSaveEvery,
		},
		Batch: BatchConfig{
			Workers: 4,
			Timeout: 60 * time.Second,
		},
		Server: ServerConfig{
			Listen: ":8080",
		},
	}
}

// Load reads a YAML config file and expands environment variables.
// Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv loads the given .env files (".env" when none are named) and then
// overrides settings from VERBATIM_* environment variables. Variables already
// set in the environment take precedence over .env values. Missing .env
// files are ignored.
func (c *Config) ApplyEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	setString(&c.Language, "LANG")
	setString(&c.TranscriptDir, "TRANSCRIPT_DIR")
	setString(&c.AnalysisDir, "ANALYSIS_DIR")

	if v, ok := lookup("LLM_BACKEND"); ok {
		c.AI.Backend = ai.Backend(v)
	}
	if v, ok := lookup("LLM_HOST"); ok {
		c.AI.Host = v
		if _, set := lookup("EMBEDDING_HOST"); !set {
			c.AI.EmbeddingHost = v
		}
	}
	if v, ok := lookup("LLM_MODEL"); ok {
		c.AI.Primary.Model = v
		c.AI.Emergency.Model = v
	}
	setString(&c.AI.Emergency.Model, "LLM_EMERGENCY_MODEL")
	setString(&c.AI.Token, "LLM_TOKEN")
	setString(&c.AI.EmbeddingHost, "EMBEDDING_HOST")
	setString(&c.AI.EmbeddingModel, "EMBEDDING_MODEL")

	setString(&c.Qdrant.URL, "QDRANT_URL")
	setString(&c.Qdrant.APIKey, "QDRANT_API_KEY")
	setString(&c.Qdrant.Collection, "QDRANT_COLLECTION")

	setString(&c.Cache.Store, "CACHE_STORE")
	setString(&c.Cache.Path, "CACHE_PATH")
	setString(&c.Server.Listen, "LISTEN")

	if v, ok := lookup("WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sWORKERS must be a valid integer: %w", EnvPrefix, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if c.Language != "en" && c.Language != "tr" {
		return fmt.Errorf("config: language must be en or tr, got %q", c.Language)
	}
	if c.Qdrant.URL == "" {
		return errors.New("config: qdrant.url is required")
	}
	if c.Qdrant.Collection == "" {
		return errors.New("config: qdrant.collection is required")
	}
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("config: search: %w", err)
	}
	if err := c.QuickSearch.Validate(); err != nil {
		return fmt.Errorf("config: quick_search: %w", err)
	}
	if err := c.Ranking.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Budget.MaxDocuments < 1 {
		return errors.New("config: budget.max_documents must be at least 1")
	}
	if err := c.Timeouts.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Workers < 0 {
		return errors.New("config: workers must not be negative")
	}
	switch c.Cache.Store {
	case StoreBadger, StoreSQLite:
		if c.Cache.Path == "" {
			return errors.New("config: cache.path is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: cache.store must be badger, sqlite or memory, got %q", c.Cache.Store)
	}
	if c.Batch.Workers < 1 {
		return errors.New("config: batch.workers must be at least 1")
	}
	if c.Batch.Timeout <= 0 {
		return errors.New("config: batch.timeout must be positive")
	}
	return nil
}

func lookup(key string) (string, bool) {
	v := os.Getenv(EnvPrefix + key)
	return v, v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}
