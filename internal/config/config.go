// Package config provides configuration loading and structs for the QueryTube server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// RateLimit is the sustained number of search requests per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// CatalogConfig describes where the pre-built catalog lives and how its columns are named.
type CatalogConfig struct {
	Path              string `yaml:"path"`
	Format            string `yaml:"format"`
	Table             string `yaml:"table"`
	Sheet             string `yaml:"sheet"`
	EmbeddingPrefix   string `yaml:"embedding_prefix"`
	IDColumn          string `yaml:"id_column"`
	TitleColumn       string `yaml:"title_column"`
	PublishedAtColumn string `yaml:"published_at_column"`
	TranscriptColumn  string `yaml:"transcript_column"`
	// Watch reloads the catalog when the file at Path changes.
	Watch bool `yaml:"watch"`
}

// EmbeddingConfig holds query encoder settings.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	ModelPath string `yaml:"model_path"`
	// VocabPath is a WordPiece vocab.txt; empty falls back to the hashing tokenizer.
	VocabPath  string `yaml:"vocab_path"`
	LowerCase  bool   `yaml:"lower_case"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	// CacheSize is the number of query encodings kept; unset means 10000 and
	// an explicit 0 disables the cache.
	CacheSize  *int   `yaml:"cache_size"`
	Pooling    string `yaml:"pooling"`
	OutputName string `yaml:"output_name"`
	// TokenTypeIDs feeds a token_type_ids input; BERT exports need it, MPNet exports do not.
	TokenTypeIDs bool `yaml:"token_type_ids"`
}

// CacheCapacity returns CacheSize, or 0 when unset.
func (c EmbeddingConfig) CacheCapacity() int {
	if c.CacheSize == nil {
		return 0
	}
	return *c.CacheSize
}

// SearchConfig holds search request settings.
type SearchConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Catalog.Path = expandPath(cfg.Catalog.Path, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Embedding.VocabPath = expandPath(cfg.Embedding.VocabPath, configDir)

	return &cfg, nil
}

// Validate reports settings that would make the server unusable.
func (c *Config) Validate() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Search.DefaultTopK < 0 {
		return fmt.Errorf("search.default_top_k must not be negative, got %d", c.Search.DefaultTopK)
	}
	if c.Search.MaxTopK < c.Search.DefaultTopK {
		return fmt.Errorf("search.max_top_k (%d) is below search.default_top_k (%d)", c.Search.MaxTopK, c.Search.DefaultTopK)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
