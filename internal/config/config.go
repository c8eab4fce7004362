// Package config loads YAML configuration per environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the campusrag API configuration.
type Config struct {
	Institution string          `yaml:"institution"`
	HTTP        HTTPConfig      `yaml:"http"`
	Chroma      ChromaConfig    `yaml:"chroma"`
	Cache       CacheConfig     `yaml:"cache"`
	Embedding   EmbeddingConfig `yaml:"embedding"`
	LLM         LLMConfig       `yaml:"llm"`
	Directory   DirectoryConfig `yaml:"directory"`
	Search      SearchConfig    `yaml:"search"`
	Auth        AuthConfig      `yaml:"auth"`
	Logging     LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ChromaConfig holds vector store connection settings.
type ChromaConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Tenant     string `yaml:"tenant"`
	Database   string `yaml:"database"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// CacheConfig holds the optional Redis cache settings. Empty addrs disables
// the embedding cache.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLHours         int      `yaml:"ttl_hours"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// LLMConfig holds chat completion provider settings.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// DirectoryConfig holds shard discovery and caching settings.
type DirectoryConfig struct {
	TTLSec         int      `yaml:"ttl_sec"`
	PageSize       int      `yaml:"page_size"`
	FilterEnabled  bool     `yaml:"filter_enabled"`
	FilterKeywords []string `yaml:"filter_keywords"`
	FallbackPrefix string   `yaml:"fallback_prefix"`
	FallbackCount  int      `yaml:"fallback_count"`
}

// SearchConfig holds scatter-gather tuning and ranking policy.
type SearchConfig struct {
	MaxShards       int     `yaml:"max_shards"`
	Workers         int     `yaml:"workers"`
	ShardTimeoutSec int     `yaml:"shard_timeout_sec"`
	Overfetch       int     `yaml:"overfetch"`
	RankBy          string  `yaml:"rank_by"` // relevance, distance
	SimilarityW     float64 `yaml:"similarity_weight"`
	ContentW        float64 `yaml:"content_weight"`
	TitleW          float64 `yaml:"title_weight"`
	SimilarityFloor float64 `yaml:"similarity_floor"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Institution == "" {
		c.Institution = "Northeastern University"
	}
	// Unset ${VAR:-} substitutions leave empty strings behind.
	c.Cache.Addrs = compact(c.Cache.Addrs)
	c.Auth.APIKeys = compact(c.Auth.APIKeys)
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Long enough for search + generation; the original targeted sub-8s
		// responses but the LLM call alone can exceed that.
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Chroma.TimeoutSec <= 0 {
		c.Chroma.TimeoutSec = 10
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 24 * 7
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Temperature <= 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 2500
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 30
	}
	if c.Directory.TTLSec <= 0 {
		c.Directory.TTLSec = 300
	}
	if c.Directory.PageSize <= 0 {
		c.Directory.PageSize = 1000
	}
	if len(c.Directory.FilterKeywords) == 0 {
		c.Directory.FilterKeywords = []string{"batch", "ultra_optimized", "documents", "northeastern"}
	}
	if c.Directory.FallbackPrefix == "" {
		c.Directory.FallbackPrefix = "documents_ultra_optimized_batch_"
	}
	if c.Directory.FallbackCount <= 0 {
		c.Directory.FallbackCount = 3280
	}
	if c.Search.MaxShards <= 0 {
		c.Search.MaxShards = 150
	}
	if c.Search.Workers <= 0 {
		c.Search.Workers = 8
	}
	if c.Search.ShardTimeoutSec <= 0 {
		c.Search.ShardTimeoutSec = 5
	}
	if c.Search.Overfetch <= 0 {
		c.Search.Overfetch = 2
	}
	if c.Search.RankBy == "" {
		c.Search.RankBy = "relevance"
	}
	if c.Search.SimilarityW <= 0 {
		c.Search.SimilarityW = 0.6
	}
	if c.Search.ContentW <= 0 {
		c.Search.ContentW = 0.3
	}
	if c.Search.TitleW <= 0 {
		c.Search.TitleW = 0.1
	}
	if c.Search.SimilarityFloor <= 0 {
		c.Search.SimilarityFloor = 0.3
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Chroma.BaseURL == "" {
		return fmt.Errorf("chroma.base_url is required")
	}
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	switch c.Search.RankBy {
	case "relevance", "distance":
	default:
		return fmt.Errorf("search.rank_by must be \"relevance\" or \"distance\", got %q", c.Search.RankBy)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

// compact drops empty strings from a list.
func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
