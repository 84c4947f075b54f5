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

// Config holds the allerpredict configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Cache      CacheConfig      `yaml:"cache"`
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

// CatalogConfig holds catalog source settings.
type CatalogConfig struct {
	Path      string `yaml:"path"`
	MatchMode string `yaml:"match_mode"` // substring (default), exact
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // openai (any OpenAI-compatible endpoint)
	BaseURL             string `yaml:"base_url"`
	APIKey              string `yaml:"api_key"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"` // 0 = whatever the model returns
	Granularity         string `yaml:"granularity"`
	QueryInstruction    string `yaml:"query_instruction"`
	DocumentInstruction string `yaml:"document_instruction"`
}

// GenerationConfig holds generation backend settings.
type GenerationConfig struct {
	Backend        string   `yaml:"backend"` // process (default), openai
	Command        string   `yaml:"command"`
	Args           []string `yaml:"args"` // default: run <model>
	Model          string   `yaml:"model"`
	BaseURL        string   `yaml:"base_url"`
	APIKey         string   `yaml:"api_key"`
	Temperature    float32  `yaml:"temperature"`
	TimeoutSec     int      `yaml:"timeout_sec"`
	MaxRetries     int      `yaml:"max_retries"`
	RetryBackoffMS int      `yaml:"retry_backoff_ms"`
	Template       string   `yaml:"template"` // strict (default), report
}

// RetrievalConfig holds ranking settings.
type RetrievalConfig struct {
	TopK            int `yaml:"top_k"`
	MaxAlternatives int `yaml:"max_alternatives"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	TTLHours         int      `yaml:"ttl_hours"` // 0 = no expiry
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from the given YAML file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding env variables and applying defaults.
func Parse(data []byte) (Config, error) {
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// generation may take up to timeout_sec on its own
		c.HTTP.WriteTimeoutSec = 180
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Catalog.Path == "" {
		c.Catalog.Path = "data/metadata.json"
	}
	if c.Catalog.MatchMode == "" {
		c.Catalog.MatchMode = "substring"
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = "http://localhost:11434/v1"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "all-minilm"
	}
	if c.Embedding.Granularity == "" {
		c.Embedding.Granularity = "document"
	}

	if c.Generation.Backend == "" {
		c.Generation.Backend = "process"
	}
	if c.Generation.Command == "" {
		c.Generation.Command = "ollama"
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "phi3"
	}
	if c.Generation.TimeoutSec == 0 {
		c.Generation.TimeoutSec = 120
	}
	if c.Generation.RetryBackoffMS <= 0 {
		c.Generation.RetryBackoffMS = 500
	}
	if c.Generation.Template == "" {
		c.Generation.Template = "strict"
	}

	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 2
	}
	if c.Retrieval.MaxAlternatives == 0 {
		c.Retrieval.MaxAlternatives = 5
	}

	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "allerpredict:emb:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if err := oneOf("catalog.match_mode", c.Catalog.MatchMode, "substring", "exact"); err != nil {
		return err
	}
	if err := oneOf("embedding.provider", c.Embedding.Provider, "openai"); err != nil {
		return err
	}
	if err := oneOf("embedding.granularity", c.Embedding.Granularity, "document", "description"); err != nil {
		return err
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must be >= 0, got %d", c.Embedding.Dimensions)
	}
	if err := oneOf("generation.backend", c.Generation.Backend, "process", "openai"); err != nil {
		return err
	}
	if err := oneOf("generation.template", c.Generation.Template, "strict", "report"); err != nil {
		return err
	}
	if c.Generation.TimeoutSec <= 0 {
		return fmt.Errorf("generation.timeout_sec must be > 0, got %d", c.Generation.TimeoutSec)
	}
	if c.Generation.MaxRetries < 0 {
		return fmt.Errorf("generation.max_retries must be >= 0, got %d", c.Generation.MaxRetries)
	}
	if c.Retrieval.TopK < 0 {
		return fmt.Errorf("retrieval.top_k must be >= 0, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.MaxAlternatives < 0 {
		return fmt.Errorf("retrieval.max_alternatives must be >= 0, got %d", c.Retrieval.MaxAlternatives)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache is enabled")
	}
	if c.Cache.TTLHours < 0 {
		return fmt.Errorf("cache.ttl_hours must be >= 0, got %d", c.Cache.TTLHours)
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %q, got %q", field, allowed, value)
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
