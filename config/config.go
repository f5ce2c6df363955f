package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the assistant.
type Config struct {
	Document  DocumentConfig  `yaml:"document"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DocumentConfig describes the source document.
type DocumentConfig struct {
	Path      string `yaml:"path"`      // File path or glob resolving to exactly one file
	Extractor string `yaml:"extractor"` // "native", "pdftotext", "text"
}

// StoreConfig holds chunk store configuration.
type StoreConfig struct {
	Backend    string `yaml:"backend"` // "bolt", "sqlite", "memory"
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`    // "openai", "jina", "ollama", "mock"
	Model       string `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv   string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL     string `yaml:"base_url"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	CacheSize   int    `yaml:"cache_size"` // Question embedding cache entries (0 = disabled)
}

// LLMConfig holds generative model configuration.
type LLMConfig struct {
	Provider    string `yaml:"provider"` // "groq", "openai", "ollama"
	Model       string `yaml:"model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	BaseURL     string `yaml:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit"` // /ask requests per second (0 = unlimited)
	RateBurst      int      `yaml:"rate_burst"`
	WatchDocument  bool     `yaml:"watch_document"` // warn when the document changes while serving
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Document: DocumentConfig{
			Path:      "byelaws.pdf",
			Extractor: "native",
		},
		Store: StoreConfig{
			Backend:    "bolt",
			Path:       filepath.Join(".byelaws", "index.db"),
			Collection: "byelaws",
		},
		Embedding: EmbeddingConfig{
			Provider:    "openai",
			Model:       "text-embedding-3-small",
			APIKeyEnv:   "OPENAI_API_KEY",
			Dimension:   1536,
			TimeoutSecs: 60,
			CacheSize:   256,
		},
		LLM: LLMConfig{
			Provider:    "groq",
			Model:       "llama-3.3-70b-versatile",
			APIKeyEnv:   "GROQ_API_KEY",
			BaseURL:     "https://api.groq.com/openai/v1",
			TimeoutSecs: 120,
		},
		Server: ServerConfig{
			Addr:           ":5000",
			AllowedOrigins: []string{"*"},
			RateBurst:      5,
			WatchDocument:  true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for byelaws.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "byelaws.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".byelaws", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StorePath resolves the store path against dir unless it is absolute.
func (c *Config) StorePath(dir string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(dir, c.Store.Path)
}

// EnsureStoreDir creates the directory holding the store file.
func (c *Config) EnsureStoreDir(dir string) error {
	return os.MkdirAll(filepath.Dir(c.StorePath(dir)), 0755)
}

func (e EmbeddingConfig) Timeout() time.Duration {
	return secondsOr(e.TimeoutSecs, 60)
}

func (l LLMConfig) Timeout() time.Duration {
	return secondsOr(l.TimeoutSecs, 120)
}

func secondsOr(secs, fallback int) time.Duration {
	if secs <= 0 {
		secs = fallback
	}
	return time.Duration(secs) * time.Second
}
