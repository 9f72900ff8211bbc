package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the project configuration file name. ProjectFileAlt is
// accepted when ProjectFile is absent.
const (
	ProjectFile    = ".ragindex.yaml"
	ProjectFileAlt = ".ragindex.yml"
)

// Config represents the complete ragindex configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Paths      PathsConfig      `yaml:"paths" json:"paths"`
	Chunking   ChunkingConfig   `yaml:"chunking" json:"chunking"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// PathsConfig locates the course content and the index data.
// Relative paths are resolved against the project directory.
type PathsConfig struct {
	ContentRoot string `yaml:"content_root" json:"content_root"`
	DataDir     string `yaml:"data_dir" json:"data_dir"`
}

// ChunkingConfig configures the prose splitter.
type ChunkingConfig struct {
	Size    int `yaml:"size" json:"size"`
	Overlap int `yaml:"overlap" json:"overlap"`
}

// EmbeddingsConfig configures the embedding provider and pipeline.
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider" json:"provider"`
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BaseURL    string `yaml:"base_url" json:"base_url"`

	// APIKeyEnv names the environment variable holding the provider key.
	// The key itself is never read from a file.
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env"`

	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
	MaxRetries int    `yaml:"max_retries" json:"max_retries"`
	BatchDelay string `yaml:"batch_delay" json:"batch_delay"` // e.g. "100ms", "0" disables
	Timeout    string `yaml:"timeout" json:"timeout"`

	// RequestsPerSecond paces provider calls. 0 means unlimited.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`

	// Concurrency is the number of lessons embedded at once.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// CacheSize is the number of chunk embeddings an indexing run keeps in
	// memory to skip repeated texts.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// SearchConfig configures queries.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// ANN enables the HNSW graph in front of the exact scan.
	ANN          bool `yaml:"ann" json:"ann"`
	ANNOverfetch int  `yaml:"ann_overfetch" json:"ann_overfetch"`
}

// LoggingConfig configures the log file.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			ContentRoot: "content",
			DataDir:     ".ragindex",
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 200,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
			APIKeyEnv:  "OPENAI_API_KEY",
			BatchSize:  100,
			MaxRetries: 3,
			BatchDelay: "100ms",
			Timeout:    "60s",
						CacheSize:   1000,
			Concurrency: 1,
		},
		Search: SearchConfig{
			DefaultLimit: 5,
			ANN:          false,
			ANNOverfetch: 8,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/ragindex/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/ragindex/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ragindex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "ragindex", "config.yaml")
	}
	return filepath.Join(home, ".config", "ragindex", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	var parsed Config
	if err := parseYAML(configPath, &parsed); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return &parsed, nil
}

// Load loads configuration for the project in dir. Layers, in order of
// increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/ragindex/config.yaml)
//  3. Project config (.ragindex.yaml in dir)
//  4. Environment variables (RAGINDEX_*)
//
// Relative paths are then resolved against dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.resolvePaths(dir)
	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, preferring
// .ragindex.yaml. The second result is false when neither exists.
func ProjectConfigPath(dir string) (string, bool) {
	for _, name := range []string{ProjectFile, ProjectFileAlt} {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p, true
		}
	}
	return filepath.Join(dir, ProjectFile), false
}

func (c *Config) loadFromFile(dir string) error {
	path, ok := ProjectConfigPath(dir)
	if !ok {
		return nil
	}
	var parsed Config
	if err := parseYAML(path, &parsed); err != nil {
		return err
	}
	c.mergeWith(&parsed)
	return nil
}

func parseYAML(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Paths
	if other.Paths.ContentRoot != "" {
		c.Paths.ContentRoot = other.Paths.ContentRoot
	}
	if other.Paths.DataDir != "" {
		c.Paths.DataDir = other.Paths.DataDir
	}

	// Chunking. Overlap 0 is meaningful but indistinguishable from unset;
	// use RAGINDEX_CHUNK_OVERLAP=0 to disable overlap.
	if other.Chunking.Size != 0 {
		c.Chunking.Size = other.Chunking.Size
	}
	if other.Chunking.Overlap != 0 {
		c.Chunking.Overlap = other.Chunking.Overlap
	}

	// Embeddings
	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BaseURL != "" {
		c.Embeddings.BaseURL = other.Embeddings.BaseURL
	}
	if other.Embeddings.APIKeyEnv != "" {
		c.Embeddings.APIKeyEnv = other.Embeddings.APIKeyEnv
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.MaxRetries != 0 {
		c.Embeddings.MaxRetries = other.Embeddings.MaxRetries
	}
	if other.Embeddings.BatchDelay != "" {
		c.Embeddings.BatchDelay = other.Embeddings.BatchDelay
	}
	if other.Embeddings.Timeout != "" {
		c.Embeddings.Timeout = other.Embeddings.Timeout
	}
	if other.Embeddings.RequestsPerSecond != 0 {
		c.Embeddings.RequestsPerSecond = other.Embeddings.RequestsPerSecond
	}
	if other.Embeddings.Concurrency != 0 {
		c.Embeddings.Concurrency = other.Embeddings.Concurrency
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}

	// Search. ANN can only be switched on by a file layer.
	if other.Search.DefaultLimit != 0 {
		c.Search.DefaultLimit = other.Search.DefaultLimit
	}
	if other.Search.ANN {
		c.Search.ANN = true
	}
	if other.Search.ANNOverfetch != 0 {
		c.Search.ANNOverfetch = other.Search.ANNOverfetch
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies RAGINDEX_* environment variable overrides.
// Unparseable numbers are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RAGINDEX_CONTENT_ROOT"); v != "" {
		c.Paths.ContentRoot = v
	}
	if v := os.Getenv("RAGINDEX_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}

	if v := os.Getenv("RAGINDEX_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Chunking.Size = n
		}
	}
	if v := os.Getenv("RAGINDEX_CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Chunking.Overlap = n
		}
	}

	if v := os.Getenv("RAGINDEX_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("RAGINDEX_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("RAGINDEX_EMBEDDINGS_DIMENSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Embeddings.Dimensions = n
		}
	}
	if v := os.Getenv("RAGINDEX_EMBEDDINGS_BASE_URL"); v != "" {
		c.Embeddings.BaseURL = v
	}
	if v := os.Getenv("RAGINDEX_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Embeddings.BatchSize = n
		}
	}
	if v := os.Getenv("RAGINDEX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Embeddings.Concurrency = n
		}
	}

	if v := os.Getenv("RAGINDEX_ANN"); v != "" {
		c.Search.ANN = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("RAGINDEX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// resolvePaths makes relative paths absolute against dir.
func (c *Config) resolvePaths(dir string) {
	if !filepath.IsAbs(c.Paths.ContentRoot) {
		c.Paths.ContentRoot = filepath.Join(dir, c.Paths.ContentRoot)
	}
	if !filepath.IsAbs(c.Paths.DataDir) {
		c.Paths.DataDir = filepath.Join(dir, c.Paths.DataDir)
	}
}

// APIKey returns the provider key from the environment: the variable named by
// embeddings.api_key_env, then RAGINDEX_API_KEY.
func (c *Config) APIKey() string {
	if c.Embeddings.APIKeyEnv != "" {
		if v := strings.TrimSpace(os.Getenv(c.Embeddings.APIKeyEnv)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(os.Getenv("RAGINDEX_API_KEY"))
}

// BatchDelay returns embeddings.batch_delay as a duration.
func (c *Config) BatchDelay() time.Duration {
	return parseDuration(c.Embeddings.BatchDelay)
}

// Timeout returns embeddings.timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return parseDuration(c.Embeddings.Timeout)
}

// parseDuration treats "" and "0" as zero. Validate rejects anything else
// that does not parse.
func parseDuration(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// FindProjectRoot walks up from startDir looking for .ragindex.yaml/.yml or a
// .git directory. Returns the absolute startDir when neither is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if _, ok := ProjectConfigPath(currentDir); ok {
			return currentDir, nil
		}
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Paths.ContentRoot == "" {
		return fmt.Errorf("paths.content_root must not be empty")
	}
	if c.Paths.DataDir == "" {
		return fmt.Errorf("paths.data_dir must not be empty")
	}

	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap must be in [0, %d), got %d", c.Chunking.Size, c.Chunking.Overlap)
	}

	validProviders := map[string]bool{"openai": true, "static": true}
	if !validProviders[strings.ToLower(c.Embeddings.Provider)] {
		return fmt.Errorf("embeddings.provider must be 'openai' or 'static', got %s", c.Embeddings.Provider)
	}
	if c.Embeddings.Dimensions <= 0 {
		return fmt.Errorf("embeddings.dimensions must be positive, got %d", c.Embeddings.Dimensions)
	}
	if c.Embeddings.BatchSize <= 0 || c.Embeddings.BatchSize > 2048 {
		return fmt.Errorf("embeddings.batch_size must be between 1 and 2048, got %d", c.Embeddings.BatchSize)
	}
	if c.Embeddings.MaxRetries < 0 {
		return fmt.Errorf("embeddings.max_retries must be non-negative, got %d", c.Embeddings.MaxRetries)
	}
	if c.Embeddings.RequestsPerSecond < 0 {
		return fmt.Errorf("embeddings.requests_per_second must be non-negative, got %g", c.Embeddings.RequestsPerSecond)
	}
	if c.Embeddings.Concurrency < 1 {
		return fmt.Errorf("embeddings.concurrency must be at least 1, got %d", c.Embeddings.Concurrency)
	}
	if c.Embeddings.CacheSize < 0 {
		return fmt.Errorf("embeddings.cache_size must be non-negative, got %d", c.Embeddings.CacheSize)
	}
	for name, v := range map[string]string{
		"embeddings.batch_delay": c.Embeddings.BatchDelay,
		"embeddings.timeout":     c.Embeddings.Timeout,
	} {
		if v == "" || v == "0" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			return fmt.Errorf("%s must be a non-negative duration like \"100ms\", got %q", name, v)
		}
	}

	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search.default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.ANNOverfetch < 1 {
		return fmt.Errorf("search.ann_overfetch must be at least 1, got %d", c.Search.ANNOverfetch)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
