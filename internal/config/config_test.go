package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config at an empty directory and returns it.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func writeUserConfig(t *testing.T, xdg, content string) {
	t.Helper()
	dir := filepath.Join(xdg, "ragindex")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
}

// =============================================================================
// Defaults
// =============================================================================

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Version)

	assert.Equal(t, "content", cfg.Paths.ContentRoot)
	assert.Equal(t, ".ragindex", cfg.Paths.DataDir)

	assert.Equal(t, 1000, cfg.Chunking.Size)
	assert.Equal(t, 200, cfg.Chunking.Overlap)

	assert.Equal(t, "openai", cfg.Embeddings.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
	assert.Equal(t, 1536, cfg.Embeddings.Dimensions)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embeddings.APIKeyEnv)
	assert.Equal(t, 100, cfg.Embeddings.BatchSize)
	assert.Equal(t, 3, cfg.Embeddings.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.BatchDelay())
	assert.Equal(t, 60*time.Second, cfg.Timeout())
	assert.Equal(t, 1, cfg.Embeddings.Concurrency)

	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.False(t, cfg.Search.ANN)
	assert.Equal(t, 8, cfg.Search.ANNOverfetch)

	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

// =============================================================================
// Project config
// =============================================================================

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	// Given: a directory with no .ragindex.yaml
	isolate(t)
	tmpDir := t.TempDir()

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: defaults are returned with paths resolved against the directory
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "content"), cfg.Paths.ContentRoot)
	assert.Equal(t, filepath.Join(tmpDir, ".ragindex"), cfg.Paths.DataDir)
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	// Given: a directory with .ragindex.yaml
	isolate(t)
	tmpDir := t.TempDir()
	configContent := `
version: 1
paths:
  content_root: /srv/courses
chunking:
  size: 800
  overlap: 100
embeddings:
  provider: static
  dimensions: 256
  batch_delay: "0"
search:
  default_limit: 10
  ann: true
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ProjectFile), []byte(configContent), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: all overrides are applied
	require.NoError(t, err)
	assert.Equal(t, "/srv/courses", cfg.Paths.ContentRoot)
	assert.Equal(t, 800, cfg.Chunking.Size)
	assert.Equal(t, 100, cfg.Chunking.Overlap)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, 256, cfg.Embeddings.Dimensions)
	assert.Equal(t, time.Duration(0), cfg.BatchDelay())
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.True(t, cfg.Search.ANN)
	// And: untouched values keep their defaults
	assert.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	isolate(t)
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ProjectFileAlt), []byte("embeddings:\n  provider: static\n"), 0o644))

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	// Given: both .yaml and .yml exist
	isolate(t)
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ProjectFile), []byte("embeddings:\n  model: from-yaml\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ProjectFileAlt), []byte("embeddings:\n  model: from-yml\n"), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: .yaml takes precedence
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.Embeddings.Model)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	isolate(t)
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ProjectFile), []byte("chunking:\n  size: [broken\n"), 0o644))

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoad_InvalidFieldType_ReturnsError(t *testing.T) {
	isolate(t)
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ProjectFile), []byte("chunking:\n  size: \"not-a-number\"\n"), 0o644))

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
}

// =============================================================================
// Validation
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"zero chunk size", func(c *Config) { c.Chunking.Size = 0 }, "chunking.size"},
		{"overlap equals size", func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }, "chunking.overlap"},
		{"negative overlap", func(c *Config) { c.Chunking.Overlap = -1 }, "chunking.overlap"},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "ollama" }, "embeddings.provider"},
		{"provider is case insensitive", func(c *Config) { c.Embeddings.Provider = "Static" }, ""},
		{"zero dimensions", func(c *Config) { c.Embeddings.Dimensions = 0 }, "embeddings.dimensions"},
		{"batch too large", func(c *Config) { c.Embeddings.BatchSize = 5000 }, "embeddings.batch_size"},
		{"bad batch delay", func(c *Config) { c.Embeddings.BatchDelay = "soon" }, "embeddings.batch_delay"},
		{"negative timeout", func(c *Config) { c.Embeddings.Timeout = "-1s" }, "embeddings.timeout"},
		{"zero concurrency", func(c *Config) { c.Embeddings.Concurrency = 0 }, "embeddings.concurrency"},
		{"negative rps", func(c *Config) { c.Embeddings.RequestsPerSecond = -1 }, "requests_per_second"},
		{"zero limit", func(c *Config) { c.Search.DefaultLimit = 0 }, "search.default_limit"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"empty data dir", func(c *Config) { c.Paths.DataDir = "" }, "paths.data_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_InvalidValues_ReturnsError(t *testing.T) {
	// Given: overlap larger than size in the project config
	isolate(t)
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ProjectFile), []byte("chunking:\n  size: 100\n  overlap: 150\n"), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: validation fails
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid configuration")
}

// =============================================================================
// Environment overrides
// =============================================================================

func TestLoad_EnvVarOverrides(t *testing.T) {
	// Given: RAGINDEX_* variables
	isolate(t)
	t.Setenv("RAGINDEX_EMBEDDINGS_PROVIDER", "static")
	t.Setenv("RAGINDEX_EMBEDDINGS_MODEL", "env-model")
	t.Setenv("RAGINDEX_EMBEDDINGS_DIMENSIONS", "64")
	t.Setenv("RAGINDEX_CHUNK_OVERLAP", "0")
	t.Setenv("RAGINDEX_DATA_DIR", "/var/lib/ragindex")
	t.Setenv("RAGINDEX_ANN", "1")
	t.Setenv("RAGINDEX_LOG_LEVEL", "debug")

	// When: loading configuration
	cfg, err := Load(t.TempDir())

	// Then: every override is applied
	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, "env-model", cfg.Embeddings.Model)
	assert.Equal(t, 64, cfg.Embeddings.Dimensions)
	assert.Equal(t, 0, cfg.Chunking.Overlap)
	assert.Equal(t, "/var/lib/ragindex", cfg.Paths.DataDir)
	assert.True(t, cfg.Search.ANN)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvVarUnparseableNumber_Ignored(t *testing.T) {
	isolate(t)
	t.Setenv("RAGINDEX_BATCH_SIZE", "lots")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Embeddings.BatchSize)
}

func TestAPIKey(t *testing.T) {
	cfg := NewConfig()

	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RAGINDEX_API_KEY", "")
	assert.Empty(t, cfg.APIKey())

	t.Setenv("RAGINDEX_API_KEY", "fallback")
	assert.Equal(t, "fallback", cfg.APIKey())

	t.Setenv("OPENAI_API_KEY", " sk-test ")
	assert.Equal(t, "sk-test", cfg.APIKey())

	cfg.Embeddings.APIKeyEnv = "CUSTOM_KEY"
	t.Setenv("CUSTOM_KEY", "custom")
	assert.Equal(t, "custom", cfg.APIKey())
}

// =============================================================================
// User config
// =============================================================================

func TestGetUserConfigPath_DefaultsToXDGLocation(t *testing.T) {
	// Given: no XDG_CONFIG_HOME set
	t.Setenv("XDG_CONFIG_HOME", "")

	// When: getting user config path
	path := GetUserConfigPath()

	// Then: defaults to ~/.config/ragindex/config.yaml
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "ragindex", "config.yaml"), path)
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	customConfig := isolate(t)

	path := GetUserConfigPath()

	assert.Equal(t, filepath.Join(customConfig, "ragindex", "config.yaml"), path)
}

func TestUserConfigExists(t *testing.T) {
	xdg := isolate(t)
	assert.False(t, UserConfigExists())

	writeUserConfig(t, xdg, "version: 1")
	assert.True(t, UserConfigExists())
}

func TestLoad_ProjectConfigOverridesUserConfig(t *testing.T) {
	// Given: both user and project configs exist
	xdg := isolate(t)
	projectDir := t.TempDir()
	writeUserConfig(t, xdg, "embeddings:\n  provider: static\n  model: user-model\n")
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ProjectFile), []byte("embeddings:\n  model: project-model\n"), 0o644))

	// When: loading configuration
	cfg, err := Load(projectDir)

	// Then: project config takes precedence
	require.NoError(t, err)
	assert.Equal(t, "project-model", cfg.Embeddings.Model)
	// And: the user config's provider is still used
	assert.Equal(t, "static", cfg.Embeddings.Provider)
}

func TestLoad_EnvVarOverridesUserAndProjectConfig(t *testing.T) {
	xdg := isolate(t)
	projectDir := t.TempDir()
	t.Setenv("RAGINDEX_EMBEDDINGS_MODEL", "env-model")
	writeUserConfig(t, xdg, "embeddings:\n  model: user-model\n")
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ProjectFile), []byte("embeddings:\n  model: project-model\n"), 0o644))

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, "env-model", cfg.Embeddings.Model)
}

func TestLoad_InvalidUserConfig_ReturnsError(t *testing.T) {
	xdg := isolate(t)
	writeUserConfig(t, xdg, "embeddings:\n  model: [invalid yaml\n")

	cfg, err := Load(t.TempDir())

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "user config")
}

// =============================================================================
// Project root discovery
// =============================================================================

func TestFindProjectRoot_ConfigFile(t *testing.T) {
	// Given: a config file two levels above the start directory
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectFile), []byte("version: 1\n"), 0o644))
	start := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(start, 0o755))

	// When: searching upwards
	found, err := FindProjectRoot(start)

	// Then: the config directory is returned
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindProjectRoot_GitDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	start := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(start, 0o755))

	found, err := FindProjectRoot(start)

	require.NoError(t, err)
	assert.Equal(t, root, found)
}
