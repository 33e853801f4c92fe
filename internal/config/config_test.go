package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists

	// When: building the default config
	cfg := NewConfig()

	// Then: defaults match the documented out-of-the-box behavior
	require.NotNil(t, cfg)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1.5, cfg.BM25.K1)
	assert.Equal(t, 0.75, cfg.BM25.B)
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	// Given: a directory with no quiver.yaml
	tmpDir := t.TempDir()

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: defaults are returned without error
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	// Given: a directory with quiver.yaml
	tmpDir := t.TempDir()
	configContent := `
port: 9000
data_dir: /var/lib/quiver
log_level: debug
bm25:
  k1: 1.2
  b: 0.8
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "quiver.yaml"), []byte(configContent), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: every override is applied
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/var/lib/quiver", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 1.2, cfg.BM25.K1)
	assert.Equal(t, 0.8, cfg.BM25.B)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	// Given: a directory with quiver.yml (alternative extension)
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "quiver.yml"), []byte("port: 4000\n"), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: the .yml file is recognized
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	// Given: both quiver.yaml and quiver.yml exist
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "quiver.yaml"), []byte("port: 5001\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "quiver.yml"), []byte("port: 5002\n"), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: quiver.yaml takes precedence
	require.NoError(t, err)
	assert.Equal(t, 5001, cfg.Port)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	// Given: invalid YAML syntax
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "quiver.yaml"), []byte("port: [invalid\n"), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: an error is returned with a clear message
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_EnvVarOverridesPort(t *testing.T) {
	// Given: an env var for the port
	tmpDir := t.TempDir()
	t.Setenv("QUIVER_PORT", "7000")

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: the env var is applied
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
}

func TestLoad_EnvVarOverridesYamlPort(t *testing.T) {
	// Given: quiver.yaml and an env var both set the port
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "quiver.yaml"), []byte("port: 5001\n"), 0o644))
	t.Setenv("QUIVER_PORT", "7000")

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: the env var takes precedence over the file
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
}

func TestLoad_EnvVarOverridesDataDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("QUIVER_DATA_DIR", "/tmp/custom-data")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-data", cfg.DataDir)
}

func TestLoad_EnvVarOverridesLogLevel(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("QUIVER_LOG_LEVEL", "warn")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_EnvVarEmptyString_DoesNotOverride(t *testing.T) {
	// Given: an empty env var
	tmpDir := t.TempDir()
	t.Setenv("QUIVER_DATA_DIR", "")

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: the default is kept
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestValidate_RejectsOutOfRangePort(t *testing.T) {
	cfg := NewConfig()
	cfg.Port = 0
	assert.Error(t, cfg.Validate())

	cfg.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsEmptyDataDir(t *testing.T) {
	cfg := NewConfig()
	cfg.DataDir = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNegativeK1(t *testing.T) {
	cfg := NewConfig()
	cfg.BM25.K1 = -1
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsBOutsideUnitInterval(t *testing.T) {
	cfg := NewConfig()
	cfg.BM25.B = 1.5
	assert.Error(t, cfg.Validate())

	cfg.BM25.B = -0.1
	assert.Error(t, cfg.Validate())
}

func TestWriteYAML_RoundTripsThroughLoad(t *testing.T) {
	// Given: a config with non-default values
	cfg := NewConfig()
	cfg.Port = 8123
	cfg.DataDir = "/srv/quiver"
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "quiver.yaml")

	// When: writing it out and loading it back
	require.NoError(t, cfg.WriteYAML(path))
	reloaded, err := Load(tmpDir)

	// Then: the written values survive the round trip
	require.NoError(t, err)
	assert.Equal(t, 8123, reloaded.Port)
	assert.Equal(t, "/srv/quiver", reloaded.DataDir)
}
