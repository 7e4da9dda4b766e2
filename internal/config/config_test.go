package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/diskctl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = append([]string{"diskctl"}, args...)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diskctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	configPath := writeConfigFile(t, `
timeout = 300
interval = 2
quiet = true
debug = false
metrics = true
database = "/path/to/metrics.db"
devices = ["/dev/sda", "/dev/sdb"]
`)
	t.Setenv("DISKCTL_CONFIG", configPath)
	setArgs(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Timeout, "Expected Timeout 300")
	assert.Equal(t, 2, cfg.Interval, "Expected Interval 2")
	assert.True(t, cfg.Quiet, "Expected Quiet true")
	assert.False(t, cfg.Verbose(), "Expected Verbose false")
	assert.True(t, cfg.Metrics, "Expected Metrics true")
	assert.Equal(t, "/path/to/metrics.db", cfg.Database, "Expected Database /path/to/metrics.db")
	assert.Equal(t, []string{"/dev/sda", "/dev/sdb"}, cfg.Devices)
}

func TestLoadDefaults(t *testing.T) {
	// Ensure no config file is used
	t.Setenv("DISKCTL_CONFIG", "")
	setArgs(t, "/dev/sda")

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultTimeout, cfg.Timeout, "Expected default Timeout 1800")
	assert.Equal(t, config.DefaultInterval, cfg.Interval, "Expected default Interval 1")
	assert.False(t, cfg.Quiet, "Expected default Quiet false")
	assert.True(t, cfg.Verbose(), "Expected default Verbose true")
	assert.False(t, cfg.Debug, "Expected default Debug false")
	assert.False(t, cfg.Metrics, "Expected default Metrics false")
	assert.Equal(t, []string{"/dev/sda"}, cfg.Devices)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	configPath := writeConfigFile(t, `
timeout = 300
devices = ["/dev/sda"]
`)
	t.Setenv("DISKCTL_CONFIG", configPath)
	setArgs(t, "--timeout", "60", "--quiet", "/dev/sdb")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Timeout, "Expected flag Timeout to win")
	assert.True(t, cfg.Quiet)
	assert.Equal(t, []string{"/dev/sdb"}, cfg.Devices, "Expected positional args to win")
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	configPath := writeConfigFile(t, `
This is not a valid TOML file
`)
	t.Setenv("DISKCTL_CONFIG", configPath)
	setArgs(t, "/dev/sda")

	_, err := config.Load()
	require.Error(t, err)
}

func TestVersionFlag(t *testing.T) {
	t.Setenv("DISKCTL_CONFIG", "")
	setArgs(t, "--version")

	cfg, err := config.Load()
	require.NoError(t, err, "version must not require devices")
	assert.True(t, cfg.Version)
}

func TestNoDevices(t *testing.T) {
	t.Setenv("DISKCTL_CONFIG", "")
	setArgs(t)

	_, err := config.Load()
	require.Error(t, err)
}

func TestInvalidTimeout(t *testing.T) {
	t.Setenv("DISKCTL_CONFIG", "")
	setArgs(t, "--timeout", "0", "/dev/sda")

	_, err := config.Load()
	require.Error(t, err)
}

func TestInvalidInterval(t *testing.T) {
	t.Setenv("DISKCTL_CONFIG", "")
	setArgs(t, "--interval", "-1", "/dev/sda")

	_, err := config.Load()
	require.Error(t, err)
}
