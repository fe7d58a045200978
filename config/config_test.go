package config_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgcompare/config"
)

func TestNewAppliesDefaults(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.SimilarityThreshold)
	assert.Equal(t, config.StrategyEphemeral, cfg.Cache.Strategy)
	assert.Equal(t, config.BackendDir, cfg.Cache.Backend)
	assert.Equal(t, config.FormatTxt, cfg.Output.Format)
	assert.False(t, cfg.Persistent())
	assert.Empty(t, cfg.Cache.Dir)
}

func TestNewRejectsThresholdOutOfRange(t *testing.T) {
	for _, threshold := range []float64{-0.01, 1.01, math.NaN(), math.Inf(1)} {
		_, err := config.New(config.WithThreshold(threshold))
		require.ErrorIs(t, err, config.ErrInvalidThreshold, "threshold %v", threshold)
	}
}

func TestNewAcceptsThresholdBounds(t *testing.T) {
	for _, threshold := range []float64{0, 1} {
		cfg, err := config.New(config.WithThreshold(threshold))
		require.NoError(t, err)
		assert.Equal(t, threshold, cfg.SimilarityThreshold)
	}
}

func TestPersistentCacheRequiresDir(t *testing.T) {
	_, err := config.New(config.WithPersistentCache("", config.BackendDir))
	require.Error(t, err)

	dir := t.TempDir()
	cfg, err := config.New(config.WithPersistentCache(dir, "SQLite"))
	require.NoError(t, err)
	assert.True(t, cfg.Persistent())
	assert.Equal(t, config.BackendSQLite, cfg.Cache.Backend)
	assert.Equal(t, dir, cfg.Cache.Dir)
}

func TestNewRejectsUnknownOutputFormat(t *testing.T) {
	_, err := config.New(config.WithOutput("xml", "", false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, config.Default().SimilarityThreshold, cfg.SimilarityThreshold)
}

func TestLoadFileThenOptionsOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imgcompare.toml")
	body := `
similarity_threshold = 0.75
workers = 3

[cache]
strategy = "persistent"
dir = "` + filepath.ToSlash(filepath.Join(dir, "cache")) + `"
backend = "sqlite"

[output]
format = "json"
all_scores = true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, exists, err := config.Load(path, config.WithWorkers(8))
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 0.75, cfg.SimilarityThreshold)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.Persistent())
	assert.Equal(t, config.BackendSQLite, cfg.Cache.Backend)
	assert.Equal(t, config.FormatJSON, cfg.Output.Format)
	assert.True(t, cfg.Output.AllScores)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("treshold = 0.5\n"), 0o644))

	_, _, err := config.Load(path)
	require.Error(t, err)
}

func TestParseThreshold(t *testing.T) {
	value, err := config.ParseThreshold(" 0.85 ")
	require.NoError(t, err)
	assert.Equal(t, 0.85, value)

	_, err = config.ParseThreshold("abc")
	require.Error(t, err)

	_, err = config.ParseThreshold("1.5")
	require.ErrorIs(t, err, config.ErrInvalidThreshold)
}

func TestExpandPathHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := config.ExpandPath("~/cache")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cache"), got)

	got, err = config.ExpandPath("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestValidateLoggingLevel(t *testing.T) {
	cfg := config.Default()
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg.Logging.Level = level
		require.NoError(t, cfg.Validate(), level)
	}

	cfg.Logging.Level = "verbose"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestLoadRejectsUnknownLoggingLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgcompare.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging]\nlevel = \"Verbose\"\n"), 0o644))

	_, _, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestWithEphemeralCacheOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imgcompare.toml")
	require.NoError(t, os.WriteFile(path, []byte("[cache]\nstrategy = \"persistent\"\ndir = \"/var/cache/img\"\nbackend = \"sqlite\"\n"), 0o644))

	cfg, _, err := config.Load(path, config.WithEphemeralCache())
	require.NoError(t, err)
	assert.False(t, cfg.Persistent())
}
