package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Cache selects how normalized grids are obtained between comparisons.
type Cache struct {
	Strategy string `toml:"strategy"`
	Dir      string `toml:"dir"`
	Backend  string `toml:"backend"`
}

// Output contains result formatting preferences.
type Output struct {
	Format    string `toml:"format"`
	Path      string `toml:"path"`
	AllScores bool   `toml:"all_scores"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// Config holds the run-scoped parameters of a comparison. A Config is
// validated once when it is built and treated as immutable afterwards.
type Config struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	Workers             int     `toml:"workers"`
	Strict              bool    `toml:"strict"`
	Cache               Cache   `toml:"cache"`
	Output              Output  `toml:"output"`
	Logging             Logging `toml:"logging"`
}

// Option adjusts a Config during construction.
type Option func(*Config)

// WithThreshold sets the similarity threshold.
func WithThreshold(threshold float64) Option {
	return func(c *Config) { c.SimilarityThreshold = threshold }
}

// WithPersistentCache selects the persistent cache rooted at dir.
func WithPersistentCache(dir, backend string) Option {
	return func(c *Config) {
		c.Cache.Strategy = StrategyPersistent
		c.Cache.Dir = dir
		c.Cache.Backend = backend
	}
}

// WithEphemeralCache selects the ephemeral strategy, leaving any configured
// directory unused.
func WithEphemeralCache() Option {
	return func(c *Config) { c.Cache.Strategy = StrategyEphemeral }
}

// WithOutput sets the output format and destination.
func WithOutput(format, path string, allScores bool) Option {
	return func(c *Config) {
		c.Output.Format = format
		c.Output.Path = path
		c.Output.AllScores = allScores
	}
}

// WithWorkers sets the worker pool size. Zero means hardware parallelism.
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithStrict makes the first per-item failure abort the run.
func WithStrict(strict bool) Option {
	return func(c *Config) { c.Strict = strict }
}

// New builds a Config from defaults and options and validates it.
func New(opts ...Option) (*Config, error) {
	cfg := Default()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads the TOML file at path on top of the defaults, applies opts and
// validates the result. A missing file is not an error; the returned bool
// reports whether it existed.
func Load(path string, opts ...Option) (*Config, bool, error) {
	cfg := Default()

	exists := false
	if strings.TrimSpace(path) != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return nil, false, err
		}
		file, err := os.Open(expanded)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, false, fmt.Errorf("open config: %w", err)
		default:
			defer file.Close()
			exists = true
			if err := toml.NewDecoder(file).DisallowUnknownFields().Decode(&cfg); err != nil {
				return nil, false, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.normalize(); err != nil {
		return nil, false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return &cfg, exists, nil
}

// Persistent reports whether the persistent cache strategy is selected.
func (c *Config) Persistent() bool {
	return c.Cache.Strategy == StrategyPersistent
}

func (c *Config) normalize() error {
	c.Cache.Strategy = strings.ToLower(strings.TrimSpace(c.Cache.Strategy))
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	if c.Cache.Strategy == "" {
		c.Cache.Strategy = defaultCacheStrategy
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = defaultCacheBackend
	}
	if c.Output.Format == "" {
		c.Output.Format = defaultOutputFormat
	}

	var err error
	if c.Cache.Dir, err = ExpandPath(c.Cache.Dir); err != nil {
		return fmt.Errorf("cache.dir: %w", err)
	}
	if c.Output.Path, err = ExpandPath(c.Output.Path); err != nil {
		return fmt.Errorf("output.path: %w", err)
	}
	if c.Logging.File, err = ExpandPath(c.Logging.File); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path.
// Empty input stays empty.
func ExpandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return "", nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
