package config

const (
	StrategyEphemeral  = "ephemeral"
	StrategyPersistent = "persistent"

	BackendDir    = "dir"
	BackendSQLite = "sqlite"

	FormatTxt   = "txt"
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

const (
	defaultSimilarityThreshold = 0.9
	defaultCacheStrategy       = StrategyEphemeral
	defaultCacheBackend        = BackendDir
	defaultOutputFormat        = FormatTxt
	defaultLogLevel            = "info"
	defaultLogFormat           = "text"
)

// Default returns a Config populated with repository defaults. The cache
// location has no default: a persistent cache must be given a directory.
func Default() Config {
	return Config{
		SimilarityThreshold: defaultSimilarityThreshold,
		Cache: Cache{
			Strategy: defaultCacheStrategy,
			Backend:  defaultCacheBackend,
		},
		Output: Output{
			Format: defaultOutputFormat,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

// OutputFormats lists the accepted output format names.
func OutputFormats() []string {
	return []string{FormatTxt, FormatJSON, FormatCSV, FormatYAML, FormatTable}
}
