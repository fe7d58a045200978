// Package config loads and validates the run configuration: similarity
// threshold, cache strategy and location, output preferences and logging.
package config
