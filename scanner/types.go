package scanner

import "log/slog"

// ScanOptions defines the options for scanning
type ScanOptions struct {
	Root   string
	Logger *slog.Logger
}

// ScanResult is the outcome of a directory traversal
type ScanResult struct {
	// Paths are sorted lexically so runs over the same tree are reproducible
	Paths       []string
	SkippedDirs int
	// ByFormat counts the listed files per image format
	ByFormat map[string]int
}
