package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"imgcompare/database"
)

// Stats describes what a cache directory holds
type Stats struct {
	Dir         string
	DirEntries  int
	SQLEntries  int
	Bytes       int64
	HasDatabase bool
}

// Entries returns the total number of stored grids across both backends
func (s Stats) Entries() int {
	return s.DirEntries + s.SQLEntries
}

// ReadStats inspects dir without modifying it. A missing directory yields
// empty stats.
func ReadStats(dir string) (Stats, error) {
	stats := Stats{Dir: dir}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("read cache dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isCacheFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		stats.Bytes += info.Size()
		if strings.HasSuffix(entry.Name(), metaExt) {
			stats.DirEntries++
		}
	}

	dbPath := filepath.Join(dir, database.FileName)
	if _, err := os.Stat(dbPath); err == nil {
		stats.HasDatabase = true
		store, err := database.OpenReadOnly(dbPath)
		if err != nil {
			return stats, err
		}
		defer store.Close()
		if stats.SQLEntries, err = store.Count(); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// Clear removes every cache file in dir and returns how many were removed.
// It fails with ErrBusy while a comparison holds the directory.
func Clear(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}

	lock, err := lockExclusive(dir)
	if err != nil {
		return 0, err
	}
	defer lock.Unlock()

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !isCacheFile(entry.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

func isCacheFile(name string) bool {
	if strings.HasPrefix(name, database.FileName) {
		return true
	}
	if strings.HasSuffix(name, ".tmp") {
		return true
	}
	ext := filepath.Ext(name)
	if ext != gridExt && ext != metaExt {
		return false
	}
	stem := strings.TrimSuffix(name, ext)
	if len(stem) != 16 {
		return false
	}
	for _, r := range stem {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}
