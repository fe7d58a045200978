package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"imgcompare/imageprocessor"
	"imgcompare/logging"
)

// ErrRootUnreadable is returned when the root directory cannot be listed
var ErrRootUnreadable = errors.New("cannot read root directory")

// ListImages walks root recursively and returns every regular file with a
// supported image extension. Unreadable sub-directories are logged and
// skipped; an unreadable root is fatal.
func ListImages(options ScanOptions) (*ScanResult, error) {
	logger := logging.Component(options.Logger, "scanner")

	info, err := os.Stat(options.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRootUnreadable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRootUnreadable, options.Root)
	}

	result := &ScanResult{ByFormat: make(map[string]int)}
	err = filepath.WalkDir(options.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == options.Root {
				return fmt.Errorf("%w: %w", ErrRootUnreadable, err)
			}
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			result.SkippedDirs++
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !imageprocessor.IsImageFile(path) {
			return nil
		}
		if !isRegular(path, d) {
			return nil
		}

		result.Paths = append(result.Paths, path)
		result.ByFormat[string(imageprocessor.GetFileFormat(path))]++
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(result.Paths)
	if len(result.Paths) == 0 {
		logger.Warn("no images found", "root", options.Root, "extensions", imageprocessor.SupportedExtensions())
	}
	logger.Info("scan complete", "root", options.Root, "images", len(result.Paths), "skipped_dirs", result.SkippedDirs)
	return result, nil
}

// isRegular accepts regular files and symlinks that resolve to one
func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
