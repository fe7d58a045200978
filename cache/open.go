package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"imgcompare/config"
	"imgcompare/database"
)

const lockName = ".lock"

// ErrBusy is returned when the cache directory is locked by another process
var ErrBusy = errors.New("cache directory is in use")

// Open builds the provider selected by cfg. The returned function releases
// the store and any directory lock and must be called when the run ends.
func Open(cfg *config.Config, loader Loader, logger *slog.Logger) (Provider, func() error, error) {
	if !cfg.Persistent() {
		return NewEphemeral(loader), func() error { return nil }, nil
	}

	dir := cfg.Cache.Dir
	if dir == "" {
		return nil, nil, fmt.Errorf("%w: no cache directory configured", ErrCacheInit)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("%w: create %s: %v", ErrCacheInit, dir, err)
	}

	lock, err := lockShared(dir)
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(dir, cfg.Cache.Backend)
	if err != nil {
		lock.Unlock()
		return nil, nil, err
	}

	closer := func() error {
		return errors.Join(store.Close(), lock.Unlock())
	}
	return NewPersistent(loader, store, logger), closer, nil
}

func openStore(dir, backend string) (Store, error) {
	switch backend {
	case config.BackendSQLite:
		store, err := database.InitDatabase(filepath.Join(dir, database.FileName))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheInit, err)
		}
		return store, nil
	case config.BackendDir, "":
		return NewDirStore(dir)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrCacheInit, backend)
	}
}

// lockShared lets several comparisons share a cache while keeping Clear out
func lockShared(dir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(dir, lockName))
	ok, err := lock.TryRLock()
	if err != nil {
		return nil, fmt.Errorf("%w: lock %s: %v", ErrCacheInit, dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is being cleared", ErrBusy, dir)
	}
	return lock, nil
}

func lockExclusive(dir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(dir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: a comparison is using %s", ErrBusy, dir)
	}
	return lock, nil
}
