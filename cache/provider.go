package cache

import (
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"log/slog"
	"sync/atomic"

	"imgcompare/imageprocessor"
	"imgcompare/logging"
	"imgcompare/types"
)

var (
	// ErrCorruptEntry marks a stored grid that cannot be used as-is
	ErrCorruptEntry = imageprocessor.ErrCorruptGrid
	// ErrCacheInit marks a persistent cache whose backing store could not be prepared
	ErrCacheInit = errors.New("cache initialization failed")
)

// Provider returns the normalized grid for a path
type Provider interface {
	Get(path string) (*types.NormalizedImage, error)
}

// Loader decodes a source image. *imageprocessor.ImageLoaderRegistry satisfies it.
type Loader interface {
	LoadImage(path string) (image.Image, error)
}

// Store persists grids under a key
type Store interface {
	Get(key string) (*types.NormalizedImage, bool, error)
	Put(key, source string, img *types.NormalizedImage) error
	Close() error
}

// Key returns the cache key for path: FNV-1a 64 as 16 lowercase hex digits
func Key(path string) string {
	h := fnv.New64a()
	h.Write([]byte(path))
	return fmt.Sprintf("%016x", h.Sum64())
}

func load(loader Loader, path string) (*types.NormalizedImage, error) {
	img, err := loader.LoadImage(path)
	if err != nil {
		return nil, err
	}
	norm, err := imageprocessor.Normalize(img)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", path, err)
	}
	return norm, nil
}

// Ephemeral decodes and normalizes on every call and keeps no state
type Ephemeral struct {
	loader Loader
}

// NewEphemeral returns a provider that never stores anything
func NewEphemeral(loader Loader) *Ephemeral {
	return &Ephemeral{loader: loader}
}

// Get implements Provider
func (e *Ephemeral) Get(path string) (*types.NormalizedImage, error) {
	return load(e.loader, path)
}

// Counters summarizes persistent cache traffic for one run
type Counters struct {
	Hits       int64
	Misses     int64
	WriteFails int64
}

// Persistent serves grids from a Store and fills it on a miss
type Persistent struct {
	loader Loader
	store  Store
	logger *slog.Logger

	hits       atomic.Int64
	misses     atomic.Int64
	writeFails atomic.Int64
}

// NewPersistent wraps store. A nil logger discards write warnings.
func NewPersistent(loader Loader, store Store, logger *slog.Logger) *Persistent {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Persistent{
		loader: loader,
		store:  store,
		logger: logging.Component(logger, "cache"),
	}
}

// Get implements Provider. A stored entry that fails validation is reported
// with ErrCorruptEntry and not recomputed. A failed write is logged and the
// freshly normalized grid is still returned.
func (p *Persistent) Get(path string) (*types.NormalizedImage, error) {
	key := Key(path)

	cached, ok, err := p.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("cache entry %s for %s: %w", key, path, err)
	}
	if ok {
		p.hits.Add(1)
		return cached, nil
	}
	p.misses.Add(1)

	norm, err := load(p.loader, path)
	if err != nil {
		return nil, err
	}

	if err := p.store.Put(key, path, norm); err != nil {
		p.writeFails.Add(1)
		p.logger.Warn("cache write failed", "path", path, "key", key, "error", err)
	}
	return norm, nil
}

// Counters returns the traffic seen so far
func (p *Persistent) Counters() Counters {
	return Counters{
		Hits:       p.hits.Load(),
		Misses:     p.misses.Load(),
		WriteFails: p.writeFails.Load(),
	}
}
