package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"imgcompare/imageprocessor"
	"imgcompare/types"
)

const (
	gridExt = ".png"
	metaExt = ".json"
)

type entryMeta struct {
	Source    string    `json:"source"`
	Aspect    float64   `json:"aspect"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}

// DirStore keeps each entry as <key>.png plus a <key>.json sidecar holding
// the aspect ratio. Files are written to a temporary name and renamed into
// place, and the sidecar goes last, so a present sidecar means a complete
// entry.
type DirStore struct {
	dir string
}

// NewDirStore creates dir if needed
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrCacheInit, dir, err)
	}
	return &DirStore{dir: dir}, nil
}

// Get implements Store
func (s *DirStore) Get(key string) (*types.NormalizedImage, bool, error) {
	metaData, err := os.ReadFile(filepath.Join(s.dir, key+metaExt))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read sidecar: %w", err)
	}

	var meta entryMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, false, fmt.Errorf("%w: sidecar: %v", ErrCorruptEntry, err)
	}

	gridData, err := os.ReadFile(filepath.Join(s.dir, key+gridExt))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, fmt.Errorf("%w: sidecar without grid", ErrCorruptEntry)
	}
	if err != nil {
		return nil, false, fmt.Errorf("read grid: %w", err)
	}

	gray, err := imageprocessor.DecodeGrid(gridData)
	if err != nil {
		return nil, false, err
	}
	return &types.NormalizedImage{Gray: gray, Aspect: meta.Aspect}, true, nil
}

// Put implements Store
func (s *DirStore) Put(key, source string, img *types.NormalizedImage) error {
	gridData, err := imageprocessor.EncodeGrid(img.Gray)
	if err != nil {
		return err
	}
	metaData, err := json.Marshal(entryMeta{
		Source:    source,
		Aspect:    img.Aspect,
		Width:     img.Width(),
		Height:    img.Height(),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}

	if err := s.writeAtomic(key+gridExt, gridData); err != nil {
		return err
	}
	return s.writeAtomic(key+metaExt, metaData)
}

// Close implements Store
func (s *DirStore) Close() error {
	return nil
}

func (s *DirStore) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
