package database

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"imgcompare/imageprocessor"
	"imgcompare/types"
)

// FileName is the name of the sqlite file inside a cache directory
const FileName = "grids.db"

// GridStore keeps normalized grids in a single sqlite table. The first
// writer of a key wins; later writes of the same key are ignored, which is
// harmless because normalization is deterministic.
type GridStore struct {
	db *sql.DB
}

// InitDatabase opens (or creates) the sqlite file at dbPath and makes sure the
// schema exists.
func InitDatabase(dbPath string) (*GridStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY
	// between goroutines of the same process.
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS normalized_images (
		key TEXT PRIMARY KEY,
		source_path TEXT NOT NULL,
		aspect REAL NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		pixels BLOB NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_source_path ON normalized_images(source_path);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema in %s: %w", dbPath, err)
	}

	return &GridStore{db: db}, nil
}

// OpenReadOnly opens an existing grid database without creating the file,
// the schema or any journal. Used for inspection only.
func OpenReadOnly(dbPath string) (*GridStore, error) {
	dsn := (&url.URL{Scheme: "file", Path: dbPath, RawQuery: "mode=ro&_busy_timeout=5000"}).String()
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s read-only: %w", dbPath, err)
	}
	return &GridStore{db: db}, nil
}

// Get returns the grid stored under key. The boolean is false when no row
// exists. A row whose pixels do not decode to a normalized grayscale grid is
// reported with imageprocessor.ErrCorruptGrid.
func (s *GridStore) Get(key string) (*types.NormalizedImage, bool, error) {
	var (
		aspect        float64
		width, height int
		pixels        []byte
	)
	err := s.db.QueryRow(
		"SELECT aspect, width, height, pixels FROM normalized_images WHERE key = ?", key,
	).Scan(&aspect, &width, &height, &pixels)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query grid %s: %w", key, err)
	}

	gray, err := imageprocessor.DecodeGrid(pixels)
	if err != nil {
		return nil, false, fmt.Errorf("grid %s: %w", key, err)
	}
	if b := gray.Bounds(); b.Dx() != width || b.Dy() != height {
		return nil, false, fmt.Errorf("grid %s: %w: recorded %dx%d", key, imageprocessor.ErrCorruptGrid, width, height)
	}

	return &types.NormalizedImage{Gray: gray, Aspect: aspect}, true, nil
}

// Put stores img under key unless a row for key already exists
func (s *GridStore) Put(key, source string, img *types.NormalizedImage) error {
	pixels, err := imageprocessor.EncodeGrid(img.Gray)
	if err != nil {
		return fmt.Errorf("grid %s: %w", key, err)
	}

	_, err = s.db.Exec(`
		INSERT OR IGNORE INTO normalized_images (
			key, source_path, aspect, width, height, pixels, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key,
		source,
		img.Aspect,
		img.Width(),
		img.Height(),
		pixels,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("cannot insert grid for %s: %w", source, err)
	}
	return nil
}

// Count returns the number of stored grids
func (s *GridStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM normalized_images").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count grids: %w", err)
	}
	return count, nil
}

// Close releases the database handle
func (s *GridStore) Close() error {
	return s.db.Close()
}
