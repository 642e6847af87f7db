package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shapefinder/features"
	"shapefinder/logging"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase initializes and returns a database connection
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Each row holds one image in the same text form as the feature file
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS features (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_dir TEXT NOT NULL,
		image_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		num_shapes INTEGER NOT NULL,
		encoded TEXT NOT NULL,
		created_at TEXT,
		UNIQUE(source_dir, image_id)
	);
	CREATE INDEX IF NOT EXISTS idx_source_dir ON features(source_dir);`

	_, err = db.Exec(createTableSQL)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// OpenDatabase opens an existing database connection
func OpenDatabase(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite3", dbPath)
}

// StoreFeatures replaces every row recorded for sourceDir with the
// contents of store. The feature file is a full snapshot, so is this.
func StoreFeatures(db *sql.DB, sourceDir string, store *features.Store) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM features WHERE source_dir = ?", sourceDir); err != nil {
		return fmt.Errorf("cannot clear features for %s: %w", sourceDir, err)
	}

	// Prepare statement to avoid SQL injection
	stmt, err := tx.Prepare(`
		INSERT INTO features (
			source_dir, image_id, position, num_shapes, encoded, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("cannot prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Format(time.RFC3339)
	for position, id := range store.IDs() {
		data, _ := store.Get(id)
		line, err := features.EncodeLine(id, data)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(sourceDir, id, position, data.NumShapes, line, now); err != nil {
			return fmt.Errorf("cannot insert features for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cannot commit features for %s: %w", sourceDir, err)
	}

	logging.DebugLog("Mirrored %d images from %s to database", store.Len(), sourceDir)
	return nil
}

// LoadFeatures rebuilds the store recorded for sourceDir, in extraction order
func LoadFeatures(db *sql.DB, sourceDir string) (*features.Store, error) {
	rows, err := db.Query("SELECT encoded FROM features WHERE source_dir = ? ORDER BY position", sourceDir)
	if err != nil {
		return nil, fmt.Errorf("database error for %s: %w", sourceDir, err)
	}
	defer rows.Close()

	store := features.NewStore()
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("cannot read feature row: %w", err)
		}
		id, data, err := features.DecodeLine(line)
		if err != nil {
			return nil, err
		}
		store.Put(id, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cannot read features for %s: %w", sourceDir, err)
	}

	return store, nil
}

// ListSources returns every directory that has features recorded
func ListSources(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT DISTINCT source_dir FROM features ORDER BY source_dir")
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var dir string
		if err := rows.Scan(&dir); err != nil {
			return nil, err
		}
		sources = append(sources, dir)
	}
	return sources, rows.Err()
}

var (
	// ErrNoFeatures is returned when the database holds no extracted features
	ErrNoFeatures = errors.New("no features recorded, run extract with --database first")
	// ErrSourceRequired is returned when several directories are recorded
	// and none was chosen
	ErrSourceRequired = errors.New("several folders recorded, choose one with --folder")
)

// ResolveSource returns sourceDir when given. Otherwise it falls back to
// the only recorded directory, or lists the candidates in the error.
func ResolveSource(db *sql.DB, sourceDir string) (string, error) {
	if sourceDir != "" {
		return sourceDir, nil
	}

	sources, err := ListSources(db)
	if err != nil {
		return "", err
	}

	switch len(sources) {
	case 0:
		return "", ErrNoFeatures
	case 1:
		logging.DebugLog("Using the only recorded folder %s", sources[0])
		return sources[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrSourceRequired, strings.Join(sources, ", "))
	}
}

// StoreStats contains statistics about one mirrored store
type StoreStats struct {
	TotalImages int
	TotalShapes int
	EmptyImages int
}

// GetStoreStats retrieves statistics about the images recorded for sourceDir
func GetStoreStats(db *sql.DB, sourceDir string) (*StoreStats, error) {
	var stats StoreStats

	err := db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(num_shapes), 0) FROM features WHERE source_dir = ?",
		sourceDir,
	).Scan(&stats.TotalImages, &stats.TotalShapes)
	if err != nil {
		return nil, fmt.Errorf("failed to get total images: %w", err)
	}

	err = db.QueryRow(
		"SELECT COUNT(*) FROM features WHERE source_dir = ? AND num_shapes = 0",
		sourceDir,
	).Scan(&stats.EmptyImages)
	if err != nil {
		return nil, fmt.Errorf("failed to count empty images: %w", err)
	}

	return &stats, nil
}
