// Package store persists the active-strike table.
//
// The table is rewritten in full on every save. Saves go to a temporary file
// in the same directory which is then renamed over the target, so readers
// never observe a partial table.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/rickgao/active-strike/internal/model"
)

// Supported table formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Store loads and saves the whole table.
type Store interface {
	// Load returns every stored row in file order. A missing or empty file
	// yields no rows and no error.
	Load() ([]model.StrikeRecord, error)

	// Save replaces the table with rows.
	Save(rows []model.StrikeRecord) error

	// Path returns the backing file.
	Path() string
}

// New returns the Store implementation for format.
func New(format, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatCSV:
		return &CSVStore{path: path}, nil
	case FormatParquet:
		return &ParquetStore{path: path}, nil
	default:
		return nil, fmt.Errorf("unsupported storage format %q (use: csv, parquet)", format)
	}
}

// replaceFile streams write into a pending file next to path and atomically
// renames it over path.
func replaceFile(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	pf, err := renameio.NewPendingFile(path, renameio.WithTempDir(dir), renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer pf.Cleanup()

	if err := write(pf.File); err != nil {
		return err
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// isEmptyFile reports whether path is missing or has zero length.
func isEmptyFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return info.Size() == 0, nil
}
