package store

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/rickgao/active-strike/internal/model"
)

// CSVStore keeps the table as CSV with the header
// Date,Time,Asset Price,CE,PE,Fetched At.
type CSVStore struct {
	path string
}

// NewCSV creates a CSV-backed store.
func NewCSV(path string) *CSVStore {
	return &CSVStore{path: path}
}

func (s *CSVStore) Path() string { return s.path }

func (s *CSVStore) Load() ([]model.StrikeRecord, error) {
	empty, err := isEmptyFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", s.path, err)
	}
	if empty {
		return nil, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	var rows []model.StrikeRecord
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return rows, nil
}

func (s *CSVStore) Save(rows []model.StrikeRecord) error {
	if rows == nil {
		rows = []model.StrikeRecord{}
	}
	return replaceFile(s.path, func(f *os.File) error {
		if err := gocsv.MarshalFile(&rows, f); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return nil
	})
}
