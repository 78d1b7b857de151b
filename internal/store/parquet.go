package store

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/rickgao/active-strike/internal/model"
)

// parquetRow is the on-disk layout. Decimals are kept as their exact string
// form; nil marks a null value.
type parquetRow struct {
	Date       string  `parquet:"date"`
	Time       string  `parquet:"time"`
	AssetPrice *string `parquet:"asset_price,optional"`
	CE         *string `parquet:"ce,optional"`
	PE         *string `parquet:"pe,optional"`
	FetchedAt  string  `parquet:"fetched_at"`
}

// ParquetStore keeps the table as a Parquet file.
type ParquetStore struct {
	path string
}

// NewParquet creates a Parquet-backed store.
func NewParquet(path string) *ParquetStore {
	return &ParquetStore{path: path}
}

func (s *ParquetStore) Path() string { return s.path }

func (s *ParquetStore) Load() ([]model.StrikeRecord, error) {
	empty, err := isEmptyFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", s.path, err)
	}
	if empty {
		return nil, nil
	}

	raw, err := parquet.ReadFile[parquetRow](s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	rows := make([]model.StrikeRecord, 0, len(raw))
	for i, r := range raw {
		rec := model.StrikeRecord{Date: r.Date, Time: r.Time, FetchedAt: r.FetchedAt}
		if rec.AssetPrice, err = fromOptional(r.AssetPrice); err != nil {
			return nil, fmt.Errorf("row %d asset_price: %w", i, err)
		}
		if rec.CE, err = fromOptional(r.CE); err != nil {
			return nil, fmt.Errorf("row %d ce: %w", i, err)
		}
		if rec.PE, err = fromOptional(r.PE); err != nil {
			return nil, fmt.Errorf("row %d pe: %w", i, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func (s *ParquetStore) Save(rows []model.StrikeRecord) error {
	out := make([]parquetRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, parquetRow{
			Date:       r.Date,
			Time:       r.Time,
			AssetPrice: toOptional(r.AssetPrice),
			CE:         toOptional(r.CE),
			PE:         toOptional(r.PE),
			FetchedAt:  r.FetchedAt,
		})
	}

	return replaceFile(s.path, func(f *os.File) error {
		if err := parquet.Write(f, out); err != nil {
			return fmt.Errorf("write parquet: %w", err)
		}
		return nil
	})
}

func toOptional(v model.Value) *string {
	if !v.Valid() {
		return nil
	}
	s := v.String()
	return &s
}

func fromOptional(s *string) (model.Value, error) {
	if s == nil {
		return model.Value{}, nil
	}
	return model.ParseValue(*s)
}
