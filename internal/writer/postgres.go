package writer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/active-strike/internal/model"
)

// Schema creates the mirror table. The hypertable call is skipped on plain
// PostgreSQL.
const Schema = `
CREATE TABLE IF NOT EXISTS active_strikes (
	asset       TEXT        NOT NULL,
	trade_date  DATE        NOT NULL,
	slot_time   TIME        NOT NULL,
	slot_ts     TIMESTAMP   NOT NULL,
	asset_price NUMERIC,
	ce          NUMERIC,
	pe          NUMERIC,
	fetched_at  TIMESTAMP   NOT NULL,
	PRIMARY KEY (asset, trade_date, slot_time)
);

DO $$
BEGIN
	IF EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'timescaledb') THEN
		PERFORM create_hypertable('active_strikes', 'trade_date', if_not_exists => TRUE, migrate_data => TRUE);
	END IF;
END $$;
`

const upsertStrike = `
	INSERT INTO active_strikes (asset, trade_date, slot_time, slot_ts, asset_price, ce, pe, fetched_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (asset, trade_date, slot_time) DO UPDATE SET
		asset_price = EXCLUDED.asset_price,
		ce          = EXCLUDED.ce,
		pe          = EXCLUDED.pe,
		fetched_at  = EXCLUDED.fetched_at
`

// DB is the subset of pgxpool.Pool used by the mirror.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresMirror upserts stored rows into the active_strikes table.
type PostgresMirror struct {
	db     DB
	asset  string
	logger *slog.Logger
}

// NewPostgresMirror creates a mirror writing rows for asset.
func NewPostgresMirror(db DB, asset string, logger *slog.Logger) *PostgresMirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresMirror{db: db, asset: asset, logger: logger}
}

// EnsureSchema creates the mirror table if needed.
func (m *PostgresMirror) EnsureSchema(ctx context.Context) error {
	if _, err := m.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create active_strikes: %w", err)
	}
	return nil
}

// WriteRows upserts rows in one batch.
func (m *PostgresMirror) WriteRows(ctx context.Context, rows []model.StrikeRecord) error {
	if len(rows) == 0 {
		return nil
	}

	start := time.Now()
	batch := &pgx.Batch{}
	for _, r := range rows {
		args, err := m.transform(r)
		if err != nil {
			return err
		}
		batch.Queue(upsertStrike, args...)
	}

	results := m.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert active_strikes: %w", err)
		}
	}

	m.logger.Debug("mirrored strikes",
		"count", len(rows),
		"duration", time.Since(start),
	)
	return nil
}

// transform converts a table row to upsert arguments.
func (m *PostgresMirror) transform(r model.StrikeRecord) ([]any, error) {
	date, err := time.Parse(model.DateLayout, r.Date)
	if err != nil {
		return nil, fmt.Errorf("row %s %s: bad date: %w", r.Date, r.Time, err)
	}
	slot, err := time.Parse(model.TimeLayout, r.Time)
	if err != nil {
		return nil, fmt.Errorf("row %s %s: bad time: %w", r.Date, r.Time, err)
	}
	fetchedAt, err := time.Parse(model.FetchedAtLayout, r.FetchedAt)
	if err != nil {
		return nil, fmt.Errorf("row %s %s: bad fetched at: %w", r.Date, r.Time, err)
	}

	slotTS := time.Date(date.Year(), date.Month(), date.Day(),
		slot.Hour(), slot.Minute(), slot.Second(), 0, time.UTC)

	return []any{
		m.asset,
		date,
		r.Time,
		slotTS,
		r.AssetPrice.NullDecimal(),
		r.CE.NullDecimal(),
		r.PE.NullDecimal(),
		fetchedAt,
	}, nil
}
