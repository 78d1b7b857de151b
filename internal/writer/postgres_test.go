package writer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/active-strike/internal/model"
)

type fakeBatchResults struct {
	remaining int
	err       error
}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	if r.err != nil {
		return pgconn.CommandTag{}, r.err
	}
	r.remaining--
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeBatchResults) Query() (pgx.Rows, error) { return nil, errors.New("not implemented") }
func (r *fakeBatchResults) QueryRow() pgx.Row        { return nil }
func (r *fakeBatchResults) Close() error             { return nil }

type fakeDB struct {
	execSQL []string
	batches []*pgx.Batch
	execErr error
	sendErr error
}

func (db *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	db.execSQL = append(db.execSQL, sql)
	return pgconn.CommandTag{}, db.execErr
}

func (db *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	db.batches = append(db.batches, b)
	return &fakeBatchResults{remaining: b.Len(), err: db.sendErr}
}

func TestPostgresMirror_Transform(t *testing.T) {
	m := NewPostgresMirror(nil, "NIFTY", nil)

	args, err := m.transform(model.StrikeRecord{
		Date:       "2024-01-15",
		Time:       "09:15:00",
		AssetPrice: model.MustValue("21894.55"),
		CE:         model.MustValue("120"),
		FetchedAt:  "2024-01-15 09:16:02",
	})
	require.NoError(t, err)
	require.Len(t, args, 8)

	assert.Equal(t, "NIFTY", args[0])
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), args[1])
	assert.Equal(t, "09:15:00", args[2])
	assert.Equal(t, time.Date(2024, 1, 15, 9, 15, 0, 0, time.UTC), args[3])

	price := args[4].(decimal.NullDecimal)
	assert.True(t, price.Valid)
	assert.Equal(t, "21894.55", price.Decimal.String())
	assert.False(t, args[6].(decimal.NullDecimal).Valid, "missing PE is NULL")
	assert.Equal(t, time.Date(2024, 1, 15, 9, 16, 2, 0, time.UTC), args[7])
}

func TestPostgresMirror_TransformErrors(t *testing.T) {
	m := NewPostgresMirror(nil, "NIFTY", nil)
	good := model.StrikeRecord{Date: "2024-01-15", Time: "09:15:00", FetchedAt: "2024-01-15 09:16:02"}

	bad := good
	bad.Date = "15/01/2024"
	_, err := m.transform(bad)
	assert.ErrorContains(t, err, "bad date")

	bad = good
	bad.Time = "9.15"
	_, err = m.transform(bad)
	assert.ErrorContains(t, err, "bad time")

	bad = good
	bad.FetchedAt = ""
	_, err = m.transform(bad)
	assert.ErrorContains(t, err, "bad fetched at")
}

func TestPostgresMirror_WriteRows(t *testing.T) {
	db := &fakeDB{}
	m := NewPostgresMirror(db, "NIFTY", nil)

	rows := []model.StrikeRecord{
		{Date: "2024-01-15", Time: "09:15:00", FetchedAt: "2024-01-15 09:16:02"},
		{Date: "2024-01-15", Time: "09:20:00", FetchedAt: "2024-01-15 09:21:02"},
	}
	require.NoError(t, m.WriteRows(context.Background(), rows))

	require.Len(t, db.batches, 1)
	assert.Equal(t, 2, db.batches[0].Len())
	assert.Contains(t, db.batches[0].QueuedQueries[0].SQL, "ON CONFLICT (asset, trade_date, slot_time) DO UPDATE")

	require.NoError(t, m.WriteRows(context.Background(), nil))
	assert.Len(t, db.batches, 1, "empty input sends no batch")
}

func TestPostgresMirror_WriteRowsError(t *testing.T) {
	db := &fakeDB{sendErr: errors.New("relation does not exist")}
	m := NewPostgresMirror(db, "NIFTY", nil)

	err := m.WriteRows(context.Background(), []model.StrikeRecord{
		{Date: "2024-01-15", Time: "09:15:00", FetchedAt: "2024-01-15 09:16:02"},
	})
	assert.ErrorContains(t, err, "upsert active_strikes")
}

func TestPostgresMirror_EnsureSchema(t *testing.T) {
	db := &fakeDB{}
	m := NewPostgresMirror(db, "NIFTY", nil)

	require.NoError(t, m.EnsureSchema(context.Background()))
	require.Len(t, db.execSQL, 1)
	assert.True(t, strings.Contains(db.execSQL[0], "CREATE TABLE IF NOT EXISTS active_strikes"))

	db.execErr = errors.New("permission denied")
	assert.Error(t, m.EnsureSchema(context.Background()))
}
