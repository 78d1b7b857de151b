package writer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/active-strike/internal/api"
	"github.com/rickgao/active-strike/internal/model"
	"github.com/rickgao/active-strike/internal/store"
)

// Mirror receives the rows stored by each write.
type Mirror interface {
	WriteRows(ctx context.Context, rows []model.StrikeRecord) error
}

// Config holds writer configuration.
type Config struct {
	PrunePreviousDays bool // drop rows of earlier days on rewrite
}

// WriterMetrics tracks write activity.
type WriterMetrics struct {
	Writes       int64 `json:"writes"`  // table rewrites
	Skipped      int64 `json:"skipped"` // fetches with nothing to write
	RowsSelected int64 `json:"rows_selected"`
	MirrorErrors int64 `json:"mirror_errors"`
}

// WriteResult describes one Write call.
type WriteResult struct {
	Selected  int  // rows that passed the slot filter
	TotalRows int  // rows in the table after the write
	Written   bool // false when nothing survived the filter
}

// StrikeWriter merges fetched records into the persisted table.
type StrikeWriter struct {
	cfg     Config
	store   store.Store
	mirrors []Mirror
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	metrics WriterMetrics
}

// Option configures a StrikeWriter.
type Option func(*StrikeWriter)

// WithMirror adds a mirror that receives every written batch.
func WithMirror(m Mirror) Option {
	return func(w *StrikeWriter) {
		if m != nil {
			w.mirrors = append(w.mirrors, m)
		}
	}
}

// WithClock sets the clock used for the Fetched At column.
func WithClock(now func() time.Time) Option {
	return func(w *StrikeWriter) {
		if now != nil {
			w.now = now
		}
	}
}

// NewStrikeWriter creates a StrikeWriter over s.
func NewStrikeWriter(cfg Config, s store.Store, logger *slog.Logger, opts ...Option) *StrikeWriter {
	if logger == nil {
		logger = slog.Default()
	}
	w := &StrikeWriter{
		cfg:    cfg,
		store:  s,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write filters raw for day, merges the result into the table and rewrites it.
// When no record survives the filter the table is left untouched.
func (w *StrikeWriter) Write(ctx context.Context, day string, raw []api.RawStrikeRecord) (WriteResult, error) {
	var res WriteResult

	existing, err := w.store.Load()
	if err != nil {
		return res, fmt.Errorf("load table: %w", err)
	}

	fetchedAt := w.now().Format(model.FetchedAtLayout)
	fresh := Select(raw, day, HasRowsFor(existing, day), fetchedAt, w.logger)
	res.Selected = len(fresh)

	if len(fresh) == 0 {
		w.logger.Info("nothing to write", "date", day, "fetched", len(raw))
		w.mu.Lock()
		w.metrics.Skipped++
		w.mu.Unlock()
		return res, nil
	}

	merged := Merge(existing, fresh, day, w.cfg.PrunePreviousDays)
	if err := w.store.Save(merged); err != nil {
		return res, fmt.Errorf("save table: %w", err)
	}
	res.TotalRows = len(merged)
	res.Written = true

	w.mu.Lock()
	w.metrics.Writes++
	w.metrics.RowsSelected += int64(len(fresh))
	w.mu.Unlock()

	w.logger.Info("table updated",
		"path", w.store.Path(),
		"new_rows", len(fresh),
		"total_rows", len(merged),
	)

	for _, m := range w.mirrors {
		if err := m.WriteRows(ctx, fresh); err != nil {
			w.logger.Warn("mirror write failed", "error", err, "count", len(fresh))
			w.mu.Lock()
			w.metrics.MirrorErrors++
			w.mu.Unlock()
		}
	}

	return res, nil
}

// Stats returns current metrics.
func (w *StrikeWriter) Stats() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}
