package writer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/active-strike/internal/api"
	"github.com/rickgao/active-strike/internal/model"
)

// Late slots accepted in place of a missing 09:15 on an empty day.
var lateOpenMinutes = map[int]bool{16: true, 17: true}

// Select filters raw API records down to the rows to store for day.
//
// hasRows reports whether the table already holds rows for day. Records whose
// stTime is not exactly HH:MM:SS are skipped.
func Select(raw []api.RawStrikeRecord, day string, hasRows bool, fetchedAt string, logger *slog.Logger) []model.StrikeRecord {
	if logger == nil {
		logger = slog.Default()
	}

	var out []model.StrikeRecord
	for _, r := range raw {
		ts, err := parseSlot(r.Time)
		if err != nil {
			logger.Debug("skipping record with bad time", "time", r.Time, "error", err)
			continue
		}

		switch {
		case !hasRows && len(out) == 0 && ts.Hour() == 9 && lateOpenMinutes[ts.Minute()]:
			logger.Warn("using late first slot in place of missing 09:15", "time", r.Time)
		case ts.Minute()%5 != 0:
			continue
		}

		out = append(out, model.StrikeRecord{
			Date:       day,
			Time:       r.Time,
			AssetPrice: r.Price(),
			CE:         r.Call(),
			PE:         r.Put(),
			FetchedAt:  fetchedAt,
		})
	}
	return out
}

// parseSlot parses an HH:MM:SS time. time.Parse alone would also accept
// fractional seconds, which would never dedupe against the whole-second key.
func parseSlot(s string) (time.Time, error) {
	if len(s) != len(model.TimeLayout) {
		return time.Time{}, fmt.Errorf("time %q: want %s", s, model.TimeLayout)
	}
	return time.Parse(model.TimeLayout, s)
}
