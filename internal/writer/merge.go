package writer

import "github.com/rickgao/active-strike/internal/model"

// Merge appends fresh to existing and drops duplicate (Date, Time) keys,
// keeping the last occurrence at its position.
//
// With prunePrevious set, existing rows for days other than day are dropped
// first.
func Merge(existing, fresh []model.StrikeRecord, day string, prunePrevious bool) []model.StrikeRecord {
	combined := make([]model.StrikeRecord, 0, len(existing)+len(fresh))
	for _, r := range existing {
		if prunePrevious && r.Date != day {
			continue
		}
		combined = append(combined, r)
	}
	combined = append(combined, fresh...)

	last := make(map[model.SlotKey]int, len(combined))
	for i, r := range combined {
		last[r.Key()] = i
	}

	out := make([]model.StrikeRecord, 0, len(last))
	for i, r := range combined {
		if last[r.Key()] == i {
			out = append(out, r)
		}
	}
	return out
}

// HasRowsFor reports whether rows contains any row dated day.
func HasRowsFor(rows []model.StrikeRecord, day string) bool {
	for _, r := range rows {
		if r.Date == day {
			return true
		}
	}
	return false
}

// RowsFor returns the rows dated day, in table order.
func RowsFor(rows []model.StrikeRecord, day string) []model.StrikeRecord {
	var out []model.StrikeRecord
	for _, r := range rows {
		if r.Date == day {
			out = append(out, r)
		}
	}
	return out
}
