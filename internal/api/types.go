package api

import "encoding/json"

// StatusSuccess is the status value of a successful response.
const StatusSuccess = "success"

// StrikesRequest is the body of the active-strike POST.
type StrikesRequest struct {
	Asset string `json:"stSelectedAsset"`         // Instrument (e.g. NIFTY)
	Date  string `json:"stSelectedAvailableDate"` // Trading day (YYYY-MM-DD)
	Mode  string `json:"stSelectedModeOfData"`    // "live"
}

// StrikesResponse from POST /api/active-strike-oi/getselectedactivestrikeivalldata
type StrikesResponse struct {
	Status string            `json:"status"`
	Msg    string            `json:"msg"`
	Data   []RawStrikeRecord `json:"data"`

	// Skipped counts data entries that could not be decoded as a record.
	Skipped int `json:"-"`
}

// UnmarshalJSON decodes each data entry on its own so one malformed record
// is dropped without losing the rest of the batch.
func (r *StrikesResponse) UnmarshalJSON(b []byte) error {
	var aux struct {
		Status string            `json:"status"`
		Msg    string            `json:"msg"`
		Data   []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	r.Status = aux.Status
	r.Msg = aux.Msg
	r.Data = make([]RawStrikeRecord, 0, len(aux.Data))
	r.Skipped = 0
	for _, raw := range aux.Data {
		var rec RawStrikeRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			r.Skipped++
			continue
		}
		r.Data = append(r.Data, rec)
	}
	return nil
}

// RawStrikeRecord represents one sample as returned by the API.
//
// Numeric fields are kept raw so a single malformed value nulls that field
// instead of failing the whole payload.
type RawStrikeRecord struct {
	Time       string                       `json:"stTime"`       // "HH:MM:SS"
	AssetPrice json.RawMessage              `json:"inAssetPrice"` // Underlying price
	OptionData []map[string]json.RawMessage `json:"obOiData"`     // [{"CE": v}, {"PE": v}]
}
