package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Layouts used for the persisted table.
const (
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04:05"
	FetchedAtLayout = "2006-01-02 15:04:05"
)

// -----------------------------------------------------------------------------
// Credentials
// -----------------------------------------------------------------------------

// Credentials is the session material captured from the dashboard.
type Credentials struct {
	Cookies map[string]string // Cookie name -> value
	Token   string            // Bearer token read from local storage
}

// Valid reports whether both a token and at least one cookie are present.
func (c Credentials) Valid() bool {
	return c.Token != "" && len(c.Cookies) > 0
}

// -----------------------------------------------------------------------------
// Time-Series Types
// -----------------------------------------------------------------------------

// StrikeRecord is one normalized 5-minute sample of the active-strike table.
type StrikeRecord struct {
	Date       string `csv:"Date" json:"date"`              // Trading day (YYYY-MM-DD)
	Time       string `csv:"Time" json:"time"`              // Slot time (HH:MM:SS)
	AssetPrice Value  `csv:"Asset Price" json:"assetPrice"` // Underlying price
	CE         Value  `csv:"CE" json:"ce"`                  // Call side value
	PE         Value  `csv:"PE" json:"pe"`                  // Put side value
	FetchedAt  string `csv:"Fetched At" json:"fetchedAt"`   // Local fetch time
}

// Key returns the (Date, Time) deduplication key.
func (r StrikeRecord) Key() SlotKey {
	return SlotKey{Date: r.Date, Time: r.Time}
}

// SlotKey identifies a row of the persisted table.
type SlotKey struct {
	Date string
	Time string
}

// -----------------------------------------------------------------------------
// Nullable decimal
// -----------------------------------------------------------------------------

// Value is a nullable exact decimal. The zero value is null.
type Value struct {
	n decimal.NullDecimal
}

// NewValue wraps a decimal as a non-null Value.
func NewValue(d decimal.Decimal) Value {
	return Value{n: decimal.NullDecimal{Decimal: d, Valid: true}}
}

// ParseValue parses a decimal string. Empty input yields null.
func ParseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "nan") {
		return Value{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, err
	}
	return NewValue(d), nil
}

// MustValue is ParseValue for literals; it panics on malformed input.
func MustValue(s string) Value {
	v, err := ParseValue(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Valid reports whether the value is non-null.
func (v Value) Valid() bool { return v.n.Valid }

// Decimal returns the underlying decimal and whether it is set.
func (v Value) Decimal() (decimal.Decimal, bool) { return v.n.Decimal, v.n.Valid }

// NullDecimal exposes the value for database drivers.
func (v Value) NullDecimal() decimal.NullDecimal { return v.n }

// String renders the value, "" for null.
func (v Value) String() string {
	if !v.n.Valid {
		return ""
	}
	return v.n.Decimal.String()
}

// Equal compares two values, nulls are equal to each other.
func (v Value) Equal(o Value) bool {
	if v.n.Valid != o.n.Valid {
		return false
	}
	return !v.n.Valid || v.n.Decimal.Equal(o.n.Decimal)
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (v Value) MarshalCSV() (string, error) {
	return v.String(), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (v *Value) UnmarshalCSV(s string) error {
	parsed, err := ParseValue(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalJSON renders null or a JSON number.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.n.Valid {
		return []byte("null"), nil
	}
	return []byte(v.n.Decimal.String()), nil
}

// UnmarshalJSON accepts null, numbers and numeric strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	return v.n.UnmarshalJSON(data)
}
