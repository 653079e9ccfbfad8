package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type (
	// TxType is stored lower case. Decoding normalises any casing.
	TxType string

	// CategoryID always holds a bare id. Older snapshots sometimes stored
	// the whole category object; decoding keeps only its id.
	CategoryID string

	// Location is a free-text place. Older snapshots stored a geocoded
	// object; decoding keeps its area and city.
	Location string

	// Date is a calendar date without time of day, encoded as YYYY-MM-DD.
	Date struct {
		time.Time
	}
)

const locationSep = ", "

func (l *Location) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = ""
		return nil
	case len(data) > 0 && data[0] == '{':
		var obj struct {
			Area string `json:"area"`
			City string `json:"city"`
		}
		// Coordinates and unknown fields are dropped; a malformed object is
		// not worth losing the snapshot over.
		_ = json.Unmarshal(data, &obj)
		var parts []string
		for _, p := range []string{obj.Area, obj.City} {
			if p = strings.TrimSpace(p); p != "" && !containsFold(parts, p) {
				parts = append(parts, p)
			}
		}
		*l = Location(strings.Join(parts, locationSep))
		return nil
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode location: %w", err)
		}
		*l = Location(s)
		return nil
	}
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

// ParseTxType normalises s to a transaction type.
func ParseTxType(s string) TxType {
	return TxType(strings.ToLower(strings.TrimSpace(s)))
}

func (t TxType) IsValid() bool {
	switch t {
	case Income, Expense, Payment:
		return true
	default:
		return false
	}
}

// Is compares case-insensitively.
func (t TxType) Is(other TxType) bool {
	return strings.EqualFold(string(t), string(other))
}

func (t *TxType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode transaction type: %w", err)
	}
	*t = ParseTxType(s)
	return nil
}

func (c CategoryID) String() string {
	return string(c)
}

func (c *CategoryID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
		return nil
	case len(data) > 0 && data[0] == '{':
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode category object: %w", err)
		}
		*c = CategoryID(obj.ID)
		return nil
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode category id: %w", err)
		}
		*c = CategoryID(s)
		return nil
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses YYYY-MM-DD. A full RFC 3339 timestamp is accepted too and
// reduced to its date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Time.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Between reports whether d lies in [from, to], both ends inclusive.
func (d Date) Between(from, to Date) bool {
	return !d.Before(from.Time) && !d.After(to.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode date: %w", err)
	}
	*d = LenientDate(s)
	return nil
}

// LenientDate parses s like ParseDate but never fails. A YYYY-MM-DD value
// past the end of its month rolls over into the next one, as the mobile app
// did when it stored it; anything else unparseable becomes the zero date.
func LenientDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	if d, err := ParseDate(s); err == nil {
		return d
	}
	var y, m, day int
	if n, err := fmt.Sscanf(s, "%4d-%2d-%2d", &y, &m, &day); err == nil && n == 3 &&
		len(s) == len(dateLayout) && m >= 1 && m <= 12 && day >= 1 && day <= 31 {
		return NewDate(y, m, day)
	}
	return Date{}
}
