package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay int

const minutesPerDay = 24 * 60

// ParseTimeOfDay accepts "HH:MM", or "HH:MM:SS" with zero seconds as Postgres renders TIME.
// Sessions are minute-granular, so a non-zero seconds field is rejected rather than dropped.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	raw = strings.TrimSpace(raw)
	layout := "15:04"
	if strings.Count(raw, ":") == 2 {
		layout = "15:04:05"
	}
	parsed, err := time.Parse(layout, raw)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", raw)
	}
	if parsed.Second() != 0 {
		return 0, fmt.Errorf("invalid time of day %q: seconds are not supported", raw)
	}
	return TimeOfDay(parsed.Hour()*60 + parsed.Minute()), nil
}

// MustTimeOfDay panics on bad input; intended for tests and constants.
func MustTimeOfDay(raw string) TimeOfDay {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalJSON renders "HH:MM".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses "HH:MM".
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the time as a Postgres TIME literal.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String() + ":00", nil
}

// Scan reads TIME columns, delivered by lib/pq as text or time.Time.
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*t = TimeOfDay(v.Hour()*60 + v.Minute())
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	case nil:
		*t = 0
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

func (t *TimeOfDay) scanString(raw string) error {
	// TIME values may carry fractional seconds
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		raw = raw[:i]
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimeRange is a half-open interval [Start, End) within a day.
type TimeRange struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Valid reports End > Start within a single day.
func (r TimeRange) Valid() bool {
	return r.Start >= 0 && r.End <= minutesPerDay && r.End > r.Start
}

func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}
