package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Weekday is a single day of the teaching week.
type Weekday uint8

const (
	Monday Weekday = 1 << iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayOrder = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayCodes = map[Weekday]string{
	Monday:    "MON",
	Tuesday:   "TUE",
	Wednesday: "WED",
	Thursday:  "THU",
	Friday:    "FRI",
	Saturday:  "SAT",
	Sunday:    "SUN",
}

var weekdayAliases = map[string]Weekday{
	"MON": Monday, "MONDAY": Monday, "M": Monday,
	"TUE": Tuesday, "TUESDAY": Tuesday, "T": Tuesday,
	"WED": Wednesday, "WEDNESDAY": Wednesday, "W": Wednesday,
	"THU": Thursday, "THURSDAY": Thursday, "TH": Thursday,
	"FRI": Friday, "FRIDAY": Friday, "F": Friday,
	"SAT": Saturday, "SATURDAY": Saturday, "S": Saturday,
	"SUN": Sunday, "SUNDAY": Sunday, "SU": Sunday,
}

// String returns the three letter code.
func (d Weekday) String() string {
	if code, ok := weekdayCodes[d]; ok {
		return code
	}
	return fmt.Sprintf("Weekday(%d)", uint8(d))
}

// WeekdaySet is an unordered set of weekdays stored as a bitmask.
type WeekdaySet uint8

// NewWeekdaySet builds a set from days.
func NewWeekdaySet(days ...Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= WeekdaySet(d)
	}
	return s
}

// ParseWeekdays parses day tokens (codes or full names, any case). Any unknown token fails the whole set.
func ParseWeekdays(tokens []string) (WeekdaySet, error) {
	var s WeekdaySet
	for _, raw := range tokens {
		token := strings.ToUpper(strings.TrimSpace(raw))
		if token == "" {
			continue
		}
		day, ok := weekdayAliases[token]
		if !ok {
			return 0, fmt.Errorf("unknown weekday %q", raw)
		}
		s |= WeekdaySet(day)
	}
	return s, nil
}

// Empty reports whether the set has no days.
func (s WeekdaySet) Empty() bool { return s == 0 }

// Has reports membership.
func (s WeekdaySet) Has(d Weekday) bool { return s&WeekdaySet(d) != 0 }

// Intersect returns days present in both sets.
func (s WeekdaySet) Intersect(o WeekdaySet) WeekdaySet { return s & o }

// Days lists members Monday first.
func (s WeekdaySet) Days() []Weekday {
	days := make([]Weekday, 0, 7)
	for _, d := range weekdayOrder {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// Codes lists member codes Monday first.
func (s WeekdaySet) Codes() []string {
	days := s.Days()
	codes := make([]string, len(days))
	for i, d := range days {
		codes[i] = d.String()
	}
	return codes
}

func (s WeekdaySet) String() string {
	return strings.Join(s.Codes(), ",")
}

// MarshalJSON renders the set as an array of codes.
func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Codes())
}

// UnmarshalJSON accepts an array of day tokens.
func (s *WeekdaySet) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return fmt.Errorf("weekdays: %w", err)
	}
	parsed, err := ParseWeekdays(tokens)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value stores the set as a Postgres text[].
func (s WeekdaySet) Value() (driver.Value, error) {
	return pq.StringArray(s.Codes()).Value()
}

// Scan reads a text[] column, a legacy JSON-encoded list or comma separated text.
// Unparseable data scans as the empty set so one bad row cannot fail a whole listing.
func (s *WeekdaySet) Scan(src interface{}) error {
	*s = 0
	var raw string
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return nil
	}
	raw = strings.TrimSpace(raw)

	var tokens []string
	switch {
	case strings.HasPrefix(raw, "{"):
		var arr pq.StringArray
		if err := arr.Scan([]byte(raw)); err != nil {
			return nil
		}
		tokens = arr
	case strings.HasPrefix(raw, "["):
		if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
			return nil
		}
	default:
		tokens = strings.Split(raw, ",")
	}

	parsed, err := ParseWeekdays(tokens)
	if err != nil {
		return nil
	}
	*s = parsed
	return nil
}
