package schedule

import (
	"fmt"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// Day is the one canonical calendar-date value used across the core. The
// ledger stores it as a SQL date, the calendar keys rows by it, and the API
// speaks its YYYY-MM-DD string form; nothing outside the storage adapters
// compares raw date representations directly.
type Day struct {
	t time.Time // midnight UTC
}

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return Day{t: t}, nil
}

// DayOf truncates a timestamp to its calendar date in the timestamp's own
// location, so "today" follows server-local time.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Day) String() string { return d.t.Format(dayLayout) }

func (d Day) IsZero() bool { return d.t.IsZero() }

// Time returns midnight UTC of the day, the form the storage adapters bind
// to SQL date columns.
func (d Day) Time() time.Time { return d.t }

// At builds a timestamp on this day at the given clock time, in loc.
func (d Day) At(hour, min int, loc *time.Location) time.Time {
	y, m, dd := d.t.Date()
	return time.Date(y, m, dd, hour, min, 0, 0, loc)
}

func (d Day) Before(o Day) bool { return d.t.Before(o.t) }
func (d Day) After(o Day) bool  { return d.t.After(o.t) }
func (d Day) Equal(o Day) bool  { return d.t.Equal(o.t) }

func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Day) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	day, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = day
	return nil
}
