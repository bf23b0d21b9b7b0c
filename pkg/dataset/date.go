package dataset

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the layout of every date field in the data files.
const DateLayout = "2006-01-02"

// Date is a calendar date that may be absent. JSON null and "" decode to
// the zero Date.
type Date struct {
	t   time.Time
	set bool
}

// NewDate returns the Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), set: true}
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected %s", s, DateLayout)
	}
	return Date{t: t, set: true}, nil
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, m, d)
}

// IsZero reports whether the date is absent.
func (d Date) IsZero() bool { return !d.set }

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time { return d.t }

// Before reports whether d is strictly before o. Both must be set.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// Equal reports whether both dates are absent or fall on the same day.
func (d Date) Equal(o Date) bool {
	if d.set != o.set {
		return false
	}
	return !d.set || d.t.Equal(o.t)
}

// String returns the YYYY-MM-DD form, or "" when absent.
func (d Date) String() string {
	if !d.set {
		return ""
	}
	return d.t.Format(DateLayout)
}

// UnmarshalJSON accepts null, "" or a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("invalid date %s: expected a string", b)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON encodes the date as a string, or null when absent.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.set {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.String())), nil
}

// Range is an inclusive [From, To] validity window. An absent bound is open.
type Range struct {
	From Date
	To   Date
}

// Valid reports whether From <= To when both bounds are present.
func (r Range) Valid() bool {
	if r.From.IsZero() || r.To.IsZero() {
		return true
	}
	return !r.To.Before(r.From)
}

// Contains reports whether day falls inside the range.
func (r Range) Contains(day Date) bool {
	if !r.From.IsZero() && day.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && r.To.Before(day) {
		return false
	}
	return true
}

// Overlaps reports whether the two ranges share at least one day.
func (r Range) Overlaps(o Range) bool {
	if !r.To.IsZero() && !o.From.IsZero() && r.To.Before(o.From) {
		return false
	}
	if !o.To.IsZero() && !r.From.IsZero() && o.To.Before(r.From) {
		return false
	}
	return true
}

// String renders the range as "from..to" with open bounds left empty.
func (r Range) String() string {
	return r.From.String() + ".." + r.To.String()
}
