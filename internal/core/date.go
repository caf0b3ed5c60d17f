package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type (
	// Date is a calendar date without a time component, stored at UTC midnight.
	Date struct {
		time.Time
	}

	// MonthYear identifies a calendar month as YYYY-MM.
	MonthYear string
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate accepts YYYY-MM-DD, or any longer value whose first ten characters
// are a date (timestamps stored by other clients), or RFC3339.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) >= len(dateLayout) {
		if t, err := time.Parse(dateLayout, s[:len(dateLayout)]); err == nil {
			return Date{Time: t}, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t.UTC()), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String returns the ISO date (YYYY-MM-DD); empty for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MonthYear returns the month the date falls in.
func (d Date) MonthYear() MonthYear {
	return MonthYear(d.Format("2006-01"))
}

// AddMonth advances the date by one calendar month, clamping the day to the
// last day of the target month (Jan 31 -> Feb 28).
func (d Date) AddMonth() Date {
	y, m, day := d.Date()
	first := time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

// Before and After compare calendar days.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseMonthYear validates a YYYY-MM string.
func ParseMonthYear(s string) (MonthYear, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse("2006-01", s); err != nil || len(s) != 7 {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonthYear, s)
	}
	return MonthYear(s), nil
}

// MonthYearOf returns the month containing t.
func MonthYearOf(t time.Time) MonthYear {
	return MonthYear(t.Format("2006-01"))
}

// NewMonthYear builds YYYY-MM from a year and a 1-based month.
func NewMonthYear(year, month int) MonthYear {
	return MonthYearOf(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC))
}

func (m MonthYear) first() time.Time {
	t, err := time.Parse("2006-01", string(m))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Year and Month split the value; both are zero when it is malformed.
func (m MonthYear) Year() int  { return m.first().Year() }
func (m MonthYear) Month() int { return int(m.first().Month()) }

// Bounds returns the first and last calendar day of the month.
func (m MonthYear) Bounds() (Date, Date) {
	first := m.first()
	return Date{Time: first}, Date{Time: first.AddDate(0, 1, -1)}
}

// AddMonths shifts the month by n (negative moves back), rolling years.
func (m MonthYear) AddMonths(n int) MonthYear {
	return MonthYearOf(m.first().AddDate(0, n, 0))
}

// Prev is the immediately preceding calendar month.
func (m MonthYear) Prev() MonthYear {
	return m.AddMonths(-1)
}

// Contains reports whether d falls inside the month.
func (m MonthYear) Contains(d Date) bool {
	return !d.IsZero() && d.MonthYear() == m
}

func (m MonthYear) String() string {
	return string(m)
}
