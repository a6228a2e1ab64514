/*
Package points implements the attendance points policy engine.

PURPOSE:
  Employees accrue fractional points for attendance infractions. Points
  decay ("roll off") on a calendar-month cadence and drive warning and
  termination-risk thresholds. This package contains the date arithmetic,
  policy rules, event ledger, aggregate bookkeeping, roll-off engine, and
  undo log. Storage backends and the CLI live in sibling packages.

KEY CONCEPTS IN THIS FILE (calendar.go):
  - PointDate: A calendar day (no clock, UTC). Every policy rule operates
    on whole days.
  - AddMonths: Month arithmetic with day-of-month clamping. Jan 31 plus
    one month is Feb 28 (or 29 in a leap year), never Mar 2.
  - FirstOfNextMonth: The administrative "snap" used by every due-date
    rule: decay windows close on the first of the following month.

DESIGN PRINCIPLES:
  1. Day granularity only: time-of-day never matters to attendance policy
  2. Clamped month math: time.AddDate overflows month ends, so the month
     arithmetic here is explicit
  3. Strict parsing: an unparseable date is an error, never "today"

USAGE:
  d, err := points.ParseInput("01-15-2025")   // MM-DD-YYYY
  due := d.AddMonths(2).FirstOfNextMonth()    // 2025-04-01

SEE ALSO:
  - policy.go: Due-date derivations built on this arithmetic
  - ledger.go: Event dates validated through ParseInput
*/
package points

import (
	"time"
)

// =============================================================================
// POINT DATE - Calendar day abstraction
// =============================================================================

// PointDate is a calendar day. The zero value means "no date" (an employee
// with no infraction history has no anchor, no due dates).
type PointDate struct {
	Time time.Time
}

const (
	isoFormat     = "2006-01-02"
	displayFormat = "01-02-2006"
	displaySlash  = "01/02/2006"
)

// Constructors
func NewPointDate(year int, month time.Month, day int) PointDate {
	return PointDate{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func Today() PointDate {
	now := time.Now()
	return NewPointDate(now.Year(), now.Month(), now.Day())
}

// ParseISO parses the storage form YYYY-MM-DD.
func ParseISO(s string) (PointDate, error) {
	t, err := time.ParseInLocation(isoFormat, s, time.UTC)
	if err != nil {
		return PointDate{}, &InvalidDateError{Input: s}
	}
	return PointDate{Time: t}, nil
}

// ParseInput parses a date crossing the user boundary: MM-DD-YYYY first
// (the display format), MM/DD/YYYY second, ISO YYYY-MM-DD last. Anything
// else is an InvalidDateError; a default date is never substituted.
func ParseInput(s string) (PointDate, error) {
	for _, layout := range []string{displayFormat, displaySlash, isoFormat} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return PointDate{Time: t}, nil
		}
	}
	return PointDate{}, &InvalidDateError{Input: s}
}

// Comparison
func (d PointDate) Before(other PointDate) bool        { return d.normalize().Before(other.normalize()) }
func (d PointDate) Equal(other PointDate) bool         { return d.normalize().Equal(other.normalize()) }
func (d PointDate) After(other PointDate) bool         { return d.normalize().After(other.normalize()) }
func (d PointDate) BeforeOrEqual(other PointDate) bool { return d.Before(other) || d.Equal(other) }
func (d PointDate) AfterOrEqual(other PointDate) bool  { return d.After(other) || d.Equal(other) }

func (d PointDate) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// MONTH ARITHMETIC - Clamped, leap-aware
// =============================================================================

// AddMonths returns the date n calendar months later (earlier for negative
// n), with the day clamped to the last valid day of the target month.
func (d PointDate) AddMonths(n int) PointDate {
	year := d.Year() + (int(d.Month())-1+n)/12
	month := (int(d.Month()) - 1 + n) % 12
	if month < 0 {
		month += 12
		year--
	}
	m := time.Month(month + 1)
	day := d.Day()
	if last := daysInMonth(year, m); day > last {
		day = last
	}
	return NewPointDate(year, m, day)
}

// AddDays is plain day arithmetic (no clamping concerns).
func (d PointDate) AddDays(n int) PointDate {
	return PointDate{Time: d.normalize().AddDate(0, 0, n)}
}

// FirstOfMonth returns day 1 of the same month and year.
func (d PointDate) FirstOfMonth() PointDate {
	return NewPointDate(d.Year(), d.Month(), 1)
}

// FirstOfNextMonth returns day 1 of the following month.
func (d PointDate) FirstOfNextMonth() PointDate {
	return d.FirstOfMonth().AddMonths(1)
}

func daysInMonth(year int, month time.Month) int {
	switch month {
	case time.January, time.March, time.May, time.July, time.August, time.October, time.December:
		return 31
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		if isLeapYear(year) {
			return 29
		}
		return 28
	}
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// Properties
func (d PointDate) Year() int         { return d.Time.Year() }
func (d PointDate) Month() time.Month { return d.Time.Month() }
func (d PointDate) Day() int          { return d.Time.Day() }
func (d PointDate) IsZero() bool      { return d.Time.IsZero() }

// String renders the storage form YYYY-MM-DD; the zero value renders empty.
func (d PointDate) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(isoFormat)
}

// Display renders the US display form MM-DD-YYYY; the zero value renders empty.
func (d PointDate) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(displayFormat)
}
