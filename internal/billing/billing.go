// Package billing implements the membership billing calendar: due-date
// derivation from a fixed day-of-month anchor, month-end clamping, and
// delinquency evaluation. All math is timezone-naive and operates on
// day-granularity values so that time-of-day and zone offsets can never
// shift a due date across midnight.
package billing

import (
	"fmt"
	"time"
)

// Situation classifies a member's standing against their billing cycle.
type Situation string

const (
	SituationCurrent    Situation = "current"
	SituationDelinquent Situation = "delinquent"
)

// Date is a calendar day without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date, normalising out-of-range components the way
// time.Date does (e.g. February 30 becomes March 1 or 2).
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DateOf truncates a time.Time to its calendar day in UTC.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate reads a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time().Format("2006-01-02")
}

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Compare orders two dates: -1 when d < other, 0 when equal, 1 when d > other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(int(d.Month) - int(other.Month))
	default:
		return sign(d.Day - other.Day)
	}
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// First of the next month minus one day lands on the last day of month.
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1).Day()
}

// ClampDueDay resolves a due-day anchor to a valid day within the month.
// Anchors above the month length collapse to the last day (31 in February
// becomes 28 or 29); anchors below 1 collapse to 1.
func ClampDueDay(year int, month time.Month, dueDay int) int {
	if dueDay < 1 {
		return 1
	}
	if last := DaysInMonth(year, month); dueDay > last {
		return last
	}
	return dueDay
}

// DueDateForMonth constructs the clamped due date inside the given month.
func DueDateForMonth(year int, month time.Month, dueDay int) Date {
	return Date{Year: year, Month: month, Day: ClampDueDay(year, month, dueDay)}
}

// MostRecentDueDate returns the latest due date on or before today for the
// given anchor. When this month's clamped due date is still in the future it
// rolls back to the previous month, crossing the year boundary if needed.
func MostRecentDueDate(today Date, dueDay int) Date {
	due := DueDateForMonth(today.Year, today.Month, dueDay)
	if !due.After(today) {
		return due
	}
	year, month := today.Year, today.Month-1
	if month < time.January {
		month = time.December
		year--
	}
	return DueDateForMonth(year, month, dueDay)
}

// AddCycles advances a due date by n whole billing months, re-clamping the
// anchor in the target month. This is month arithmetic, not day addition: an
// anchor of 31 repeatedly lands on each month's last day instead of drifting
// earlier after a short month.
func AddCycles(base Date, dueDay int, n int) Date {
	// Normalise via a first-of-month pivot so that e.g. Jan 31 + 1 month
	// cannot overflow into March before clamping.
	pivot := time.Date(base.Year, base.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return DueDateForMonth(pivot.Year(), pivot.Month(), dueDay)
}

// Assessment is the derived billing state for a member at a point in time.
type Assessment struct {
	DueDate     Date
	NextDueDate Date
	Situation   Situation
}

// Evaluate classifies a member as current or delinquent. A member is current
// when their paid-until date covers the most recent due date; a nil
// paid-until means they have never paid.
func Evaluate(today Date, dueDay int, paidUntil *Date) Assessment {
	due := MostRecentDueDate(today, dueDay)
	assessment := Assessment{
		DueDate:     due,
		NextDueDate: AddCycles(due, dueDay, 1),
		Situation:   SituationDelinquent,
	}
	if paidUntil != nil && !paidUntil.Before(due) {
		assessment.Situation = SituationCurrent
	}
	return assessment
}

// NextPaidUntil computes the paid-until date after registering a payment of
// the given number of months. The base is the last cycle the member has
// covered: their banked paid-until when it reaches at least the cycle before
// the most recent due date, otherwise that prior cycle itself. Advancing the
// base by the purchased months means a delinquent member's first month lands
// exactly on the owed due date (catching them up) while a paid-ahead member
// keeps extending from their banked coverage. The result never precedes the
// prior paid-until.
func NextPaidUntil(today Date, dueDay int, paidUntil *Date, months int) Date {
	base := AddCycles(MostRecentDueDate(today, dueDay), dueDay, -1)
	if paidUntil != nil && paidUntil.After(base) {
		base = *paidUntil
	}
	return AddCycles(base, dueDay, months)
}
