package domain

import (
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// PeriodDates is the outcome of resolving a transaction date against an
// account's billing cycle.
type PeriodDates struct {
	// ReferencePeriod is the first day of the billing period's month.
	ReferencePeriod time.Time
	ClosingDate     time.Time
	DueDate         time.Time
}

// ResolvePeriod maps a transaction date to the billing period it belongs to.
//
// A transaction posted after the closing day rolls into the following month's
// period. Closing and due days that do not exist in a month are clamped to the
// month's last day. A due day on or before the closing day falls in the month
// after the period.
func ResolvePeriod(d time.Time, closingDay, dueDay int) PeriodDates {
	d = DateOf(d)

	ref := FirstOfMonth(d.Year(), d.Month())
	if d.Day() > closingDay {
		ref = ref.AddDate(0, 1, 0)
	}

	closing := ClampedDate(ref.Year(), ref.Month(), closingDay)

	dueMonth := ref
	if dueDay <= closingDay {
		dueMonth = ref.AddDate(0, 1, 0)
	}
	due := ClampedDate(dueMonth.Year(), dueMonth.Month(), dueDay)

	return PeriodDates{
		ReferencePeriod: ref,
		ClosingDate:     closing,
		DueDate:         due,
	}
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampedDate builds a UTC date, clamping day into [1, days in month].
func ClampedDate(year int, month time.Month, day int) time.Time {
	if day < 1 {
		day = 1
	}
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FirstOfMonth returns the first day of the month in UTC.
func FirstOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths advances d by n calendar months keeping the day of month where
// possible. Jan 31 plus one month is the last day of February, not March 3.
func AddMonths(d time.Time, n int) time.Time {
	d = DateOf(d)
	first := FirstOfMonth(d.Year(), d.Month()).AddDate(0, n, 0)
	return ClampedDate(first.Year(), first.Month(), d.Day())
}

// DateOf strips the clock from t, keeping its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date. RFC 3339 timestamps are accepted and
// truncated to their date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}

	return DateOf(t), nil
}
