package domain

import "time"

// Date returns the civil date y-m-d as midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return Date(t.Year(), t.Month(), t.Day())
}

// AddMonths adds n calendar months to d. When the day of month does not exist
// in the target month it is clamped to the month's last day, so Jan 31 + 1
// month is Feb 28 (or 29) rather than rolling into March.
func AddMonths(d time.Time, n int) time.Time {
	d = DateOf(d)
	total := int(d.Month()) - 1 + n
	year := d.Year() + total/12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}
	day := d.Day()
	if last := daysIn(year, time.Month(month+1)); day > last {
		day = last
	}
	return Date(year, time.Month(month+1), day)
}

// DaysBetween returns the whole number of days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

func daysIn(year int, month time.Month) int {
	// day 0 of the following month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
