package util

import "time"

// AddMonthsClamped advances a date by whole calendar months, clamping the day
// to the last day of the target month (e.g. Jan 31 + 1 month = Feb 28/29).
func AddMonthsClamped(t time.Time, months int) time.Time {
	year := t.Year()
	month := int(t.Month()) - 1 + months
	year += month / 12
	month = month % 12
	if month < 0 {
		month += 12
		year--
	}
	targetMonth := time.Month(month + 1)

	// Last day of the target month: day 0 of the month after.
	lastDay := time.Date(year, targetMonth+1, 0, 0, 0, 0, 0, t.Location()).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, targetMonth, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// WholeDaysBetween returns the number of whole days from a to b, rounding any
// partial day up. Returns 0 when b is not after a.
func WholeDaysBetween(a, b time.Time) int {
	if !b.After(a) {
		return 0
	}
	diff := b.Sub(a)
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}
