package scheduler

import (
	"strconv"
	"strings"
	"time"

	"fortidash/internal/models"
)

// DefaultTimeOfDay is used when a job has no or an unparseable fire time.
const DefaultTimeOfDay = "08:00"

// parseTimeOfDay splits "HH:MM" into hour and minute, falling back to
// 08:00 on anything it cannot read.
func parseTimeOfDay(s string) (int, int) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 8, 0
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 8, 0
	}
	return h, m
}

// NextDue computes the next firing instant for a cadence and fire time,
// strictly after now.
//
// daily: today at timeOfDay, or tomorrow if that has already passed.
// weekly: the next Monday strictly after now (a Monday rolls forward a
// full week, never zero days).
// monthly: the 1st of the next calendar month; December rolls the year.
// Anything else falls back to the daily rule.
func NextDue(cadence, timeOfDay string, now time.Time) time.Time {
	hour, min := parseTimeOfDay(timeOfDay)

	switch cadence {
	case models.CadenceDaily:
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	case models.CadenceWeekly:
		daysAhead := int(time.Monday-now.Weekday()+7) % 7
		if daysAhead == 0 {
			daysAhead = 7
		}
		d := now.AddDate(0, 0, daysAhead)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, now.Location())
	case models.CadenceMonthly:
		year, month := now.Year(), now.Month()
		if month == time.December {
			year++
			month = time.January
		} else {
			month++
		}
		return time.Date(year, month, 1, hour, min, 0, 0, now.Location())
	default:
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}
}

// ReportingRange derives the data window a cadence implies:
// yesterday for daily, the last completed Sunday-Saturday week for
// weekly, and the previous calendar month for monthly. Both bounds are
// midnight-truncated dates.
func ReportingRange(cadence string, now time.Time) (time.Time, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch cadence {
	case models.CadenceWeekly:
		// Weeks run Sunday through Saturday regardless of locale.
		daysSinceSunday := int(now.Weekday())
		lastSunday := today.AddDate(0, 0, -(daysSinceSunday + 7))
		return lastSunday, lastSunday.AddDate(0, 0, 6)
	case models.CadenceMonthly:
		firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		lastOfPrevMonth := firstOfThisMonth.AddDate(0, 0, -1)
		firstOfPrevMonth := time.Date(lastOfPrevMonth.Year(), lastOfPrevMonth.Month(), 1, 0, 0, 0, 0, now.Location())
		return firstOfPrevMonth, lastOfPrevMonth
	default:
		yesterday := today.AddDate(0, 0, -1)
		return yesterday, yesterday
	}
}
