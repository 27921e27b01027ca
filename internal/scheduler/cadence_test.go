package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fortidash/internal/models"
)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.Local)
}

func TestNextDueDaily(t *testing.T) {
	// Before the fire time: fires today.
	now := at(2025, time.March, 12, 6, 30)
	next := NextDue(models.CadenceDaily, "08:00", now)
	assert.Equal(t, at(2025, time.March, 12, 8, 0), next)

	// After the fire time: rolls over to tomorrow.
	now = at(2025, time.March, 12, 9, 15)
	next = NextDue(models.CadenceDaily, "08:00", now)
	assert.Equal(t, at(2025, time.March, 13, 8, 0), next)

	// Exactly at the fire time still rolls forward.
	now = at(2025, time.March, 12, 8, 0)
	next = NextDue(models.CadenceDaily, "08:00", now)
	assert.Equal(t, at(2025, time.March, 13, 8, 0), next)
}

func TestNextDueWeeklyLandsOnMonday(t *testing.T) {
	// 2025-03-12 is a Wednesday; next Monday is the 17th.
	now := at(2025, time.March, 12, 10, 0)
	next := NextDue(models.CadenceWeekly, "08:00", now)
	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, at(2025, time.March, 17, 8, 0), next)
	assert.True(t, next.After(now))
}

func TestNextDueWeeklyOnMondayRollsFullWeek(t *testing.T) {
	// 2025-03-10 is a Monday; the result must be the 17th, not today.
	now := at(2025, time.March, 10, 7, 0)
	next := NextDue(models.CadenceWeekly, "08:00", now)
	assert.Equal(t, at(2025, time.March, 17, 8, 0), next)
	assert.Equal(t, time.Monday, next.Weekday())
}

func TestNextDueMonthly(t *testing.T) {
	now := at(2025, time.March, 20, 12, 0)
	next := NextDue(models.CadenceMonthly, "08:00", now)
	assert.Equal(t, at(2025, time.April, 1, 8, 0), next)
}

func TestNextDueMonthlyDecemberRollsYear(t *testing.T) {
	now := at(2025, time.December, 15, 12, 0)
	next := NextDue(models.CadenceMonthly, "08:00", now)
	assert.Equal(t, at(2026, time.January, 1, 8, 0), next)
}

func TestNextDueUnknownCadenceFallsBackToDaily(t *testing.T) {
	now := at(2025, time.March, 12, 6, 0)
	assert.Equal(t,
		NextDue(models.CadenceDaily, "08:00", now),
		NextDue("fortnightly", "08:00", now))
}

func TestNextDueBadTimeOfDayDefaultsToEight(t *testing.T) {
	now := at(2025, time.March, 12, 6, 0)
	next := NextDue(models.CadenceDaily, "not-a-time", now)
	assert.Equal(t, 8, next.Hour())
	assert.Equal(t, 0, next.Minute())
}

func TestReportingRangeDaily(t *testing.T) {
	now := at(2025, time.March, 12, 10, 0)
	start, end := ReportingRange(models.CadenceDaily, now)
	yesterday := at(2025, time.March, 11, 0, 0)
	assert.Equal(t, yesterday, start)
	assert.Equal(t, yesterday, end)
}

func TestReportingRangeWeeklyIsPreviousSundayToSaturday(t *testing.T) {
	// 2025-03-12 (Wed): previous full week is Sun Mar 2 .. Sat Mar 8.
	now := at(2025, time.March, 12, 10, 0)
	start, end := ReportingRange(models.CadenceWeekly, now)
	assert.Equal(t, at(2025, time.March, 2, 0, 0), start)
	assert.Equal(t, at(2025, time.March, 8, 0, 0), end)
	assert.Equal(t, time.Sunday, start.Weekday())
	assert.Equal(t, time.Saturday, end.Weekday())
}

func TestReportingRangeWeeklyFromSunday(t *testing.T) {
	// Evaluated on a Sunday the window is still the prior full week.
	now := at(2025, time.March, 9, 10, 0)
	start, end := ReportingRange(models.CadenceWeekly, now)
	assert.Equal(t, at(2025, time.March, 2, 0, 0), start)
	assert.Equal(t, at(2025, time.March, 8, 0, 0), end)
}

func TestReportingRangeMonthly(t *testing.T) {
	now := at(2025, time.March, 12, 10, 0)
	start, end := ReportingRange(models.CadenceMonthly, now)
	assert.Equal(t, at(2025, time.February, 1, 0, 0), start)
	assert.Equal(t, at(2025, time.February, 28, 0, 0), end)
}

func TestReportingRangeMonthlyJanuaryRollsYearBack(t *testing.T) {
	now := at(2025, time.January, 10, 10, 0)
	start, end := ReportingRange(models.CadenceMonthly, now)
	assert.Equal(t, at(2024, time.December, 1, 0, 0), start)
	assert.Equal(t, at(2024, time.December, 31, 0, 0), end)
}
