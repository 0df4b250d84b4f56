package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiChehade/planner-tatatu/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestNextOccurrence_NoneAndNilProduceNothing(t *testing.T) {
	anchors := []time.Time{
		date(2025, time.January, 1),
		date(2025, time.June, 15),
		date(2026, time.December, 31),
	}
	for _, anchor := range anchors {
		_, ok := NextOccurrence(anchor, nil)
		assert.False(t, ok)

		_, ok = NextOccurrence(anchor, &model.Recurrence{Kind: model.RecurrenceNone})
		assert.False(t, ok)
	}
}

func TestNextOccurrence_UnrecognizedKindTreatedAsNoRecurrence(t *testing.T) {
	_, ok := NextOccurrence(date(2025, time.March, 1), &model.Recurrence{Kind: "fortnightly"})
	assert.False(t, ok)
}

func TestNextOccurrence_UnitSteps(t *testing.T) {
	anchor := date(2025, time.March, 10) // a Monday

	cases := []struct {
		name string
		rule *model.Recurrence
		want time.Time
	}{
		{"daily", model.DailyRecurrence(1), date(2025, time.March, 11)},
		{"every 3 days", model.DailyRecurrence(3), date(2025, time.March, 13)},
		{"weekly", model.WeeklyRecurrence(1), date(2025, time.March, 17)},
		{"every 2 weeks", model.WeeklyRecurrence(2), date(2025, time.March, 24)},
		{"monthly", model.MonthlyRecurrence(1), date(2025, time.April, 10)},
		{"yearly", model.YearlyRecurrence(1), date(2026, time.March, 10)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NextOccurrence(anchor, tc.rule)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNextOccurrence_WeeklyKeepsWeekday(t *testing.T) {
	anchor := date(2025, time.March, 12) // Wednesday
	got, ok := NextOccurrence(anchor, model.WeeklyRecurrence(3))
	require.True(t, ok)
	assert.Equal(t, time.Wednesday, got.Weekday())
	assert.Equal(t, date(2025, time.April, 2), got)
}

// Pins the documented month-end policy: the day of month clamps to the
// target month's length instead of rolling into the next month.
func TestNextOccurrence_MonthlyClampsAtMonthEnd(t *testing.T) {
	got, ok := NextOccurrence(date(2025, time.January, 31), model.MonthlyRecurrence(1))
	require.True(t, ok)
	assert.Equal(t, date(2025, time.February, 28), got)

	// Leap year keeps the 29th.
	got, ok = NextOccurrence(date(2024, time.January, 31), model.MonthlyRecurrence(1))
	require.True(t, ok)
	assert.Equal(t, date(2024, time.February, 29), got)

	// A clamped month does not shorten later ones.
	got, ok = NextOccurrence(date(2025, time.January, 31), model.MonthlyRecurrence(2))
	require.True(t, ok)
	assert.Equal(t, date(2025, time.March, 31), got)
}

func TestNextOccurrence_YearlyClampsLeapDay(t *testing.T) {
	got, ok := NextOccurrence(date(2024, time.February, 29), model.YearlyRecurrence(1))
	require.True(t, ok)
	assert.Equal(t, date(2025, time.February, 28), got)
}

func TestNextOccurrence_WeekdaysSkipWeekends(t *testing.T) {
	// Friday -> Monday, Saturday -> Monday.
	got, ok := NextOccurrence(date(2025, time.March, 14), model.WeekdaysRecurrence())
	require.True(t, ok)
	assert.Equal(t, date(2025, time.March, 17), got)

	got, ok = NextOccurrence(date(2025, time.March, 15), model.WeekdaysRecurrence())
	require.True(t, ok)
	assert.Equal(t, date(2025, time.March, 17), got)

	// Never a weekend, always strictly after the anchor, over a full year.
	anchor := date(2025, time.January, 1)
	for i := 0; i < 365; i++ {
		next, ok := NextOccurrence(anchor, model.WeekdaysRecurrence())
		require.True(t, ok)
		assert.True(t, next.After(anchor), "next %v not after anchor %v", next, anchor)
		wd := next.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
		anchor = anchor.AddDate(0, 0, 1)
	}
}

func TestNextOccurrence_CustomWeekdaySet(t *testing.T) {
	monWedFri := model.CustomRecurrence(1, 3, 5)

	// From a Monday the next selected day is Wednesday.
	got, ok := NextOccurrence(date(2025, time.March, 10), monWedFri)
	require.True(t, ok)
	assert.Equal(t, date(2025, time.March, 12), got)

	// From a Friday the search wraps across the weekend to Monday.
	got, ok = NextOccurrence(date(2025, time.March, 14), monWedFri)
	require.True(t, ok)
	assert.Equal(t, date(2025, time.March, 17), got)

	// A single-day set never yields the anchor itself: 7 days later.
	monOnly := model.CustomRecurrence(1)
	got, ok = NextOccurrence(date(2025, time.March, 10), monOnly)
	require.True(t, ok)
	assert.Equal(t, date(2025, time.March, 17), got)
}

func TestNextOccurrence_CustomEmptySetFallsBackToInterval(t *testing.T) {
	rule := &model.Recurrence{Kind: model.RecurrenceCustom, Interval: 4}
	got, ok := NextOccurrence(date(2025, time.March, 10), rule)
	require.True(t, ok)
	assert.Equal(t, date(2025, time.March, 14), got)
}

func TestNextOccurrence_EndDateCutsOff(t *testing.T) {
	rule := model.DailyRecurrence(1).Until("2025-03-12")

	got, ok := NextOccurrence(date(2025, time.March, 11), rule)
	require.True(t, ok)
	assert.Equal(t, date(2025, time.March, 12), got)

	// Candidate lands strictly after the end date: absent.
	_, ok = NextOccurrence(date(2025, time.March, 12), rule)
	assert.False(t, ok)
}

func TestOccurrences_ChainsNextOccurrence(t *testing.T) {
	rule := model.WeeklyRecurrence(1)
	start := date(2025, time.March, 10)

	got := Occurrences(start, rule, 5)
	require.Len(t, got, 5)

	cur := start
	for i, occ := range got {
		next, ok := NextOccurrence(cur, rule)
		require.True(t, ok)
		assert.Equal(t, next, occ, "element %d", i)
		assert.True(t, occ.After(cur), "sequence must be strictly increasing")
		cur = next
	}
}

func TestOccurrences_StopsAtEndDate(t *testing.T) {
	rule := model.DailyRecurrence(1).Until("2025-03-13")
	got := Occurrences(date(2025, time.March, 10), rule, 10)
	require.Len(t, got, 3)
	assert.Equal(t, date(2025, time.March, 13), got[2])
}

func TestOccurrences_BoundedWithoutEndDate(t *testing.T) {
	got := Occurrences(date(2025, time.March, 10), model.DailyRecurrence(1), 5)
	assert.Len(t, got, 5)

	assert.Empty(t, Occurrences(date(2025, time.March, 10), model.DailyRecurrence(1), 0))
	assert.Empty(t, Occurrences(date(2025, time.March, 10), &model.Recurrence{Kind: model.RecurrenceNone}, 5))
}
