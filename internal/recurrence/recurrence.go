// Package recurrence computes when a repeating task should next spawn
// an instance. All functions are pure: callers supply every date and
// persist any result themselves.
package recurrence

import (
	"strings"
	"time"

	"github.com/guiChehade/planner-tatatu/internal/model"
)

const ymdLayout = "2006-01-02"

// NextOccurrence returns the occurrence that follows anchor under the
// given rule. The second return is false when the rule produces no
// further occurrence: a nil rule, kind "none", an unrecognized kind, or
// a candidate past the rule's end date.
//
// Month and year steps use calendar arithmetic that clamps to the last
// day of the shorter month, so Jan 31 + 1 month is Feb 28 (29 in leap
// years), never a rollover into March.
func NextOccurrence(anchor time.Time, r *model.Recurrence) (time.Time, bool) {
	if r == nil || r.Kind == model.RecurrenceNone || !model.KnownRecurrenceKind(r.Kind) {
		return time.Time{}, false
	}

	interval := r.Interval
	if interval <= 0 {
		interval = 1
	}

	var next time.Time
	switch r.Kind {
	case model.RecurrenceDaily:
		next = anchor.AddDate(0, 0, interval)
	case model.RecurrenceWeekly:
		next = anchor.AddDate(0, 0, 7*interval)
	case model.RecurrenceMonthly:
		next = addMonthsClamped(anchor, interval)
	case model.RecurrenceYearly:
		next = addMonthsClamped(anchor, 12*interval)
	case model.RecurrenceWeekdays:
		next = anchor.AddDate(0, 0, 1)
		for isWeekend(next) {
			next = next.AddDate(0, 0, 1)
		}
	case model.RecurrenceCustom:
		if len(r.DaysOfWeek) == 0 {
			// Documented fallback: behaves like daily with the interval.
			next = anchor.AddDate(0, 0, interval)
			break
		}
		next = anchor.AddDate(0, 0, 1)
		for !hasWeekday(r.DaysOfWeek, next.Weekday()) {
			next = next.AddDate(0, 0, 1)
		}
	}

	if end, ok := parseEndDate(r, anchor.Location()); ok && StartOfDay(next).After(end) {
		return time.Time{}, false
	}
	return next, true
}

// Occurrences chains NextOccurrence from start, each result becoming
// the new anchor, and returns at most max dates. It stops early once
// the rule is exhausted (e.g. past its end date).
func Occurrences(start time.Time, r *model.Recurrence, max int) []time.Time {
	if max <= 0 {
		return nil
	}
	out := make([]time.Time, 0, max)
	cur := start
	for len(out) < max {
		next, ok := NextOccurrence(cur, r)
		if !ok {
			break
		}
		out = append(out, next)
		cur = next
	}
	return out
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// addMonthsClamped adds calendar months, clamping the day of month to
// the target month's length instead of letting it roll over.
func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	day := t.Day()
	if last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the following month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func hasWeekday(days []int, wd time.Weekday) bool {
	for _, d := range days {
		if d == int(wd) {
			return true
		}
	}
	return false
}

func parseEndDate(r *model.Recurrence, loc *time.Location) (time.Time, bool) {
	if r.EndDate == nil {
		return time.Time{}, false
	}
	end, err := time.ParseInLocation(ymdLayout, strings.TrimSpace(*r.EndDate), loc)
	if err != nil {
		return time.Time{}, false
	}
	return end, true
}
