package model

import (
	"slices"
)

// RecurrenceKind names a repetition pattern.
type RecurrenceKind string

const (
	RecurrenceNone     RecurrenceKind = "none"
	RecurrenceDaily    RecurrenceKind = "daily"
	RecurrenceWeekly   RecurrenceKind = "weekly"
	RecurrenceMonthly  RecurrenceKind = "monthly"
	RecurrenceYearly   RecurrenceKind = "yearly"
	RecurrenceWeekdays RecurrenceKind = "weekdays"
	RecurrenceCustom   RecurrenceKind = "custom"
)

// RecurrenceKinds lists every recognized kind.
var RecurrenceKinds = []RecurrenceKind{
	RecurrenceNone,
	RecurrenceDaily,
	RecurrenceWeekly,
	RecurrenceMonthly,
	RecurrenceYearly,
	RecurrenceWeekdays,
	RecurrenceCustom,
}

// KnownRecurrenceKind reports whether k is one of the recognized kinds.
func KnownRecurrenceKind(k RecurrenceKind) bool {
	return slices.Contains(RecurrenceKinds, k)
}

// Recurrence describes how a task repeats.
//
// Only some fields are meaningful per kind: Interval applies to daily,
// weekly, monthly and yearly rules ("every N units") and serves as a
// fallback step for custom rules with no weekday set; DaysOfWeek
// (0=Sunday .. 6=Saturday) applies to custom rules only; EndDate
// (YYYY-MM-DD) caps every kind. Use the per-kind constructors below so
// stray fields never get set, and Normalize to scrub rules that arrive
// over the wire.
type Recurrence struct {
	Kind       RecurrenceKind `json:"kind"`
	Interval   int            `json:"interval,omitempty"`
	DaysOfWeek []int          `json:"daysOfWeek,omitempty"`
	EndDate    *string        `json:"endDate,omitempty"`
}

func DailyRecurrence(interval int) *Recurrence {
	return &Recurrence{Kind: RecurrenceDaily, Interval: interval}
}

func WeeklyRecurrence(interval int) *Recurrence {
	return &Recurrence{Kind: RecurrenceWeekly, Interval: interval}
}

func MonthlyRecurrence(interval int) *Recurrence {
	return &Recurrence{Kind: RecurrenceMonthly, Interval: interval}
}

func YearlyRecurrence(interval int) *Recurrence {
	return &Recurrence{Kind: RecurrenceYearly, Interval: interval}
}

func WeekdaysRecurrence() *Recurrence {
	return &Recurrence{Kind: RecurrenceWeekdays}
}

func CustomRecurrence(daysOfWeek ...int) *Recurrence {
	r := &Recurrence{Kind: RecurrenceCustom, DaysOfWeek: daysOfWeek}
	r.Normalize()
	return r
}

// Until returns a copy of the rule capped at endDate (YYYY-MM-DD).
func (r Recurrence) Until(endDate string) *Recurrence {
	r.EndDate = &endDate
	return &r
}

// Normalize scrubs fields that are not meaningful to the rule's kind
// and puts DaysOfWeek in the sorted, deduplicated order the next-day
// search expects. It does not reject anything; Validate does that.
func (r *Recurrence) Normalize() {
	if r == nil {
		return
	}
	switch r.Kind {
	case RecurrenceNone, RecurrenceWeekdays:
		r.Interval = 0
		r.DaysOfWeek = nil
	case RecurrenceCustom:
		slices.Sort(r.DaysOfWeek)
		r.DaysOfWeek = slices.Compact(r.DaysOfWeek)
	default:
		r.DaysOfWeek = nil
	}
}
