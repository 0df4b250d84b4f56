package recurrence

import (
	"slices"
	"strings"
	"time"

	"github.com/guiChehade/planner-tatatu/internal/model"
)

// ShouldCreateToday reports whether a recurring template is due to
// spawn an instance on today's date. The anchor is the template's due
// date, falling back to its creation date. Templates anchored in the
// future never spawn.
//
// Only the single immediate next occurrence from the anchor is
// checked: if the trigger has not run for several periods, the missed
// occurrences are skipped, not backfilled.
func ShouldCreateToday(t model.Task, today time.Time) bool {
	if t.Recurrence == nil || t.Recurrence.Kind == model.RecurrenceNone {
		return false
	}

	anchor := AnchorDate(t, today.Location())
	todayStart := StartOfDay(today)
	if todayStart.Before(StartOfDay(anchor)) {
		return false
	}

	next, ok := NextOccurrence(anchor, t.Recurrence)
	if !ok {
		return false
	}
	return StartOfDay(next).Equal(todayStart)
}

// AnchorDate resolves the date a template's recurrence is computed
// from: the due date when present and parseable, else the creation
// date.
func AnchorDate(t model.Task, loc *time.Location) time.Time {
	if t.DueDate != nil {
		if d, err := time.ParseInLocation(ymdLayout, strings.TrimSpace(*t.DueDate), loc); err == nil {
			return d
		}
	}
	return t.CreatedAt.In(loc)
}

// NewInstance materializes a concrete task from a recurring template
// for the given occurrence date. The result has no ID (the store
// assigns one), is not done, and points back at the template. Nothing
// is persisted here; the caller is responsible for storing the result
// and for checking that no instance already exists for the
// (template, date) pair.
func NewInstance(template model.Task, occurrence time.Time, now time.Time) model.Task {
	inst := template
	inst.ID = ""
	due := occurrence.Format(ymdLayout)
	inst.DueDate = &due
	inst.Done = false
	inst.CreatedAt = now
	inst.UpdatedAt = now

	parent := template.ID
	inst.ParentTaskID = &parent
	inst.RecurringInstance = true

	inst.Tags = slices.Clone(template.Tags)
	if template.Recurrence != nil {
		rec := *template.Recurrence
		rec.DaysOfWeek = slices.Clone(template.Recurrence.DaysOfWeek)
		inst.Recurrence = &rec
	}
	return inst
}
