package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/guiChehade/planner-tatatu/internal/model"
)

var weekdayShort = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Describe renders a rule as human-readable English. Purely
// presentational; nothing downstream depends on the wording.
func Describe(r *model.Recurrence) string {
	if r == nil || r.Kind == model.RecurrenceNone {
		return "does not repeat"
	}

	interval := r.Interval
	if interval <= 0 {
		interval = 1
	}

	var desc string
	switch r.Kind {
	case model.RecurrenceDaily:
		desc = every(interval, "daily", "days")
	case model.RecurrenceWeekly:
		desc = every(interval, "weekly", "weeks")
	case model.RecurrenceMonthly:
		desc = every(interval, "monthly", "months")
	case model.RecurrenceYearly:
		desc = every(interval, "yearly", "years")
	case model.RecurrenceWeekdays:
		desc = "weekdays (Mon-Fri)"
	case model.RecurrenceCustom:
		if len(r.DaysOfWeek) == 0 {
			desc = every(interval, "daily", "days")
			break
		}
		names := make([]string, 0, len(r.DaysOfWeek))
		for _, d := range r.DaysOfWeek {
			if d >= 0 && d <= 6 {
				names = append(names, weekdayShort[d])
			}
		}
		desc = "every " + strings.Join(names, ", ")
	default:
		desc = "custom schedule"
	}

	if r.EndDate != nil {
		desc += " until " + formatEndDate(*r.EndDate)
	}
	return desc
}

func every(interval int, singular, unit string) string {
	if interval == 1 {
		return singular
	}
	return fmt.Sprintf("every %d %s", interval, unit)
}

func formatEndDate(raw string) string {
	end, err := time.Parse(ymdLayout, strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return end.Format("Jan 2, 2006")
}
