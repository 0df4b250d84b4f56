package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/guiChehade/planner-tatatu/internal/model"
)

const icsDateLayout = "20060102"

// BuildTaskCalendarICS builds a single-event iCalendar export for a
// task. A due date is required so the event has a concrete start date;
// recurrence rules are carried over as an RRULE.
func BuildTaskCalendarICS(t model.Task, now time.Time) (string, error) {
	dueRaw := ""
	if t.DueDate != nil {
		dueRaw = strings.TrimSpace(*t.DueDate)
	}
	if dueRaw == "" {
		return "", fmt.Errorf("task due date required for calendar export")
	}

	due, err := time.ParseInLocation(ymdLayout, dueRaw, time.Local)
	if err != nil {
		return "", fmt.Errorf("task due date must be YYYY-MM-DD")
	}
	end := due.AddDate(0, 0, 1)

	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = "Planner Task"
	}
	desc := strings.TrimSpace(t.Description)

	uid := fmt.Sprintf("task-%s@planner", strings.TrimSpace(string(t.ID)))
	if strings.TrimSpace(string(t.ID)) == "" {
		uid = fmt.Sprintf("task-export-%d@planner", now.UnixNano())
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Planner//Task Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + escapeICSText(uid),
		"DTSTAMP:" + now.UTC().Format("20060102T150405Z"),
		"SUMMARY:" + escapeICSText(title),
		"DTSTART;VALUE=DATE:" + due.Format(icsDateLayout),
		"DTEND;VALUE=DATE:" + end.Format(icsDateLayout),
	}
	if desc != "" {
		lines = append(lines, "DESCRIPTION:"+escapeICSText(desc))
	}
	if rrule := recurrenceToICSRRULE(t.Recurrence); rrule != "" {
		lines = append(lines, "RRULE:"+rrule)
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR", "")

	return strings.Join(lines, "\r\n"), nil
}

var icsWeekdays = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

func recurrenceToICSRRULE(rec *model.Recurrence) string {
	if rec == nil {
		return ""
	}
	interval := rec.Interval
	if interval <= 0 {
		interval = 1
	}

	var rule string
	switch rec.Kind {
	case model.RecurrenceDaily:
		rule = fmt.Sprintf("FREQ=DAILY;INTERVAL=%d", interval)
	case model.RecurrenceWeekly:
		rule = fmt.Sprintf("FREQ=WEEKLY;INTERVAL=%d", interval)
	case model.RecurrenceMonthly:
		rule = fmt.Sprintf("FREQ=MONTHLY;INTERVAL=%d", interval)
	case model.RecurrenceYearly:
		rule = fmt.Sprintf("FREQ=YEARLY;INTERVAL=%d", interval)
	case model.RecurrenceWeekdays:
		rule = "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"
	case model.RecurrenceCustom:
		days := make([]string, 0, len(rec.DaysOfWeek))
		for _, d := range rec.DaysOfWeek {
			if d >= 0 && d <= 6 {
				days = append(days, icsWeekdays[d])
			}
		}
		if len(days) == 0 {
			return ""
		}
		rule = "FREQ=WEEKLY;BYDAY=" + strings.Join(days, ",")
	default:
		return ""
	}

	if rec.EndDate != nil {
		if until, err := time.ParseInLocation(ymdLayout, strings.TrimSpace(*rec.EndDate), time.Local); err == nil {
			rule += ";UNTIL=" + until.Format(icsDateLayout)
		}
	}
	return rule
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}
