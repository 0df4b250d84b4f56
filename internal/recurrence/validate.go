package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/guiChehade/planner-tatatu/internal/model"
)

const (
	minInterval = 1
	maxInterval = 365
)

// ValidationResult collects every rule violation, not just the first.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks a rule for structural consistency. A nil rule is
// valid (the task simply does not repeat). Validation is deliberately
// decoupled from NextOccurrence: the calculator computes with whatever
// it is given, only this function surfaces user-facing errors.
//
// now is the validation instant; an end date strictly before it means
// the rule would be born expired.
func Validate(r *model.Recurrence, now time.Time) ValidationResult {
	if r == nil {
		return ValidationResult{Valid: true, Errors: []string{}}
	}

	var errs []string

	if !model.KnownRecurrenceKind(r.Kind) {
		errs = append(errs, fmt.Sprintf("unrecognized recurrence kind %q", string(r.Kind)))
	}

	if r.Interval != 0 && (r.Interval < minInterval || r.Interval > maxInterval) {
		errs = append(errs, fmt.Sprintf("interval must be between %d and %d", minInterval, maxInterval))
	}

	if r.Kind == model.RecurrenceCustom {
		if len(r.DaysOfWeek) == 0 {
			errs = append(errs, "custom recurrence requires at least one day of the week")
		}
		for _, d := range r.DaysOfWeek {
			if d < 0 || d > 6 {
				errs = append(errs, "days of week must be between 0 (Sunday) and 6 (Saturday)")
				break
			}
		}
	}

	if r.EndDate != nil {
		end, err := time.ParseInLocation(ymdLayout, strings.TrimSpace(*r.EndDate), now.Location())
		if err != nil {
			errs = append(errs, "end date must be a valid YYYY-MM-DD date")
		} else if end.Before(now) {
			errs = append(errs, "end date must be in the future")
		}
	}

	if errs == nil {
		errs = []string{}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
