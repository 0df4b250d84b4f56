package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guiChehade/planner-tatatu/internal/model"
)

func TestDescribe(t *testing.T) {
	cases := []struct {
		name string
		rule *model.Recurrence
		want string
	}{
		{"nil rule", nil, "does not repeat"},
		{"none", &model.Recurrence{Kind: model.RecurrenceNone}, "does not repeat"},
		{"daily singular", model.DailyRecurrence(1), "daily"},
		{"daily plural", model.DailyRecurrence(3), "every 3 days"},
		{"weekly singular", model.WeeklyRecurrence(1), "weekly"},
		{"monthly plural", model.MonthlyRecurrence(2), "every 2 months"},
		{"yearly singular", model.YearlyRecurrence(1), "yearly"},
		{"weekdays", model.WeekdaysRecurrence(), "weekdays (Mon-Fri)"},
		{"custom days", model.CustomRecurrence(1, 3, 5), "every Mon, Wed, Fri"},
		{"custom empty set", &model.Recurrence{Kind: model.RecurrenceCustom, Interval: 2}, "every 2 days"},
		{"unknown kind", &model.Recurrence{Kind: "lunar"}, "custom schedule"},
		{"with end date", model.DailyRecurrence(1).Until("2026-01-02"), "daily until Jan 2, 2026"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Describe(tc.rule))
		})
	}
}
