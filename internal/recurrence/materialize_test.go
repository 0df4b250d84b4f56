package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiChehade/planner-tatatu/internal/model"
)

func strp(s string) *string { return &s }

func TestShouldCreateToday_DailyTemplate(t *testing.T) {
	tpl := model.Task{
		ID:         "task_tpl",
		Title:      "water the plants",
		DueDate:    strp("2025-07-10"),
		Recurrence: model.DailyRecurrence(1),
		CreatedAt:  date(2025, time.July, 1),
	}

	// The day after the anchor is the next occurrence.
	assert.True(t, ShouldCreateToday(tpl, date(2025, time.July, 11)))

	// Several days later: the engine checks only the immediate next
	// occurrence, it does not catch up across missed days.
	assert.False(t, ShouldCreateToday(tpl, date(2025, time.July, 13)))

	// On the anchor day itself the next occurrence is tomorrow.
	assert.False(t, ShouldCreateToday(tpl, date(2025, time.July, 10)))
}

func TestShouldCreateToday_FutureAnchorNeverSpawns(t *testing.T) {
	tpl := model.Task{
		DueDate:    strp("2025-07-20"),
		Recurrence: model.DailyRecurrence(1),
	}
	assert.False(t, ShouldCreateToday(tpl, date(2025, time.July, 11)))
}

func TestShouldCreateToday_NoRecurrence(t *testing.T) {
	assert.False(t, ShouldCreateToday(model.Task{DueDate: strp("2025-07-10")}, date(2025, time.July, 11)))

	tpl := model.Task{
		DueDate:    strp("2025-07-10"),
		Recurrence: &model.Recurrence{Kind: model.RecurrenceNone},
	}
	assert.False(t, ShouldCreateToday(tpl, date(2025, time.July, 11)))
}

func TestShouldCreateToday_FallsBackToCreatedAt(t *testing.T) {
	tpl := model.Task{
		Recurrence: model.WeeklyRecurrence(1),
		CreatedAt:  date(2025, time.July, 3),
	}
	assert.True(t, ShouldCreateToday(tpl, date(2025, time.July, 10)))
	assert.False(t, ShouldCreateToday(tpl, date(2025, time.July, 9)))
}

func TestNewInstance_CopiesAndOverrides(t *testing.T) {
	project := "home"
	tpl := model.Task{
		ID:          "task_parent",
		Title:       "take out the trash",
		Description: "bins go out Tuesday night",
		Done:        true, // template state must not leak into the instance
		Project:     &project,
		Tags:        []string{"chores"},
		DueDate:     strp("2025-07-10"),
		Recurrence:  model.WeeklyRecurrence(1),
		CreatedAt:   date(2025, time.June, 1),
	}
	now := time.Date(2025, time.July, 17, 8, 30, 0, 0, time.Local)

	inst := NewInstance(tpl, date(2025, time.July, 17), now)

	assert.Empty(t, inst.ID, "store assigns a fresh id")
	require.NotNil(t, inst.DueDate)
	assert.Equal(t, "2025-07-17", *inst.DueDate)
	assert.False(t, inst.Done)
	assert.True(t, inst.RecurringInstance)
	require.NotNil(t, inst.ParentTaskID)
	assert.Equal(t, tpl.ID, *inst.ParentTaskID)
	assert.Equal(t, now, inst.CreatedAt)
	assert.Equal(t, now, inst.UpdatedAt)

	assert.Equal(t, tpl.Title, inst.Title)
	assert.Equal(t, tpl.Description, inst.Description)
	assert.Equal(t, tpl.Tags, inst.Tags)

	// The copy must not alias the template's slices or rule.
	inst.Tags[0] = "mutated"
	assert.Equal(t, "chores", tpl.Tags[0])
	inst.Recurrence.Interval = 99
	assert.Equal(t, 1, tpl.Recurrence.Interval)

	// An instance is never itself a template.
	assert.False(t, inst.IsTemplate())
}
