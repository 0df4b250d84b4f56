package model

import (
	"time"
)

type TaskID string

// Task is a single planner entry. Due dates are stored as YYYY-MM-DD
// strings in the owner's local calendar; nil means "no due date".
type Task struct {
	ID          TaskID   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Done        bool     `json:"done"`
	Project     *string  `json:"project,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	DueDate    *string     `json:"dueDate,omitempty"`
	Recurrence *Recurrence `json:"recurrence,omitempty"`

	// ParentTaskID and RecurringInstance are set only on tasks spawned
	// from a recurring template; the template itself never carries them.
	ParentTaskID      *TaskID `json:"parentTaskId,omitempty"`
	RecurringInstance bool    `json:"isRecurringInstance,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsTemplate reports whether the task is a recurring template, i.e. a
// user-created task with an active recurrence rule. Instances spawned
// from a template are never templates themselves.
func (t Task) IsTemplate() bool {
	return !t.RecurringInstance && t.Recurrence != nil && t.Recurrence.Kind != RecurrenceNone
}
