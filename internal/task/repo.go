package task

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/guiChehade/planner-tatatu/internal/model"
)

var ErrNotFound = errors.New("task not found")

const ymdLayout = "2006-01-02"

// Patch represents a partial update.
// nil pointer => "no change"
// empty string for pointer fields (Project/DueDate) => clear (set to nil)
// Recurrence with kind "none" => clear the rule
type Patch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Done        *bool     `json:"done,omitempty"`
	Project     *string   `json:"project,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`

	DueDate    *string           `json:"dueDate,omitempty"`
	Recurrence *model.Recurrence `json:"recurrence,omitempty"`
}

type ListFilter struct {
	// Status:
	//   "" | "all" | "pending" | "done" | "due_today" | "upcoming" | "overdue"
	Status string

	// Project:
	//   "" | "any" | "inbox" | "projects" | "<exact project name>"
	Project string

	// Templates:
	//   nil = don't care
	//   true = only recurring templates, false = exclude them
	Templates *bool

	// ParentID, when set, keeps only instances spawned from that template.
	ParentID model.TaskID
}

type Repo interface {
	Create(t model.Task) (model.Task, error)
	Get(id model.TaskID) (model.Task, error)
	Update(id model.TaskID, patch Patch) (model.Task, error)
	Delete(id model.TaskID) error
	List(filter ListFilter) ([]model.Task, error)

	// FindInstance is the dedup lookup for materialization: the one
	// instance of parentID due on dueDate (YYYY-MM-DD), or ErrNotFound.
	FindInstance(parentID model.TaskID, dueDate string) (model.Task, error)
}

// UserStore hands out per-owner Repo views over one shared backend.
type UserStore interface {
	ForUser(userID string) Repo
	Users() ([]string, error)
	Close() error
}

func newID() model.TaskID {
	return model.TaskID("task_" + uuid.NewString())
}

func normalizeTask(t *model.Task) {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.Recurrence.Normalize()
}

func applyPatch(t *model.Task, p Patch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Done != nil {
		t.Done = *p.Done
	}

	// pointer string fields with "empty clears" semantics
	if p.Project != nil {
		if *p.Project == "" {
			t.Project = nil
		} else {
			t.Project = p.Project
		}
	}
	if p.DueDate != nil {
		if *p.DueDate == "" {
			t.DueDate = nil
		} else {
			t.DueDate = p.DueDate
		}
	}

	if p.Tags != nil {
		if *p.Tags == nil {
			t.Tags = []string{}
		} else {
			t.Tags = *p.Tags
		}
	}

	if p.Recurrence != nil {
		if p.Recurrence.Kind == model.RecurrenceNone {
			t.Recurrence = nil
		} else {
			rec := *p.Recurrence
			rec.Normalize()
			t.Recurrence = &rec
		}
	}
}

// matchesFilter applies ListFilter against a task; today is the
// server-local YYYY-MM-DD used by the due_today/overdue/upcoming
// statuses (lexicographic compare works for this layout).
func matchesFilter(t model.Task, filter ListFilter, today string) bool {
	if filter.Templates != nil && t.IsTemplate() != *filter.Templates {
		return false
	}
	if filter.ParentID != "" {
		if t.ParentTaskID == nil || *t.ParentTaskID != filter.ParentID {
			return false
		}
	}

	p := ""
	if t.Project != nil {
		p = strings.TrimSpace(*t.Project)
	}
	switch strings.ToLower(strings.TrimSpace(filter.Project)) {
	case "", "any":
	case "inbox":
		if p != "" && p != "inbox" {
			return false
		}
	case "projects":
		if p == "" || p == "inbox" {
			return false
		}
	default:
		if p != strings.TrimSpace(filter.Project) {
			return false
		}
	}

	switch strings.ToLower(strings.TrimSpace(filter.Status)) {
	case "", "all":
		return true
	case "pending":
		return !t.Done
	case "done":
		return t.Done
	case "due_today":
		return !t.Done && t.DueDate != nil && *t.DueDate == today
	case "overdue":
		return !t.Done && t.DueDate != nil && *t.DueDate < today
	case "upcoming":
		return !t.Done && t.DueDate != nil && *t.DueDate > today
	default:
		// unknown => treat as "all"
		return true
	}
}

// sortTasks orders due-soonest first (nil due dates last), then by
// most recent update.
func sortTasks(out []model.Task) {
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DueDate, out[j].DueDate
		switch {
		case di == nil && dj == nil:
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		case di == nil:
			return false
		case dj == nil:
			return true
		case *di != *dj:
			return *di < *dj
		default:
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
	})
}
