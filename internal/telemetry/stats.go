package telemetry

import (
	"encoding/json"
	"math"
	"time"

	"github.com/guiChehade/planner-tatatu/internal/model"
)

type Stats struct {
	Period            string            `json:"period"`
	EventCounts       map[EventType]int `json:"event_counts"`
	TaskCreations     int               `json:"task_creations"`
	TaskCompletions   int               `json:"task_completions"`
	TaskDeletions     int               `json:"task_deletions"`
	InstancesSpawned  int               `json:"instances_spawned"`
	SweepRuns         int               `json:"sweep_runs"`
	InstancesPerSweep float64           `json:"instances_per_sweep"`
	SpawnsByTemplate  map[string]int    `json:"spawns_by_template"`
}

// CalculateStats computes planner activity stats from events
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:           since.Format("2006-01-02"),
		EventCounts:      make(map[EventType]int),
		SpawnsByTemplate: make(map[string]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventTaskCreated:
			stats.TaskCreations++
		case EventTaskCompleted:
			stats.TaskCompletions++
		case EventTaskDeleted:
			stats.TaskDeletions++
		case EventInstanceSpawned:
			stats.InstancesSpawned++
			if parentID, ok := metadata["parent_task_id"].(string); ok {
				stats.SpawnsByTemplate[parentID]++
			}
		case EventSweepRun:
			stats.SweepRuns++
		}
	}

	if stats.SweepRuns > 0 {
		stats.InstancesPerSweep = float64(stats.InstancesSpawned) / float64(stats.SweepRuns)
	}

	return stats, nil
}

// TaskSnapshot summarizes the current task list the way the dashboard
// presents it.
type TaskSnapshot struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	Overdue        int     `json:"overdue"`
	DueToday       int     `json:"due_today"`
	Templates      int     `json:"templates"`
	Instances      int     `json:"instances"`
	CompletionRate float64 `json:"completion_rate"`
}

// SnapshotTasks counts task states; today is the server-local
// YYYY-MM-DD date.
func SnapshotTasks(tasks []model.Task, today string) TaskSnapshot {
	var s TaskSnapshot
	s.Total = len(tasks)
	for _, t := range tasks {
		if t.Done {
			s.Completed++
		} else {
			s.Pending++
			if t.DueDate != nil {
				switch {
				case *t.DueDate < today:
					s.Overdue++
				case *t.DueDate == today:
					s.DueToday++
				}
			}
		}
		if t.IsTemplate() {
			s.Templates++
		}
		if t.RecurringInstance {
			s.Instances++
		}
	}
	if s.Total > 0 {
		s.CompletionRate = math.Round(float64(s.Completed)/float64(s.Total)*100) / 100
	}
	return s
}
