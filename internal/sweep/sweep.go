// Package sweep walks recurring templates and materializes the task
// instances that are due today. The engine itself stays pure; all
// store access and dedup happens here.
package sweep

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/guiChehade/planner-tatatu/internal/model"
	"github.com/guiChehade/planner-tatatu/internal/recurrence"
	"github.com/guiChehade/planner-tatatu/internal/task"
	"github.com/guiChehade/planner-tatatu/internal/telemetry"
)

const ymdLayout = "2006-01-02"

// Completed instances older than this are reported as cleanup
// candidates. They are never deleted automatically.
const cleanupAfterDays = 30

type Report struct {
	Date              string   `json:"date"`
	Templates         int      `json:"templates"`
	Created           []string `json:"createdTaskIds"`
	AlreadyExists     int      `json:"alreadyExists"`
	NotDue            int      `json:"notDue"`
	CleanupCandidates int      `json:"cleanupCandidates"`
	Errors            []string `json:"errors,omitempty"`
}

type Sweeper struct {
	log    zerolog.Logger
	events telemetry.Repository

	// Now is the clock; tests override it.
	Now func() time.Time
}

func New(log zerolog.Logger, events telemetry.Repository) *Sweeper {
	return &Sweeper{log: log, events: events, Now: time.Now}
}

// Run materializes due instances for one owner's tasks. A template
// spawns at most one instance per calendar day: the (parentTaskId,
// date) lookup against the store decides, never any cached flag, so
// concurrent triggers stay safe as long as the store serializes
// creates.
func (s *Sweeper) Run(repo task.Repo) (Report, error) {
	now := s.Now()
	today := recurrence.StartOfDay(now)
	report := Report{Date: today.Format(ymdLayout), Created: []string{}}

	all, err := repo.List(task.ListFilter{Status: "all"})
	if err != nil {
		return report, fmt.Errorf("list tasks: %w", err)
	}

	for _, t := range all {
		if !t.IsTemplate() {
			continue
		}
		report.Templates++

		if _, err := repo.FindInstance(t.ID, report.Date); err == nil {
			report.AlreadyExists++
			continue
		} else if !errors.Is(err, task.ErrNotFound) {
			report.Errors = append(report.Errors, fmt.Sprintf("lookup instance of %s: %v", t.ID, err))
			continue
		}

		if !recurrence.ShouldCreateToday(t, now) {
			report.NotDue++
			continue
		}

		created, err := repo.Create(recurrence.NewInstance(t, today, now))
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("create instance of %s: %v", t.ID, err))
			continue
		}
		report.Created = append(report.Created, string(created.ID))

		s.log.Info().
			Str("template_id", string(t.ID)).
			Str("instance_id", string(created.ID)).
			Str("due_date", report.Date).
			Msg("recurring instance created")
		s.recordEvent(telemetry.EventInstanceSpawned, telemetry.EventMetadata{
			"parent_task_id": string(t.ID),
			"instance_id":    string(created.ID),
			"due_date":       report.Date,
		})
	}

	report.CleanupCandidates = countCleanupCandidates(all, today)
	if report.CleanupCandidates > 0 {
		s.log.Info().
			Int("count", report.CleanupCandidates).
			Msg("old completed instances eligible for archiving")
	}

	s.recordEvent(telemetry.EventSweepRun, telemetry.EventMetadata{
		"date":      report.Date,
		"templates": report.Templates,
		"created":   len(report.Created),
	})
	return report, nil
}

// countCleanupCandidates counts completed instances whose due date is
// more than cleanupAfterDays in the past. They are reported for manual
// cleanup, never removed.
func countCleanupCandidates(tasks []model.Task, today time.Time) int {
	cutoff := today.AddDate(0, 0, -cleanupAfterDays).Format(ymdLayout)
	n := 0
	for _, t := range tasks {
		if t.RecurringInstance && t.Done && t.DueDate != nil && *t.DueDate < cutoff {
			n++
		}
	}
	return n
}

func (s *Sweeper) recordEvent(eventType telemetry.EventType, md telemetry.EventMetadata) {
	if s.events == nil {
		return
	}
	if err := s.events.RecordEvent(eventType, md); err != nil {
		s.log.Warn().Err(err).Str("event", string(eventType)).Msg("record telemetry event")
	}
}
