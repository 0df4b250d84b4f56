package task

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiChehade/planner-tatatu/internal/model"
)

func newHandlerForTests(t *testing.T) (*Handler, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	h := NewHandler(repo)
	return h, repo
}

func jsonReq(method, path string, body any) *http.Request {
	var b []byte
	if body != nil {
		b, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestTasksRoot_CreateAndList(t *testing.T) {
	h, _ := newHandlerForTests(t)

	rec := httptest.NewRecorder()
	h.TasksRoot(rec, jsonReq(http.MethodPost, "/api/tasks", TaskUpsert{
		Title:      "daily standup",
		Recurrence: model.WeekdaysRecurrence(),
		DueDate:    strp("2099-01-04"),
	}))
	require.Equal(t, 201, rec.Code)

	var created model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	require.NotNil(t, created.Project)
	assert.Equal(t, "inbox", *created.Project)
	assert.True(t, created.IsTemplate())

	rec = httptest.NewRecorder()
	h.TasksRoot(rec, jsonReq(http.MethodGet, "/api/tasks?templates=true", nil))
	require.Equal(t, 200, rec.Code)
	var list []model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestTasksRoot_CreateRejectsMissingTitle(t *testing.T) {
	h, _ := newHandlerForTests(t)

	rec := httptest.NewRecorder()
	h.TasksRoot(rec, jsonReq(http.MethodPost, "/api/tasks", TaskUpsert{Title: "  "}))
	assert.Equal(t, 400, rec.Code)
}

func TestTasksRoot_CreateRejectsInvalidRecurrence(t *testing.T) {
	h, _ := newHandlerForTests(t)

	rec := httptest.NewRecorder()
	h.TasksRoot(rec, jsonReq(http.MethodPost, "/api/tasks", TaskUpsert{
		Title:      "broken",
		Recurrence: &model.Recurrence{Kind: model.RecurrenceDaily, Interval: 500},
	}))
	require.Equal(t, 400, rec.Code)

	var res struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Errors)
}

func TestTasksSub_PatchAndDelete(t *testing.T) {
	h, repo := newHandlerForTests(t)
	created, err := repo.Create(model.Task{Title: "inbox zero", DueDate: strp("2099-02-01")})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodPatch, "/api/tasks/"+string(created.ID), Patch{
		Done:    boolp(true),
		DueDate: strp(""),
	}))
	require.Equal(t, 200, rec.Code)
	var updated model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.Done)
	assert.Nil(t, updated.DueDate)

	rec = httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodDelete, "/api/tasks/"+string(created.ID), nil))
	require.Equal(t, 200, rec.Code)

	rec = httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodGet, "/api/tasks/"+string(created.ID), nil))
	assert.Equal(t, 404, rec.Code)
}

func TestTasksSub_Occurrences(t *testing.T) {
	h, repo := newHandlerForTests(t)
	created, err := repo.Create(model.Task{
		Title:      "water plants",
		DueDate:    strp("2025-07-01"),
		Recurrence: model.DailyRecurrence(3),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodGet, "/api/tasks/"+string(created.ID)+"/occurrences?count=4", nil))
	require.Equal(t, 200, rec.Code)

	var out struct {
		Anchor      string   `json:"anchor"`
		Description string   `json:"description"`
		Occurrences []string `json:"occurrences"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "2025-07-01", out.Anchor)
	assert.Equal(t, "every 3 days", out.Description)
	assert.Equal(t, []string{"2025-07-04", "2025-07-07", "2025-07-10", "2025-07-13"}, out.Occurrences)
}

func TestTasksSub_OccurrencesCappedAtPreviewMax(t *testing.T) {
	h, repo := newHandlerForTests(t)
	h.SetPreviewMax(5)
	created, err := repo.Create(model.Task{
		Title:      "stretch",
		DueDate:    strp("2025-07-01"),
		Recurrence: model.DailyRecurrence(1),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodGet, "/api/tasks/"+string(created.ID)+"/occurrences?count=100", nil))
	require.Equal(t, 200, rec.Code)

	var out struct {
		Occurrences []string `json:"occurrences"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Occurrences, 5)
}

func TestTasksSub_OccurrencesNonRepeating(t *testing.T) {
	h, repo := newHandlerForTests(t)
	created, err := repo.Create(model.Task{Title: "one-off"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodGet, "/api/tasks/"+string(created.ID)+"/occurrences", nil))
	assert.Equal(t, 400, rec.Code)
}

func TestTasksSub_CalendarICS(t *testing.T) {
	h, repo := newHandlerForTests(t)
	h.SetNow(func() time.Time {
		return time.Date(2025, time.July, 11, 9, 30, 0, 0, time.UTC)
	})
	created, err := repo.Create(model.Task{
		Title:      "team sync; weekly",
		DueDate:    strp("2025-07-14"),
		Recurrence: model.WeeklyRecurrence(1),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodGet, "/api/tasks/"+string(created.ID)+"/calendar.ics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR\r\n"))
	assert.Contains(t, body, "SUMMARY:team sync\\; weekly")
	assert.Contains(t, body, "DTSTART;VALUE=DATE:20250714")
	assert.Contains(t, body, "RRULE:FREQ=WEEKLY;INTERVAL=1")
}

func TestTasksSub_CalendarICSRequiresDueDate(t *testing.T) {
	h, repo := newHandlerForTests(t)
	created, err := repo.Create(model.Task{Title: "no due date"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodGet, "/api/tasks/"+string(created.ID)+"/calendar.ics", nil))
	assert.Equal(t, 400, rec.Code)
}

func TestTasksRoot_MethodNotAllowed(t *testing.T) {
	h, _ := newHandlerForTests(t)

	rec := httptest.NewRecorder()
	h.TasksRoot(rec, jsonReq(http.MethodDelete, "/api/tasks", nil))
	assert.Equal(t, 405, rec.Code)
}

func boolp(b bool) *bool { return &b }
