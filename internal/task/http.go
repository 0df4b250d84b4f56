package task

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/guiChehade/planner-tatatu/internal/model"
	"github.com/guiChehade/planner-tatatu/internal/recurrence"
	"github.com/guiChehade/planner-tatatu/internal/telemetry"
)

// Handler serves the /api/tasks surface. The repo resolver picks the
// owner-scoped repo for each request; the plain repo is the fallback
// for single-user setups and tests.
type Handler struct {
	repo         Repo
	repoResolver func(*http.Request) Repo
	events       telemetry.Repository
	previewMax   int
	now          func() time.Time
}

func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo, previewMax: 10, now: time.Now}
}

func (h *Handler) SetRepoResolver(fn func(*http.Request) Repo) {
	h.repoResolver = fn
}

// SetPreviewMax caps the number of occurrences served by the preview
// endpoints.
func (h *Handler) SetPreviewMax(n int) {
	if n > 0 {
		h.previewMax = n
	}
}

func (h *Handler) SetNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// SetEvents enables activity telemetry; a nil repository keeps the
// handler silent.
func (h *Handler) SetEvents(events telemetry.Repository) {
	h.events = events
}

func (h *Handler) recordEvent(eventType telemetry.EventType, md telemetry.EventMetadata) {
	if h.events == nil {
		return
	}
	_ = h.events.RecordEvent(eventType, md)
}

func (h *Handler) repoForRequest(r *http.Request) Repo {
	if h.repoResolver != nil {
		if repo := h.repoResolver(r); repo != nil {
			return repo
		}
	}
	return h.repo
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func normalizeProject(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		v := "inbox"
		return &v
	}
	return p
}

func parseBoolPtr(s string) *bool {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "1", "true", "yes":
		b := true
		return &b
	case "0", "false", "no":
		b := false
		return &b
	}
	return nil
}

func (h *Handler) previewCount(q string) int {
	n, err := strconv.Atoi(strings.TrimSpace(q))
	if err != nil || n <= 0 {
		return h.previewMax
	}
	if n > h.previewMax {
		return h.previewMax
	}
	return n
}

// TaskUpsert is the POST /api/tasks body.
type TaskUpsert struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Done        bool              `json:"done"`
	Project     *string           `json:"project,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	DueDate     *string           `json:"dueDate,omitempty"`
	Recurrence  *model.Recurrence `json:"recurrence,omitempty"`
}

// /api/tasks  (collection)
func (h *Handler) TasksRoot(w http.ResponseWriter, r *http.Request) {
	repo := h.repoForRequest(r)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		filter := ListFilter{
			Status:    q.Get("status"),
			Project:   q.Get("project"),
			Templates: parseBoolPtr(q.Get("templates")),
			ParentID:  model.TaskID(strings.TrimSpace(q.Get("parent"))),
		}
		ts, err := repo.List(filter)
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, ts)

	case http.MethodPost:
		var in TaskUpsert
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		if strings.TrimSpace(in.Title) == "" {
			writeErr(w, 400, "title required")
			return
		}
		if res := recurrence.Validate(in.Recurrence, h.now()); !res.Valid {
			writeJSON(w, 400, res)
			return
		}
		in.Project = normalizeProject(in.Project)

		t, err := repo.Create(model.Task{
			Title:       in.Title,
			Description: in.Description,
			Done:        in.Done,
			Project:     in.Project,
			Tags:        in.Tags,
			DueDate:     in.DueDate,
			Recurrence:  in.Recurrence,
		})
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		h.recordEvent(telemetry.EventTaskCreated, telemetry.EventMetadata{"task_id": string(t.ID)})
		writeJSON(w, 201, t)

	default:
		writeErr(w, 405, "method not allowed")
	}
}

// /api/tasks/{id} and its sub-resources
func (h *Handler) TasksSub(w http.ResponseWriter, r *http.Request) {
	repo := h.repoForRequest(r)

	tail := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	tail = strings.Trim(tail, "/")
	if tail == "" {
		writeErr(w, 404, "not found")
		return
	}

	parts := strings.Split(tail, "/")
	id := model.TaskID(parts[0])

	// /api/tasks/{id}
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			t, err := repo.Get(id)
			if err == ErrNotFound {
				writeErr(w, 404, "not found")
				return
			}
			if err != nil {
				writeErr(w, 500, err.Error())
				return
			}
			writeJSON(w, 200, t)

		case http.MethodPatch:
			var p Patch
			if err := decodeJSON(r, &p); err != nil {
				writeErr(w, 400, "bad json")
				return
			}
			if p.Recurrence != nil && p.Recurrence.Kind != model.RecurrenceNone {
				if res := recurrence.Validate(p.Recurrence, h.now()); !res.Valid {
					writeJSON(w, 400, res)
					return
				}
			}
			t, err := repo.Update(id, p)
			if err == ErrNotFound {
				writeErr(w, 404, "not found")
				return
			}
			if err != nil {
				writeErr(w, 500, err.Error())
				return
			}
			if p.Done != nil && *p.Done {
				h.recordEvent(telemetry.EventTaskCompleted, telemetry.EventMetadata{"task_id": string(t.ID)})
			}
			writeJSON(w, 200, t)

		case http.MethodDelete:
			if err := repo.Delete(id); err != nil {
				if err == ErrNotFound {
					writeErr(w, 404, "not found")
					return
				}
				writeErr(w, 500, err.Error())
				return
			}
			h.recordEvent(telemetry.EventTaskDeleted, telemetry.EventMetadata{"task_id": string(id)})
			writeJSON(w, 200, map[string]any{"ok": true})

		default:
			writeErr(w, 405, "method not allowed")
		}
		return
	}

	// /api/tasks/{id}/occurrences
	if len(parts) == 2 && parts[1] == "occurrences" {
		if r.Method != http.MethodGet {
			writeErr(w, 405, "method not allowed")
			return
		}
		t, err := repo.Get(id)
		if err == ErrNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		if t.Recurrence == nil || t.Recurrence.Kind == model.RecurrenceNone {
			writeErr(w, 400, "task does not repeat")
			return
		}

		count := h.previewCount(r.URL.Query().Get("count"))
		anchor := recurrence.AnchorDate(t, time.Local)
		occ := recurrence.Occurrences(anchor, t.Recurrence, count)
		dates := make([]string, 0, len(occ))
		for _, o := range occ {
			dates = append(dates, o.Format(ymdLayout))
		}
		writeJSON(w, 200, map[string]any{
			"taskId":      t.ID,
			"anchor":      anchor.Format(ymdLayout),
			"description": recurrence.Describe(t.Recurrence),
			"occurrences": dates,
		})
		return
	}

	// /api/tasks/{id}/calendar.ics
	if len(parts) == 2 && parts[1] == "calendar.ics" {
		if r.Method != http.MethodGet {
			writeErr(w, 405, "method not allowed")
			return
		}
		t, err := repo.Get(id)
		if err == ErrNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		ics, err := BuildTaskCalendarICS(t, h.now())
		if err != nil {
			writeErr(w, 400, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="task.ics"`)
		w.WriteHeader(200)
		_, _ = w.Write([]byte(ics))
		return
	}

	writeErr(w, 404, "not found")
}
