package serverapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/guiChehade/planner-tatatu/internal/config"
	"github.com/guiChehade/planner-tatatu/internal/httpmw"
	"github.com/guiChehade/planner-tatatu/internal/model"
	"github.com/guiChehade/planner-tatatu/internal/recurrence"
	"github.com/guiChehade/planner-tatatu/internal/sweep"
	"github.com/guiChehade/planner-tatatu/internal/task"
	"github.com/guiChehade/planner-tatatu/internal/telemetry"
)

const ymdLayout = "2006-01-02"

type Options struct {
	Config *config.Config
	Logger zerolog.Logger

	// Store is the task backend; opened from config when nil.
	Store task.UserStore
	// Events collects activity telemetry; in-memory when nil.
	Events telemetry.Repository
	// Sweeper materializes recurring instances; built when nil.
	Sweeper *sweep.Sweeper

	Now func() time.Time
}

// OpenStore builds the task backend the config names.
func OpenStore(cfg *config.Config) (task.UserStore, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return task.NewMemoryStore(), nil
	case "sqlite":
		return task.NewSQLiteRepo(cfg.Storage.SQLitePath, cfg.Storage.BusyTimeoutDuration())
	case "file":
		return task.NewFileRepo(cfg.Storage.DataDir)
	default:
		return nil, errors.New("unknown storage backend " + strconv.Quote(cfg.Storage.Backend))
	}
}

// NewHandler assembles the full API surface over the given backend.
func NewHandler(opts Options) (http.Handler, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := opts.Config
	log := opts.Logger
	if opts.Now == nil {
		opts.Now = time.Now
	}
	now := opts.Now

	store := opts.Store
	if store == nil {
		var err error
		store, err = OpenStore(cfg)
		if err != nil {
			return nil, err
		}
	}
	events := opts.Events
	if events == nil {
		events = telemetry.NewMemoryRepository()
	}
	sweeper := opts.Sweeper
	if sweeper == nil {
		sweeper = sweep.New(log, events)
	}

	repoFor := func(r *http.Request) task.Repo {
		return store.ForUser(httpmw.UserFromContext(r.Context()))
	}

	mux := http.NewServeMux()
	rr := &routeRegistry{}

	handle(mux, rr, "GET /healthz", "liveness probe", "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "planner",
			"time":    now().UTC().Format(time.RFC3339),
		})
	})

	handle(mux, rr, "GET /readyz", "readiness probe; checks task storage", "", func(w http.ResponseWriter, r *http.Request) {
		if _, err := store.Users(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "task storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "planner",
			"time":    now().UTC().Format(time.RFC3339),
		})
	})

	taskHandler := task.NewHandler(store.ForUser("default"))
	taskHandler.SetRepoResolver(repoFor)
	taskHandler.SetEvents(events)
	taskHandler.SetPreviewMax(cfg.Recurrence.PreviewMax)
	taskHandler.SetNow(now)
	handle(mux, rr, "/api/tasks", "list (GET) and create (POST) tasks", `{"title":"water plants","recurrence":{"kind":"daily","interval":3}}`, taskHandler.TasksRoot)
	handle(mux, rr, "/api/tasks/", "get/patch/delete a task; /occurrences and /calendar.ics sub-resources", "", taskHandler.TasksSub)

	previewMax := cfg.Recurrence.PreviewMax
	handle(mux, rr, "POST /api/recurrence/preview", "preview upcoming occurrences for a rule", `{"recurrence":{"kind":"weekly","interval":2},"anchor":"2025-07-01","count":5}`, func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Recurrence *model.Recurrence `json:"recurrence"`
			Anchor     string            `json:"anchor"`
			Count      int               `json:"count"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		if res := recurrence.Validate(in.Recurrence, now()); !res.Valid {
			writeJSON(w, http.StatusBadRequest, res)
			return
		}
		if in.Recurrence == nil || in.Recurrence.Kind == model.RecurrenceNone {
			writeErr(w, http.StatusBadRequest, "recurrence rule required")
			return
		}

		anchor := recurrence.StartOfDay(now())
		if s := strings.TrimSpace(in.Anchor); s != "" {
			parsed, err := time.ParseInLocation(ymdLayout, s, time.Local)
			if err != nil {
				writeErr(w, http.StatusBadRequest, "anchor must be YYYY-MM-DD")
				return
			}
			anchor = parsed
		}
		count := in.Count
		if count <= 0 || count > previewMax {
			count = previewMax
		}

		occ := recurrence.Occurrences(anchor, in.Recurrence, count)
		dates := make([]string, 0, len(occ))
		for _, o := range occ {
			dates = append(dates, o.Format(ymdLayout))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"anchor":      anchor.Format(ymdLayout),
			"description": recurrence.Describe(in.Recurrence),
			"occurrences": dates,
		})
	})

	handle(mux, rr, "POST /api/recurrence/validate", "validate a recurrence rule", `{"recurrence":{"kind":"custom","daysOfWeek":[1,3,5]}}`, func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Recurrence *model.Recurrence `json:"recurrence"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		writeJSON(w, http.StatusOK, recurrence.Validate(in.Recurrence, now()))
	})

	handle(mux, rr, "POST /api/recurrence/sweep", "materialize due recurring instances for the requesting owner", "", func(w http.ResponseWriter, r *http.Request) {
		report, err := sweeper.Run(repoFor(r))
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, report)
	})

	handle(mux, rr, "GET /api/stats", "activity stats and a task snapshot for the requesting owner", "", func(w http.ResponseWriter, r *http.Request) {
		window := 24 * time.Hour
		if s := strings.TrimSpace(r.URL.Query().Get("since")); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil || d <= 0 {
				writeErr(w, http.StatusBadRequest, "since must be a positive duration")
				return
			}
			window = d
		}
		since := now().Add(-window)

		evts, err := events.GetEvents(since, nil)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		stats, err := telemetry.CalculateStats(evts, since)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}

		tasks, err := repoFor(r).List(task.ListFilter{})
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"activity": stats,
			"tasks":    telemetry.SnapshotTasks(tasks, now().Format(ymdLayout)),
		})
	})

	handle(mux, rr, "GET /api/config", "effective configuration", "", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	handle(mux, rr, "GET /api/routes", "this route listing", "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rr.list())
	})

	middlewares := []func(http.Handler) http.Handler{
		httpmw.WithAccessLog(log),
		httpmw.WithRequestID,
		httpmw.WithUser,
		httpmw.WithRecover(log),
	}
	if cfg.Server.RateLimitPerSec > 0 {
		middlewares = append(middlewares, httpmw.WithRateLimit(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst))
	}
	return httpmw.Chain(mux, middlewares...), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}
