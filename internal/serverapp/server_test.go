package serverapp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiChehade/planner-tatatu/internal/config"
	"github.com/guiChehade/planner-tatatu/internal/model"
	"github.com/guiChehade/planner-tatatu/internal/task"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.Backend = "memory"

	h, err := NewHandler(Options{
		Config: cfg,
		Logger: zerolog.Nop(),
		Store:  task.NewMemoryStore(),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, user string, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Planner-User", user)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t)

	var health map[string]any
	resp := doJSON(t, http.MethodGet, srv.URL+"/healthz", "", nil, &health)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, health["ok"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp = doJSON(t, http.MethodGet, srv.URL+"/readyz", "", nil, nil)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestSweepMaterializesInstanceEndToEnd(t *testing.T) {
	srv := newTestServer(t)

	yesterday := time.Now().AddDate(0, 0, -1).Format(ymdLayout)
	today := time.Now().Format(ymdLayout)

	var template model.Task
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tasks", "alice", map[string]any{
		"title":      "workout",
		"dueDate":    yesterday,
		"recurrence": map[string]any{"kind": "daily", "interval": 1},
	}, &template)
	require.Equal(t, 201, resp.StatusCode)
	require.True(t, template.IsTemplate())

	var report struct {
		Templates int      `json:"templates"`
		Created   []string `json:"createdTaskIds"`
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/recurrence/sweep", "alice", nil, &report)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1, report.Templates)
	require.Len(t, report.Created, 1)

	var tasks []model.Task
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/tasks?parent="+string(template.ID), "alice", nil, &tasks)
	require.Equal(t, 200, resp.StatusCode)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].RecurringInstance)
	require.NotNil(t, tasks[0].DueDate)
	assert.Equal(t, today, *tasks[0].DueDate)

	// a second sweep must not duplicate the instance
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/recurrence/sweep", "alice", nil, &report)
	require.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, report.Created)

	// stats reflect the spawn
	var stats struct {
		Activity struct {
			InstancesSpawned int `json:"instances_spawned"`
			SweepRuns        int `json:"sweep_runs"`
		} `json:"activity"`
		Tasks struct {
			Total     int `json:"total"`
			Templates int `json:"templates"`
			Instances int `json:"instances"`
		} `json:"tasks"`
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/stats", "alice", nil, &stats)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1, stats.Activity.InstancesSpawned)
	assert.Equal(t, 2, stats.Activity.SweepRuns)
	assert.Equal(t, 2, stats.Tasks.Total)
	assert.Equal(t, 1, stats.Tasks.Templates)
	assert.Equal(t, 1, stats.Tasks.Instances)
}

func TestOwnersAreIsolated(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tasks", "alice", map[string]any{"title": "alice only"}, nil)
	require.Equal(t, 201, resp.StatusCode)

	var bobTasks []model.Task
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/tasks", "bob", nil, &bobTasks)
	require.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, bobTasks)
}

func TestRecurrencePreviewEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var out struct {
		Anchor      string   `json:"anchor"`
		Description string   `json:"description"`
		Occurrences []string `json:"occurrences"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/recurrence/preview", "", map[string]any{
		"recurrence": map[string]any{"kind": "weekly", "interval": 2},
		"anchor":     "2025-07-01",
		"count":      3,
	}, &out)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "2025-07-01", out.Anchor)
	assert.Equal(t, "every 2 weeks", out.Description)
	assert.Equal(t, []string{"2025-07-15", "2025-07-29", "2025-08-12"}, out.Occurrences)
}

func TestRecurrenceValidateEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var out struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/recurrence/validate", "", map[string]any{
		"recurrence": map[string]any{"kind": "custom"},
	}, &out)
	require.Equal(t, 200, resp.StatusCode)
	assert.False(t, out.Valid)
	assert.NotEmpty(t, out.Errors)
}

func TestRoutesEndpointListsAPI(t *testing.T) {
	srv := newTestServer(t)

	var routes []RouteDoc
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/routes", "", nil, &routes)
	require.Equal(t, 200, resp.StatusCode)

	patterns := make([]string, 0, len(routes))
	for _, rt := range routes {
		patterns = append(patterns, rt.Pattern)
	}
	assert.Contains(t, patterns, "/api/tasks")
	assert.Contains(t, patterns, "/api/recurrence/sweep")
	assert.Contains(t, patterns, "/healthz")
}
