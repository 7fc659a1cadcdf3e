package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/flowplan"
	"github.com/aretw0/flowplan/internal/validator"
	"github.com/aretw0/flowplan/pkg/adapters/memory"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flowJSON = `{
  "name": "errors",
  "memory_items": [
    {"id": "Database Link", "state": "KNOWN"},
    {"id": "list_of_errors"}
  ],
  "operators": [
    {"name": "Find Errors", "inputs": [{"parameters": ["Database Link"]}],
     "outcomes": [{"effects": [{"parameters": ["list_of_errors"]}]}]},
    {"name": "Fix Errors", "inputs": [{"parameters": ["list_of_errors"]}]}
  ],
  "goals": [{"operator": "Fix Errors"}]
}`

func newTestHandler(t *testing.T, planner *memory.Planner) (http.Handler, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetrics()
	svc := flowplan.New(flowplan.WithPlanner(planner), flowplan.WithMetrics(metrics))
	return NewHandler(svc, WithMetrics(metrics.Registry())), metrics
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Plan(t *testing.T) {
	h, _ := newTestHandler(t, memory.NewPlanner("(find_errors)\n(fix_errors)\n"))

	w := post(t, h, "/plan", `{"flow": `+flowJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	var resp struct {
		Flow string `json:"flow"`
		Plan struct {
			Steps []map[string]any `json:"steps"`
		} `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "errors", resp.Flow)
	require.Len(t, resp.Plan.Steps, 2)
	assert.Equal(t, "Find Errors", resp.Plan.Steps[0]["name"])
}

func TestServer_Compile(t *testing.T) {
	h, _ := newTestHandler(t, memory.NewPlanner(""))

	w := post(t, h, "/compile", `{"flow": `+flowJSON+`, "options": {"goal": "and-or"}, "lookahead": 1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CompileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Domain, "(:action find_errors")
	assert.Contains(t, resp.Domain, "new_object_generic_0")
	assert.Contains(t, resp.Problem, "(:metric minimize (total-cost))")
	assert.Contains(t, resp.Transforms, transformPair{Source: "Database Link", Target: "database_link"})
}

func TestServer_Validate(t *testing.T) {
	h, _ := newTestHandler(t, memory.NewPlanner(""))
	broken := strings.Replace(flowJSON, `"operator": "Fix Errors"`, `"operator": "Deploy"`, 1)

	w := post(t, h, "/validate", `{"flow": `+broken+`}`)
	require.Equal(t, http.StatusOK, w.Code)

	var res validator.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Valid())
	require.Len(t, res.Failures(), 1)
	assert.Equal(t, validator.CheckGoals, res.Failures()[0].Name)
}

func TestServer_ErrorStatuses(t *testing.T) {
	broken := strings.Replace(flowJSON, `"operator": "Fix Errors"`, `"operator": "Deploy"`, 1)
	cases := []struct {
		name    string
		planner *memory.Planner
		path    string
		body    string
		status  int
	}{
		{"malformed body", memory.NewPlanner(""), "/plan", `{"flow": `, http.StatusBadRequest},
		{"unknown field", memory.NewPlanner(""), "/plan", `{"flows": {}}`, http.StatusBadRequest},
		{"bad goal document", memory.NewPlanner(""), "/compile", `{"flow": {"name": "x", "goals": [{}]}}`, http.StatusBadRequest},
		{"bad option tag", memory.NewPlanner(""), "/compile", `{"flow": ` + flowJSON + `, "options": {"slot": ["sometimes"]}}`, http.StatusBadRequest},
		{"invalid flow", memory.NewPlanner(""), "/plan", `{"flow": ` + broken + `}`, http.StatusUnprocessableEntity},
		{"negative lookahead", memory.NewPlanner(""), "/compile", `{"flow": ` + flowJSON + `, "lookahead": -1}`, http.StatusUnprocessableEntity},
		{"no plan", memory.NewFailingPlanner(domain.ErrNoPlan), "/plan", `{"flow": ` + flowJSON + `}`, http.StatusUnprocessableEntity},
		{"planner down", memory.NewFailingPlanner(&domain.PlannerError{Status: 500, Detail: "x"}), "/plan", `{"flow": ` + flowJSON + `}`, http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestHandler(t, tc.planner)
			w := post(t, h, tc.path, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, w.Header().Get(RequestIDHeader), resp.RequestID)
		})
	}
}

func TestServer_InvalidFlowCarriesDiagnostics(t *testing.T) {
	h, _ := newTestHandler(t, memory.NewPlanner(""))
	broken := strings.Replace(flowJSON, `"operator": "Fix Errors"`, `"operator": "Deploy"`, 1)

	w := post(t, h, "/compile", `{"flow": `+broken+`}`)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Diagnostics, 1)
	assert.Equal(t, "Deploy", resp.Diagnostics[0].Entity)
}

func TestServer_NoPlanner(t *testing.T) {
	h := NewHandler(flowplan.New())
	w := post(t, h, "/plan", `{"flow": `+flowJSON+`}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_RequestIDIsPropagated(t *testing.T) {
	h, _ := newTestHandler(t, memory.NewPlanner(""))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	h, _ := newTestHandler(t, memory.NewPlanner("(find_errors)\n(fix_errors)"))
	post(t, h, "/plan", `{"flow": `+flowJSON+`}`)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `flowplan_compilations_total{result="ok"} 1`)
}

func TestServer_Info(t *testing.T) {
	h, _ := newTestHandler(t, memory.NewPlanner(""))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/info", nil))

	var info map[string]string
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&info))
	assert.Equal(t, "flowplan-http", info["app"])
	assert.Equal(t, strings.TrimSpace(flowplan.Version), info["version"])
}
