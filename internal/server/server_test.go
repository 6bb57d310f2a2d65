package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haskel/readalloc/internal/config"
	"github.com/haskel/readalloc/internal/engine"
	"github.com/haskel/readalloc/internal/estimator"
	"github.com/haskel/readalloc/internal/estimator/model"
	"github.com/haskel/readalloc/internal/logger"
	"github.com/haskel/readalloc/internal/metrics"
	"github.com/haskel/readalloc/internal/storage"
)

// linearDefinition reads 2 minutes per fiction minute and 3 per help minute
// with a constant standard deviation of 2.
func linearDefinition() *model.Definition {
	return &model.Definition{
		Kind:        string(estimator.KindGeneric),
		Model:       &model.Spec{Type: model.ModelTypeLinear, Coefficients: []float64{2, 3}},
		Uncertainty: &model.UncertaintySpec{Type: model.UncertaintyConstant, Value: 2},
	}
}

func testServer(t *testing.T, modify func(*config.Config)) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.Optimizer.TotalBudget = 100
	cfg.Grid.MaxTime = 20
	if modify != nil {
		modify(cfg)
	}

	reg := prometheus.NewRegistry()
	store := storage.NewFileStore(t.TempDir(), time.Minute, logger.Discard())
	eng, err := engine.NewFromDefinition(linearDefinition(), "test", engine.Options{
		Store:     store,
		Metrics:   metrics.New(reg),
		Logger:    logger.Discard(),
		Estimator: cfg.Estimator,
		Optimizer: cfg.Optimizer,
		Grid:      cfg.Grid,
	})
	require.NoError(t, err)

	srv := New(cfg, eng, reg, logger.Discard(), "0.1.0-test")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestInfoAndHealth(t *testing.T) {
	ts := testServer(t, nil)

	resp := get(t, ts, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info InfoResponse
	decode(t, resp, &info)
	assert.Equal(t, "readalloc", info.Name)
	assert.Equal(t, "0.1.0-test", info.Version)
	assert.Equal(t, estimator.KindGeneric, info.Estimator.Kind)
	assert.True(t, info.Estimator.Uncertainty)

	resp = get(t, ts, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health HealthResponse
	decode(t, resp, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestPredict(t *testing.T) {
	ts := testServer(t, nil)

	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"single row is scalar", `{"allocations": [[10, 20]]}`, `80`},
		{"several rows", `{"allocations": [[10, 20], [0, 5]]}`, `[80,15]`},
		{"sharpe", `{"allocations": [[10, 20]], "sharpe": true}`, `40`},
		{"negate", `{"allocations": [[10, 20], [0, 5]], "negate": true}`, `[-80,-15]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts, "/v1/predict", tt.body)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var out struct {
				Reading json.RawMessage `json:"reading"`
			}
			decode(t, resp, &out)
			assert.JSONEq(t, tt.expected, string(out.Reading))
		})
	}
}

func TestPredict_BadRequests(t *testing.T) {
	ts := testServer(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"empty allocations", `{"allocations": []}`, http.StatusBadRequest},
		{"malformed json", `{"allocations": [`, http.StatusBadRequest},
		{"unknown field", `{"rows": [[1, 2]]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts, "/v1/predict", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]string
			decode(t, resp, &body)
			assert.NotEmpty(t, body["error"])
			assert.NotEmpty(t, body["request_id"])
		})
	}
}

func TestObjective(t *testing.T) {
	ts := testServer(t, nil)

	resp := post(t, ts, "/v1/objective", `{"proportion": 0.25}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Proportion float64 `json:"proportion"`
		Fiction    float64 `json:"fiction"`
		Help       float64 `json:"help"`
		Reading    float64 `json:"reading"`
	}
	decode(t, resp, &out)
	assert.Equal(t, 25.0, out.Fiction)
	assert.Equal(t, 75.0, out.Help)
	assert.InDelta(t, 2*25+3*75, out.Reading, 1e-9)

	resp = post(t, ts, "/v1/objective", `{"proportion": 0.5, "total_budget": 10, "negate": true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &out)
	assert.InDelta(t, -25, out.Reading, 1e-9)

	resp = post(t, ts, "/v1/objective", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOptimizeAndRuns(t *testing.T) {
	ts := testServer(t, nil)

	resp := post(t, ts, "/v1/optimize", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run storage.Run
	decode(t, resp, &run)
	assert.True(t, run.Success)
	assert.Less(t, run.Proportion, 1e-3)
	assert.InDelta(t, 300, run.Reading, 0.5)
	assert.Equal(t, 100.0, run.TotalBudget)

	resp = post(t, ts, "/v1/optimize", `{"total_budget": 10, "max_iter": 0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var capped storage.Run
	decode(t, resp, &capped)
	assert.False(t, capped.Success)

	resp = get(t, ts, "/v1/runs?limit=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var runs []storage.Run
	decode(t, resp, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, capped.ID, runs[0].ID)

	resp = get(t, ts, "/v1/runs")
	decode(t, resp, &runs)
	assert.Len(t, runs, 2)

	resp = get(t, ts, "/v1/runs?limit=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOptimize_InvalidRequest(t *testing.T) {
	ts := testServer(t, nil)

	resp := post(t, ts, "/v1/optimize", `{"total_budget": -5}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, ts, "/v1/optimize", `{"xatol": 0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGrid(t *testing.T) {
	ts := testServer(t, nil)

	resp := post(t, ts, "/v1/grid", `{"step": 10}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var g struct {
		Fiction []float64    `json:"fiction"`
		Help    []float64    `json:"help"`
		Values  [][]*float64 `json:"values"`
		MaxTime float64      `json:"max_time"`
	}
	decode(t, resp, &g)
	assert.Equal(t, []float64{0, 10, 20}, g.Fiction)
	assert.Equal(t, 20.0, g.MaxTime)
	require.Len(t, g.Values, 3)
	require.NotNil(t, g.Values[1][2])
	assert.Equal(t, 2*20+3*10.0, *g.Values[1][2])

	resp = post(t, ts, "/v1/grid", `{"step": -1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGridTooManyCells(t *testing.T) {
	ts := testServer(t, func(cfg *config.Config) { cfg.Grid.MaxCells = 100 })

	resp := post(t, ts, "/v1/grid", `{"max_time": 90, "step": 10}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, ts, "/v1/grid", `{"max_time": 100, "step": 10}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, ts, "/v1/grid", `{"max_time": 1e12, "step": 1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTrack(t *testing.T) {
	ts := testServer(t, nil)

	resp := post(t, ts, "/v1/track", `{"max_iterations": 5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out TrackResponse
	decode(t, resp, &out)
	require.Len(t, out.Errors, 5)
	require.NotNil(t, out.Errors[4])
	assert.Equal(t, 0.0, *out.Errors[4])
}

func TestEstimatorEndpoint(t *testing.T) {
	ts := testServer(t, func(c *config.Config) { c.Estimator.Sharpe = true })

	resp := get(t, ts, "/v1/estimator")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info engine.Info
	decode(t, resp, &info)
	assert.Equal(t, estimator.KindGeneric, info.Kind)
	assert.True(t, info.Sharpe)
	assert.Equal(t, "test", info.Source)

	// Sharpe default applies when the request omits it
	resp = post(t, ts, "/v1/predict", `{"allocations": [[10, 20]]}`)
	var out struct {
		Reading float64 `json:"reading"`
	}
	decode(t, resp, &out)
	assert.Equal(t, 40.0, out.Reading)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := testServer(t, nil)

	post(t, ts, "/v1/predict", `{"allocations": [[1, 2]]}`)

	resp := get(t, ts, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `readalloc_predictions_total{kind="generic"} 1`)

	disabled := testServer(t, func(c *config.Config) { c.Metrics.Enabled = false })
	resp = get(t, disabled, "/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuthProtectsAPI(t *testing.T) {
	ts := testServer(t, func(c *config.Config) {
		c.Auth = config.AuthConfig{Enabled: true, User: "reader", Password: "pages"}
	})

	resp := get(t, ts, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, ts, "/v1/predict", `{"allocations": [[1, 2]]}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/predict", bytes.NewBufferString(`{"allocations": [[1, 2]]}`))
	require.NoError(t, err)
	req.SetBasicAuth("reader", "pages")
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	assert.Equal(t, http.StatusOK, authed.StatusCode)
}

func TestRateLimited(t *testing.T) {
	ts := testServer(t, func(c *config.Config) {
		c.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.1, Burst: 2}
	})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, get(t, ts, "/health").StatusCode)
	}
	assert.Equal(t, http.StatusTooManyRequests, get(t, ts, "/health").StatusCode)
}

func TestBodyTooLarge(t *testing.T) {
	ts := testServer(t, func(c *config.Config) { c.Server.MaxBodyBytes = 16 })

	resp := post(t, ts, "/v1/predict", `{"allocations": [[1, 2], [3, 4], [5, 6]]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestNotFoundAndMethod(t *testing.T) {
	ts := testServer(t, nil)

	assert.Equal(t, http.StatusNotFound, get(t, ts, "/v2/ask").StatusCode)
	assert.Equal(t, http.StatusMethodNotAllowed, get(t, ts, "/v1/predict").StatusCode)
}
