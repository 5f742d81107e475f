package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkos/parkos/sim"
	"github.com/parkos/parkos/sim/metrics"
	"github.com/parkos/parkos/sim/trace"
)

type fixture struct {
	server    *Server
	session   *sim.Session
	scheduler *sim.VirtualScheduler
	handler   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sched := sim.NewVirtualScheduler(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
	s, err := sim.NewSession(sim.DefaultRegistry(), sched, sim.NewPartitionedRNG(sim.NewSimulationKey(42)), sim.DefaultSessionConfig())
	require.NoError(t, err)
	s.EnableTrace(trace.NewSessionTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions}))

	reg := prometheus.NewRegistry()
	col, err := metrics.NewCollector(reg)
	require.NoError(t, err)
	s.AddListener(col)

	srv := NewServer(s, reg)
	return &fixture{server: srv, session: s, scheduler: sched, handler: srv.Handler(nil)}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListHubs_RegistryOrderAndPresets(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/hubs", "")

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[hubsResponse](t, rec)
	assert.Equal(t, []string{"解放碑", "WFC", "洪崖洞", "来福士"}, got.Presets)
	require.Len(t, got.Hubs, 5)
	assert.Equal(t, "八一广场", got.Hubs[3].Key)
	assert.Equal(t, 29.557, got.DefaultFocus.Latitude)
}

func TestGetHub(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/hubs/WFC", "")
	require.Equal(t, http.StatusOK, rec.Code)
	hub := decode[sim.Hub](t, rec)
	assert.Len(t, hub.ParkingCandidates, 2)

	rec = f.do(t, http.MethodGet, "/api/v1/hubs/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmit_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"accepted", `{"query":"洪崖洞"}`, http.StatusAccepted},
		{"empty query", `{"query":"  "}`, http.StatusBadRequest},
		{"bad max wait", `{"query":"WFC","maxWait":12}`, http.StatusBadRequest},
		{"explicit no cap", `{"query":"WFC","maxWait":0}`, http.StatusAccepted},
		{"unknown field", `{"destination":"WFC"}`, http.StatusBadRequest},
		{"malformed", `{`, http.StatusBadRequest},
		{"unknown destination", `{"query":"东京"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, http.MethodPost, "/api/v1/requests", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestSubmit_BusySessionConflicts(t *testing.T) {
	// GIVEN a request in flight
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/requests", `{"query":"解放碑"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	first := decode[submitResponse](t, rec)
	assert.Equal(t, sim.StatusCheckingLimits, first.Status)

	// WHEN another is submitted before it settles
	rec = f.do(t, http.MethodPost, "/api/v1/requests", `{"query":"WFC"}`)

	// THEN it is refused and the first request is untouched
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, first.RequestID, f.session.Snapshot().RequestID)

	// AND once assigned a new request is accepted
	f.scheduler.RunUntilIdle()
	rec = f.do(t, http.MethodPost, "/api/v1/requests", `{"query":"WFC"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestSubmit_AfterClose(t *testing.T) {
	f := newFixture(t)
	f.session.Close()
	rec := f.do(t, http.MethodPost, "/api/v1/requests", `{"query":"WFC"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetSession_AssignedView(t *testing.T) {
	// GIVEN a request run to completion
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/requests", `{"query":"来福士"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	f.scheduler.RunUntilIdle()

	// WHEN the session is fetched
	rec = f.do(t, http.MethodGet, "/api/v1/session", "")

	// THEN it carries the result, walk time and map for the hub
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[SessionView](t, rec)
	assert.Equal(t, sim.StatusAssigned, view.Status)
	assert.False(t, view.Busy)
	require.NotNil(t, view.Result)
	assert.Equal(t, view.Result.WalkMinutes(), view.WalkMinutes)
	assert.Equal(t, sim.Coordinates{Latitude: 29.566, Longitude: 106.587}, view.Map.Focus)
	assert.Equal(t, sim.EmbedURL(view.Map.Focus), view.Map.EmbedURL)
	assert.True(t, strings.Contains(view.Map.EmbedURL, "bbox="+view.Map.BBoxText))
	assert.NotEmpty(t, view.Logs)
}

func TestGetSession_IdleViewHasEmptyLogs(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"logs":[]`)
	assert.Contains(t, rec.Body.String(), `"result":null`)
}

func TestSummaryAndMetrics(t *testing.T) {
	f := newFixture(t)
	for _, q := range []string{"解放碑", "东京", "WFC"} {
		f.do(t, http.MethodPost, "/api/v1/requests", `{"query":"`+q+`"}`)
		f.scheduler.RunUntilIdle()
	}

	rec := f.do(t, http.MethodGet, "/api/v1/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode[trace.TraceSummary](t, rec)
	assert.Equal(t, 3, sum.TotalRequests)
	assert.Equal(t, 1, sum.ResolutionFailures)
	assert.Equal(t, 2, sum.Assigned)

	rec = f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `parkos_requests_total{outcome="assigned"} 2`)
	assert.Contains(t, rec.Body.String(), `parkos_requests_total{outcome="unresolved"} 1`)
}

func TestHandler_CORSAndAccessLog(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	h := f.server.Handler(&buf)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, buf.String(), `"GET /health HTTP/1.1" 200`)
}

func TestMethodNotAllowed(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/api/v1/session"},
		{http.MethodPut, "/api/v1/hubs"},
		{http.MethodGet, "/api/v1/requests"},
		{http.MethodPost, "/api/v1/summary"},
		{http.MethodPost, "/health"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			// GIVEN a route registered for another method
			f := newFixture(t)
			rec := httptest.NewRecorder()

			// WHEN it is called with the wrong method
			f.server.Router().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			// THEN the router answers 405, not 404
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}
}

func TestSubmitRequest_MaxWaitDefaulting(t *testing.T) {
	zero, three := 0.0, 3.0
	tests := []struct {
		name    string
		maxWait *float64
		want    float64
	}{
		{"absent inherits default", nil, 5},
		{"explicit zero disables cap", &zero, 0},
		{"explicit value wins", &three, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := submitRequest{Query: "WFC", MaxWait: tt.maxWait}.query(5)
			assert.Equal(t, "WFC", q.Destination)
			assert.Equal(t, tt.want, q.MaxWaitSeconds)
		})
	}
}

func TestSubmit_MaxWaitBodyDecoding(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *float64
	}{
		{"absent", `{"query":"WFC"}`, nil},
		{"zero", `{"query":"WFC","maxWait":0}`, new(float64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req submitRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.MaxWait)
		})
	}
}
