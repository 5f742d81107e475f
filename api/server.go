// Package api exposes a Session over HTTP: submit a destination, poll the
// session snapshot, list hubs, and scrape metrics.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/parkos/parkos/sim"
)

// Server routes HTTP requests to one Session.
type Server struct {
	session  *sim.Session
	gatherer prometheus.Gatherer
	router   *mux.Router
}

// NewServer builds the router. A nil gatherer leaves /metrics unrouted.
func NewServer(session *sim.Session, gatherer prometheus.Gatherer) *Server {
	s := &Server{session: session, gatherer: gatherer, router: mux.NewRouter()}

	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/hubs", s.listHubs).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/hubs/{key}", s.getHub).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/requests", s.submit).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/session", s.getSession).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/summary", s.getSummary).Methods(http.MethodGet)
	if gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return s
}

// Router returns the bare router without middleware.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler wraps the router with panic recovery, CORS and a combined-format
// access log written to accessLog. A nil accessLog disables access logging.
func (s *Server) Handler(accessLog io.Writer) http.Handler {
	var h http.Handler = s.router
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(logrus.StandardLogger()),
		handlers.PrintRecoveryStack(true),
	)(h)
	if accessLog != nil {
		h = handlers.CombinedLoggingHandler(accessLog, h)
	}
	return h
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type hubsResponse struct {
	Presets      []string        `json:"presets"`
	DefaultFocus sim.Coordinates `json:"defaultFocus"`
	Hubs         []sim.Hub       `json:"hubs"`
}

func (s *Server) listHubs(w http.ResponseWriter, _ *http.Request) {
	reg := s.session.Registry()
	presets := reg.Presets()
	if presets == nil {
		presets = []string{}
	}
	writeJSON(w, http.StatusOK, hubsResponse{
		Presets:      presets,
		DefaultFocus: reg.DefaultFocus(),
		Hubs:         reg.Hubs(),
	})
}

func (s *Server) getHub(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	hub, ok := s.session.Registry().Lookup(key)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown hub "+key)
		return
	}
	writeJSON(w, http.StatusOK, sim.Hub{Key: key, HubRecord: hub})
}

// submitRequest is the body of POST /api/v1/requests. An absent maxWait
// inherits the session's default cap; an explicit 0 asks for no cap.
type submitRequest struct {
	Query   string   `json:"query"`
	MaxWait *float64 `json:"maxWait,omitempty"`
}

// query converts the body into a session query, applying the default cap
// when the client did not name one.
func (req submitRequest) query(defaultMaxWait float64) sim.Query {
	q := sim.Query{Destination: req.Query, MaxWaitSeconds: defaultMaxWait}
	if req.MaxWait != nil {
		q.MaxWaitSeconds = *req.MaxWait
	}
	return q
}

type submitResponse struct {
	RequestID string     `json:"requestId"`
	Status    sim.Status `json:"status"`
	Error     string     `json:"error,omitempty"`
}

// submit starts a request. The session is never preempted from here: a
// request still in flight gets 409, mirroring the disabled submit control.
func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, sim.ErrEmptyQuery.Error())
		return
	}
	q := req.query(s.session.Config().MaxWaitSeconds)
	if err := sim.ValidateMaxWait(q.MaxWaitSeconds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.session.TrySubmit(q)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, submitResponse{RequestID: id, Status: s.session.Status()})
	case errors.Is(err, sim.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, sim.ErrResolution):
		writeJSON(w, http.StatusUnprocessableEntity, submitResponse{RequestID: id, Status: s.session.Status(), Error: err.Error()})
	case errors.Is(err, sim.ErrSessionClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		logrus.Errorf("submit %q: %v", req.Query, err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) getSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, NewSessionView(s.session.Snapshot(), s.session.Registry()))
}

func (s *Server) getSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.TraceSummary())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
