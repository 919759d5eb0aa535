package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"newsletter_dashboard/internal/dashboard"
	"newsletter_dashboard/internal/loader"
	"newsletter_dashboard/internal/logger"
	"newsletter_dashboard/internal/metrics"
	"newsletter_dashboard/internal/middleware"
	"newsletter_dashboard/internal/models"
)

// Server holds the dependencies of the dashboard HTTP handlers.
type Server struct {
	session *loader.Session
	metrics *metrics.Metrics
	limiter *middleware.RateLimiter
	page    *template.Template
}

// NewServer creates a Server over session. limiter guards the mutating routes.
// m may be nil, in which case /metrics is not mounted.
func NewServer(session *loader.Session, m *metrics.Metrics, limiter *middleware.RateLimiter) *Server {
	return &Server{
		session: session,
		metrics: m,
		limiter: limiter,
		page:    template.Must(template.New("dashboard").Funcs(pageFuncs).Parse(pageTemplate)),
	}
}

// Routes wires every handler behind the request-id and logging middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.GetPage)
	mux.HandleFunc("GET /api/dashboard", s.GetDashboard)
	mux.HandleFunc("PUT /api/search", s.SetSearch)
	mux.Handle("POST /api/newsletters", s.limiter.Limit(http.HandlerFunc(s.AddNewsletter)))
	mux.Handle("DELETE /api/newsletters/{id}", s.limiter.Limit(http.HandlerFunc(s.DeleteNewsletter)))
	mux.Handle("POST /newsletters", s.limiter.Limit(http.HandlerFunc(s.SubmitAdd)))
	mux.Handle("POST /newsletters/{id}/delete", s.limiter.Limit(http.HandlerFunc(s.SubmitDelete)))
	mux.HandleFunc("GET /health", s.HealthCheck)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return middleware.RequestID(middleware.Logging(mux))
}

// HealthCheck answers 200 once the load cycle settled successfully and 503
// while loading or after a failed load.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := s.session.Snapshot().Status
	if status != loader.Ready {
		http.Error(w, "dashboard "+status.String(), http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("OK"))
}

// GetDashboard returns the derived view as JSON. The s query parameter, when
// present, overrides the session's search term for this response only.
func (s *Server) GetDashboard(w http.ResponseWriter, r *http.Request) {
	view := s.view(r)

	code := http.StatusOK
	if view.Loading {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, view)
}

// GetPage renders the dashboard as HTML.
func (s *Server) GetPage(w http.ResponseWriter, r *http.Request) {
	view := s.view(r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if view.Loading {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := s.page.Execute(w, view); err != nil {
		logger.Log.WithField("error", err.Error()).Error("Failed to render dashboard")
	}
}

type searchRequest struct {
	Term string `json:"term"`
}

// SetSearch replaces the session's search term and returns the new view.
func (s *Server) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid search payload", http.StatusBadRequest)
		return
	}
	s.session.SetSearch(req.Term)
	writeJSON(w, http.StatusOK, dashboard.Build(s.session.Snapshot()))
}

// DeleteNewsletter removes one newsletter: 204 once the backend confirms,
// 502 when it does not and the entry is kept.
func (s *Server) DeleteNewsletter(w http.ResponseWriter, r *http.Request) {
	id := models.ID(r.PathValue("id"))
	if id == "" {
		http.Error(w, "Missing newsletter id", http.StatusBadRequest)
		return
	}

	if err := s.session.Delete(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete newsletter", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddNewsletter handles the add-newsletter form.
func (s *Server) AddNewsletter(w http.ResponseWriter, r *http.Request) {
	var form models.NewNewsletter
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "Invalid newsletter payload", http.StatusBadRequest)
		return
	}

	created, err := s.session.Add(r.Context(), form)
	if err != nil {
		var addErr *loader.AddError
		if errors.As(err, &addErr) {
			http.Error(w, "Failed to add newsletter", http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) view(r *http.Request) dashboard.View {
	snap := s.session.Snapshot()
	if q := r.URL.Query(); q.Has("s") {
		return dashboard.WithSearch(snap, q.Get("s"))
	}
	return dashboard.Build(snap)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithField("error", err.Error()).Error("Failed to encode response")
	}
}
