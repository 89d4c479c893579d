package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/mlens"
	"github.com/aretw0/mlens/api"
	"github.com/aretw0/mlens/internal/logging"
	"github.com/aretw0/mlens/pkg/algorithms/xgboost"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
	"github.com/aretw0/mlens/pkg/ports"
	"github.com/aretw0/mlens/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
)

// Engine defines what the HTTP adapter needs from the mlens core.
type Engine interface {
	Algorithms() []ports.Algorithm
	Algorithm(name string) (ports.Algorithm, error)
	NewSession(name string, values params.Values, seed int64) (session.Handle, error)
	Session(id string) (session.Handle, error)
	Sessions() []session.Handle
	WithSession(ctx context.Context, id string, fn func(context.Context, session.Handle) error) error
	CloseSession(ctx context.Context, id string) error
}

// Server serves the mlens JSON API.
type Server struct {
	Engine  Engine
	Booster xgboost.Booster

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts a Prometheus handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBooster replaces the in-process booster behind POST /api/xgboost.
func WithBooster(b xgboost.Booster) Option {
	return func(s *Server) {
		if b != nil {
			s.Booster = b
		}
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Booster: xgboost.LocalBooster{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(api.Spec)
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Get("/algorithms", s.ListAlgorithms)
	r.Get("/algorithms/{slug}", s.GetAlgorithm)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Put("/params", s.ReconfigureSession)
			r.Get("/trace", s.GetTrace)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/goto/{index}", s.GotoStep)
			r.Post("/{action}", s.SessionAction)
		})
	})

	r.Post("/api/xgboost", s.Boost)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AlgorithmResponse is the metadata plus parameter schema of an algorithm.
type AlgorithmResponse struct {
	domain.Meta
	Params params.Schema `json:"params"`
}

// SessionResponse describes a live session.
type SessionResponse struct {
	ID        string        `json:"id"`
	Algorithm string        `json:"algorithm"`
	Created   time.Time     `json:"created"`
	Seed      int64         `json:"seed"`
	Params    params.Values `json:"params"`
	View      domain.View   `json:"view"`
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	Algorithm string        `json:"algorithm"`
	Seed      int64         `json:"seed"`
	Params    params.Values `json:"params"`
	Start     bool          `json:"start"`
}

// ReconfigureRequest is the body of PUT /sessions/{id}/params. A missing
// seed keeps the current one.
type ReconfigureRequest struct {
	Seed   *int64        `json:"seed"`
	Params params.Values `json:"params"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := api.Load(r.Context()); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	} else if err != nil {
		s.logger.Error("Failed to load OpenAPI spec", "err", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "mlens-http",
		"version":     strings.TrimSpace(mlens.Version),
		"api_version": apiVersion,
	})
}

// ListAlgorithms handles the GET /algorithms request.
func (s *Server) ListAlgorithms(w http.ResponseWriter, r *http.Request) {
	algs := s.Engine.Algorithms()
	resp := make([]AlgorithmResponse, len(algs))
	for i, a := range algs {
		resp[i] = AlgorithmResponse{Meta: a.Meta(), Params: a.Params()}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAlgorithm handles the GET /algorithms/{slug} request.
func (s *Server) GetAlgorithm(w http.ResponseWriter, r *http.Request) {
	a, err := s.Engine.Algorithm(chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AlgorithmResponse{Meta: a.Meta(), Params: a.Params()})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	handles := s.Engine.Sessions()
	resp := make([]SessionResponse, len(handles))
	for i, h := range handles {
		resp[i] = describe(h)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid request body"))
		s.logger.Warn("CreateSession: Invalid request body", "err", err)
		return
	}

	h, err := s.Engine.NewSession(body.Algorithm, body.Params, body.Seed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if body.Start {
		h.Session.Start(context.WithoutCancel(r.Context()))
	}
	s.logger.Info("Session created", "session_id", h.ID, "algorithm", h.Algorithm)
	writeJSON(w, http.StatusCreated, describe(h))
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	h, err := s.Engine.Session(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, describe(h))
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.CloseSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReconfigureSession handles the PUT /sessions/{id}/params request.
func (s *Server) ReconfigureSession(w http.ResponseWriter, r *http.Request) {
	var body ReconfigureRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid request body"))
		return
	}

	var resp SessionResponse
	err := s.Engine.WithSession(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, h session.Handle) error {
		seed := h.Session.Seed()
		if body.Seed != nil {
			seed = *body.Seed
		}
		if err := h.Session.Reconfigure(body.Params, seed); err != nil {
			return err
		}
		resp = describe(h)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SessionAction handles POST /sessions/{id}/{action}.
func (s *Server) SessionAction(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	wait := r.URL.Query().Get("wait") == "true"

	var view domain.View
	err := s.Engine.WithSession(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, h session.Handle) error {
		if err := apply(ctx, h.Session, action, wait); err != nil {
			return err
		}
		view = h.Session.View()
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ErrUnknownAction is returned for an action name outside the navigation set.
var ErrUnknownAction = fmt.Errorf("%w: unknown action", domain.ErrNotFound)

// apply runs a named navigation action. A failed build is reported through
// the view, not as an error.
func apply(ctx context.Context, sess ports.Session, action string, wait bool) error {
	switch action {
	case "start":
		sess.Start(context.WithoutCancel(ctx))
		if wait {
			if err := sess.Wait(ctx); err != nil && ctx.Err() != nil {
				return err
			}
		}
	case "forward":
		sess.Forward()
	case "backward":
		sess.Backward()
	case "play":
		sess.Play()
	case "pause":
		sess.Pause()
	case "reset":
		sess.Reset()
	case "stop":
		sess.Stop()
	default:
		return fmt.Errorf("%w %q", ErrUnknownAction, action)
	}
	return nil
}

// GotoStep handles POST /sessions/{id}/goto/{index}.
func (s *Server) GotoStep(w http.ResponseWriter, r *http.Request) {
	var index int
	err := runtime.BindStyledParameterWithOptions("simple", "index", chi.URLParam(r, "index"), &index,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("Invalid format for parameter index: %v", err)))
		return
	}

	var view domain.View
	err = s.Engine.WithSession(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, h session.Handle) error {
		h.Session.Goto(index)
		view = h.Session.View()
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetTrace handles GET /sessions/{id}/trace.
func (s *Server) GetTrace(w http.ResponseWriter, r *http.Request) {
	h, err := s.Engine.Session(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Session.Trace())
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody("Streaming not supported"))
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}
	sessionID := chi.URLParam(r, "id")
	h, err := s.Engine.Session(sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	views, cancel := h.Session.Subscribe()
	defer cancel()
	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case v, ok := <-views:
			if !ok {
				fmt.Fprintf(w, "event: closed\ndata: %s\n\n", sessionID)
				flusher.Flush()
				return
			}
			data, err := json.Marshal(v)
			if err != nil {
				s.logger.Error("SSE: view encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: view\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// Boost handles POST /api/xgboost with the boosting service wire format.
func (s *Server) Boost(w http.ResponseWriter, r *http.Request) {
	var body xgboost.WireRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid request body"))
		return
	}
	req, err := xgboost.Decode(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := s.Booster.Boost(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		s.logger.Warn("Boost failed", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, xgboost.WireResponse{DecisionBoundary: res.Boundary})
}

// -- Helpers --

func describe(h session.Handle) SessionResponse {
	return SessionResponse{
		ID:        h.ID,
		Algorithm: h.Algorithm,
		Created:   h.Created,
		Seed:      h.Session.Seed(),
		Params:    h.Session.Values(),
		View:      h.Session.View(),
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConfiguration), errors.Is(err, domain.ErrDegenerate):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	}
	writeJSON(w, code, errorBody(err.Error()))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
