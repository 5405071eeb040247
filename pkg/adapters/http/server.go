package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/render"
	"github.com/aretw0/stepper/pkg/runner"
	"github.com/aretw0/stepper/pkg/scenario"
	"github.com/aretw0/stepper/pkg/session"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
)

//go:embed openapi.yaml
var rawSpec []byte

var (
	swaggerOnce sync.Once
	swaggerDoc  *openapi3.T
	swaggerErr  error
)

// GetSwagger parses the embedded OpenAPI document once.
func GetSwagger() (*openapi3.T, error) {
	swaggerOnce.Do(func() {
		loader := openapi3.NewLoader()
		swaggerDoc, swaggerErr = loader.LoadFromData(rawSpec)
		if swaggerErr == nil {
			swaggerErr = swaggerDoc.Validate(loader.Context)
		}
	})
	return swaggerDoc, swaggerErr
}

// Server serves the session hub over REST and SSE.
type Server struct {
	Hub     *session.Hub
	Lessons ports.LessonCatalog
	Metrics http.Handler
	Streams *StreamManager
	Logger  *slog.Logger

	unsubscribe func()
}

// Option configures a Server.
type Option func(*Server)

// WithLessons enables the /lessons routes.
func WithLessons(catalog ports.LessonCatalog) Option {
	return func(s *Server) { s.Lessons = catalog }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// NewServer creates a Server and subscribes its stream manager to hub changes
// and deletions.
func NewServer(hub *session.Hub, opts ...Option) *Server {
	s := &Server{
		Hub:     hub,
		Streams: NewStreamManager(),
		Logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.Logger
	unsubscribe := hub.Subscribe(s.Streams.Publish)
	forget := hub.OnDelete(s.Streams.Forget)
	s.unsubscribe = func() {
		unsubscribe()
		forget()
	}
	return s
}

// Close detaches the server from the hub.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Handler builds the router. Requests matching an operation of the embedded
// OpenAPI document are validated against it before reaching their handler.
func (s *Server) Handler() (http.Handler, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi spec: %w", err)
	}
	validate, err := validator(doc, s.Logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(validate)

		r.Get("/health", s.GetHealth)
		r.Get("/info", s.GetInfo)
		r.Get("/scenarios", s.ListScenarios)
		r.Post("/generate", s.Generate)

		r.Get("/sessions", s.ListSessions)
		r.Post("/sessions", s.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/steps", s.GetSessionSteps)
			r.Put("/scenario", s.SetScenario)
			r.Put("/hidden", s.SetHidden)
			r.Put("/speed", s.SetSpeed)
			r.Post("/jump/{index}", s.JumpTo)
			for _, name := range []string{session.CmdPlay, session.CmdPause, session.CmdStep, session.CmdBack, session.CmdReset} {
				r.Post("/"+name, s.command(name))
			}
		})

		r.Get("/lessons", s.ListLessons)
		r.Get("/lessons/{id}", s.GetLesson)
		r.Post("/lessons/{id}/sessions", s.StartLesson)

		r.Get("/events", s.SubscribeEvents)
	})

	return enableCORS(r), nil
}

// NewHandler is NewServer followed by Handler.
func NewHandler(hub *session.Hub, opts ...Option) (http.Handler, error) {
	return NewServer(hub, opts...).Handler()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Stepper API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// SessionResponse is the body of every session endpoint.
type SessionResponse struct {
	Session domain.Session `json:"session"`
	View    render.View    `json:"view"`
}

// GenerateResponse is the body of POST /generate.
type GenerateResponse struct {
	Scenario domain.ScenarioSpec `json:"scenario"`
	Steps    []domain.Step       `json:"steps"`
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	ID       string              `json:"id,omitempty"`
	Scenario domain.ScenarioSpec `json:"scenario"`
	Speed    float64             `json:"speed,omitempty"`
	AutoPlay bool                `json:"autoplay,omitempty"`
	Hide     []string            `json:"hide,omitempty"`
}

type speedRequest struct {
	Speed float64 `json:"speed"`
}

type hiddenRequest struct {
	Hide []string `json:"hide"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"app":             "stepper-http",
		"version":         strings.TrimSpace(stepper.Version),
		"api_version":     apiVersion,
		"active_sessions": s.Hub.Active(),
	})
}

// ListScenarios handles the GET /scenarios request.
func (s *Server) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenario.Kinds())
}

// Generate handles the POST /generate request. It is stateless.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	var spec domain.ScenarioSpec
	if !s.decodeSpec(w, r, &spec) {
		return
	}
	sc := scenario.Decode(spec, s.Logger)
	writeJSON(w, http.StatusOK, GenerateResponse{
		Scenario: scenario.Encode(sc),
		Steps:    scenario.Generate(sc),
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Hub.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	spec, err := runner.SanitizeSpec(body.Scenario)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := runner.SanitizeInput(body.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sess, err := s.Hub.Create(r.Context(), spec, session.CreateOptions{
		ID:       id,
		Speed:    body.Speed,
		AutoPlay: body.AutoPlay,
		Hidden:   body.Hide,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondSession(w, r, http.StatusCreated, sess)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	sess, err := s.Hub.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondSession(w, r, http.StatusOK, sess)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := s.Hub.Delete(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSessionSteps handles the GET /sessions/{id}/steps request.
func (s *Server) GetSessionSteps(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	steps, err := s.Hub.Steps(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, steps)
}

// SetScenario handles the PUT /sessions/{id}/scenario request.
func (s *Server) SetScenario(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var spec domain.ScenarioSpec
	if !s.decodeSpec(w, r, &spec) {
		return
	}
	sess, err := s.Hub.SetScenario(r.Context(), id, spec)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondSession(w, r, http.StatusOK, sess)
}

// SetHidden handles the PUT /sessions/{id}/hidden request.
func (s *Server) SetHidden(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var body hiddenRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	sess, err := s.Hub.SetHidden(r.Context(), id, body.Hide)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondSession(w, r, http.StatusOK, sess)
}

// SetSpeed handles the PUT /sessions/{id}/speed request.
func (s *Server) SetSpeed(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var body speedRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	s.apply(w, r, id, session.Command{Name: session.CmdSpeed, Speed: body.Speed})
}

// JumpTo handles the POST /sessions/{id}/jump/{index} request.
func (s *Server) JumpTo(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var index int
	if err := bindPath(r, "index", &index); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.apply(w, r, id, session.Command{Name: session.CmdJump, Index: index})
}

func (s *Server) command(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(w, r)
		if !ok {
			return
		}
		s.apply(w, r, id, session.Command{Name: name})
	}
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, id string, cmd session.Command) {
	sess, err := s.Hub.Apply(r.Context(), id, cmd)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondSession(w, r, http.StatusOK, sess)
}

// ListLessons handles the GET /lessons request.
func (s *Server) ListLessons(w http.ResponseWriter, r *http.Request) {
	if s.Lessons == nil {
		writeError(w, http.StatusNotFound, errors.New("no lesson catalog configured"))
		return
	}
	lessons, err := s.Lessons.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if lessons == nil {
		lessons = []domain.Lesson{}
	}
	writeJSON(w, http.StatusOK, lessons)
}

// GetLesson handles the GET /lessons/{id} request.
func (s *Server) GetLesson(w http.ResponseWriter, r *http.Request) {
	lesson, ok := s.lesson(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

// StartLesson handles the POST /lessons/{id}/sessions request: a new session
// playing the lesson's scenario.
func (s *Server) StartLesson(w http.ResponseWriter, r *http.Request) {
	lesson, ok := s.lesson(w, r)
	if !ok {
		return
	}
	sess, err := s.Hub.Create(r.Context(), lesson.Scenario, session.CreateOptions{})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondSession(w, r, http.StatusCreated, sess)
}

func (s *Server) lesson(w http.ResponseWriter, r *http.Request) (domain.Lesson, bool) {
	if s.Lessons == nil {
		writeError(w, http.StatusNotFound, domain.ErrLessonNotFound)
		return domain.Lesson{}, false
	}
	var id string
	if err := bindPath(r, "id", &id); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return domain.Lesson{}, false
	}
	lesson, err := s.Lessons.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return domain.Lesson{}, false
	}
	return lesson, true
}

func (s *Server) decodeSpec(w http.ResponseWriter, r *http.Request, spec *domain.ScenarioSpec) bool {
	if err := json.NewDecoder(r.Body).Decode(spec); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	clean, err := runner.SanitizeSpec(*spec)
	if err != nil {
		s.Logger.Warn("scenario rejected", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	*spec = clean
	return true
}

// respondSession renders the session's current step, honouring ?hide= over the
// session's stored panel settings.
func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, status int, sess domain.Session) {
	hidden := sess.Hidden
	if hide, ok := hideParam(r); ok {
		hidden = hide
	}
	// Render the frame sess points at, not whatever the session shows now.
	steps, err := s.Hub.Steps(r.Context(), sess.ID)
	if err != nil {
		s.fail(w, err)
		return
	}
	var view render.View
	if len(steps) == sess.Playback.Total && sess.Playback.Index < len(steps) {
		view = render.Render(steps[sess.Playback.Index], sess.Playback, render.ParseHidden(hidden))
	} else if view, err = s.Hub.View(r.Context(), sess.ID); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, status, SessionResponse{Session: sess, View: view})
}

// fail maps domain errors to status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrLessonNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, session.ErrSessionExists):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrUnknownCommand):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.Logger.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
