package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/render"
	"github.com/aretw0/stepper/pkg/runner"
	"github.com/aretw0/stepper/pkg/scenario"
	"github.com/aretw0/stepper/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ScenariosURI = "stepper://scenarios"
	LessonsURI   = "stepper://lessons"
)

// GenerateResult is the structured output of generate_steps.
type GenerateResult struct {
	Scenario domain.ScenarioSpec `json:"scenario" jsonschema_description:"The scenario after defaults and clamping were applied"`
	Steps    []domain.Step       `json:"steps" jsonschema_description:"Every step of the trace, in order"`
}

// RenderResult is the structured output of render_step and the session tools.
type RenderResult struct {
	SessionID string      `json:"session_id,omitempty" jsonschema_description:"Set by the session tools"`
	View      render.View `json:"view" jsonschema_description:"The rendered step with its playback controls"`
	Markdown  string      `json:"markdown" jsonschema_description:"The same view formatted as markdown"`
}

// ScenarioArgs are the arguments shared by generate_steps and render_step.
type ScenarioArgs struct {
	Kind   string         `json:"kind"`
	Params map[string]any `json:"params,omitempty"`
}

// RenderArgs are the arguments of render_step.
type RenderArgs struct {
	ScenarioArgs
	Index int    `json:"index"`
	Hide  string `json:"hide,omitempty"`
}

// SessionArgs are the arguments of the session tools.
type SessionArgs struct {
	ScenarioArgs
	SessionID string  `json:"session_id,omitempty"`
	Command   string  `json:"command,omitempty"`
	Index     int     `json:"index,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
	Hide      string  `json:"hide,omitempty"`
}

// Server exposes the step generator and renderer as an MCP server.
// Session tools are registered only when a hub is configured.
type Server struct {
	hub       *session.Hub
	lessons   ports.LessonCatalog
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithHub registers create_session, control_session and get_session.
func WithHub(hub *session.Hub) Option {
	return func(s *Server) { s.hub = hub }
}

// WithLessons exposes the lesson catalog as a resource.
func WithLessons(catalog ports.LessonCatalog) Option {
	return func(s *Server) { s.lessons = catalog }
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(opts ...Option) *Server {
	s := &Server{
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("stepper-mcp", strings.TrimSpace(stepper.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func kindOption() mcp.ToolOption {
	kinds := make([]string, 0, 8)
	for _, info := range scenario.Kinds() {
		kinds = append(kinds, string(info.Kind))
	}
	return mcp.WithString("kind", mcp.Required(),
		mcp.Description("Scenario kind: "+strings.Join(kinds, ", ")+". Other values produce a single unsupported step."))
}

func paramsOption() mcp.ToolOption {
	return mcp.WithObject("params", mcp.Description("Scenario parameters; see the stepper://scenarios resource for defaults"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_scenarios",
		mcp.WithDescription("List the supported scenario kinds with their default parameters."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(scenario.Kinds())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("generate_steps",
		mcp.WithDescription("Generate the full step-by-step trace of a scenario."),
		kindOption(),
		paramsOption(),
		mcp.WithOutputSchema[GenerateResult](),
	), mcp.NewStructuredToolHandler(s.handleGenerate))

	s.mcpServer.AddTool(mcp.NewTool("render_step",
		mcp.WithDescription("Render one step of a scenario as it would appear paused at that position."),
		kindOption(),
		paramsOption(),
		mcp.WithNumber("index", mcp.Description("Zero-based step index; clamped to the trace")),
		mcp.WithString("hide", mcp.Description("Comma separated panels to hide: variables, output, lanes")),
		mcp.WithOutputSchema[RenderResult](),
	), mcp.NewStructuredToolHandler(s.handleRender))

	if s.hub == nil {
		return
	}

	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Start a playback session for a scenario."),
		kindOption(),
		paramsOption(),
		mcp.WithString("session_id", mcp.Description("Optional session ID; generated when empty")),
		mcp.WithString("hide", mcp.Description("Comma separated panels to hide: variables, output, lanes")),
		mcp.WithOutputSchema[RenderResult](),
	), mcp.NewStructuredToolHandler(s.handleCreateSession))

	s.mcpServer.AddTool(mcp.NewTool("control_session",
		mcp.WithDescription("Apply a playback command to a session."),
		mcp.WithString("session_id", mcp.Required()),
		mcp.WithString("command", mcp.Required(), mcp.Enum(session.Commands...)),
		mcp.WithNumber("index", mcp.Description("Target index for jump")),
		mcp.WithNumber("speed", mcp.Description("Multiplier for speed: 0.5, 1 or 2")),
		mcp.WithOutputSchema[RenderResult](),
	), mcp.NewStructuredToolHandler(s.handleControlSession))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Render the current step of a session."),
		mcp.WithString("session_id", mcp.Required()),
		mcp.WithOutputSchema[RenderResult](),
	), mcp.NewStructuredToolHandler(s.handleGetSession))
}

func (s *Server) spec(args ScenarioArgs) (domain.ScenarioSpec, error) {
	spec, err := runner.SanitizeSpec(domain.ScenarioSpec{Kind: domain.Kind(args.Kind), Params: args.Params})
	if err != nil {
		s.logger.Warn("MCP: scenario rejected", "err", err)
		return domain.ScenarioSpec{}, fmt.Errorf("scenario rejected: %w", err)
	}
	return spec, nil
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest, args ScenarioArgs) (GenerateResult, error) {
	spec, err := s.spec(args)
	if err != nil {
		return GenerateResult{}, err
	}
	sc := scenario.Decode(spec, s.logger)
	return GenerateResult{
		Scenario: scenario.Encode(sc),
		Steps:    scenario.Generate(sc),
	}, nil
}

func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest, args RenderArgs) (RenderResult, error) {
	spec, err := s.spec(args.ScenarioArgs)
	if err != nil {
		return RenderResult{}, err
	}
	steps := scenario.Parse(spec, s.logger)
	last := len(steps) - 1
	i := min(max(args.Index, 0), last)

	status := domain.StatusPaused
	switch i {
	case 0:
		status = domain.StatusIdle
	case last:
		status = domain.StatusComplete
	}
	pb := domain.Playback{Index: i, Total: len(steps), Speed: domain.SpeedNormal, Status: status}
	return result("", render.Render(steps[i], pb, render.ParseHidden(splitHide(args.Hide)))), nil
}

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (RenderResult, error) {
	spec, err := s.spec(args.ScenarioArgs)
	if err != nil {
		return RenderResult{}, err
	}
	sess, err := s.hub.Create(ctx, spec, session.CreateOptions{ID: args.SessionID, Hidden: splitHide(args.Hide)})
	if err != nil {
		return RenderResult{}, fmt.Errorf("create failed: %w", err)
	}
	return s.sessionResult(ctx, sess.ID)
}

func (s *Server) handleControlSession(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (RenderResult, error) {
	_, err := s.hub.Apply(ctx, args.SessionID, session.Command{Name: args.Command, Index: args.Index, Speed: args.Speed})
	if err != nil {
		if errors.Is(err, domain.ErrUnknownCommand) {
			return RenderResult{}, fmt.Errorf("%w; expected one of %s", err, strings.Join(session.Commands, ", "))
		}
		return RenderResult{}, err
	}
	return s.sessionResult(ctx, args.SessionID)
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (RenderResult, error) {
	return s.sessionResult(ctx, args.SessionID)
}

func (s *Server) sessionResult(ctx context.Context, id string) (RenderResult, error) {
	view, err := s.hub.View(ctx, id)
	if err != nil {
		return RenderResult{}, err
	}
	return result(id, view), nil
}

func result(id string, view render.View) RenderResult {
	return RenderResult{SessionID: id, View: view, Markdown: render.Markdown(view)}
}

func splitHide(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return []string{s}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ScenariosURI, "Supported Scenarios",
		mcp.WithResourceDescription("Scenario kinds with their default parameters"),
		mcp.WithMIMEType("application/json"),
	), s.readScenarios)

	if s.lessons == nil {
		return
	}
	s.mcpServer.AddResource(mcp.NewResource(LessonsURI, "Lessons",
		mcp.WithResourceDescription("Lesson catalog: scenarios with teaching notes"),
		mcp.WithMIMEType("application/json"),
	), s.readLessons)
}

func (s *Server) readScenarios(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(scenario.Kinds())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ScenariosURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func (s *Server) readLessons(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	lessons, err := s.lessons.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	jsonBytes, err := json.Marshal(lessons)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      LessonsURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
