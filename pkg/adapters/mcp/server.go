package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/mlens"
	"github.com/aretw0/mlens/internal/logging"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
	"github.com/aretw0/mlens/pkg/ports"
	"github.com/aretw0/mlens/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Engine defines what the MCP server needs from the mlens core.
type Engine interface {
	Algorithms() []ports.Algorithm
	NewSession(name string, values params.Values, seed int64) (session.Handle, error)
	Session(id string) (session.Handle, error)
	WithSession(ctx context.Context, id string, fn func(context.Context, session.Handle) error) error
}

// AlgorithmInfo is one entry of list_algorithms.
type AlgorithmInfo struct {
	Slug             string        `json:"slug" jsonschema_description:"Identifier used by create_session"`
	Title            string        `json:"title"`
	ShortDescription string        `json:"shortDescription"`
	Params           params.Schema `json:"params" jsonschema_description:"Tunable parameters with their ranges"`
}

// AlgorithmList wraps the catalog so it can be returned as structured content.
type AlgorithmList struct {
	Algorithms []AlgorithmInfo `json:"algorithms"`
}

// SessionResponse is the structured result of the session tools.
type SessionResponse struct {
	SessionID string        `json:"session_id" jsonschema_description:"Pass this to navigate and get_session"`
	Algorithm string        `json:"algorithm"`
	Seed      int64         `json:"seed"`
	Params    params.Values `json:"params"`
	View      domain.View   `json:"view" jsonschema_description:"Current step, index and navigation flags"`
}

type createArgs struct {
	Algorithm string `json:"algorithm"`
	Seed      string `json:"seed"`
	Params    string `json:"params"`
}

type navigateArgs struct {
	SessionID string   `json:"session_id"`
	Action    string   `json:"action"`
	Index     *float64 `json:"index"`
}

type getArgs struct {
	SessionID string `json:"session_id"`
}

// buildTimeout bounds how long create_session waits for a trace.
const buildTimeout = time.Minute

// Server wraps the mlens Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("mlens-mcp", strings.TrimSpace(mlens.Version)),
		logger:    logger,
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

		s.logger.Info("Shutdown signal received, shutting down server")
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

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: list_algorithms
	s.mcpServer.AddTool(mcp.NewTool("list_algorithms",
		mcp.WithDescription("List the algorithms that can be traced, with their parameters."),
		mcp.WithOutputSchema[AlgorithmList](),
	), mcp.NewStructuredToolHandler(s.handleListAlgorithms))

	// TOOL: create_session
	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a session for an algorithm and build its trace. Returns the initial view."),
		mcp.WithString("algorithm", mcp.Required(), mcp.Description("Algorithm slug or synonym, e.g. kmeans")),
		mcp.WithString("seed", mcp.Description("Random seed as a decimal 64-bit integer, e.g. \"42\"; the same seed and params give the same trace")),
		mcp.WithString("params", mcp.Description("JSON object of parameter values (optional)")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreateSession))

	// TOOL: navigate
	s.mcpServer.AddTool(mcp.NewTool("navigate",
		mcp.WithDescription("Move through the trace of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by create_session")),
		mcp.WithString("action", mcp.Required(),
			mcp.Enum("forward", "backward", "goto", "reset", "start", "stop"),
			mcp.Description("Navigation action"),
		),
		mcp.WithNumber("index", mcp.Description("Target step for goto")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleNavigate))

	// TOOL: get_session
	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the current view of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by create_session")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetSession))
}

func (s *Server) handleListAlgorithms(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (AlgorithmList, error) {
	algs := s.engine.Algorithms()
	out := AlgorithmList{Algorithms: make([]AlgorithmInfo, len(algs))}
	for i, a := range algs {
		m := a.Meta()
		out.Algorithms[i] = AlgorithmInfo{Slug: m.Slug, Title: m.Title, ShortDescription: m.ShortDescription, Params: a.Params()}
	}
	return out, nil
}

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest, args createArgs) (SessionResponse, error) {
	var values params.Values
	if args.Params != "" {
		if err := json.Unmarshal([]byte(args.Params), &values); err != nil {
			return SessionResponse{}, fmt.Errorf("params must be a JSON object: %w", err)
		}
	}

	var seed int64
	if args.Seed != "" {
		var err error
		if seed, err = strconv.ParseInt(strings.TrimSpace(args.Seed), 10, 64); err != nil {
			return SessionResponse{}, fmt.Errorf("seed must be a decimal integer: %w", err)
		}
	}

	h, err := s.engine.NewSession(args.Algorithm, values, seed)
	if err != nil {
		return SessionResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, buildTimeout)
	defer cancel()
	h.Session.Start(ctx)
	if err := h.Session.Wait(ctx); err != nil {
		s.logger.Warn("MCP create_session: build failed", "session_id", h.ID, "err", err)
	}
	s.logger.Info("MCP session created", "session_id", h.ID, "algorithm", h.Algorithm)
	return describe(h), nil
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest, args navigateArgs) (SessionResponse, error) {
	var resp SessionResponse
	err := s.engine.WithSession(ctx, args.SessionID, func(ctx context.Context, h session.Handle) error {
		switch args.Action {
		case "forward":
			h.Session.Forward()
		case "backward":
			h.Session.Backward()
		case "reset":
			h.Session.Reset()
		case "stop":
			h.Session.Stop()
		case "start":
			h.Session.Start(context.WithoutCancel(ctx))
			if err := h.Session.Wait(ctx); err != nil && ctx.Err() != nil {
				return err
			}
		case "goto":
			if args.Index == nil {
				return fmt.Errorf("goto requires an index")
			}
			h.Session.Goto(int(*args.Index))
		default:
			return fmt.Errorf("unknown action %q", args.Action)
		}
		resp = describe(h)
		return nil
	})
	if err != nil {
		return SessionResponse{}, fmt.Errorf("navigate failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest, args getArgs) (SessionResponse, error) {
	h, err := s.engine.Session(args.SessionID)
	if err != nil {
		return SessionResponse{}, err
	}
	return describe(h), nil
}

func (s *Server) registerResources() {
	// EXPOSE: mlens://algorithms
	s.mcpServer.AddResource(mcp.NewResource("mlens://algorithms", "Algorithm Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list, _ := s.handleListAlgorithms(ctx, mcp.CallToolRequest{}, nil)
		jsonBytes, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "mlens://algorithms",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func describe(h session.Handle) SessionResponse {
	return SessionResponse{
		SessionID: h.ID,
		Algorithm: h.Algorithm,
		Seed:      h.Session.Seed(),
		Params:    h.Session.Values(),
		View:      h.Session.View(),
	}
}
