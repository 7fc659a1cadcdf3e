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

	"github.com/aretw0/flowplan"
	"github.com/aretw0/flowplan/internal/logging"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/options"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// OptionsURI is the resource describing the default option tags.
const OptionsURI = "flowplan://options/defaults"

// Service is the part of flowplan.Service the MCP server needs.
type Service interface {
	Validate(flow *domain.FlowDefinition) flowplan.ValidationResult
	Compile(flow *domain.FlowDefinition, set options.Set, lookahead int) (*flowplan.Compilation, error)
	Plan(ctx context.Context, req flowplan.PlanRequest) (*flowplan.PlanResult, error)
}

// FlowArgs are the arguments shared by every tool.
type FlowArgs struct {
	Flow         string `json:"flow"`
	Format       string `json:"format,omitempty"`
	Options      string `json:"options,omitempty"`
	Lookahead    int    `json:"lookahead,omitempty"`
	CollapseMaps bool   `json:"collapse_maps,omitempty"`
}

// ValidateResponse is the structured result of validate_flow.
type ValidateResponse struct {
	Valid  bool             `json:"valid" jsonschema_description:"True when every check passed"`
	Checks []flowplan.Check `json:"checks" jsonschema_description:"Outcome of each validation check"`
}

// CompileResponse is the structured result of compile_flow.
type CompileResponse struct {
	Domain  string `json:"domain" jsonschema_description:"PDDL domain text"`
	Problem string `json:"problem" jsonschema_description:"PDDL problem text"`
}

// Server wraps the flowplan Service and exposes it as an MCP Server.
type Server struct {
	service   Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(service Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		service:   service,
		logger:    logger,
		mcpServer: server.NewMCPServer("flowplan-mcp", strings.TrimSpace(flowplan.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE, until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func flowParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("flow", mcp.Required(), mcp.Description("Flow document (JSON or YAML)")),
		mcp.WithString("format", mcp.Description("Document format: json (default) or yaml"), mcp.Enum("json", "yaml")),
		mcp.WithString("options", mcp.Description(`JSON object of option tags, e.g. {"slot": ["eventual", "last_resort"], "goal": "or-and"}`)),
		mcp.WithNumber("lookahead", mcp.Description("Placeholder objects per type (default 0)")),
	}
}

func (s *Server) registerTools() {
	// TOOL: validate_flow
	validateTool := mcp.NewTool("validate_flow", append(flowParams(),
		mcp.WithDescription("Run the validation checks on a flow and report each outcome."),
		mcp.WithOutputSchema[ValidateResponse](),
	)...)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: compile_flow
	compileTool := mcp.NewTool("compile_flow", append(flowParams(),
		mcp.WithDescription("Compile a flow into a PDDL domain and problem."),
		mcp.WithOutputSchema[CompileResponse](),
	)...)
	s.mcpServer.AddTool(compileTool, mcp.NewStructuredToolHandler(s.handleCompile))

	// TOOL: plan_flow
	planTool := mcp.NewTool("plan_flow", append(flowParams(),
		mcp.WithDescription("Compile a flow, solve it with the configured planner and return the plan in flow terms."),
		mcp.WithBoolean("collapse_maps", mcp.Description("Fold map steps into the inputs of later steps")),
	)...)
	s.mcpServer.AddTool(planTool, mcp.NewStructuredToolHandler(s.handlePlan))
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(OptionsURI, "Default compilation options",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(options.Defaults().Tags())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      OptionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) parse(args FlowArgs) (*domain.FlowDefinition, options.Set, error) {
	format := args.Format
	if format == "" {
		format = "json"
	}
	flow, err := domain.ParseFlowDocument([]byte(args.Flow), format)
	if err != nil {
		return nil, options.Set{}, err
	}

	var tags options.Tags
	if args.Options != "" {
		if err := json.Unmarshal([]byte(args.Options), &tags); err != nil {
			return nil, options.Set{}, fmt.Errorf("invalid options: %w", err)
		}
	}
	set, err := tags.Parse()
	if err != nil {
		return nil, options.Set{}, err
	}
	return flow, set, nil
}

// Handler methods for structured tools

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args FlowArgs) (ValidateResponse, error) {
	flow, _, err := s.parse(args)
	if err != nil {
		return ValidateResponse{}, err
	}
	res := s.service.Validate(flow)
	return ValidateResponse{Valid: res.Valid(), Checks: res.Checks}, nil
}

func (s *Server) handleCompile(ctx context.Context, request mcp.CallToolRequest, args FlowArgs) (CompileResponse, error) {
	flow, set, err := s.parse(args)
	if err != nil {
		return CompileResponse{}, err
	}
	comp, err := s.service.Compile(flow, set, args.Lookahead)
	if err != nil {
		return CompileResponse{}, fmt.Errorf("compile failed: %w", err)
	}
	return CompileResponse{Domain: comp.PDDL.Domain, Problem: comp.PDDL.Problem}, nil
}

func (s *Server) handlePlan(ctx context.Context, request mcp.CallToolRequest, args FlowArgs) (*flowplan.PlanResult, error) {
	flow, set, err := s.parse(args)
	if err != nil {
		return nil, err
	}
	res, err := s.service.Plan(ctx, flowplan.PlanRequest{
		Flow:         flow,
		Options:      set,
		Lookahead:    args.Lookahead,
		CollapseMaps: args.CollapseMaps,
	})
	if err != nil {
		s.logger.Warn("plan_flow failed", "flow", flow.Name, "err", err)
		return nil, fmt.Errorf("plan failed: %w", err)
	}
	return res, nil
}
