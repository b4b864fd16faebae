// Package mcp serves demystification to agents over the Model Context Protocol.
package mcp

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/demystify/internal/config"
	"github.com/standardbeagle/demystify/internal/naming"
	"github.com/standardbeagle/demystify/internal/version"
)

const serverName = "demystify-mcp-server"

// Server wraps an MCP server exposing the demystify tools
type Server struct {
	server           *mcp.Server
	cfg              *config.Config
	kinds            *naming.KindResolver
	diagnosticLogger *DiagnosticLogger
}

// NewServer creates a server rendering with cfg. A nil logger discards
// diagnostics.
func NewServer(cfg *config.Config, logger *DiagnosticLogger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = NoOpLogger
	}

	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: version.Info(),
		}, nil),
		cfg:              cfg,
		kinds:            naming.NewKindResolver(),
		diagnosticLogger: logger,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "demystify_trace",
		Description: "Render exceptions from a trace dump as readable stack traces: compiler-generated lambdas, local functions, iterators and async state machines are mapped back to the methods that declare them, and framework frames are collapsed.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"dump": {
					Type:        "string",
					Description: "Trace dump document (YAML or JSON) with types, methods and exceptions",
				},
				"parameters": {
					Type:        "string",
					Enum:        []any{"types", "full", "short", "none"},
					Description: "Parameter rendering mode (default from server configuration)",
				},
				"markers": {
					Type:        "boolean",
					Description: "Wrap return types and parameter lists in ‹ › markers",
				},
				"locations": {
					Type:        "boolean",
					Description: "Append (at file:line) to frames with a source location",
				},
				"frames": {
					Type:        "boolean",
					Description: "Also return each visible frame of the top-level exceptions as structured data",
				},
			},
			Required: []string{"dump"},
		},
	}, s.wrap("demystify_trace", s.handleDemystifyTrace))

	s.server.AddTool(&mcp.Tool{
		Name:        "parse_generated_name",
		Description: "Decode compiler-generated member names such as <Run>b__3_1 or <Outer>g__Inner|0_1 into kind, enclosing method and sub-name.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"names": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Member names to decode",
				},
				"name": {
					Type:        "string",
					Description: "Single member name to decode",
				},
				"kind": {
					Type:        "string",
					Description: "Only report names of this kind (e.g. lambda, local, state_machine, or a tag character such as 'b')",
				},
			},
		},
	}, s.wrap("parse_generated_name", s.handleParseGeneratedName))

	s.server.AddTool(&mcp.Tool{
		Name:        "info",
		Description: "Server version and default rendering configuration",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.wrap("info", s.handleInfo))
}

// wrap recovers from panics in a tool handler and reports them as tool errors
func (s *Server) wrap(operation string, handler mcp.ToolHandler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				s.diagnosticLogger.Printf("PANIC RECOVERED in %s: %v\n%s", operation, r, debug.Stack())
				result, err = createErrorResponse(operation, fmt.Errorf("internal error: %v", r))
			}
		}()
		return handler(ctx, req)
	}
}

// Start serves over stdio until ctx is cancelled or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	s.diagnosticLogger.Printf("Starting MCP server with stdio transport")
	return s.Run(ctx, &mcp.StdioTransport{})
}

// Run serves over an arbitrary transport
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// Connect serves a single session over transport without blocking
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

// Shutdown releases the diagnostic log
func (s *Server) Shutdown() error {
	s.diagnosticLogger.Printf("MCP server shutdown complete")
	return s.diagnosticLogger.Close()
}
