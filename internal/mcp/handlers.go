package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/demystify/internal/cache"
	"github.com/standardbeagle/demystify/internal/dump"
	"github.com/standardbeagle/demystify/internal/metadata"
	"github.com/standardbeagle/demystify/internal/naming"
	"github.com/standardbeagle/demystify/internal/render"
	"github.com/standardbeagle/demystify/internal/trace"
	"github.com/standardbeagle/demystify/internal/version"
)

// FrameResult is one visible frame of a demystified trace
type FrameResult struct {
	Method   string `json:"method"`
	Resolved bool   `json:"resolved"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// ExceptionResult is one demystified top-level exception
type ExceptionResult struct {
	Type    string        `json:"type"`
	Message string        `json:"message,omitempty"`
	Text    string        `json:"text"`
	Frames  []FrameResult `json:"frames,omitempty"`
}

// DemystifyResponse is the result of demystify_trace
type DemystifyResponse struct {
	Success    bool              `json:"success"`
	Exceptions []ExceptionResult `json:"exceptions"`
	Cache      cache.Stats       `json:"cache"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// ParseNameResponse is the result of parse_generated_name
type ParseNameResponse struct {
	Success  bool                 `json:"success"`
	Kind     string               `json:"kind,omitempty"`
	Names    []naming.Description `json:"names"`
	Warnings []string             `json:"warnings,omitempty"`
}

func (s *Server) handleDemystifyTrace(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params DemystifyParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("demystify_trace", fmt.Errorf("invalid parameters: %w", err))
	}
	if strings.TrimSpace(params.Dump) == "" {
		return createErrorResponse("demystify_trace", errors.New("dump is required: a YAML or JSON trace dump document"))
	}

	cfg, err := s.traceConfig(params)
	if err != nil {
		return createErrorResponse("demystify_trace", err)
	}

	d, err := dump.Parse([]byte(params.Dump), "dump")
	if err != nil {
		return createErrorResponse("demystify_trace", err)
	}

	dm := trace.New(d.Store, cfg)
	resp := &DemystifyResponse{
		Success:    true,
		Exceptions: make([]ExceptionResult, 0, len(d.Exceptions)),
		Warnings:   warningMessages(params.Warnings),
	}
	for _, ex := range d.Exceptions {
		result := ExceptionResult{
			Type:    ex.TypeName,
			Message: ex.Message,
			Text:    dm.Demystify(ex),
		}
		if params.Frames {
			result.Frames = frameResults(dm, ex.Trace)
		}
		resp.Exceptions = append(resp.Exceptions, result)
	}
	resp.Cache = dm.Stats()

	s.diagnosticLogger.Printf("demystify_trace: %d exception(s), cache %d hits / %d misses",
		len(resp.Exceptions), resp.Cache.Hits, resp.Cache.Misses)
	return createJSONResponse(resp)
}

// traceConfig applies per-call rendering overrides to the server configuration
func (s *Server) traceConfig(params DemystifyParams) (trace.Config, error) {
	cfg := s.cfg.Demystifier()
	if params.Parameters != "" {
		mode, err := render.ParseParameterMode(params.Parameters)
		if err != nil {
			return cfg, err
		}
		cfg.Render.Parameters = mode
	}
	if params.Markers != nil {
		cfg.Render.Markers = *params.Markers
	}
	if params.Locations != nil {
		cfg.Render.Locations = *params.Locations
	}
	return cfg, nil
}

func frameResults(dm *trace.Demystifier, t metadata.Trace) []FrameResult {
	lines := dm.Lines(t)
	out := make([]FrameResult, len(lines))
	for i, line := range lines {
		fr := FrameResult{File: line.Frame.File, Line: line.Frame.Line}
		if line.Method == nil {
			fr.Method = line.Frame.Raw
		} else {
			fr.Method = dm.Renderer().Method(line.Method)
			fr.Resolved = line.Method.Resolved()
		}
		out[i] = fr
	}
	return out
}

func (s *Server) handleParseGeneratedName(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ParseNameParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("parse_generated_name", fmt.Errorf("invalid parameters: %w", err))
	}
	if len(params.Names) == 0 {
		return createErrorResponse("parse_generated_name", errors.New("names is required, e.g. {\"names\": [\"<Run>b__3_1\"]}"))
	}

	var extra []string
	filter := naming.None
	if params.Kind != "" {
		res := s.kinds.Resolve(params.Kind)
		if !res.Resolved {
			return createErrorResponse("parse_generated_name", errors.New(res.Warning))
		}
		filter = res.Kind
		if res.Warning != "" {
			extra = append(extra, res.Warning)
		}
	}

	resp := &ParseNameResponse{Success: true, Names: make([]naming.Description, 0, len(params.Names))}
	if filter != naming.None {
		resp.Kind = filter.String()
	}
	for _, name := range params.Names {
		d := naming.Describe(name)
		if filter != naming.None && d.Kind != filter.String() {
			continue
		}
		resp.Names = append(resp.Names, d)
	}
	resp.Warnings = warningMessages(params.Warnings, extra...)
	return createJSONResponse(resp)
}

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := s.cfg.Demystifier()
	return createJSONResponse(map[string]interface{}{
		"server_name":    serverName,
		"server_version": version.FullInfo(),
		"go_version":     runtime.Version(),
		"platform":       runtime.GOOS + "/" + runtime.GOARCH,
		"tools":          []string{"demystify_trace", "parse_generated_name", "info"},
		"defaults": map[string]interface{}{
			"parameters":          cfg.Render.Parameters.String(),
			"markers":             cfg.Render.Markers,
			"locations":           cfg.Render.Locations,
			"max_depth":           cfg.Resolver.MaxDepth,
			"max_exception_depth": cfg.MaxExceptionDepth,
			"collapse":            cfg.Frames.CollapsePrefixes,
		},
	})
}
