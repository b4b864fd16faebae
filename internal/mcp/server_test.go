package mcp

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/demystify/internal/config"
	"github.com/standardbeagle/demystify/testhelpers"
)

func loadPlayerDump(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../dump/testdata/player.trace.yaml")
	require.NoError(t, err)
	return string(data)
}

func callHandler(t *testing.T, handler mcp.ToolHandler, args interface{}) *mcp.CallToolResult {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)

	result, err := handler(context.Background(), &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{
		Arguments: raw,
	}})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestHandleDemystifyTrace(t *testing.T) {
	s := NewServer(config.Default(), nil)
	result := callHandler(t, s.handleDemystifyTrace, map[string]interface{}{
		"dump":   loadPlayerDump(t),
		"frames": true,
	})
	require.False(t, result.IsError, resultText(t, result))

	var resp DemystifyResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Exceptions, 1)

	ex := resp.Exceptions[0]
	assert.Equal(t, "System.InvalidOperationException", ex.Type)
	assert.Contains(t, ex.Text, "  at void Game.Player.Start()+(int)➞ int (at /home/dev/Game/Assets/Player.cs:12)")
	assert.Contains(t, ex.Text, " ---> System.ArgumentException: bad count")

	require.NotEmpty(t, ex.Frames)
	assert.Equal(t, "void Game.Player.Start()+(int)➞ int", ex.Frames[0].Method)
	assert.True(t, ex.Frames[0].Resolved)
	assert.Equal(t, 12, ex.Frames[0].Line)
	assert.Positive(t, resp.Cache.Misses)
	assert.Empty(t, resp.Warnings)
}

func TestHandleDemystifyTrace_Overrides(t *testing.T) {
	s := NewServer(config.Default(), nil)
	result := callHandler(t, s.handleDemystifyTrace, map[string]interface{}{
		"dump":       loadPlayerDump(t),
		"parameters": "none",
		"locations":  false,
		"colour":     "red",
	})
	require.False(t, result.IsError)

	var resp DemystifyResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	require.Len(t, resp.Exceptions, 1)
	assert.NotContains(t, resp.Exceptions[0].Text, "(at ")
	assert.Contains(t, resp.Exceptions[0].Text, "  at object System.Linq.Enumerable.ToList\n")
	assert.Equal(t, []string{`unknown parameter "colour" ignored`}, resp.Warnings)
	assert.Nil(t, resp.Exceptions[0].Frames)
}

func TestHandleDemystifyTrace_Errors(t *testing.T) {
	s := NewServer(config.Default(), nil)

	tests := []struct {
		name     string
		args     map[string]interface{}
		contains string
	}{
		{"missing dump", map[string]interface{}{}, "dump is required"},
		{"bad mode", map[string]interface{}{"dump": "exceptions: []", "parameters": "verbose"}, "verbose"},
		{"malformed dump", map[string]interface{}{"dump": "types: ["}, "dump"},
		{
			"dangling references",
			map[string]interface{}{"dump": "methods:\n  - {id: a, name: A, declaring_type: X}\n  - {id: b, name: B, declaring_type: Y}\n"},
			"unknown type",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := callHandler(t, s.handleDemystifyTrace, tc.args)
			assert.True(t, result.IsError)

			var data map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &data))
			assert.Equal(t, false, data["success"])
			assert.Equal(t, "demystify_trace", data["operation"])
			assert.Contains(t, data["error"], tc.contains)
		})
	}

	t.Run("every invalid field is listed", func(t *testing.T) {
		result := callHandler(t, s.handleDemystifyTrace, tests[3].args)
		var data map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &data))
		assert.Len(t, data["errors"], 2)
	})
}

func TestHandleParseGeneratedName(t *testing.T) {
	s := NewServer(nil, nil)

	t.Run("names", func(t *testing.T) {
		result := callHandler(t, s.handleParseGeneratedName, map[string]interface{}{
			"name":  "<Run>b__3_1",
			"names": []string{"<Outer>g__Inner|0_1", "Update"},
		})
		require.False(t, result.IsError)

		var resp ParseNameResponse
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
		require.Len(t, resp.Names, 3)
		assert.Equal(t, "<Run>b__3_1", resp.Names[0].Name)
		assert.Equal(t, "lambda_method", resp.Names[0].Kind)
		assert.Equal(t, "Inner", resp.Names[1].SubName)
		assert.False(t, resp.Names[2].Generated)
	})

	t.Run("kind filter", func(t *testing.T) {
		result := callHandler(t, s.handleParseGeneratedName, map[string]interface{}{
			"names": []string{"<Run>b__3_1", "<Outer>g__Inner|0_1", "<Load>d__4"},
			"kind":  "local",
		})
		var resp ParseNameResponse
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
		assert.Equal(t, "local_function", resp.Kind)
		require.Len(t, resp.Names, 1)
		assert.Equal(t, "<Outer>g__Inner|0_1", resp.Names[0].Name)
	})

	t.Run("fuzzy kind warns", func(t *testing.T) {
		result := callHandler(t, s.handleParseGeneratedName, map[string]interface{}{
			"names": []string{"<Run>b__3_1"},
			"kind":  "lambda_methd",
		})
		var resp ParseNameResponse
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
		assert.Len(t, resp.Names, 1)
		require.Len(t, resp.Warnings, 1)
		assert.Contains(t, resp.Warnings[0], "lambda_method")
	})

	t.Run("errors", func(t *testing.T) {
		assert.True(t, callHandler(t, s.handleParseGeneratedName, map[string]interface{}{}).IsError)
		assert.True(t, callHandler(t, s.handleParseGeneratedName, map[string]interface{}{
			"names": []string{"x"},
			"kind":  "qqqqqqqqqqqq",
		}).IsError)
	})
}

func TestWrap_RecoversPanics(t *testing.T) {
	s := NewServer(nil, nil)
	handler := s.wrap("boom", func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		panic("type table corrupted")
	})

	result := callHandler(t, handler, map[string]interface{}{})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "type table corrupted")
}

func TestServer_InMemorySession(t *testing.T) {
	defer testhelpers.LeakCheck(t)()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := NewServer(config.Default(), nil)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.Connect(ctx, serverTransport)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "demystify-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"demystify_trace", "parse_generated_name", "info"}, names)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "demystify_trace",
		Arguments: map[string]interface{}{"dump": loadPlayerDump(t)},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "System.InvalidOperationException")

	require.NoError(t, session.Close())
	_ = serverSession.Wait()
}
