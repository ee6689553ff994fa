package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scriptura/bible-mcp-server/internal/tools"
)

type stubToolset struct {
	name string
	fn   func(args map[string]interface{}) (string, error)
}

func (s *stubToolset) Tool() tools.Tool {
	return tools.Tool{
		Name:        s.name,
		Description: "stub",
		InputSchema: map[string]interface{}{"type": "object"},
	}
}

func (s *stubToolset) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	return s.fn(args)
}

func newTestHandler(sets ...tools.Toolset) *Handler {
	if len(sets) == 0 {
		sets = []tools.Toolset{
			&stubToolset{name: "bible_content", fn: func(map[string]interface{}) (string, error) { return "ok", nil }},
			&stubToolset{name: "bible_reference", fn: func(map[string]interface{}) (string, error) { return "ok", nil }},
		}
	}
	return NewHandler(tools.NewRegistry(sets...), ServerInfo{Name: "bible-mcp-server", Version: "test"}, zap.NewNop())
}

func handle(t *testing.T, h *Handler, raw string) *JSONRPCResponse {
	t.Helper()
	resp := h.HandleMessage(context.Background(), []byte(raw))
	require.NotNil(t, resp)
	assert.Equal(t, "2.0", resp.JSONRPC)
	return resp
}

func TestHandler_ParseError(t *testing.T) {
	resp := handle(t, newTestHandler(), `{not json`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ParseError, resp.Error.Code)
}

func TestHandler_InvalidVersionRejected(t *testing.T) {
	resp := handle(t, newTestHandler(), `{"jsonrpc":"1.0","id":1,"method":"tools/list"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, InvalidRequest, resp.Error.Code)
}

func TestHandler_MissingVersionDefaulted(t *testing.T) {
	resp := handle(t, newTestHandler(), `{"id":1,"method":"tools/list"}`)
	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)
}

func TestHandler_MissingMethod(t *testing.T) {
	resp := handle(t, newTestHandler(), `{"jsonrpc":"2.0","id":1}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, InvalidRequest, resp.Error.Code)
}

func TestHandler_UnknownMethod(t *testing.T) {
	resp := handle(t, newTestHandler(), `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, MethodNotFound, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "resources/list")
}

func TestHandler_Initialize(t *testing.T) {
	resp := handle(t, newTestHandler(), `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"whatever"}}`)
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(InitializeResult)
	require.True(t, ok)
	assert.Equal(t, ProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, "bible-mcp-server", result.ServerInfo.Name)
	assert.NotNil(t, result.Capabilities.Tools)
}

func TestHandler_ToolsListIsStable(t *testing.T) {
	h := newTestHandler()

	first := handle(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	second := handle(t, h, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)

	firstResult := first.Result.(ToolsListResult)
	secondResult := second.Result.(ToolsListResult)
	require.Len(t, firstResult.Tools, 2)
	assert.Equal(t, firstResult.Tools, secondResult.Tools)
	assert.Equal(t, "bible_content", firstResult.Tools[0].Name)
	assert.Equal(t, "bible_reference", firstResult.Tools[1].Name)
}

func TestHandler_ToolsCallMissingName(t *testing.T) {
	resp := handle(t, newTestHandler(), `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"arguments":{}}}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, InvalidParams, resp.Error.Code)
}

func TestHandler_ToolsCallUnknownTool(t *testing.T) {
	resp := handle(t, newTestHandler(), `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"bible_trivia"}}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, MethodNotFound, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "bible_trivia")
}

func TestHandler_ToolsCallSuccess(t *testing.T) {
	var gotArgs map[string]interface{}
	h := newTestHandler(&stubToolset{name: "bible_content", fn: func(args map[string]interface{}) (string, error) {
		gotArgs = args
		return "Genesis 1:1\nIn the beginning", nil
	}})

	resp := handle(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"bible_content","arguments":{"action":"verse","verse_id":"GEN.1.1"}}}`)
	require.Nil(t, resp.Error)

	result := resp.Result.(ToolCallResult)
	require.Len(t, result.Content, 1)
	assert.False(t, result.IsError)
	assert.Equal(t, "text", result.Content[0].Type)
	assert.Equal(t, "Genesis 1:1\nIn the beginning", result.Content[0].Text)
	assert.Equal(t, "verse", gotArgs["action"])
}

func TestHandler_ToolsCallArgumentsDefaultToEmpty(t *testing.T) {
	var gotArgs map[string]interface{}
	h := newTestHandler(&stubToolset{name: "bible_content", fn: func(args map[string]interface{}) (string, error) {
		gotArgs = args
		return "ok", nil
	}})

	resp := handle(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"bible_content"}}`)
	require.Nil(t, resp.Error)
	require.NotNil(t, gotArgs)
	assert.Empty(t, gotArgs)
}

func TestHandler_ToolErrorBecomesIsErrorResult(t *testing.T) {
	h := newTestHandler(&stubToolset{name: "bible_content", fn: func(map[string]interface{}) (string, error) {
		return "", assert.AnError
	}})

	resp := handle(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"bible_content"}}`)
	require.Nil(t, resp.Error, "tool failures must not surface as protocol errors")

	result := resp.Result.(ToolCallResult)
	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Contains(t, result.Content[0].Text, "Error: ")
}

func TestHandler_PanicBecomesInternalError(t *testing.T) {
	h := newTestHandler(&stubToolset{name: "bible_content", fn: func(map[string]interface{}) (string, error) {
		panic("boom")
	}})

	resp := handle(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"bible_content"}}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, InternalError, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "boom")
}

func TestHandler_IDEchoedVerbatim(t *testing.T) {
	h := newTestHandler()

	cases := []struct {
		raw  string
		want string
	}{
		{`{"jsonrpc":"2.0","id":7,"method":"tools/list"}`, `7`},
		{`{"jsonrpc":"2.0","id":"abc","method":"tools/list"}`, `"abc"`},
		{`{"jsonrpc":"2.0","id":null,"method":"tools/list"}`, `null`},
	}
	for _, tc := range cases {
		resp := handle(t, h, tc.raw)
		assert.Equal(t, tc.want, string(resp.ID))
	}

	// Absent id still yields a response, with no id echoed.
	resp := handle(t, h, `{"jsonrpc":"2.0","method":"tools/list"}`)
	assert.Nil(t, resp.Error)
	assert.Empty(t, resp.ID)
}

func TestHandler_ResponseSerializesCleanly(t *testing.T) {
	h := newTestHandler()
	resp := handle(t, h, `{"jsonrpc":"2.0","id":null,"method":"tools/list"}`)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":null`)
	assert.NotContains(t, string(data), `"error"`)
}
