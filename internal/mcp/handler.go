package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/scriptura/bible-mcp-server/internal/tools"
)

// Handler processes JSON-RPC messages against the tool registry. It is
// the single entry point for every transport: one decoded envelope in,
// exactly one response out.
type Handler struct {
	registry *tools.Registry
	info     ServerInfo
	logger   *zap.Logger
}

func NewHandler(registry *tools.Registry, info ServerInfo, logger *zap.Logger) *Handler {
	return &Handler{registry: registry, info: info, logger: logger}
}

// HandleMessage processes a JSON-RPC request and returns a response.
// Protocol failures become coded errors; tool failures become isError
// tool results. Neither escapes as a Go error.
func (h *Handler) HandleMessage(ctx context.Context, raw []byte) *JSONRPCResponse {
	var req JSONRPCRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse(nil, ParseError, "Parse error")
	}

	// Lenient accept: a missing jsonrpc tag is defaulted, a mismatched
	// one is rejected. Responses always carry the supported version.
	if req.JSONRPC != "" && req.JSONRPC != "2.0" {
		return errorResponse(req.ID, InvalidRequest, "Invalid JSON-RPC version")
	}
	if req.Method == "" {
		return errorResponse(req.ID, InvalidRequest, "Missing method")
	}

	switch req.Method {
	case "initialize":
		return h.handleInitialize(req)
	case "tools/list":
		return h.handleToolsList(req)
	case "tools/call":
		return h.handleToolsCall(ctx, req)
	default:
		return errorResponse(req.ID, MethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func (h *Handler) handleInitialize(req JSONRPCRequest) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities: Capabilities{
				Tools: &ToolsCapability{},
			},
			ServerInfo: h.info,
		},
	}
}

func (h *Handler) handleToolsList(req JSONRPCRequest) *JSONRPCResponse {
	ts := h.registry.Tools()
	defs := make([]ToolDef, len(ts))
	for i, t := range ts {
		defs[i] = ToolDef{
			Name:        t.Name,
			Title:       t.Title,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}
	}
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  ToolsListResult{Tools: defs},
	}
}

func (h *Handler) handleToolsCall(ctx context.Context, req JSONRPCRequest) (resp *JSONRPCResponse) {
	var params ToolCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, InvalidParams, "Invalid tool call params")
		}
	}
	if params.Name == "" {
		return errorResponse(req.ID, InvalidParams, "Missing tool name")
	}
	if params.Arguments == nil {
		params.Arguments = map[string]interface{}{}
	}

	toolset, ok := h.registry.Get(params.Name)
	if !ok {
		return errorResponse(req.ID, MethodNotFound, fmt.Sprintf("Unknown tool: %s", params.Name))
	}

	// A panicking handler must surface as a JSON-RPC internal error, not
	// kill the transport.
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("tool call panicked",
				zap.String("tool", params.Name),
				zap.Any("panic", r))
			resp = errorResponse(req.ID, InternalError, fmt.Sprintf("Internal error: %v", r))
		}
	}()

	text, err := toolset.Call(ctx, params.Arguments)
	if err != nil {
		h.logger.Debug("tool call failed",
			zap.String("tool", params.Name),
			zap.Error(err))
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: ToolCallResult{
				Content: []ContentBlock{{Type: "text", Text: "Error: " + err.Error()}},
				IsError: true,
			},
		}
	}

	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: ToolCallResult{
			Content: []ContentBlock{{Type: "text", Text: text}},
		},
	}
}

func errorResponse(id json.RawMessage, code int, message string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	}
}
