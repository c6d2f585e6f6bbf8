package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/icarus-sh/icarus-bridge/internal/canister"
	"github.com/icarus-sh/icarus-bridge/internal/parammapper"
	"github.com/icarus-sh/icarus-bridge/pkg/wiretypes"
)

// handle dispatches one parsed request to its method handler. A nil return
// means the request was a notification and no response should be written.
func (s *Server) handle(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		if req.isNotification() {
			return nil
		}
		return errorResponse(CodeMethodNotFound, "method not found: "+req.Method)
	}
}

// handleInitialize transitions Uninitialized -> Initialized and returns
// the fixed server_info block of spec §6.
func (s *Server) handleInitialize(req *Request) *Response {
	s.state.Store(int32(stateInitialized))

	result := InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo: ServerInfo{
			Name:       s.Info.Name,
			Version:    s.Info.Version,
			Title:      s.Info.Title,
			WebsiteURL: s.Info.WebsiteURL,
		},
		Capabilities: Capabilities{Tools: ToolsCapability{Enabled: true}},
		Instructions: s.Instructions,
	}
	return &Response{Result: result}
}

// requireInitialized rejects tools/* requests received before initialize,
// per spec §4.5 "The server rejects tools/* requests received in
// Uninitialized."
func (s *Server) requireInitialized() *Response {
	if state(s.state.Load()) != stateInitialized {
		return errorResponse(CodeInvalidRequest, "server not initialized")
	}
	return nil
}

// handleToolsList projects the cached catalog into MCP tool objects,
// preserving the canister's declared order (spec §4.4).
func (s *Server) handleToolsList(req *Request) *Response {
	if resp := s.requireInitialized(); resp != nil {
		return resp
	}

	tools := s.Catalog.List()
	out := make([]ToolDefinition, len(tools))
	for i, t := range tools {
		out[i] = ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
			Title:       t.Title,
			Icon:        t.Icon,
		}
	}
	return &Response{Result: ToolsListResult{Tools: out}}
}

// handleToolsCall runs the full call pipeline of spec §2: identity
// freshness, catalog lookup, argument encoding, CRPC dispatch, decode, and
// envelope. Every failure along the way is reported as a successful
// JSON-RPC response carrying is_error: true (spec §7 "Propagation") —
// the only JSON-RPC-level errors this method returns are protocol
// violations (bad params, uninitialized session).
func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	if resp := s.requireInitialized(); resp != nil {
		return resp
	}

	var params ToolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(CodeInvalidParams, "invalid tools/call params: "+err.Error())
	}

	correlationID := uuid.New().String()
	logger := slog.With("correlation_id", correlationID, "tool", params.Name)

	if err := s.Watcher.EnsureFresh(ctx); err != nil {
		logger.Error("identity switch failed", "error", err)
		return &Response{Result: errorResult("identity switch failed: " + err.Error())}
	}

	tool, ok := s.Catalog.Lookup(params.Name)
	if !ok {
		logger.Warn("tool not available")
		return &Response{Result: errorResult("tool not available: " + params.Name)}
	}

	arguments := params.Arguments
	if arguments == nil {
		arguments = map[string]any{}
	}
	mode, arguments := extractStreamMode(arguments)

	start := time.Now()

	encoded, err := parammapper.Encode(tool.Convention, arguments, s.Debug)
	if err != nil {
		logger.Warn("argument encode failed", "error", err)
		return &Response{Result: errorResult(err.Error())}
	}

	reply, err := s.Client.Update(ctx, params.Name, encoded)
	if err != nil {
		logger.Warn("CRPC call failed", "error", err)
		return &Response{Result: errorResult(err.Error())}
	}

	value, err := canister.Decode(reply)
	if err != nil {
		logger.Warn("decode failed", "error", err)
		return &Response{Result: errorResult(err.Error())}
	}

	payload, isErr, errMessage := canister.UnwrapResult(value)
	result := buildResult(payload, isErr, errMessage)
	elapsed := time.Since(start)

	logger.Debug("tool call completed", "elapsed_ms", elapsed.Milliseconds(), "is_error", result.IsError)

	return &Response{Result: s.applyStreamMode(mode, result, elapsed)}
}

// errorResult builds the standard-mode is_error:true result body for a
// pipeline failure (identity-switch, invocation, encode, transport, or
// decode failures) and for a canister reply carrying an Err envelope.
func errorResult(message string) ToolsCallResult {
	return ToolsCallResult{
		Content:           []Content{{Type: "text", Text: message}},
		StructuredContent: map[string]any{"success": false, "error": message},
		IsError:           true,
	}
}

// buildResult renders the decoded canister reply as the standard-mode
// result body, applying the Ok/Err unwrap (spec §4.2) and the "success:
// false" is_error convention (spec §4.5).
func buildResult(payload any, isErr bool, errMessage string) ToolsCallResult {
	if isErr {
		return errorResult(errMessage)
	}

	result := ToolsCallResult{
		Content:           []Content{{Type: "text", Text: renderText(payload)}},
		StructuredContent: payload,
	}
	if m, ok := payload.(map[string]any); ok {
		if success, present := m["success"]; present {
			if b, ok := success.(bool); ok && !b {
				result.IsError = true
			}
		}
	}
	return result
}

func renderText(payload any) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// streamMode identifies which arguments._stream variant, if any, a call
// requested (spec §4.5).
type streamMode int

const (
	streamNone streamMode = iota
	streamChunked
	streamProgress
)

// extractStreamMode pulls the reserved _stream key out of arguments,
// returning the requested mode and a copy of arguments with the key
// stripped before it reaches argument encoding.
func extractStreamMode(arguments map[string]any) (streamMode, map[string]any) {
	out := make(map[string]any, len(arguments))
	mode := streamNone
	for k, v := range arguments {
		if k == wiretypes.StreamArgKey {
			switch t := v.(type) {
			case bool:
				if t {
					mode = streamChunked
				}
			case string:
				if t == wiretypes.StreamProgress {
					mode = streamProgress
				}
			}
			continue
		}
		out[k] = v
	}
	return mode, out
}

func errorResponse(code int, message string) *Response {
	return &Response{Error: &Error{Code: code, Message: message}}
}
