package mcpserver

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/icarus-sh/icarus-bridge/pkg/wiretypes"
)

// chunkThreshold is the fixed size (in runes of the rendered reply text)
// above which _stream: true switches from standard mode to chunked
// synthesis, per spec §4.5.
const chunkThreshold = 1024

// progressSteps is the synthetic step log for _stream: "progress". It is
// purely informational (spec §4.5: "real progress hooks into the CRPC
// call are not required") and identical across calls.
var progressSteps = []string{
	"[0%] Validating arguments",
	"[20%] Dispatching call",
	"[60%] Awaiting canister reply",
	"[83%] Formatting result",
	"[100%] Done",
}

// applyStreamMode wraps result in the requested streaming envelope, or
// returns it unwrapped for streamNone.
func (s *Server) applyStreamMode(mode streamMode, result ToolsCallResult, elapsed time.Duration) any {
	switch mode {
	case streamChunked:
		return applyChunking(result)
	case streamProgress:
		return applyProgress(result, elapsed)
	default:
		return result
	}
}

// applyChunking implements spec §4.5's basic chunker: if the rendered
// reply text exceeds chunkThreshold runes, it is split on rune boundaries
// (never mid-UTF-8-sequence — see DESIGN.md) into a metadata envelope.
// Below the threshold, the call is a no-op: result is returned unwrapped,
// matching "If the post-call reply exceeds a fixed threshold".
func applyChunking(result ToolsCallResult) any {
	text := result.renderedText()
	runes := []rune(text)
	if len(runes) <= chunkThreshold {
		return result
	}

	var chunks []string
	for i := 0; i < len(runes); i += chunkThreshold {
		end := i + chunkThreshold
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}

	prefixed := make([]string, len(chunks))
	for i, c := range chunks {
		prefixed[i] = fmt.Sprintf("[CHUNK %d/%d] %s", i+1, len(chunks), c)
	}

	return map[string]any{
		"streaming":       wiretypes.StreamingChunked,
		"total_chunks":    len(chunks),
		"total_size":      len(runes),
		"chunk_size":      chunkThreshold,
		"data":            prefixed,
		"original_result": result,
	}
}

// applyProgress wraps result in the synthetic progress-step envelope of
// spec §4.5.
func applyProgress(result ToolsCallResult, elapsed time.Duration) any {
	return map[string]any{
		"streaming":          wiretypes.StreamingProgress,
		"execution_time_ms":  elapsed.Milliseconds(),
		"progress_steps":     progressSteps,
		"result":             result,
	}
}

// renderedText returns the text of the result's first content block, the
// value chunking splits on.
func (r ToolsCallResult) renderedText() string {
	if len(r.Content) == 0 {
		return ""
	}
	if r.Content[0].Text != "" {
		return r.Content[0].Text
	}
	raw, err := json.Marshal(r.StructuredContent)
	if err != nil {
		return ""
	}
	return string(raw)
}

// dechunk reassembles chunked data by stripping "[CHUNK i/n] " prefixes
// and concatenating, the inverse spec §8 requires ("concatenating chunks
// ... yields the original string"). Exercised by tests, not by the
// server itself — the server only produces chunks, it never consumes
// them.
func dechunk(chunks []string) string {
	var b strings.Builder
	for _, c := range chunks {
		idx := strings.Index(c, "] ")
		if strings.HasPrefix(c, "[CHUNK") && idx >= 0 {
			b.WriteString(c[idx+2:])
			continue
		}
		b.WriteString(c)
	}
	return b.String()
}
