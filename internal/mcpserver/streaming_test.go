package mcpserver

import (
	"strings"
	"testing"
	"time"
)

func TestApplyChunkingBelowThresholdIsNoOp(t *testing.T) {
	t.Parallel()

	result := ToolsCallResult{Content: []Content{{Type: "text", Text: "short reply"}}}
	got := applyChunking(result)
	if r, ok := got.(ToolsCallResult); !ok || r.Content[0].Text != "short reply" {
		t.Errorf("applyChunking() = %+v, want unwrapped result below threshold", got)
	}
}

func TestApplyChunkingAboveThresholdRoundTrips(t *testing.T) {
	t.Parallel()

	original := strings.Repeat("a", chunkThreshold*3+17)
	result := ToolsCallResult{Content: []Content{{Type: "text", Text: original}}}

	got := applyChunking(result)
	envelope, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("applyChunking() = %T, want map envelope above threshold", got)
	}
	if envelope["streaming"] != "chunked" {
		t.Errorf("streaming = %v, want chunked", envelope["streaming"])
	}

	chunks, ok := envelope["data"].([]string)
	if !ok {
		t.Fatalf("data = %T, want []string", envelope["data"])
	}
	if dechunk(chunks) != original {
		t.Error("dechunk(applyChunking(...).data) did not reproduce the original text")
	}
}

func TestApplyChunkingSplitsOnRunesNotBytes(t *testing.T) {
	t.Parallel()

	// Multi-byte runes near a chunk boundary must not be split mid-sequence.
	original := strings.Repeat("é", chunkThreshold+5) // e-acute, 2 bytes in UTF-8
	result := ToolsCallResult{Content: []Content{{Type: "text", Text: original}}}

	got := applyChunking(result)
	envelope := got.(map[string]any)
	chunks := envelope["data"].([]string)
	if dechunk(chunks) != original {
		t.Error("rune-boundary chunking corrupted a multi-byte character sequence")
	}
}

func TestApplyProgressEnvelopeShape(t *testing.T) {
	t.Parallel()

	result := ToolsCallResult{Content: []Content{{Type: "text", Text: "ok"}}}
	got := applyProgress(result, 42*time.Millisecond)
	envelope, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("applyProgress() = %T, want map envelope", got)
	}
	if envelope["streaming"] != "progress" {
		t.Errorf("streaming = %v, want progress", envelope["streaming"])
	}
	if envelope["execution_time_ms"] != int64(42) {
		t.Errorf("execution_time_ms = %v, want 42", envelope["execution_time_ms"])
	}
	steps, ok := envelope["progress_steps"].([]string)
	if !ok || len(steps) == 0 {
		t.Errorf("progress_steps = %v, want a non-empty step log", envelope["progress_steps"])
	}
}

func TestExtractStreamModeStripsKey(t *testing.T) {
	t.Parallel()

	mode, args := extractStreamMode(map[string]any{"a": 1.0, "_stream": true})
	if mode != streamChunked {
		t.Errorf("mode = %v, want streamChunked", mode)
	}
	if _, present := args["_stream"]; present {
		t.Error("_stream key leaked into encoded arguments")
	}
	if args["a"] != 1.0 {
		t.Error("non-stream argument was dropped")
	}
}

func TestExtractStreamModeProgress(t *testing.T) {
	t.Parallel()

	mode, _ := extractStreamMode(map[string]any{"_stream": "progress"})
	if mode != streamProgress {
		t.Errorf("mode = %v, want streamProgress", mode)
	}
}

func TestExtractStreamModeAbsentIsNone(t *testing.T) {
	t.Parallel()

	mode, _ := extractStreamMode(map[string]any{"a": 1.0})
	if mode != streamNone {
		t.Errorf("mode = %v, want streamNone", mode)
	}
}
