package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aviate-labs/agent-go/principal"

	"github.com/icarus-sh/icarus-bridge/internal/canister"
	"github.com/icarus-sh/icarus-bridge/internal/catalog"
	"github.com/icarus-sh/icarus-bridge/internal/identitywatcher"
)

func TestRunServesInitializeOverStdio(t *testing.T) {
	t.Parallel()

	client := canister.New(principal.Principal{}, &fakeTransport{}, "alice")
	cat := catalog.New()
	watcher := identitywatcher.New(&fakeResolver{activeName: "alice"}, client, cat)
	s := New(ServerInfo{Name: "icarus-bridge"}, "instructions", watcher, cat, client, false)

	reqLine := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}` + "\n"
	in := strings.NewReader(reqLine)
	var out bytes.Buffer

	if err := s.Run(context.Background(), in, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	scanner := bufio.NewScanner(&out)
	if !scanner.Scan() {
		t.Fatal("Run() produced no output line")
	}
	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("response carried error: %+v", resp.Error)
	}
}

func TestRunIgnoresBlankLines(t *testing.T) {
	t.Parallel()

	client := canister.New(principal.Principal{}, &fakeTransport{}, "alice")
	cat := catalog.New()
	watcher := identitywatcher.New(&fakeResolver{activeName: "alice"}, client, cat)
	s := New(ServerInfo{Name: "icarus-bridge"}, "", watcher, cat, client, false)

	in := strings.NewReader("\n   \n" + `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}` + "\n\n")
	var out bytes.Buffer

	if err := s.Run(context.Background(), in, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("output lines = %d, want exactly 1 response for 1 request amid blank lines", len(lines))
	}
}

func TestRunParseErrorReturnsJSONRPCError(t *testing.T) {
	t.Parallel()

	client := canister.New(principal.Principal{}, &fakeTransport{}, "alice")
	cat := catalog.New()
	watcher := identitywatcher.New(&fakeResolver{activeName: "alice"}, client, cat)
	s := New(ServerInfo{Name: "icarus-bridge"}, "", watcher, cat, client, false)

	in := strings.NewReader("{not json\n")
	var out bytes.Buffer

	if err := s.Run(context.Background(), in, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var resp Response
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != CodeParseError {
		t.Errorf("error = %+v, want CodeParseError", resp.Error)
	}
}

func TestRunStopsOnStdinEOF(t *testing.T) {
	t.Parallel()

	client := canister.New(principal.Principal{}, &fakeTransport{}, "alice")
	cat := catalog.New()
	watcher := identitywatcher.New(&fakeResolver{activeName: "alice"}, client, cat)
	s := New(ServerInfo{Name: "icarus-bridge"}, "", watcher, cat, client, false)

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), pr, &bytes.Buffer{}) }()

	// Transport EOF (spec §5 "Cancellation"), not context cancellation, is
	// what unblocks the stdin read loop.
	pw.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v, want nil on clean EOF", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return promptly after stdin EOF")
	}
}
