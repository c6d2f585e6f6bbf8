package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/icarus-sh/icarus-bridge/internal/canister"
	"github.com/icarus-sh/icarus-bridge/internal/catalog"
	"github.com/icarus-sh/icarus-bridge/internal/identitywatcher"
)

// maxLineBytes bounds a single stdio JSON-RPC frame. Generous: tool
// catalogs and argument objects are small, but a pathological client
// sending an oversized line should not exhaust memory silently.
const maxLineBytes = 16 * 1024 * 1024

// state is the MCP session state machine of spec §4.5: Uninitialized ->
// Initialized -> Closed.
type state int32

const (
	stateUninitialized state = iota
	stateInitialized
	stateClosed
)

// Server implements the MCP server role (C5) over line-delimited stdio
// JSON-RPC: handshake, tools/list, tools/call, and the streaming envelope
// variants of spec §4.5.
type Server struct {
	Info         ServerInfo
	Instructions string

	Watcher *identitywatcher.Watcher
	Catalog *catalog.Catalog
	Client  *canister.Client
	Debug   bool

	state   atomic.Int32
	writeMu sync.Mutex
}

// New builds a Server wired to the given collaborators. info and
// instructions are echoed verbatim in the initialize response.
func New(info ServerInfo, instructions string, watcher *identitywatcher.Watcher, cat *catalog.Catalog, client *canister.Client, debug bool) *Server {
	return &Server{
		Info:         info,
		Instructions: instructions,
		Watcher:      watcher,
		Catalog:      cat,
		Client:       client,
		Debug:        debug,
	}
}

// Run reads line-delimited JSON-RPC requests from r and writes responses
// to w as they complete. initialize is handled on the reading goroutine,
// so every tools/* request read after it observes the Initialized state;
// every other request is dispatched to its own handler goroutine. Writes
// are serialized through a single mutex (spec §5 "one output mutex"); the
// response stream is not reordered to match request arrival, only framed
// without interleaving. Run returns when r reaches EOF, or when a line is
// read after ctx has been cancelled (ctx is checked between lines, not
// while a read is blocked). In-flight handlers are allowed to finish
// before the session is marked Closed (spec §5 "Cancellation").
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var wg sync.WaitGroup

	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		// Copy: the scanner reuses its buffer on the next Scan call, and
		// the handler runs concurrently with later reads.
		line = append([]byte(nil), line...)

		var probe struct {
			Method string `json:"method"`
		}
		if json.Unmarshal(line, &probe) == nil && probe.Method == "initialize" {
			s.handleLine(ctx, line, w)
			continue
		}

		wg.Add(1)
		go func(line []byte) {
			defer wg.Done()
			s.handleLine(ctx, line, w)
		}(line)
	}

	wg.Wait()
	s.state.Store(int32(stateClosed))
	return scanner.Err()
}

func (s *Server) handleLine(ctx context.Context, line []byte, w io.Writer) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.writeResponse(w, &Response{JSONRPC: JSONRPCVersion, Error: &Error{Code: CodeParseError, Message: "parse error: " + err.Error()}})
		return
	}
	req.JSONRPC = JSONRPCVersion

	resp := s.handle(ctx, &req)
	if resp == nil {
		return // notification: no response expected
	}
	resp.JSONRPC = JSONRPCVersion
	resp.ID = req.ID
	s.writeResponse(w, resp)
}

func (s *Server) writeResponse(w io.Writer, resp *Response) {
	raw, err := json.Marshal(resp)
	if err != nil {
		slog.Error("mcpserver: failed to marshal response", "error", err)
		return
	}
	raw = append(raw, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := w.Write(raw); err != nil {
		slog.Error("mcpserver: failed to write response", "error", err)
	}
}
