// Package catalog implements the bridge's Tool Catalog (C4): it invokes
// the well-known list_tools canister method at startup and after every
// identity switch, parses and caches the resulting tool list, and exposes
// name-keyed lookup to internal/mcpserver and internal/parammapper.
package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	internalerrors "github.com/icarus-sh/icarus-bridge/internal/errors"
	"github.com/icarus-sh/icarus-bridge/internal/parammapper"
	"github.com/icarus-sh/icarus-bridge/pkg/wiretypes"
)

const domain = "catalog"

// DiscoveryTimeout bounds the list_tools fetch, per spec §4.4. Mandatory:
// a hung discovery would otherwise block the MCP handshake.
const DiscoveryTimeout = 10 * time.Second

// Querier performs the single query call discovery needs. internal/canister
// .Client satisfies this directly.
type Querier interface {
	Query(ctx context.Context, method string, args []byte) ([]byte, error)
}

// Tool is the tool descriptor of spec §3, plus its derived calling
// convention, cached together so C5 and C3 never re-derive per call.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Title       string
	Icon        string
	Convention  parammapper.Descriptor
}

// wireCatalog mirrors the JSON document list_tools returns, per spec §6.
type wireCatalog struct {
	Name       string      `json:"name"`
	Version    string      `json:"version,omitempty"`
	Title      string      `json:"title,omitempty"`
	WebsiteURL string      `json:"website_url,omitempty"`
	Tools      []wireTool  `json:"tools"`
}

type wireTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Title       string         `json:"title,omitempty"`
	Icon        string         `json:"icon,omitempty"`
}

// Catalog is the RW-locked tool catalog of spec §3. On any discovery
// failure it is left (or reset to) empty: the bridge stays operational and
// serves zero tools until the next successful refresh, per spec §4.4/§7.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// New builds an empty Catalog.
func New() *Catalog {
	return &Catalog{tools: make(map[string]Tool)}
}

// Refresh invokes list_tools via q, parses the result, derives a calling
// convention for every advertised tool, and replaces the cached catalog.
// On any error it logs and empties the catalog rather than returning
// a partial or stale one (spec §4.4, §7 DiscoveryError).
func (c *Catalog) Refresh(ctx context.Context, q Querier) error {
	ctx, cancel := context.WithTimeout(ctx, DiscoveryTimeout)
	defer cancel()

	reply, err := q.Query(ctx, wiretypes.ListToolsMethod, emptyArgsEncoding())
	if err != nil {
		slog.Warn("catalog discovery failed, serving empty tool set", "error", err)
		c.reset()
		return internalerrors.New(domain, "Refresh", internalerrors.ErrDiscovery, err)
	}

	text, err := decodeSingleText(reply)
	if err != nil {
		slog.Warn("catalog discovery reply malformed, serving empty tool set", "error", err)
		c.reset()
		return internalerrors.New(domain, "Refresh", internalerrors.ErrDiscovery, err)
	}

	var wc wireCatalog
	if err := json.Unmarshal([]byte(text), &wc); err != nil {
		slog.Warn("catalog discovery JSON malformed, serving empty tool set", "error", err)
		c.reset()
		return internalerrors.New(domain, "Refresh", internalerrors.ErrDiscovery, err)
	}

	tools := make(map[string]Tool, len(wc.Tools))
	order := make([]string, 0, len(wc.Tools))
	for _, wt := range wc.Tools {
		desc, err := parammapper.Derive(wt.InputSchema)
		if err != nil {
			slog.Warn("skipping tool with unusable input schema", "tool", wt.Name, "error", err)
			continue
		}
		tools[wt.Name] = Tool{
			Name:        wt.Name,
			Description: wt.Description,
			InputSchema: wt.InputSchema,
			Title:       wt.Title,
			Icon:        wt.Icon,
			Convention:  desc,
		}
		order = append(order, wt.Name)
	}

	c.mu.Lock()
	c.tools = tools
	c.order = order
	c.mu.Unlock()

	slog.Info("tool catalog refreshed", "tool_count", len(tools))
	return nil
}

func (c *Catalog) reset() {
	c.mu.Lock()
	c.tools = make(map[string]Tool)
	c.order = nil
	c.mu.Unlock()
}

// Lookup returns the cached Tool for name, preserving invariant (ii) of
// spec §3: every tool call this returns true for has a cached descriptor.
func (c *Catalog) Lookup(name string) (Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tools[name]
	return t, ok
}

// List returns all cached tools in the canister's declared order (spec
// §4.4 "Ordering").
func (c *Catalog) List() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Tool, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.tools[name])
	}
	return out
}
