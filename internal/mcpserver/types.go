package mcpserver

// InitializeParams is the initialize method's parameters.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ClientInfo      ClientInfo     `json:"clientInfo"`
	Capabilities    map[string]any `json:"capabilities,omitempty"`
}

// ClientInfo describes the connecting MCP client.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the initialize method's result, per spec §6.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
	Instructions    string       `json:"instructions,omitempty"`
}

// ServerInfo is the server_info block of spec §6.
type ServerInfo struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Title      string `json:"title,omitempty"`
	WebsiteURL string `json:"website_url,omitempty"`
}

// Capabilities advertises server capabilities. Only tools is ever enabled
// — resources, prompts, and logging capabilities are out of scope (spec §1
// Non-goals: no UI shell, no resource surface beyond tool invocation).
type Capabilities struct {
	Tools ToolsCapability `json:"tools"`
}

// ToolsCapability indicates tools support and whether the list can change
// mid-session. The bridge does not push listChanged notifications (spec
// §3 invariant (iv): new tools appearing mid-session are ignored until the
// next discovery), so it is always false.
type ToolsCapability struct {
	Enabled     bool `json:"enabled"`
	ListChanged bool `json:"listChanged,omitempty"`
}

// ToolDefinition is a catalog entry projected for MCP tools/list, per spec
// §4.5 ("each tool's inputSchema is passed through verbatim").
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Title       string         `json:"title,omitempty"`
	Icon        string         `json:"icon,omitempty"`
}

// ToolsListResult is the tools/list result.
type ToolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}

// ToolsCallParams is the tools/call parameters.
type ToolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolsCallResult is the standard-mode tools/call result, per spec §4.5.
type ToolsCallResult struct {
	Content          []Content `json:"content"`
	StructuredContent any      `json:"structured_content,omitempty"`
	IsError          bool      `json:"is_error"`
}

// Content is one piece of tool-result content.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}
