package canister

import (
	"context"

	"github.com/aviate-labs/agent-go"
	"github.com/aviate-labs/agent-go/principal"
)

// AgentTransport adapts an agent-go *agent.Agent to the Transport
// interface. Candid marshalling in agent-go is normally built around
// generated static Go types (reflection over struct tags); QueryRaw/CallRaw
// are the raw-bytes entry points underneath that machinery, which is what
// this bridge needs since it never has compile-time knowledge of a
// canister's interface (spec §1, §4.2).
type AgentTransport struct {
	Agent *agent.Agent
}

// NewAgentTransport wraps a, typically the *agent.Agent built by
// internal/identity for the currently active identity.
func NewAgentTransport(a *agent.Agent) *AgentTransport {
	return &AgentTransport{Agent: a}
}

func (t *AgentTransport) Query(ctx context.Context, canisterID principal.Principal, method string, args []byte) ([]byte, error) {
	return t.Agent.QueryRaw(ctx, canisterID, method, args)
}

func (t *AgentTransport) Update(ctx context.Context, canisterID principal.Principal, method string, args []byte) ([]byte, error) {
	return t.Agent.CallRaw(ctx, canisterID, method, args)
}
