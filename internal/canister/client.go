// Package canister implements the bridge's Canister Client (C2): it
// dispatches query/update CRPC calls against raw IDL argument bytes
// produced by internal/parammapper and decodes IDL replies to JSON. It
// carries no schema of its own — the (tool name -> calling convention)
// mapping lives one layer up, in internal/parammapper and internal/catalog.
package canister

import (
	"context"
	"sync"

	"github.com/aviate-labs/agent-go/principal"

	internalerrors "github.com/icarus-sh/icarus-bridge/internal/errors"
)

const domain = "canister"

// Transport performs the raw CRPC query/update primitives against a single
// canister, signed by whichever identity built it. internal/identity's
// *agent.Agent satisfies this via a thin adapter (AgentTransport, in
// agent_adapter.go);
// fakes in tests implement it directly.
type Transport interface {
	Query(ctx context.Context, canisterID principal.Principal, method string, args []byte) ([]byte, error)
	Update(ctx context.Context, canisterID principal.Principal, method string, args []byte) ([]byte, error)
}

// Client is the RW-locked RPC client record of spec §3: target canister
// principal, signing transport, and the identity name it is currently
// bound to. internal/identitywatcher (C6) replaces it atomically on an
// identity switch; it is never mutated in place by anyone else.
type Client struct {
	mu           sync.RWMutex
	canisterID   principal.Principal
	transport    Transport
	identityName string
}

// New builds a Client bound to canisterID, initially signed by transport
// under identityName.
func New(canisterID principal.Principal, transport Transport, identityName string) *Client {
	return &Client{canisterID: canisterID, transport: transport, identityName: identityName}
}

// IdentityName returns the identity name the client is currently bound to.
// Read under the RW lock so it is safe to call concurrently with Swap.
func (c *Client) IdentityName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identityName
}

// Swap atomically replaces the signing transport and bound identity name.
// Called exclusively by internal/identitywatcher after it has built a new
// transport for the newly active identity.
func (c *Client) Swap(transport Transport, identityName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transport = transport
	c.identityName = identityName
}

// Query performs a non-mutating CRPC call.
func (c *Client) Query(ctx context.Context, method string, args []byte) ([]byte, error) {
	t, id, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	reply, err := t.Query(ctx, id, method, args)
	if err != nil {
		return nil, internalerrors.New(domain, "Query", internalerrors.ErrTransport, err).WithContext("method", method)
	}
	return reply, nil
}

// Update performs a mutating CRPC call and awaits finalization.
func (c *Client) Update(ctx context.Context, method string, args []byte) ([]byte, error) {
	t, id, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	reply, err := t.Update(ctx, id, method, args)
	if err != nil {
		return nil, internalerrors.New(domain, "Update", internalerrors.ErrTransport, err).WithContext("method", method)
	}
	return reply, nil
}

func (c *Client) snapshot() (Transport, principal.Principal, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.transport == nil {
		return nil, principal.Principal{}, internalerrors.New(domain, "snapshot", internalerrors.ErrTransport, ErrNoClient)
	}
	return c.transport, c.canisterID, nil
}
