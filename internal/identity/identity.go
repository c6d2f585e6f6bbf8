// Package identity implements the bridge's Identity Resolver (C1): it
// discovers the operator's active dfx identity, loads its signing key, and
// builds an authenticated agent-go client bound to the configured replica.
package identity

import (
	"context"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/aviate-labs/agent-go"
	"github.com/aviate-labs/agent-go/identity"
	"github.com/aviate-labs/agent-go/principal"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	internalerrors "github.com/icarus-sh/icarus-bridge/internal/errors"
)

const domain = "identity"

// Identity is the resolved caller: a name, its derived principal, and the
// agent-go identity used to sign outbound calls.
type Identity struct {
	Name      string
	Principal principal.Principal
	Signer    identity.Identity
}

// Client wraps an agent-go *agent.Agent bound to a specific signing
// identity and target canister. It is the RPC client record of spec §3,
// built once per identity by Resolver and swapped atomically by the
// identity watcher (C6) on identity change.
type Client struct {
	Identity Identity
	Agent    *agent.Agent
}

// Resolver discovers the operator's active identity via an external helper
// (dfx) and loads its key material from disk.
type Resolver struct {
	Helper           string // identity-helper binary name, e.g. "dfx"
	Home             string // "<home>/.config/dfx/identity"
	CanisterID       principal.Principal
	ReplicaURL       string
	FetchRootKey     bool // true for non-production replicas, per spec §4.1
	RunCommand       func(ctx context.Context, name string, args ...string) ([]byte, error)

	mu    sync.Mutex
	cache map[string]*Client
}

// NewResolver builds a Resolver whose RunCommand runs the helper via
// os/exec. Tests replace RunCommand; a Resolver built without NewResolver
// must set it.
func NewResolver(helper, home string, canisterID principal.Principal, replicaURL string, fetchRootKey bool) *Resolver {
	return &Resolver{
		Helper:       helper,
		Home:         home,
		CanisterID:   canisterID,
		ReplicaURL:   replicaURL,
		FetchRootKey: fetchRootKey,
		RunCommand:   runCommand,
		cache:        make(map[string]*Client),
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

// ActiveName invokes the helper to report the currently active identity
// name ("dfx identity whoami"). Used standalone by the identity watcher
// (C6) to detect a switch without re-resolving the full client.
func (r *Resolver) ActiveName(ctx context.Context) (string, error) {
	out, err := r.RunCommand(ctx, r.Helper, "identity", "whoami")
	if err != nil {
		if isHelperNotFound(err) {
			return "", internalerrors.New(domain, "ActiveName", internalerrors.ErrConfig, ErrHelperNotFound)
		}
		return "", internalerrors.New(domain, "ActiveName", internalerrors.ErrIdentity, err)
	}
	name := strings.TrimSpace(string(out))
	if name == "" {
		return "", internalerrors.New(domain, "ActiveName", internalerrors.ErrIdentity, ErrNoActiveIdentity)
	}
	return name, nil
}

// Resolve discovers the active identity, loads its key (from cache on a
// repeat name), and returns a fully built Client ready to sign CRPC calls.
func (r *Resolver) Resolve(ctx context.Context) (*Client, error) {
	name, err := r.ActiveName(ctx)
	if err != nil {
		return nil, err
	}
	return r.Load(ctx, name)
}

// Load builds (or returns from cache) a Client for the named identity.
func (r *Resolver) Load(ctx context.Context, name string) (*Client, error) {
	r.mu.Lock()
	if c, ok := r.cache[name]; ok {
		r.mu.Unlock()
		return c, nil
	}
	r.mu.Unlock()

	signer, err := r.loadKey(name)
	if err != nil {
		return nil, err
	}

	princ := signer.Sender()

	cfg := agent.Config{
		ClientConfig: &agent.ClientConfig{Host: parseURL(r.ReplicaURL)},
		Identity:     signer,
		FetchRootKey: r.FetchRootKey,
	}
	a, err := agent.New(cfg)
	if err != nil {
		return nil, internalerrors.New(domain, "Load", internalerrors.ErrTransport, fmt.Errorf("building agent client: %w", err))
	}

	client := &Client{
		Identity: Identity{Name: name, Principal: princ, Signer: signer},
		Agent:    a,
	}

	r.mu.Lock()
	r.cache[name] = client
	r.mu.Unlock()

	return client, nil
}

// loadKey attempts the two supported signature families in a fixed order:
// secp256k1 first, then ed25519, per spec §4.1.
func (r *Resolver) loadKey(name string) (identity.Identity, error) {
	path := fmt.Sprintf("%s/%s/identity.pem", r.Home, name)
	raw, err := readFile(path)
	if err != nil {
		return nil, internalerrors.New(domain, "loadKey", internalerrors.ErrIdentity, ErrKeyFileMissing).WithContext("path", path)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, internalerrors.New(domain, "loadKey", internalerrors.ErrIdentity, ErrUnsupportedKeyMaterial).WithContext("path", path)
	}

	// dfx writes secp256k1 identities as SEC1 "EC PRIVATE KEY" DER, not a
	// raw 32-byte scalar, so the curve key is recovered via x509 first and
	// its D handed to secp256k1 rather than parsed directly off block.Bytes.
	if ecKey, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		sk := secp256k1.PrivKeyFromBytes(leftPad32(ecKey.D.Bytes()))
		id, err := identity.NewSecp256k1Identity(sk.Serialize())
		if err == nil {
			return id, nil
		}
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		if edKey, ok := key.(ed25519.PrivateKey); ok {
			id, err := identity.NewEd25519Identity(edKey.Public().(ed25519.PublicKey), edKey)
			if err == nil {
				return id, nil
			}
		}
	}

	return nil, internalerrors.New(domain, "loadKey", internalerrors.ErrIdentity, ErrUnsupportedKeyMaterial).WithContext("path", path)
}

// leftPad32 renders b as a 32-byte big-endian scalar, left-padding with
// zeros (big.Int.Bytes trims leading zero bytes, but secp256k1 expects a
// fixed-width scalar).
func leftPad32(b []byte) []byte {
	if len(b) >= 32 {
		return b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}
