// Package identitywatcher implements the bridge's Identity Watcher (C6):
// before every tools/call it checks whether the operator's active identity
// has changed and, if so, rebuilds the canister client and invalidates the
// tool catalog so a rediscovery can see a possibly different tool surface.
package identitywatcher

import (
	"context"
	"log/slog"

	"github.com/icarus-sh/icarus-bridge/internal/canister"
	"github.com/icarus-sh/icarus-bridge/internal/catalog"
	internalerrors "github.com/icarus-sh/icarus-bridge/internal/errors"
	"github.com/icarus-sh/icarus-bridge/internal/identity"
)

const domain = "identitywatcher"

// Resolver is the subset of identity.Resolver the watcher needs.
type Resolver interface {
	ActiveName(ctx context.Context) (string, error)
	Load(ctx context.Context, name string) (*identity.Client, error)
}

// Watcher drives the pre-call identity-freshness check of spec §4.6.
type Watcher struct {
	Resolver Resolver
	Client   *canister.Client
	Catalog  *catalog.Catalog
}

// New builds a Watcher bound to the given resolver, canister client, and
// tool catalog.
func New(resolver Resolver, client *canister.Client, cat *catalog.Catalog) *Watcher {
	return &Watcher{Resolver: resolver, Client: client, Catalog: cat}
}

// EnsureFresh compares the active identity against the one bound to the
// canister client and, on a mismatch, rebuilds the client and triggers a
// catalog rediscovery. Best-effort: if the helper invocation itself fails,
// the watcher proceeds with the currently bound identity (spec §4.6
// "Failure handling").
func (w *Watcher) EnsureFresh(ctx context.Context) error {
	active, err := w.Resolver.ActiveName(ctx)
	if err != nil {
		slog.Warn("identity watcher: active identity check failed, continuing with bound identity", "error", err)
		return nil
	}

	bound := w.Client.IdentityName()
	if active == bound {
		return nil
	}

	slog.Info("identity switch detected", "from", bound, "to", active)

	newClient, err := w.Resolver.Load(ctx, active)
	if err != nil {
		return internalerrors.New(domain, "EnsureFresh", internalerrors.ErrIdentity, err).WithContext("to", active)
	}

	w.Client.Swap(canister.NewAgentTransport(newClient.Agent), active)

	if err := w.Catalog.Refresh(ctx, w.Client); err != nil {
		// Discovery failures are non-fatal (spec §4.4): the identity
		// switch itself already succeeded, so the call proceeds against
		// whatever catalog Refresh left behind (empty, on failure).
		slog.Warn("catalog rediscovery after identity switch failed", "error", err)
	}

	return nil
}
