// Package main wires the bridge's components and serves the MCP stdio
// loop. Startup order follows spec §2: identity resolution, initial
// canister client, best-effort tool discovery, then the serve loop.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aviate-labs/agent-go/principal"

	"github.com/icarus-sh/icarus-bridge/internal/canister"
	"github.com/icarus-sh/icarus-bridge/internal/catalog"
	"github.com/icarus-sh/icarus-bridge/internal/config"
	"github.com/icarus-sh/icarus-bridge/internal/identity"
	"github.com/icarus-sh/icarus-bridge/internal/identitywatcher"
	"github.com/icarus-sh/icarus-bridge/internal/mcpserver"
)

const (
	bridgeName    = "icarus-bridge"
	bridgeVersion = "0.1.0"
)

func main() {
	// Structured logging goes exclusively to stderr: stdout is the MCP
	// protocol channel and must carry nothing but JSON-RPC frames (spec §6).
	var logLevel slog.LevelVar // Info until the configuration is loaded
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <canister-principal>\n", os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		slog.Warn("unrecognized log level, keeping info", "log_level", cfg.LogLevel)
	}
	if cfg.Debug {
		logLevel.Set(slog.LevelDebug)
	}

	slog.Info("bridge configuration loaded",
		"canister", cfg.CanisterPrincipal,
		"replica_url", cfg.ReplicaURL,
		"identity_helper", cfg.IdentityHelper,
	)

	// principal.Decode parses the textual (base32-with-checksum) principal
	// form agent-go's identity/signing packages operate on everywhere else.
	canisterID, err := principal.Decode(cfg.CanisterPrincipal)
	if err != nil {
		log.Fatalf("invalid canister principal %q: %v", cfg.CanisterPrincipal, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver := identity.NewResolver(cfg.IdentityHelper, cfg.IdentityHome, canisterID, cfg.ReplicaURL, isNonProduction(cfg.ReplicaURL))

	idClient, err := resolver.Resolve(ctx)
	if err != nil {
		log.Fatalf("identity resolution failed: %v", err)
	}
	slog.Info("identity resolved", "identity", idClient.Identity.Name, "principal", idClient.Identity.Principal.String())

	canisterClient := canister.New(canisterID, canister.NewAgentTransport(idClient.Agent), idClient.Identity.Name)

	cat := catalog.New()
	if err := cat.Refresh(ctx, canisterClient); err != nil {
		// Non-fatal per spec §4.4: the bridge starts with an empty catalog
		// and serves zero tools until the next successful discovery.
		slog.Warn("initial tool discovery failed, starting with empty catalog", "error", err)
	}

	watcher := identitywatcher.New(resolver, canisterClient, cat)

	info := mcpserver.ServerInfo{
		Name:    bridgeName,
		Version: bridgeVersion,
	}
	instructions := fmt.Sprintf("Bridges MCP tool calls to canister %s over the Internet Computer's CRPC interface.", cfg.CanisterPrincipal)
	server := mcpserver.New(info, instructions, watcher, cat, canisterClient, cfg.Debug)

	serveErrCh := make(chan error, 1)
	go func() {
		slog.Info("bridge serving on stdio")
		serveErrCh <- server.Run(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-serveErrCh:
		if err != nil {
			slog.Error("stdio server exited with error", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("bridge stopped")
}

// isNonProduction reports whether url points at a local or test replica,
// which requires the one-shot trust-root fetch of spec §4.1.
func isNonProduction(url string) bool {
	return !strings.Contains(url, "icp-api.io") && !strings.Contains(url, "ic0.app")
}
