package config

import (
	"fmt"
	"net/url"
)

// Validate checks that the configuration is valid and complete.
// It returns an error if required fields are missing or values are invalid.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateIdentity(cfg); err != nil {
		return fmt.Errorf("invalid identity config: %w", err)
	}

	if err := validateTransport(cfg); err != nil {
		return fmt.Errorf("invalid transport config: %w", err)
	}

	return nil
}

// validateTransport validates the CRPC transport-related fields.
func validateTransport(cfg *Config) error {
	if cfg.CanisterPrincipal == "" {
		return fmt.Errorf("canister principal is required")
	}

	if cfg.ReplicaURL == "" {
		return fmt.Errorf("ICARUS_BRIDGE_REPLICA_URL is required")
	}

	parsedURL, err := url.Parse(cfg.ReplicaURL)
	if err != nil {
		return fmt.Errorf("invalid ICARUS_BRIDGE_REPLICA_URL: %w", err)
	}

	if !parsedURL.IsAbs() {
		return fmt.Errorf("ICARUS_BRIDGE_REPLICA_URL must be an absolute URL")
	}

	if parsedURL.Scheme != "https" && parsedURL.Scheme != "http" {
		return fmt.Errorf("ICARUS_BRIDGE_REPLICA_URL must use http or https scheme")
	}

	if cfg.DiscoveryTimeout <= 0 {
		return fmt.Errorf("ICARUS_BRIDGE_DISCOVERY_TIMEOUT must be positive")
	}

	return nil
}

// validateIdentity validates the identity-resolution related fields.
func validateIdentity(cfg *Config) error {
	if cfg.IdentityHelper == "" {
		return fmt.Errorf("ICARUS_BRIDGE_IDENTITY_HELPER is required")
	}

	if cfg.IdentityHome == "" {
		return fmt.Errorf("ICARUS_BRIDGE_IDENTITY_HOME is required")
	}

	return nil
}

// IsProduction reports whether the replica endpoint is the production
// mainnet boundary node, as opposed to a local or test replica that
// requires a trust-root fetch before any call can be verified.
func IsProduction(replicaURL string) bool {
	return replicaURL == "https://icp-api.io" || replicaURL == "https://ic0.app"
}
