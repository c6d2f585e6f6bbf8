// Package config provides configuration management for the bridge.
// Configuration is loaded from environment variables plus a single
// positional command-line argument, with sensible defaults.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the complete bridge configuration in a flat structure.
type Config struct {
	// CanisterPrincipal is the target canister principal in textual form,
	// supplied as the bridge's sole positional command-line argument.
	CanisterPrincipal string

	// ReplicaURL is the CRPC transport endpoint.
	ReplicaURL string

	// DiscoveryTimeout is read from ICARUS_BRIDGE_DISCOVERY_TIMEOUT and
	// validated as positive. The list_tools catalog fetch is bounded by
	// catalog.DiscoveryTimeout (10s) and does not read this field.
	DiscoveryTimeout time.Duration

	// IdentityHelper is the name of the external binary that reports the
	// active identity name (e.g. "dfx").
	IdentityHelper string

	// IdentityHome is the filesystem root containing per-identity key
	// files, named "<IdentityHome>/<name>/identity.pem".
	IdentityHome string

	// LogLevel controls the verbosity of structured logging.
	LogLevel string

	// Debug enables verbose per-call tracing (candid bytes, fallback path
	// taken) at slog.Debug level.
	Debug bool
}

// Load reads configuration from environment variables, combines it with
// the supplied canister principal, and validates the result.
func Load(canisterPrincipal string) (*Config, error) {
	discoveryTimeout, err := parseDurationWithDefault("ICARUS_BRIDGE_DISCOVERY_TIMEOUT", "10s")
	if err != nil {
		return nil, fmt.Errorf("invalid ICARUS_BRIDGE_DISCOVERY_TIMEOUT: %w", err)
	}

	home, err := defaultIdentityHome()
	if err != nil {
		return nil, fmt.Errorf("resolving default identity home: %w", err)
	}

	cfg := &Config{
		CanisterPrincipal: canisterPrincipal,
		ReplicaURL:        getEnvWithDefault("ICARUS_BRIDGE_REPLICA_URL", "https://icp-api.io"),
		DiscoveryTimeout:  discoveryTimeout,
		IdentityHelper:    getEnvWithDefault("ICARUS_BRIDGE_IDENTITY_HELPER", "dfx"),
		IdentityHome:      getEnvWithDefault("ICARUS_BRIDGE_IDENTITY_HOME", home),
		LogLevel:          getEnvWithDefault("ICARUS_BRIDGE_LOG_LEVEL", "info"),
		Debug:             os.Getenv("ICARUS_BRIDGE_DEBUG") != "",
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultIdentityHome returns "<home>/.config/dfx/identity", the dfx
// convention this bridge follows for its identity-resolution protocol.
func defaultIdentityHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return home + "/.config/dfx/identity", nil
}

// getEnvWithDefault returns the environment variable value or the default
// if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDurationWithDefault parses a duration from an environment variable.
// If the variable is not set, it uses the default value. Returns an error
// if the value is set but cannot be parsed.
func parseDurationWithDefault(key, defaultValue string) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		duration, err := time.ParseDuration(defaultValue)
		if err != nil {
			return 0, fmt.Errorf("invalid default duration %q: %w", defaultValue, err)
		}
		return duration, nil
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("cannot parse duration %q: %w", value, err)
	}

	return duration, nil
}

// String returns a string representation of the configuration for logging.
func (c *Config) String() string {
	return fmt.Sprintf("Config{CanisterPrincipal: %s, ReplicaURL: %s, DiscoveryTimeout: %v, IdentityHelper: %s, IdentityHome: %s, LogLevel: %s, Debug: %v}",
		c.CanisterPrincipal, c.ReplicaURL, c.DiscoveryTimeout, c.IdentityHelper, c.IdentityHome, c.LogLevel, c.Debug)
}
