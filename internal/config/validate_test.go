package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		CanisterPrincipal: "aaaaa-aa",
		ReplicaURL:        "https://icp-api.io",
		DiscoveryTimeout:  10 * time.Second,
		IdentityHelper:    "dfx",
		IdentityHome:      "/home/op/.config/dfx/identity",
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "nil config", mutate: nil, wantErr: true},
		{name: "missing principal", mutate: func(c *Config) { c.CanisterPrincipal = "" }, wantErr: true},
		{name: "missing replica url", mutate: func(c *Config) { c.ReplicaURL = "" }, wantErr: true},
		{name: "relative replica url", mutate: func(c *Config) { c.ReplicaURL = "/no-host" }, wantErr: true},
		{name: "bad scheme", mutate: func(c *Config) { c.ReplicaURL = "ftp://example.com" }, wantErr: true},
		{name: "zero discovery timeout", mutate: func(c *Config) { c.DiscoveryTimeout = 0 }, wantErr: true},
		{name: "missing identity helper", mutate: func(c *Config) { c.IdentityHelper = "" }, wantErr: true},
		{name: "missing identity home", mutate: func(c *Config) { c.IdentityHome = "" }, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.name == "nil config" {
				if err := Validate(nil); err == nil {
					t.Error("Validate(nil) error = nil, want error")
				}
				return
			}

			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{"https://icp-api.io", true},
		{"https://ic0.app", true},
		{"http://localhost:4943", false},
		{"https://example.com", false},
	}

	for _, tt := range tests {
		if got := IsProduction(tt.url); got != tt.want {
			t.Errorf("IsProduction(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
