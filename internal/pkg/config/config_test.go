package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "metro", DBName: "metropath"},
		NATS:     NATSConfig{URL: "nats://localhost:4222"},
		Valkey:   ValkeyConfig{Addr: "localhost:6379"},
		Routing:  RoutingConfig{Source: SourceFile, StopMinutes: 4, TransferMinutes: 2, HistoryCapacity: 4},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("metropath-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Routing.Source != SourceFile {
		t.Errorf("expected file source, got %q", cfg.Routing.Source)
	}
	if cfg.Routing.StopMinutes != 4 || cfg.Routing.TransferMinutes != 2 {
		t.Errorf("unexpected minutes %v/%v", cfg.Routing.StopMinutes, cfg.Routing.TransferMinutes)
	}
	if cfg.Routing.HistoryCapacity != 4 {
		t.Errorf("expected history capacity 4, got %d", cfg.Routing.HistoryCapacity)
	}
	if cfg.Telemetry.ServiceName != "metropath-test" {
		t.Errorf("expected service name from argument, got %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("METROPATH_ROUTING_TRANSFER_MINUTES", "5")
	t.Setenv("METROPATH_SERVER_PORT", "9090")

	cfg, err := Load("metropath-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Routing.TransferMinutes != 5 {
		t.Errorf("expected 5, got %v", cfg.Routing.TransferMinutes)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected 9090, got %d", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"unknown source", func(c *Config) { c.Routing.Source = "s3" }, "routing.source"},
		{"file source ignores database", func(c *Config) { c.Database.Host = "" }, ""},
		{"postgres source needs database", func(c *Config) {
			c.Routing.Source = SourcePostgres
			c.Database.Host = ""
		}, "database.host"},
		{"negative minutes", func(c *Config) { c.Routing.TransferMinutes = -1 }, "routing.stop_minutes"},
		{"zero history", func(c *Config) { c.Routing.HistoryCapacity = 0 }, "routing.history_capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
