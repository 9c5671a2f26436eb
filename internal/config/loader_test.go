package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(&logger, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("default config not written: %v", statErr)
	}

	want := Default()
	if cfg.Relay.Addr != want.Relay.Addr || cfg.Relay.PullWait != want.Relay.PullWait || cfg.Relay.QueueSize != want.Relay.QueueSize {
		t.Fatalf("unexpected relay defaults: %+v", cfg.Relay)
	}
	if cfg.Client.RelayURL != want.Client.RelayURL || cfg.Client.RetryMax != want.Client.RetryMax {
		t.Fatalf("unexpected client defaults: %+v", cfg.Client)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "relay:\n  addr: \":9000\"\n  pull_wait: 5s\nclient:\n  nickname: fromfile\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("IRCBRIDGE_RELAY_ADDR", ":9100")

	cfg, _, err := Load(&logger, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Relay.Addr != ":9100" {
		t.Fatalf("env should override file, got addr %q", cfg.Relay.Addr)
	}
	if cfg.Relay.PullWait != 5*time.Second {
		t.Fatalf("pull_wait = %v, want 5s", cfg.Relay.PullWait)
	}
	if cfg.Client.Nickname != "fromfile" {
		t.Fatalf("nickname = %q, want fromfile", cfg.Client.Nickname)
	}
	if cfg.Relay.DefaultPort != 6667 {
		t.Fatalf("default port lost: %d", cfg.Relay.DefaultPort)
	}
}

func TestUpdateFromKeepsZeroValues(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Relay: RelayConfig{Addr: ":1234"}, Client: ClientConfig{Nickname: "bob"}})

	if cfg.Relay.Addr != ":1234" || cfg.Client.Nickname != "bob" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Client.RelayURL != Default().Client.RelayURL {
		t.Fatalf("zero override clobbered relay url: %q", cfg.Client.RelayURL)
	}
}
