package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ClaimBound != DefaultClaimBound {
		t.Fatalf("expected default claim bound, got %d", cfg.ClaimBound)
	}
	if cfg.TakeoverTimeout != DefaultTakeoverTimeout {
		t.Fatalf("expected default takeover timeout, got %s", cfg.TakeoverTimeout)
	}
	if cfg.DatabasePath != DefaultDatabasePath {
		t.Fatalf("expected default db path, got %s", cfg.DatabasePath)
	}
}

func TestLoadFileAndNormalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "claim_bound: 5\ntakeover_seconds: 30\ndetonate_quorum: 2\nowner: alice\ngateway_enabled: true\ngateway_port: 9100\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ClaimBound != 5 {
		t.Fatalf("claim bound = %d, want 5", cfg.ClaimBound)
	}
	if cfg.TakeoverTimeout != 30*time.Second {
		t.Fatalf("takeover timeout = %s, want 30s", cfg.TakeoverTimeout)
	}
	if cfg.DetonateQuorum != 2 {
		t.Fatalf("quorum = %d, want 2", cfg.DetonateQuorum)
	}
	if cfg.Owner != "alice" {
		t.Fatalf("owner = %q, want alice", cfg.Owner)
	}
	if cfg.ModuleCap != DefaultModuleCap {
		t.Fatalf("module cap = %d, want default", cfg.ModuleCap)
	}
	if !cfg.GatewayEnabled || cfg.GatewayPort != 9100 {
		t.Fatalf("gateway = %v port %d, want enabled on 9100", cfg.GatewayEnabled, cfg.GatewayPort)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n -"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOMBSQUAD_DB_PATH", "/tmp/scores.db")
	t.Setenv("BOMBSQUAD_CLAIM_BOUND", "7")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabasePath != "/tmp/scores.db" {
		t.Fatalf("db path = %q", cfg.DatabasePath)
	}
	if cfg.ClaimBound != 7 {
		t.Fatalf("claim bound = %d, want 7", cfg.ClaimBound)
	}
}
