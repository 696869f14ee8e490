package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Arbiter.NodeBind != "tcp://*:5555" {
		t.Errorf("Arbiter.NodeBind = %q, want %q", cfg.Arbiter.NodeBind, "tcp://*:5555")
	}
	if cfg.Arbiter.StateBind != "tcp://*:5556" {
		t.Errorf("Arbiter.StateBind = %q, want %q", cfg.Arbiter.StateBind, "tcp://*:5556")
	}
	if cfg.Arbiter.Identity != "ARBITER" {
		t.Errorf("Arbiter.Identity = %q, want %q", cfg.Arbiter.Identity, "ARBITER")
	}
	if cfg.Arbiter.HTTPAddr != "" {
		t.Errorf("Arbiter.HTTPAddr = %q, want disabled by default", cfg.Arbiter.HTTPAddr)
	}
	if cfg.Client.Connect != "tcp://127.0.0.1:5555" {
		t.Errorf("Client.Connect = %q, want %q", cfg.Client.Connect, "tcp://127.0.0.1:5555")
	}
	if cfg.Client.StateConnect != "tcp://127.0.0.1:5556" {
		t.Errorf("Client.StateConnect = %q, want %q", cfg.Client.StateConnect, "tcp://127.0.0.1:5556")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if cfg.Arbiter.Identity != "ARBITER" {
		t.Errorf("Arbiter.Identity = %q, want default", cfg.Arbiter.Identity)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[arbiter]
node_bind = "tcp://*:7777"
identity = "CENTRAL"

[client]
identity = "NODE9"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Arbiter.NodeBind != "tcp://*:7777" {
		t.Errorf("Arbiter.NodeBind = %q, want file value", cfg.Arbiter.NodeBind)
	}
	if cfg.Arbiter.Identity != "CENTRAL" {
		t.Errorf("Arbiter.Identity = %q, want file value", cfg.Arbiter.Identity)
	}
	// Untouched keys keep defaults.
	if cfg.Arbiter.StateBind != "tcp://*:5556" {
		t.Errorf("Arbiter.StateBind = %q, want default retained", cfg.Arbiter.StateBind)
	}
	if cfg.Client.Identity != "NODE9" {
		t.Errorf("Client.Identity = %q, want file value", cfg.Client.Identity)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[arbiter\nbroken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load on malformed file returned nil error")
	}
}

func TestConfigPath_EnvOverride(t *testing.T) {
	t.Setenv("RADIANT_CONFIG", "/tmp/custom.toml")
	if got := ConfigPath(); got != "/tmp/custom.toml" {
		t.Errorf("ConfigPath() = %q, want env override", got)
	}
}
