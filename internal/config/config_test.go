package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json5"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Transport.Mode != "stdio" {
		t.Errorf("Transport.Mode = %q, want stdio", cfg.Transport.Mode)
	}
	if cfg.Session.MaxSessions != 256 {
		t.Errorf("Session.MaxSessions = %d, want 256", cfg.Session.MaxSessions)
	}
}

func TestLoad_EnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	if err := os.WriteFile(path, []byte(`{transport: {mode: "stdio", port: 8000}}`), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MCP_TRANSPORT", "http")
	t.Setenv("MCP_PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Transport.Mode != "http" {
		t.Errorf("Transport.Mode = %q, want http (env override)", cfg.Transport.Mode)
	}
	if cfg.Transport.Port != 9090 {
		t.Errorf("Transport.Port = %d, want 9090 (env override)", cfg.Transport.Port)
	}
}

func TestSave_NeverPersistsSecrets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	cfg := Default()
	cfg.Platform.APIHash = "super-secret"
	cfg.Platform.PhoneNumber = "+15550000"

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "" {
		t.Fatal("expected non-empty config file")
	}
	for _, secret := range []string{"super-secret", "+15550000"} {
		if strings.Contains(string(data), secret) {
			t.Errorf("persisted config must not contain secret %q", secret)
		}
	}
}

func TestHash_StableForEqualConfig(t *testing.T) {
	a := Default()
	b := Default()
	if a.Hash() != b.Hash() {
		t.Error("two default configs should hash identically")
	}
	b.Session.MaxSessions = 999
	if a.Hash() == b.Hash() {
		t.Error("differing configs should hash differently")
	}
}
