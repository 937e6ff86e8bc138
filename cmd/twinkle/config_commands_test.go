package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	cfg, configPath := newCLIConfig(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, cfg.Paths.SocketPath, configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, cfg.Paths.SocketPath, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, cfg.Paths.SocketPath, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, cfg.Paths.SocketPath, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateRejectsBadFile(t *testing.T) {
	cfg, configPath := newCLIConfig(t)
	if err := os.WriteFile(configPath, []byte("[storage]\nbackend = \"postgres\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, err := runCLI(t, []string{"config", "validate"}, cfg.Paths.SocketPath, configPath)
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	cfg, configPath := newCLIConfig(t)
	f, err := os.OpenFile(configPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open config: %v", err)
	}
	if _, err := f.WriteString("\n[anthropic]\napi_key = \"sk-secret\"\n"); err != nil {
		t.Fatalf("append config: %v", err)
	}
	f.Close()

	out, _, err := runCLI(t, []string{"config", "show"}, cfg.Paths.SocketPath, configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "sk-secret") {
		t.Fatalf("secret leaked in %q", out)
	}
	requireContains(t, out, "********")
	requireContains(t, out, cfg.Paths.StateDir)
}
