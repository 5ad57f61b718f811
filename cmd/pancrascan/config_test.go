package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadClientConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server: http://diagnostics.example.org:8080\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := loadClientConfig(path)
	if err != nil {
		t.Fatalf("loadClientConfig failed: %v", err)
	}
	if cfg.Server != "http://diagnostics.example.org:8080" {
		t.Errorf("Expected configured server, got %q", cfg.Server)
	}
}

func TestLoadClientConfigMissingFile(t *testing.T) {
	cfg, err := loadClientConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing config file should not be an error: %v", err)
	}
	if cfg.Server != "" {
		t.Errorf("Expected zero config, got %+v", cfg)
	}
}

func TestLoadClientConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [oops\n"), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := loadClientConfig(path); err == nil {
		t.Error("Expected error for malformed config")
	}
}

func TestResolveServerFlagWins(t *testing.T) {
	if got := resolveServer("http://flag.example.org"); got != "http://flag.example.org" {
		t.Errorf("Expected the flag value to win, got %q", got)
	}
}
