package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Shell.Command != "" {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
	if cfg.CommandPrefixByte() != 0x02 {
		t.Fatalf("expected default command prefix 0x02, got %#x", cfg.CommandPrefixByte())
	}
}

func TestLoadFromParsesConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "shell:\n  command: /bin/bash\nassistant:\n  command: claude\n  args: [\"--resume\"]\nkeys:\n  command_prefix: \"b\"\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Shell.Command != "/bin/bash" {
		t.Fatalf("expected shell command /bin/bash, got %q", cfg.Shell.Command)
	}
	if cfg.Assistant.Command != "claude" || len(cfg.Assistant.Args) != 1 || cfg.Assistant.Args[0] != "--resume" {
		t.Fatalf("unexpected assistant config: %+v", cfg.Assistant)
	}
	if cfg.CommandPrefixByte() != 'b' {
		t.Fatalf("expected command prefix 'b', got %q", cfg.CommandPrefixByte())
	}
}

func TestLoadFromRejectsMultiCharPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("keys:\n  command_prefix: \"ab\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for multi-character command prefix")
	}
}
