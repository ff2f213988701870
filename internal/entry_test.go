package internal

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.App.LogLevel = slog.LevelError
	cfg.Vault.Path = filepath.Join(dir, "notes")
	cfg.Index.Path = filepath.Join(dir, ".indexes")
	cfg.SQLite.Path = filepath.Join(dir, "alma.db")
	return cfg
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestRunRegenerate(t *testing.T) {
	cfg := testConfig(t)
	doc := "---\nid: n1\ntitle: First\ncreated: 2025-01-01T00:00:00.000000Z\nproject: work\n---\n\nFirst\n"
	if err := os.MkdirAll(filepath.Join(cfg.Vault.Path, "work"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Vault.Path, "work", "first.md"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := RunRegenerate(context.Background(), WithConfig(cfg), WithOutput(&out)); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "Regenerated indexes: 1 notes (0 errors)\n" {
		t.Errorf("output = %q", got)
	}
	if _, err := os.Stat(filepath.Join(cfg.Index.Path, "metadata.json")); err != nil {
		t.Errorf("metadata index not written: %v", err)
	}
}
