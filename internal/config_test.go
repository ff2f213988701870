package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/alma/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestAuthConfig_EmptyUserDefaultsLocal(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled"}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.User != DefaultUser {
		t.Errorf("user = %q, want %q", cfg.User, DefaultUser)
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Vault.Watch {
		t.Error("watcher should be off by default")
	}
	if cfg.Vault.WatchDebounce != 500*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Vault.WatchDebounce)
	}
}

func TestFullConfig_IndexPathRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Index.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty index path should fail validation")
	}
}

func TestFullConfig_CacheBounds(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Cache.Size = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero cache size should fail validation")
	}

	cfg = NewDefaultConfig()
	cfg.Cache.TTL = time.Millisecond
	if err := cfg.Validate(); err == nil {
		t.Fatal("sub-second cache ttl should fail validation")
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "vault:\n  path: /tmp/notes\n  watch: true\n  watch_debounce: 2s\ncache:\n  ttl: 1m\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Vault.Path != "/tmp/notes" || !cfg.Vault.Watch || cfg.Vault.WatchDebounce != 2*time.Second {
		t.Errorf("vault = %+v", cfg.Vault)
	}
	if cfg.Cache.TTL != time.Minute || cfg.Cache.Size != 1024 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.App.HTTP.Port != 8080 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
}
