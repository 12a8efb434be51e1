package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
port: 9000
debug: true
relay-path: shell
apple:
  client-id: " com.example.web "
  redirect-uri: https://example.com/apple/return
  callback-timeout-seconds: 30
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 9000 || !cfg.Debug {
		t.Fatalf("unexpected listener settings: %+v", cfg)
	}
	if cfg.RelayPath != "/shell" || cfg.CallbackPath != DefaultCallbackPath {
		t.Fatalf("unexpected paths: relay=%q callback=%q", cfg.RelayPath, cfg.CallbackPath)
	}
	if cfg.Apple.ClientID != "com.example.web" {
		t.Fatalf("client id not trimmed: %q", cfg.Apple.ClientID)
	}
	if cfg.Apple.CallbackTimeout() != 30*time.Second {
		t.Fatalf("CallbackTimeout = %v", cfg.Apple.CallbackTimeout())
	}
	if err = cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Addr() != ":9000" {
		t.Fatalf("Addr = %q", cfg.Addr())
	}
}

func TestLoadConfigOptional(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := LoadConfig(missing); err == nil {
		t.Fatal("expected error for missing required config")
	}
	cfg, err := LoadConfigOptional(missing, true)
	if err != nil {
		t.Fatalf("LoadConfigOptional: %v", err)
	}
	if cfg.Port != DefaultPort || cfg.RelayPath != DefaultRelayPath {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Apple.CallbackTimeout() != DefaultCallbackTimeout {
		t.Fatalf("CallbackTimeout = %v", cfg.Apple.CallbackTimeout())
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "port: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{}
	env := map[string]string{
		"APPLE_CLIENT_ID":     "env.client",
		"APPLE_REDIRECT_URI":  "https://env.example/return",
		"APPLE_INTERCEPT_URL": "  ",
	}
	cfg.ApplyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	if cfg.Apple.ClientID != "env.client" || cfg.Apple.RedirectURI != "https://env.example/return" {
		t.Fatalf("env not applied: %+v", cfg.Apple)
	}
	if cfg.Apple.InterceptURL != "" {
		t.Fatalf("blank env value should be ignored, got %q", cfg.Apple.InterceptURL)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"missing client", Config{Apple: AppleConfig{RedirectURI: "https://x/return"}}},
		{"missing redirect", Config{Apple: AppleConfig{ClientID: "id"}}},
		{"relative redirect", Config{Apple: AppleConfig{ClientID: "id", RedirectURI: "/return"}}},
		{"same paths", Config{RelayPath: "/x", CallbackPath: "/x", Apple: AppleConfig{ClientID: "id", RedirectURI: "https://x/return"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.SanitizeDefaults()
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
