package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AuthHost != DefaultAuthHost {
		t.Errorf("AuthHost = %q, want %q", cfg.AuthHost, DefaultAuthHost)
	}
	if cfg.ConnectHost != DefaultConnectHost {
		t.Errorf("ConnectHost = %q, want %q", cfg.ConnectHost, DefaultConnectHost)
	}
	if cfg.PollingSeconds != DefaultPollingSeconds {
		t.Errorf("PollingSeconds = %d, want %d", cfg.PollingSeconds, DefaultPollingSeconds)
	}
	if cfg.CallbackPort != DefaultCallbackPort {
		t.Errorf("CallbackPort = %d, want %d", cfg.CallbackPort, DefaultCallbackPort)
	}
	if got, want := cfg.RedirectURI(), DefaultRedirectScheme+"://login"; got != want {
		t.Errorf("RedirectURI() = %q, want %q", got, want)
	}
}

func TestLoadConfigParsesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
auth-host: https://auth.example.com/
connect-host: https://connect.example.com
client-id: abc123
redirect-scheme: myslicer
scope: basic_info
polling-seconds: 30
connect-polling: true
remember-session: true
callback-port: 9000
debug: true
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AuthHost != "https://auth.example.com" {
		t.Errorf("AuthHost = %q, trailing slash must be trimmed", cfg.AuthHost)
	}
	if cfg.ClientID != "abc123" {
		t.Errorf("ClientID = %q", cfg.ClientID)
	}
	if cfg.PollingSeconds != 30 {
		t.Errorf("PollingSeconds = %d", cfg.PollingSeconds)
	}
	if !cfg.ConnectPolling || !cfg.RememberSession || !cfg.Debug {
		t.Errorf("bool fields = %+v", cfg)
	}
	if got := cfg.RedirectURI(); got != "myslicer://login" {
		t.Errorf("RedirectURI() = %q", got)
	}
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("auth-host: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("malformed YAML must fail")
	}
}
