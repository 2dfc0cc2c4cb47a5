// Package config provides configuration management for the accountlink
// daemon. It handles loading and parsing YAML configuration files and
// provides structured access to identity-provider endpoints, polling
// behavior, and credential persistence settings.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default endpoint and behavior values applied when the config file leaves
// them unset.
const (
	DefaultAuthHost        = "https://account.prusa3d.com"
	DefaultConnectHost     = "https://connect.prusa3d.com"
	DefaultRedirectScheme  = "prusaslicer"
	DefaultScope           = "basic_info"
	DefaultPollingSeconds  = 10
	DefaultCallbackPort    = 53621
	DefaultSecretsDirName  = ".accountlink"
	DefaultSecretsFileName = "secrets.json"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// AuthHost is the base URL of the OAuth2 identity provider.
	AuthHost string `yaml:"auth-host"`

	// ConnectHost is the base URL of the cloud print service API.
	ConnectHost string `yaml:"connect-host"`

	// ClientID is the OAuth2 client identifier registered for this application.
	ClientID string `yaml:"client-id"`

	// RedirectScheme is the custom URL scheme the identity provider redirects
	// back to after authorization (e.g. "prusaslicer" -> prusaslicer://login).
	RedirectScheme string `yaml:"redirect-scheme"`

	// Scope is the OAuth2 scope requested during authorization.
	Scope string `yaml:"scope"`

	// PollingSeconds is the interval of the foreground poll timer that wakes
	// the session worker while the window is active.
	PollingSeconds int `yaml:"polling-seconds"`

	// ConnectPolling enables the recurring cloud-service polling action
	// appended to every queue-processing pass.
	ConnectPolling bool `yaml:"connect-polling"`

	// RememberSession controls whether tokens are persisted across restarts.
	RememberSession bool `yaml:"remember-session"`

	// SecretsDir is the directory holding the credential store file. Empty
	// means a dot directory under the user's home.
	SecretsDir string `yaml:"secrets-dir"`

	// CallbackPort is the loopback port used when the daemon catches the
	// authorization redirect over HTTP instead of the custom URL scheme.
	CallbackPort int `yaml:"callback-port"`

	// LogDir enables rotating file logging when non-empty.
	LogDir string `yaml:"log-dir"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`
}

// LoadConfig reads the YAML file at path and applies defaults to unset
// fields. A missing file yields a default configuration, not an error, so
// the daemon can start unconfigured and rely on environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s failed: %w", path, err)
		}
	} else if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s failed: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.AuthHost) == "" {
		c.AuthHost = DefaultAuthHost
	}
	if strings.TrimSpace(c.ConnectHost) == "" {
		c.ConnectHost = DefaultConnectHost
	}
	if strings.TrimSpace(c.RedirectScheme) == "" {
		c.RedirectScheme = DefaultRedirectScheme
	}
	if strings.TrimSpace(c.Scope) == "" {
		c.Scope = DefaultScope
	}
	if c.PollingSeconds <= 0 {
		c.PollingSeconds = DefaultPollingSeconds
	}
	if c.CallbackPort <= 0 {
		c.CallbackPort = DefaultCallbackPort
	}
	c.AuthHost = strings.TrimRight(c.AuthHost, "/")
	c.ConnectHost = strings.TrimRight(c.ConnectHost, "/")
}

// RedirectURI returns the custom-scheme redirect URI sent to the identity
// provider, e.g. "prusaslicer://login".
func (c *Config) RedirectURI() string {
	return c.RedirectScheme + "://login"
}
