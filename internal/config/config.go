// Package config provides configuration management for the Sign in with Apple
// webview host. It handles loading and parsing YAML configuration files and
// provides structured access to the listener, logging and Apple client settings.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is the listener port used when none is configured.
	DefaultPort = 8317
	// DefaultRelayPath is where webview shells connect.
	DefaultRelayPath = "/v1/webview"
	// DefaultCallbackPath receives Apple's form_post when the redirect URI targets this host.
	DefaultCallbackPath = "/auth/apple/callback"
	// DefaultCallbackTimeout bounds how long the login command waits for a result.
	DefaultCallbackTimeout = 5 * time.Minute
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Host is the interface the HTTP listener binds to. Empty binds all interfaces.
	Host string `yaml:"host" json:"host"`

	// Port is the HTTP listener port.
	Port int `yaml:"port" json:"port"`

	// Debug enables debug level logging.
	Debug bool `yaml:"debug" json:"debug"`

	// LoggingToFile writes logs to a rotating file instead of stdout.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// LogDir is the directory for log files when LoggingToFile is set.
	LogDir string `yaml:"log-dir,omitempty" json:"log-dir,omitempty"`

	// RelayPath is the websocket path for webview shells.
	RelayPath string `yaml:"relay-path" json:"relay-path"`

	// CallbackPath receives Apple's form_post in callback mode.
	CallbackPath string `yaml:"callback-path" json:"callback-path"`

	// Apple holds the Sign in with Apple client settings.
	Apple AppleConfig `yaml:"apple" json:"apple"`
}

// AppleConfig holds the Sign in with Apple client registration.
type AppleConfig struct {
	// ClientID is the Services ID registered with Apple.
	ClientID string `yaml:"client-id" json:"client-id"`

	// RedirectURI is the return URL registered for the Services ID.
	RedirectURI string `yaml:"redirect-uri" json:"redirect-uri"`

	// Scope is the space separated scope list; defaults to "name email".
	Scope string `yaml:"scope,omitempty" json:"scope,omitempty"`

	// InterceptURL is the URL substring that marks the redirect in the webview.
	// Defaults to RedirectURI.
	InterceptURL string `yaml:"intercept-url,omitempty" json:"intercept-url,omitempty"`

	// AuthURL overrides Apple's authorization endpoint.
	AuthURL string `yaml:"auth-url,omitempty" json:"auth-url,omitempty"`

	// CallbackTimeoutSeconds bounds the wait for a result. <= 0 uses the default.
	CallbackTimeoutSeconds int `yaml:"callback-timeout-seconds,omitempty" json:"callback-timeout-seconds,omitempty"`
}

// CallbackTimeout returns the configured wait for a result.
func (c AppleConfig) CallbackTimeout() time.Duration {
	if c.CallbackTimeoutSeconds <= 0 {
		return DefaultCallbackTimeout
	}
	return time.Duration(c.CallbackTimeoutSeconds) * time.Second
}

// LoadConfig reads and validates the configuration file at path.
func LoadConfig(configFile string) (*Config, error) {
	return LoadConfigOptional(configFile, false)
}

// LoadConfigOptional reads the configuration file at path. When optional is set a
// missing or empty file yields the defaults instead of an error.
func LoadConfigOptional(configFile string, optional bool) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(configFile)
	if err != nil {
		if !optional || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		data = nil
	}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	cfg.SanitizeDefaults()
	return cfg, nil
}

// ApplyEnv overrides Apple client settings from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup("APPLE_CLIENT_ID"); ok && strings.TrimSpace(v) != "" {
		c.Apple.ClientID = strings.TrimSpace(v)
	}
	if v, ok := lookup("APPLE_REDIRECT_URI"); ok && strings.TrimSpace(v) != "" {
		c.Apple.RedirectURI = strings.TrimSpace(v)
	}
	if v, ok := lookup("APPLE_INTERCEPT_URL"); ok && strings.TrimSpace(v) != "" {
		c.Apple.InterceptURL = strings.TrimSpace(v)
	}
}

// SanitizeDefaults fills unset fields with their defaults.
func (c *Config) SanitizeDefaults() {
	c.Host = strings.TrimSpace(c.Host)
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	c.RelayPath = normalizePath(c.RelayPath, DefaultRelayPath)
	c.CallbackPath = normalizePath(c.CallbackPath, DefaultCallbackPath)
	c.Apple.ClientID = strings.TrimSpace(c.Apple.ClientID)
	c.Apple.RedirectURI = strings.TrimSpace(c.Apple.RedirectURI)
	c.Apple.InterceptURL = strings.TrimSpace(c.Apple.InterceptURL)
	c.Apple.Scope = strings.TrimSpace(c.Apple.Scope)
}

// Validate checks the settings a login needs.
func (c *Config) Validate() error {
	if c.Apple.ClientID == "" {
		return fmt.Errorf("config: apple.client-id is required")
	}
	if c.Apple.RedirectURI == "" {
		return fmt.Errorf("config: apple.redirect-uri is required")
	}
	parsed, err := url.Parse(c.Apple.RedirectURI)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("config: apple.redirect-uri %q is not an absolute URL", c.Apple.RedirectURI)
	}
	if c.RelayPath == c.CallbackPath {
		return fmt.Errorf("config: relay-path and callback-path must differ")
	}
	return nil
}

// Addr returns the listener address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func normalizePath(path, fallback string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return fallback
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
