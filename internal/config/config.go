// Package config handles gowamp configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order FindConfig
// uses when it is given no explicit path: ./config.yaml,
// ~/.config/gowamp/config.yaml, /config/config.yaml, /etc/gowamp/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "gowamp", "config.yaml"))
	}

	paths = append(paths, "/config/config.yaml") // Container convention
	paths = append(paths, "/etc/gowamp/config.yaml")
	return paths
}

// searchPathsFunc is a var so tests can override the search order
// without touching the filesystem outside a temp dir.
var searchPathsFunc = DefaultSearchPaths

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches searchPathsFunc() and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	paths := searchPathsFunc()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", paths)
}

// Config holds the settings needed to dial a router and run a session.
type Config struct {
	Router   RouterConfig `yaml:"router"`
	LogLevel string       `yaml:"log_level"`
}

// RouterConfig defines the WAMP router this client dials.
type RouterConfig struct {
	// URL is the router's WebSocket endpoint, e.g. "wss://router.example.com/ws".
	URL string `yaml:"url"`
	// Realm is the realm joined immediately after the connection opens.
	Realm string `yaml:"realm"`
	// DialTimeout bounds the WebSocket handshake. Zero means DefaultDialTimeout.
	DialTimeout time.Duration `yaml:"dial_timeout"`
	// HandshakeTimeout bounds waiting for WELCOME or ABORT after HELLO is
	// sent. Zero means DefaultHandshakeTimeout.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// Default dial/handshake timeouts used when a config omits them.
const (
	DefaultDialTimeout      = 10 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
)

// Load reads configuration from a YAML file, expands environment
// variables, applies defaults for any unset fields, and validates
// the result. After Load returns successfully, all fields are usable
// without additional nil/empty checks.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${GOWAMP_ROUTER_URL}). This is
	// a convenience for container deployments; the recommended approach
	// is to put values directly in the config file.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in zero-value fields with sensible defaults.
// Called automatically by Load. After this, callers can read any field
// without checking for empty strings or zero values.
func (c *Config) applyDefaults() {
	if c.Router.DialTimeout == 0 {
		c.Router.DialTimeout = DefaultDialTimeout
	}
	if c.Router.HandshakeTimeout == 0 {
		c.Router.HandshakeTimeout = DefaultHandshakeTimeout
	}
}

// Validate checks that the configuration is internally consistent.
// It runs after applyDefaults, so it can assume defaults are populated.
// Returns an error describing the first problem found, or nil.
func (c *Config) Validate() error {
	if c.Router.URL == "" {
		return fmt.Errorf("router.url is required")
	}
	if c.Router.Realm == "" {
		return fmt.Errorf("router.realm is required")
	}
	if c.Router.DialTimeout <= 0 {
		return fmt.Errorf("router.dial_timeout must be positive")
	}
	if c.Router.HandshakeTimeout <= 0 {
		return fmt.Errorf("router.handshake_timeout must be positive")
	}
	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

// Default returns a configuration suitable for a local development
// router at ws://localhost:8080/ws on the "realm1" realm. All defaults
// are already applied.
func Default() *Config {
	cfg := &Config{
		Router: RouterConfig{
			URL:   "ws://localhost:8080/ws",
			Realm: "realm1",
		},
		LogLevel: "info",
	}
	cfg.applyDefaults()
	return cfg
}
