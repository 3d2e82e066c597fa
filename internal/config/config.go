package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultServerName identifies this server in tool responses and telemetry.
	DefaultServerName = "telegram-mcp-go"
	// DefaultServerVersion is the protocol/server version reported to clients.
	DefaultServerVersion = "1.0.0"
)

// Config is the root configuration for the Telegram MCP tool server.
type Config struct {
	Transport TransportConfig `json:"transport"`
	Platform  PlatformConfig  `json:"platform"`
	Session   SessionConfig   `json:"session"`
	Search    SearchConfig    `json:"search"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`

	mu sync.RWMutex
}

// TransportConfig selects how the MCP server is exposed.
type TransportConfig struct {
	// Mode is one of "stdio" or "http" (streamable HTTP).
	Mode string `json:"mode"`
	Host string `json:"host"`
	Port int    `json:"port"`
	// AuthEnabled gates spec.md §4.2's bearer-token requirement for
	// network-mode calls. Only meaningful when Mode is "http"; stdio mode
	// has no auth headers to check (spec.md §6). --test-mode forces this
	// to false (spec.md §6's "auth disabled").
	AuthEnabled bool `json:"auth_enabled"`
}

// PlatformConfig carries the MTProto application identity. APIHash and
// PhoneNumber are secrets: tagged json:"-" so Save never persists them —
// they are only ever sourced from the environment, same convention the
// teacher uses for TailscaleConfig.AuthKey and DatabaseConfig.PostgresDSN.
type PlatformConfig struct {
	APIID       int    `json:"api_id"`
	APIHash     string `json:"-"`
	PhoneNumber string `json:"-"`
	SessionName string `json:"session_name"`
}

// SessionConfig tunes the session manager (spec.md §4.1, §5).
type SessionConfig struct {
	IdleTTL         time.Duration `json:"idle_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
	MaxSessions     int           `json:"max_sessions"`
	ConnectTimeout  time.Duration `json:"connect_timeout"`
}

// SearchConfig tunes the search orchestrator's defaults (spec.md §4.3).
type SearchConfig struct {
	DefaultLimit             int `json:"default_limit"`
	DefaultAutoExpandBatches int `json:"default_auto_expand_batches"`
}

// TelemetryConfig configures the OTLP HTTP trace exporter.
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled"`
	Endpoint    string `json:"endpoint,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	Insecure    bool   `json:"insecure,omitempty"`
}

// Replace swaps in the field values of other, for use after a hot reload
// (internal/config/config_watch.go). It copies field-by-field rather than
// via struct assignment so Config's own mutex is never itself overwritten.
func (c *Config) Replace(other *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Transport = other.Transport
	c.Platform = other.Platform
	c.Session = other.Session
	c.Search = other.Search
	c.Telemetry = other.Telemetry
}

// Hash returns a short SHA-256 fingerprint of the config for config-reload
// change detection (logged on each fsnotify reload in config_watch.go).
func (c *Config) Hash() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, _ := json.Marshal(c)
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:8])
}
