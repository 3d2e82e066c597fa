package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults (spec.md §6; exact
// values recorded as Open Question decisions in DESIGN.md).
func Default() *Config {
	return &Config{
		Transport: TransportConfig{
			Mode:        "stdio",
			Host:        "0.0.0.0",
			Port:        8000,
			AuthEnabled: true,
		},
		Platform: PlatformConfig{
			SessionName: "mcp_telegram",
		},
		Session: SessionConfig{
			IdleTTL:         15 * time.Minute,
			CleanupInterval: 1 * time.Minute,
			MaxSessions:     256,
			ConnectTimeout:  10 * time.Second,
		},
		Search: SearchConfig{
			DefaultLimit:             20,
			DefaultAutoExpandBatches: 2,
		},
		Telemetry: TelemetryConfig{
			ServiceName: DefaultServerName,
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars. A missing
// file is not an error: defaults plus env overrides are used instead,
// matching the teacher's fallback behavior in config_load.go.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config. Env vars take
// precedence over file values, and are the ONLY source for credentials
// (spec.md §6's env table) — Save never writes them back out since
// PlatformConfig.APIHash/PhoneNumber are tagged json:"-".
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	envDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
	envBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	envStr("MCP_TRANSPORT", &c.Transport.Mode)
	envStr("MCP_HOST", &c.Transport.Host)
	envInt("MCP_PORT", &c.Transport.Port)
	envBool("MCP_AUTH_ENABLED", &c.Transport.AuthEnabled)

	envInt("API_ID", &c.Platform.APIID)
	envStr("API_HASH", &c.Platform.APIHash)
	envStr("PHONE_NUMBER", &c.Platform.PhoneNumber)
	envStr("SESSION_NAME", &c.Platform.SessionName)

	envDuration("SESSION_IDLE_TTL", &c.Session.IdleTTL)
	envDuration("SESSION_CLEANUP_INTERVAL", &c.Session.CleanupInterval)
	envInt("SESSION_MAX", &c.Session.MaxSessions)
	envDuration("SESSION_CONNECT_TIMEOUT", &c.Session.ConnectTimeout)

	envBool("OTEL_ENABLED", &c.Telemetry.Enabled)
	envStr("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Telemetry.Endpoint)
	if c.Telemetry.Endpoint != "" {
		c.Telemetry.Enabled = true
	}
	envStr("OTEL_SERVICE_NAME", &c.Telemetry.ServiceName)
	envBool("OTEL_EXPORTER_OTLP_INSECURE", &c.Telemetry.Insecure)
}

// ApplyEnvOverrides re-applies environment variable overrides onto the
// config. Call after a config-file hot reload to restore runtime secrets
// that are never read from disk.
func (c *Config) ApplyEnvOverrides() {
	c.applyEnvOverrides()
}

// Save writes the non-secret portion of the config to a JSON file.
func Save(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0600)
}
