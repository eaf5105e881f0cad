// Package config loads session configuration from TOML files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration for TOML decoding of strings like "90s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config holds the full session configuration.
type Config struct {
	Transport     TransportConfig     `toml:"transport"`
	Tools         ToolsConfig         `toml:"tools"`
	Session       SessionConfig       `toml:"session"`
	Observability ObservabilityConfig `toml:"observability"`
}

// TransportConfig configures the control-channel connection.
type TransportConfig struct {
	// URL is the websocket endpoint carrying session frames.
	URL        string `toml:"url"`
	RecvBuffer int    `toml:"recv_buffer"`
	SendBuffer int    `toml:"send_buffer"`
}

// ToolsConfig configures the local tool execution endpoint.
type ToolsConfig struct {
	// Endpoint is the HTTP URL that executes local tool calls.
	Endpoint   string `toml:"endpoint"`
	AgentToken string `toml:"agent_token"`
	UserToken  string `toml:"user_token"`
	// RateLimit caps local tool calls per minute. Zero disables the cap.
	RateLimit int `toml:"rate_limit"`
	// Allowed overrides the default local tool allow-list when non-empty.
	Allowed []string `toml:"allowed"`
	Timeout Duration `toml:"timeout"`
}

// SessionConfig configures reconciliation behavior.
type SessionConfig struct {
	// DeferredTTL bounds how long an output may wait for a late call ID.
	DeferredTTL Duration `toml:"deferred_ttl"`
	// ConfirmTimeout bounds how long a pending confirmation stays live.
	// Zero disables the timeout.
	ConfirmTimeout Duration `toml:"confirm_timeout"`
}

// ObservabilityConfig configures telemetry export.
type ObservabilityConfig struct {
	NATSURL string `toml:"nats_url"`
	// Export selects the exporter: "", "log", "file", or "http".
	Export       string `toml:"export"`
	ExportTarget string `toml:"export_target"`
	// OTLPEndpoint enables span export when set. Falls back to
	// OTEL_EXPORTER_OTLP_ENDPOINT.
	OTLPEndpoint string `toml:"otlp_endpoint"`
	// OTLPProtocol is "grpc" or "http". Empty means grpc.
	OTLPProtocol string `toml:"otlp_protocol"`
	OTLPInsecure bool   `toml:"otlp_insecure"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Transport: TransportConfig{
			RecvBuffer: 64,
			SendBuffer: 64,
		},
		Tools: ToolsConfig{
			Endpoint: "http://localhost:3013/realtime/tool-call",
			Timeout:  Duration{30 * time.Second},
		},
		Session: SessionConfig{
			DeferredTTL: Duration{2 * time.Minute},
		},
	}
}

// Load reads a TOML config file, applying defaults for missing fields.
// Token fields fall back to AGENT_TOKEN and USER_TOKEN environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a config from TOML content.
func Parse(content string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv fills token fields from the environment when unset.
func (c *Config) applyEnv() {
	if c.Tools.AgentToken == "" {
		c.Tools.AgentToken = os.Getenv("AGENT_TOKEN")
	}
	if c.Tools.UserToken == "" {
		c.Tools.UserToken = os.Getenv("USER_TOKEN")
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Tools.Endpoint == "" {
		return fmt.Errorf("tools.endpoint is required")
	}
	if c.Tools.RateLimit < 0 {
		return fmt.Errorf("tools.rate_limit must not be negative")
	}
	if c.Session.DeferredTTL.Duration <= 0 {
		return fmt.Errorf("session.deferred_ttl must be positive")
	}
	if c.Session.ConfirmTimeout.Duration < 0 {
		return fmt.Errorf("session.confirm_timeout must not be negative")
	}
	if c.Transport.RecvBuffer < 0 || c.Transport.SendBuffer < 0 {
		return fmt.Errorf("transport buffers must not be negative")
	}
	switch c.Observability.Export {
	case "", "log", "file", "http":
	default:
		return fmt.Errorf("observability.export must be one of log, file, http")
	}
	switch c.Observability.OTLPProtocol {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("observability.otlp_protocol must be grpc or http")
	}
	return nil
}
