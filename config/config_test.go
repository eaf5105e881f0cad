package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_Defaults(t *testing.T) {
	cfg, err := Parse("")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if cfg.Tools.Endpoint == "" {
		t.Error("expected default tools endpoint")
	}
	if cfg.Session.DeferredTTL.Duration != 2*time.Minute {
		t.Errorf("expected default deferred TTL 2m, got %v", cfg.Session.DeferredTTL.Duration)
	}
	if cfg.Session.ConfirmTimeout.Duration != 0 {
		t.Error("expected confirm timeout disabled by default")
	}
	if cfg.Transport.RecvBuffer != 64 {
		t.Errorf("expected default recv buffer 64, got %d", cfg.Transport.RecvBuffer)
	}
}

func TestConfig_LoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "session.toml")

	content := `
[transport]
url = "wss://example.com/realtime"
recv_buffer = 128

[tools]
endpoint = "http://localhost:9000/tool-call"
rate_limit = 30
allowed = ["resolve_token"]
timeout = "10s"

[session]
deferred_ttl = "90s"
confirm_timeout = "45s"

[observability]
export = "log"
otlp_endpoint = "collector:4317"
otlp_protocol = "grpc"
otlp_insecure = true
`
	os.WriteFile(path, []byte(content), 0644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if cfg.Transport.URL != "wss://example.com/realtime" {
		t.Errorf("unexpected transport url: %s", cfg.Transport.URL)
	}
	if cfg.Transport.RecvBuffer != 128 {
		t.Errorf("expected recv buffer 128, got %d", cfg.Transport.RecvBuffer)
	}
	if cfg.Tools.Endpoint != "http://localhost:9000/tool-call" {
		t.Errorf("unexpected tools endpoint: %s", cfg.Tools.Endpoint)
	}
	if cfg.Tools.RateLimit != 30 {
		t.Errorf("expected rate limit 30, got %d", cfg.Tools.RateLimit)
	}
	if cfg.Tools.Timeout.Duration != 10*time.Second {
		t.Errorf("expected tools timeout 10s, got %v", cfg.Tools.Timeout.Duration)
	}
	if cfg.Session.DeferredTTL.Duration != 90*time.Second {
		t.Errorf("expected deferred TTL 90s, got %v", cfg.Session.DeferredTTL.Duration)
	}
	if cfg.Session.ConfirmTimeout.Duration != 45*time.Second {
		t.Errorf("expected confirm timeout 45s, got %v", cfg.Session.ConfirmTimeout.Duration)
	}
	if cfg.Observability.Export != "log" {
		t.Errorf("expected log export, got %s", cfg.Observability.Export)
	}
	if cfg.Observability.OTLPEndpoint != "collector:4317" {
		t.Errorf("unexpected otlp endpoint: %s", cfg.Observability.OTLPEndpoint)
	}
	if !cfg.Observability.OTLPInsecure {
		t.Error("expected otlp_insecure to be set")
	}
}

func TestConfig_LoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/session.toml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConfig_EnvTokens(t *testing.T) {
	t.Setenv("AGENT_TOKEN", "agent-secret")
	t.Setenv("USER_TOKEN", "user-secret")

	cfg, err := Parse("")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if cfg.Tools.AgentToken != "agent-secret" {
		t.Errorf("expected agent token from env, got %q", cfg.Tools.AgentToken)
	}
	if cfg.Tools.UserToken != "user-secret" {
		t.Errorf("expected user token from env, got %q", cfg.Tools.UserToken)
	}
}

func TestConfig_FileTokenWinsOverEnv(t *testing.T) {
	t.Setenv("AGENT_TOKEN", "env-token")

	cfg, err := Parse(`
[tools]
agent_token = "file-token"
`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if cfg.Tools.AgentToken != "file-token" {
		t.Errorf("expected file token to win, got %q", cfg.Tools.AgentToken)
	}
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad deferred ttl", "[session]\ndeferred_ttl = \"0s\""},
		{"negative rate limit", "[tools]\nrate_limit = -1"},
		{"empty endpoint", "[tools]\nendpoint = \"\""},
		{"unknown export", "[observability]\nexport = \"syslog\""},
		{"unknown otlp protocol", "[observability]\notlp_protocol = \"udp\""},
		{"bad duration", "[session]\ndeferred_ttl = \"ninety\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.content); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}
