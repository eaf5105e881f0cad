package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voxtlabs/voxtrade/errors"
)

// DefaultTimeout bounds a single tool endpoint call.
const DefaultTimeout = 30 * time.Second

// Invoker executes a named tool with JSON arguments.
// Failures are reported in-band through the Result, never as a Go error.
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]interface{}) Result
}

// ClientConfig configures a tool endpoint client.
type ClientConfig struct {
	// Endpoint is the HTTP URL receiving {"name": ..., "args": ...} bodies.
	Endpoint   string
	AgentToken string
	UserToken  string
	Timeout    time.Duration
	// RatePerMinute caps calls per minute. Zero disables the cap.
	RatePerMinute int
}

// Client executes tool calls against an HTTP endpoint.
type Client struct {
	endpoint   string
	agentToken string
	userToken  string
	httpClient *http.Client
	gate       *gate
}

// NewClient creates a tool endpoint client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		endpoint:   cfg.Endpoint,
		agentToken: cfg.AgentToken,
		userToken:  cfg.UserToken,
		httpClient: &http.Client{Timeout: timeout},
	}
	if cfg.RatePerMinute > 0 {
		c.gate = newGate(cfg.RatePerMinute, time.Minute)
	}
	return c
}

// Invoke posts the call to the endpoint and decodes the JSON response.
// Any failure, transport, HTTP status, or decode, comes back as an
// in-band failure result.
func (c *Client) Invoke(ctx context.Context, name string, args map[string]interface{}) Result {
	if c.gate != nil && !c.gate.tryAcquire() {
		return Failure(errors.Newf(errors.ErrCodeRateLimited, "rate limit exceeded for %s", name))
	}

	if args == nil {
		args = map[string]interface{}{}
	}
	body, err := json.Marshal(map[string]interface{}{
		"name": name,
		"args": args,
	})
	if err != nil {
		return Failure(fmt.Errorf("encoding call %s: %w", name, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Failure(fmt.Errorf("building request for %s: %w", name, err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.agentToken != "" {
		req.Header.Set("x-agent-token", c.agentToken)
	}
	if c.userToken != "" {
		req.Header.Set("x-user-token", c.userToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		code := errors.ErrCodeToolFailed
		if ctx.Err() != nil {
			code = errors.ErrCodeTimeout
		}
		return Failure(errors.WrapWithCode(err, code, fmt.Sprintf("calling %s", name)))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failure(fmt.Errorf("reading %s response: %w", name, err))
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		if resp.StatusCode >= 400 {
			return Failure(fmt.Errorf("%s returned status %d", name, resp.StatusCode))
		}
		return Failure(fmt.Errorf("decoding %s response: %w", name, err))
	}

	if resp.StatusCode >= 400 && result.OK() {
		// Status wins when the body forgot to mark the failure.
		result["ok"] = false
		if result.ErrorMessage() == "" {
			result["error"] = fmt.Sprintf("%s returned status %d", name, resp.StatusCode)
		}
	}
	return result
}

// Ensure Client implements Invoker.
var _ Invoker = (*Client)(nil)
