// Package policy decides which tool calls the session executes itself.
//
// Calls owned by the remote side are observed only; everything else runs
// against the local tool endpoint when its name is on the allow-list.
package policy

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultLocalTools are the tool names executed locally out of the box.
var DefaultLocalTools = []string{
	"resolve_token",
	"run_agent",
	"get_wallet_balance",
	"list_watchlist",
}

// Policy is the set of tool names the session may execute locally.
type Policy struct {
	allowed map[string]struct{}
}

// New creates a policy allowing exactly the given tool names.
func New(names ...string) *Policy {
	p := &Policy{allowed: make(map[string]struct{}, len(names))}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			p.allowed[name] = struct{}{}
		}
	}
	return p
}

// Default returns the policy with the built-in allow-list.
func Default() *Policy {
	return New(DefaultLocalTools...)
}

// tomlPolicy is the TOML representation.
type tomlPolicy struct {
	Tools struct {
		Allowed []string `toml:"allowed"`
	} `toml:"tools"`
}

// LoadFile loads a policy from a TOML file.
func LoadFile(path string) (*Policy, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(string(content))
}

// Parse parses a policy from TOML content. An empty or missing
// [tools] allowed list falls back to the defaults.
func Parse(content string) (*Policy, error) {
	var raw tomlPolicy
	if _, err := toml.Decode(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	if len(raw.Tools.Allowed) == 0 {
		return Default(), nil
	}
	return New(raw.Tools.Allowed...), nil
}

// IsLocal reports whether the named tool is executed locally.
func (p *Policy) IsLocal(name string) bool {
	if p == nil {
		return false
	}
	_, ok := p.allowed[name]
	return ok
}

// Allow adds a tool name to the allow-list.
func (p *Policy) Allow(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	p.allowed[name] = struct{}{}
}

// Names returns the allowed tool names in no particular order.
func (p *Policy) Names() []string {
	names := make([]string, 0, len(p.allowed))
	for name := range p.allowed {
		names = append(names, name)
	}
	return names
}
