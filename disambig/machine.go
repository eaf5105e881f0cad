// Package disambig resolves ambiguous token lookups through conversation.
//
// When the resolver returns several plausible tokens, the machine offers up
// to three of them by voice, matches the user's free-form reply to one, and
// gates the side-effecting analysis launch behind an explicit yes. Exactly
// one machine exists per session; a fresh candidate list overwrites whatever
// episode is in flight.
package disambig

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/voxtlabs/voxtrade/logging"
	"github.com/voxtlabs/voxtrade/tools"
)

// State identifies where the machine is in a disambiguation episode.
type State string

const (
	StateNone              State = "none"
	StateCandidatesOffered State = "candidates_offered"
	StateConfirmPending    State = "confirm_pending"
)

// maxCandidates bounds how many candidates one episode retains.
const maxCandidates = 5

// spokenCandidates bounds how many candidates the prompt enumerates.
const spokenCandidates = 3

// Candidate is one token the resolver considered a plausible match.
type Candidate struct {
	Address      string
	Symbol       string
	Name         string
	LiquidityUSD float64
}

// Label renders the candidate the way it is spoken: symbol or name
// plus a shortened address.
func (c Candidate) Label() string {
	name := c.Symbol
	if name == "" {
		name = c.Name
	}
	if name == "" {
		name = "token"
	}
	return strings.TrimSpace(name + " " + shortAddr(c.Address))
}

// Speaker delivers a plain-text prompt to the user.
type Speaker interface {
	Speak(text string) error
}

// Config configures a Machine.
type Config struct {
	Speaker Speaker
	Invoker tools.Invoker
	Logger  *logging.Logger

	// SideEffectTool is invoked on confirmation with {mint: address}.
	// Defaults to "run_agent".
	SideEffectTool string

	// ConfirmTimeout returns an idle episode to none. Zero disables it.
	ConfirmTimeout time.Duration

	// Notify, when set, receives machine transitions for observability.
	Notify func(kind string, data map[string]interface{})
}

// Machine is the per-session disambiguation state machine.
type Machine struct {
	mu         sync.Mutex
	state      State
	candidates []Candidate
	selected   Candidate
	generation uint64
	timer      *time.Timer

	speaker        Speaker
	invoker        tools.Invoker
	logger         *logging.Logger
	sideEffectTool string
	confirmTimeout time.Duration
	notify         func(kind string, data map[string]interface{})
}

// NewMachine creates a machine in the none state.
func NewMachine(cfg Config) *Machine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New()
	}
	tool := cfg.SideEffectTool
	if tool == "" {
		tool = "run_agent"
	}
	return &Machine{
		state:          StateNone,
		speaker:        cfg.Speaker,
		invoker:        cfg.Invoker,
		logger:         logger.WithComponent("disambig"),
		sideEffectTool: tool,
		confirmTimeout: cfg.ConfirmTimeout,
		notify:         cfg.Notify,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Selected returns the candidate awaiting confirmation, if any.
func (m *Machine) Selected() (Candidate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected, m.state == StateConfirmPending
}

// Offer starts a fresh episode from a resolver result, overwriting any
// episode in flight. Zero candidates keeps the machine in none and asks
// the user to rephrase.
func (m *Machine) Offer(query string, candidates []Candidate) {
	m.mu.Lock()

	if len(candidates) == 0 {
		m.toNoneLocked()
		m.mu.Unlock()
		m.speak(fmt.Sprintf("I couldn't find a token for %q. Please say a different name or symbol.", query))
		m.logger.Disambiguation(string(StateNone), 0)
		m.emit("disambig_offered", map[string]interface{}{"candidates": 0, "query": query})
		return
	}

	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	m.candidates = candidates
	m.selected = Candidate{}
	m.state = StateCandidatesOffered
	m.armTimeoutLocked()
	prompt := buildOfferPrompt(candidates)
	m.mu.Unlock()

	m.speak(prompt)
	m.logger.Disambiguation(string(StateCandidatesOffered), len(candidates))
	m.emit("disambig_offered", map[string]interface{}{"candidates": len(candidates), "query": query})
}

// buildOfferPrompt enumerates the top candidates with distinguishing info.
func buildOfferPrompt(candidates []Candidate) string {
	n := len(candidates)
	if n > spokenCandidates {
		n = spokenCandidates
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		c := candidates[i]
		parts = append(parts, fmt.Sprintf("%d) %s • liq %s", i+1, c.Label(), formatLiquidity(c.LiquidityUSD)))
	}
	return fmt.Sprintf("I found these: %s. Say a number (1-%d), or say the last four of the address, or approximate liquidity (e.g., $2m).",
		strings.Join(parts, "; "), n)
}

// HandleUtterance feeds a user utterance into the machine. It reports
// whether the utterance was consumed; unmatched noise leaves the state
// unchanged and returns false so the caller can route it elsewhere.
func (m *Machine) HandleUtterance(ctx context.Context, text string) bool {
	m.mu.Lock()

	switch m.state {
	case StateCandidatesOffered:
		idx := selectCandidate(text, m.candidates)
		if idx < 0 {
			m.mu.Unlock()
			return false
		}
		choice := m.candidates[idx]
		m.candidates = nil
		m.selected = choice
		m.state = StateConfirmPending
		m.armTimeoutLocked()
		m.mu.Unlock()

		m.speak(fmt.Sprintf("Selected %s. Say \"yes\" to start analysis, or \"no\" to cancel.", choice.Label()))
		m.logger.Disambiguation(string(StateConfirmPending), 1)
		m.emit("disambig_resolved", map[string]interface{}{"index": idx, "address": choice.Address})
		return true

	case StateConfirmPending:
		if IsYes(text) {
			sel := m.selected
			m.toNoneLocked()
			m.mu.Unlock()
			go m.launch(ctx, sel)
			return true
		}
		if IsNo(text) {
			sel := m.selected
			m.toNoneLocked()
			m.mu.Unlock()

			m.speak(fmt.Sprintf("Cancelled %s. You can say another token name or symbol.", sel.Label()))
			m.logger.Disambiguation(string(StateNone), 0)
			m.emit("disambig_dismissed", map[string]interface{}{"address": sel.Address})
			return true
		}
		m.mu.Unlock()
		return false

	default:
		m.mu.Unlock()
		return false
	}
}

// launch runs the confirmed side effect. Success or failure only shapes
// the spoken acknowledgment; the state transition already happened.
func (m *Machine) launch(ctx context.Context, sel Candidate) {
	start := time.Now()
	result := m.invoker.Invoke(ctx, m.sideEffectTool, map[string]interface{}{"mint": sel.Address})

	msg := fmt.Sprintf("Starting analysis for %s.", sel.Label())
	if !result.OK() {
		msg = fmt.Sprintf("Failed to start analysis for %s.", sel.Label())
		m.logger.ToolResult(m.sideEffectTool, time.Since(start), fmt.Errorf("%s", result.ErrorMessage()))
	} else {
		m.logger.ToolResult(m.sideEffectTool, time.Since(start), nil)
	}
	m.speak(msg)
	m.emit("disambig_confirmed", map[string]interface{}{
		"address": sel.Address,
		"ok":      result.OK(),
	})
}

// Reset abandons any episode in flight.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.toNoneLocked()
	m.mu.Unlock()
}

// toNoneLocked clears episode state. Caller holds m.mu.
func (m *Machine) toNoneLocked() {
	m.state = StateNone
	m.candidates = nil
	m.selected = Candidate{}
	m.generation++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// armTimeoutLocked schedules the idle expiry for the current episode.
// Caller holds m.mu. The generation counter keeps a stale timer from
// clearing a newer episode.
func (m *Machine) armTimeoutLocked() {
	m.generation++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.confirmTimeout <= 0 {
		return
	}
	gen := m.generation
	m.timer = time.AfterFunc(m.confirmTimeout, func() {
		m.mu.Lock()
		if m.generation != gen || m.state == StateNone {
			m.mu.Unlock()
			return
		}
		m.toNoneLocked()
		m.mu.Unlock()
		m.logger.Disambiguation(string(StateNone), 0)
		m.emit("disambig_dismissed", map[string]interface{}{"reason": "timeout"})
	})
}

func (m *Machine) speak(text string) {
	if m.speaker == nil {
		return
	}
	if err := m.speaker.Speak(text); err != nil {
		m.logger.Error("speak failed", map[string]interface{}{"error": err.Error()})
	}
}

func (m *Machine) emit(kind string, data map[string]interface{}) {
	if m.notify != nil {
		m.notify(kind, data)
	}
}
