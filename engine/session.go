// Package engine reconciles streamed tool-call frames into executed calls.
//
// A Session owns one control-channel connection. It normalizes inbound
// frames, correlates call fragments across late and missing identifiers,
// assembles argument buffers, dispatches completed calls, and emits closing
// outputs back to the transport, deferring any output whose call id is not
// yet known. All state is per-session; concurrent sessions never collide.
package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/voxtlabs/voxtrade/disambig"
	"github.com/voxtlabs/voxtrade/frame"
	"github.com/voxtlabs/voxtrade/logging"
	"github.com/voxtlabs/voxtrade/policy"
	"github.com/voxtlabs/voxtrade/state"
	"github.com/voxtlabs/voxtrade/telemetry"
	"github.com/voxtlabs/voxtrade/tools"
	"github.com/voxtlabs/voxtrade/transport"
)

// DefaultDeferredTTL bounds how long an output may wait for a late call id.
const DefaultDeferredTTL = 2 * time.Minute

// Config configures a Session.
type Config struct {
	// SessionID identifies this session in logs and telemetry.
	// A random id is assigned when empty.
	SessionID string

	Transport transport.Transport
	Invoker   tools.Invoker
	Policy    *policy.Policy
	Machine   *disambig.Machine
	Logger    *logging.Logger
	Observer  telemetry.Observer

	// DeferredTTL bounds the deferred-output table. Defaults to
	// DefaultDeferredTTL.
	DeferredTTL time.Duration
}

// Session is the per-connection reconciliation engine.
type Session struct {
	id       string
	tr       transport.Transport
	invoker  tools.Invoker
	policy   *policy.Policy
	machine  *disambig.Machine
	logger   *logging.Logger
	observer telemetry.Observer
	tracer   *telemetry.Tracer

	byItem      map[string]*CallRecord
	byCall      map[string]*CallRecord
	current     *CallRecord
	deferred    *state.TTLStore
	deferredTTL time.Duration

	// resume carries continuations from tool goroutines back onto the
	// single frame-processing goroutine.
	resume chan func()
	seq    atomic.Uint64
}

// NewSession creates a session. The transport, invoker, policy, and machine
// are required; logger and observer default to quiet implementations.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if cfg.Invoker == nil {
		return nil, fmt.Errorf("invoker is required")
	}

	id := cfg.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = telemetry.NopObserver{}
	}
	pol := cfg.Policy
	if pol == nil {
		pol = policy.Default()
	}

	ttl := cfg.DeferredTTL
	if ttl <= 0 {
		ttl = DefaultDeferredTTL
	}
	deferred, err := state.NewTTLStore(ttl)
	if err != nil {
		return nil, fmt.Errorf("creating deferred store: %w", err)
	}

	s := &Session{
		id:          id,
		tr:          cfg.Transport,
		invoker:     cfg.Invoker,
		policy:      pol,
		machine:     cfg.Machine,
		logger:      logger.WithComponent("engine").WithSession(id),
		observer:    observer,
		tracer:      telemetry.GetTracer(),
		byItem:      make(map[string]*CallRecord),
		byCall:      make(map[string]*CallRecord),
		deferred:    deferred,
		deferredTTL: ttl,
		resume:      make(chan func(), 16),
	}
	deferred.OnEvict(s.onDeferredExpired)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SetMachine attaches the disambiguation machine. The machine usually
// speaks through the session itself, so it is built after the session and
// attached here before Run.
func (s *Session) SetMachine(m *disambig.Machine) {
	s.machine = m
}

// Speak delivers a plain-text prompt through the transport.
// It satisfies the disambiguation machine's Speaker contract.
func (s *Session) Speak(text string) error {
	return s.tr.Send(frame.Speak(text))
}

// Record forwards a machine transition into this session's event stream.
// Wire it as the disambiguation machine's Notify hook.
func (s *Session) Record(kind string, data map[string]interface{}) {
	s.record(kind, data)
}

// Run processes frames until the context ends or the transport closes.
// Frame handling is single-goroutine; tool-call continuations re-enter
// through the resume channel.
func (s *Session) Run(ctx context.Context) error {
	defer s.deferred.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-s.resume:
			s.safely("resume", fn)
		case f, ok := <-s.tr.Recv():
			if !ok {
				return transport.ErrClosed
			}
			s.safely("frame", func() { s.handleFrame(ctx, f) })
		}
	}
}

// safely runs fn, converting a panic into a log line and an event record
// so one bad frame cannot halt the session.
func (s *Session) safely(where string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.PanicRecovered(where, r)
			s.record(telemetry.KindPanicRecovered, map[string]interface{}{
				"where": where,
				"value": fmt.Sprintf("%v", r),
			})
		}
	}()
	fn()
}

// handleFrame routes one inbound frame.
func (s *Session) handleFrame(ctx context.Context, f *frame.Frame) {
	if text, ok := frame.Transcript(f); ok {
		if s.machine != nil {
			s.machine.HandleUtterance(ctx, text)
		}
		return
	}

	ev := frame.Normalize(f)
	if ev.Kind != frame.KindOther {
		spanCtx, span := s.tracer.StartFrameSpan(ctx, f.Type)
		defer s.tracer.EndFrameSpan(span, telemetry.FrameSpanOptions{
			Kind:      ev.Kind.String(),
			Ownership: ev.Ownership.String(),
			ItemID:    frame.ItemID(f),
			CallID:    frame.CallID(f),
		}, nil)
		ctx = spanCtx
		s.record(telemetry.KindFrameReceived, map[string]interface{}{
			"type": f.Type,
			"kind": ev.Kind.String(),
		})
	}

	switch ev.Kind {
	case frame.KindCallCreated:
		s.handleCreated(ev)
	case frame.KindArgsDelta:
		s.handleDelta(ev)
	case frame.KindArgsDone, frame.KindCallCompleted:
		s.handleCompleted(ctx, ev)
	case frame.KindTurnFinished:
		s.handleTurnFinished(ev)
	case frame.KindError:
		s.logger.Error("transport error frame", map[string]interface{}{
			"message": f.Str("error", "message"),
		})
	}
}

// handleCreated registers a new call record.
func (s *Session) handleCreated(ev frame.Event) {
	itemID := frame.ItemID(ev.Frame)
	callID := frame.CallID(ev.Frame)
	name := frame.ToolName(ev.Frame)
	if name == "" {
		name = "unknown"
	}

	// A duplicate creation for a live item keeps the existing record.
	if rec, ok := s.byItem[itemID]; itemID != "" && ok {
		s.adopt(rec, callID, name)
		s.current = rec
		return
	}

	rec := &CallRecord{
		Name:      name,
		ItemID:    itemID,
		CallID:    callID,
		Ownership: ev.Ownership,
	}
	if itemID != "" {
		s.byItem[itemID] = rec
	}
	if callID != "" {
		s.byCall[callID] = rec
	}
	s.current = rec

	s.logger.CallCreated(name, itemID, callID, ev.Ownership.String())
	s.record(telemetry.KindCallCreated, map[string]interface{}{
		"tool":      name,
		"item_id":   itemID,
		"call_id":   callID,
		"ownership": ev.Ownership.String(),
	})
	s.tryBackfill(itemID, callID)
}

// handleDelta appends a streamed argument fragment.
func (s *Session) handleDelta(ev frame.Event) {
	fragment := frame.ArgsFragment(ev.Frame)
	if fragment == "" {
		return
	}

	itemID := frame.ItemID(ev.Frame)
	callID := frame.CallID(ev.Frame)
	rec := s.resolve(itemID, callID)
	if rec == nil {
		// Fragments must not be dropped just because the creation frame
		// was missed; register a placeholder under whatever id we have.
		rec = &CallRecord{
			Name:      "unknown",
			ItemID:    itemID,
			CallID:    callID,
			Ownership: ev.Ownership,
		}
		if itemID != "" {
			s.byItem[itemID] = rec
		}
		if callID != "" {
			s.byCall[callID] = rec
		}
		s.current = rec
	}
	s.adopt(rec, callID, "")
	rec.AppendArgs(fragment)
	s.record(telemetry.KindArgsFragment, map[string]interface{}{
		"tool":    rec.Name,
		"item_id": rec.ItemID,
		"bytes":   len(fragment),
	})
}

// handleCompleted assembles arguments and dispatches the call.
// A completion for an id already retired is a no-op.
func (s *Session) handleCompleted(ctx context.Context, ev frame.Event) {
	itemID := frame.ItemID(ev.Frame)
	callID := frame.CallID(ev.Frame)

	// A terminal frame may be the first carrier of a deferred output's
	// call id, even when its record is already retired.
	s.tryBackfill(itemID, callID)

	rec := s.resolve(itemID, callID)
	if rec == nil || rec.dispatched {
		return
	}
	s.adopt(rec, callID, frame.ToolName(ev.Frame))
	rec.dispatched = true

	// Streamed fragments win; otherwise the terminal frame may carry the
	// complete arguments itself.
	raw := rec.ArgsText()
	if raw == "" {
		raw = frame.FinalArguments(ev.Frame)
	}
	rec.rawArgs = raw
	args, strict := parseArgs(raw)
	if !strict {
		s.logger.MalformedArgs(rec.Name, rec.CallID, len(args) > 0)
		s.record(telemetry.KindMalformedArgs, map[string]interface{}{
			"tool":      rec.Name,
			"call_id":   rec.CallID,
			"recovered": len(args) > 0,
		})
	}

	s.retire(rec)
	s.tryBackfill(rec.ItemID, rec.CallID)
	s.logger.CallCompleted(rec.Name, rec.CallID, true)
	s.record(telemetry.KindCallCompleted, map[string]interface{}{
		"tool":      rec.Name,
		"item_id":   rec.ItemID,
		"call_id":   rec.CallID,
		"ownership": rec.Ownership.String(),
	})

	s.dispatch(ctx, rec, args, ev.Frame)
}

// handleTurnFinished applies the authoritative call list: late call ids are
// adopted and any deferred output they unblock is emitted.
func (s *Session) handleTurnFinished(ev frame.Event) {
	calls := frame.TurnCalls(ev.Frame)
	for _, tc := range calls {
		if rec, ok := s.byItem[tc.ItemID]; ok {
			s.adopt(rec, tc.CallID, tc.Name)
		}
		s.tryBackfill(tc.ItemID, tc.CallID)
	}
	s.record(telemetry.KindTurnFinished, map[string]interface{}{
		"calls": len(calls),
	})
}

// resolve finds the record for a frame's identifiers: item id first, then
// call id. The "current call" pointer is a last resort reserved for frames
// carrying no identifiers at all, so a stale id cannot hijack a live call.
func (s *Session) resolve(itemID, callID string) *CallRecord {
	if itemID != "" {
		if rec, ok := s.byItem[itemID]; ok {
			return rec
		}
	}
	if callID != "" {
		if rec, ok := s.byCall[callID]; ok {
			return rec
		}
	}
	if itemID == "" && callID == "" {
		return s.current
	}
	return nil
}

// adopt fills in identifiers or a name the record was missing.
func (s *Session) adopt(rec *CallRecord, callID, name string) {
	if callID != "" && rec.CallID == "" {
		rec.CallID = callID
		if !rec.dispatched {
			s.byCall[callID] = rec
		}
	}
	if name != "" && name != "unknown" && (rec.Name == "" || rec.Name == "unknown") {
		rec.Name = name
	}
}

// retire removes a record from both lookup tables at its terminal state.
func (s *Session) retire(rec *CallRecord) {
	if rec.ItemID != "" {
		delete(s.byItem, rec.ItemID)
	}
	if rec.CallID != "" {
		delete(s.byCall, rec.CallID)
	}
	if s.current == rec {
		s.current = nil
	}
}

// enqueue hands a continuation back to the frame-processing goroutine.
func (s *Session) enqueue(fn func()) {
	select {
	case s.resume <- fn:
	default:
		// The channel is saturated; hand off in a goroutine rather
		// than lose the continuation.
		go func() { s.resume <- fn }()
	}
}

// record appends an event to the session's telemetry stream.
func (s *Session) record(kind string, data map[string]interface{}) {
	s.observer.Record(telemetry.Event{
		SessionID: s.id,
		Seq:       s.seq.Add(1),
		Kind:      kind,
		Timestamp: time.Now(),
		Data:      data,
	})
}
