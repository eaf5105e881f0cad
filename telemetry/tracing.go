// OpenTelemetry tracing support for session observability.
package telemetry

import (
	"context"
	"encoding/json"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps OpenTelemetry tracing with session-specific helpers.
type Tracer struct {
	tracer trace.Tracer
	debug  bool // When true, include argument and result content in spans
}

var (
	globalTracer *Tracer
	tracerMu     sync.RWMutex
)

// SetGlobalTracer sets the global tracer instance.
func SetGlobalTracer(t *Tracer) {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	globalTracer = t
}

// GetTracer returns the global tracer, or a no-op tracer if not set.
func GetTracer() *Tracer {
	tracerMu.RLock()
	defer tracerMu.RUnlock()
	if globalTracer == nil {
		return &Tracer{tracer: trace.NewNoopTracerProvider().Tracer("")}
	}
	return globalTracer
}

// NewTracer creates a new tracer with the given name.
func NewTracer(name string, debug bool) *Tracer {
	return &Tracer{
		tracer: otel.Tracer(name),
		debug:  debug,
	}
}

// SetDebug enables or disables debug mode (content in spans).
func (t *Tracer) SetDebug(debug bool) {
	t.debug = debug
}

// Debug returns whether debug mode is enabled.
func (t *Tracer) Debug() bool {
	return t.debug
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// --- Frame Spans ---

// FrameSpanOptions contains options for frame-handling spans.
type FrameSpanOptions struct {
	Kind      string
	Ownership string
	ItemID    string
	CallID    string
}

// StartFrameSpan starts a span covering one inbound frame.
func (t *Tracer) StartFrameSpan(ctx context.Context, frameType string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "frame."+frameType, trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(attribute.String("frame.type", frameType))
	return ctx, span
}

// EndFrameSpan ends a frame span with attributes.
func (t *Tracer) EndFrameSpan(span trace.Span, opts FrameSpanOptions, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("frame.kind", opts.Kind),
		attribute.String("frame.ownership", opts.Ownership),
	}
	if opts.ItemID != "" {
		attrs = append(attrs, attribute.String("call.item_id", opts.ItemID))
	}
	if opts.CallID != "" {
		attrs = append(attrs, attribute.String("call.call_id", opts.CallID))
	}
	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// --- Tool Spans ---

// ToolSpanOptions contains options for tool execution spans.
type ToolSpanOptions struct {
	Tool   string
	Args   map[string]interface{}
	Result string // Only included if debug=true
	OK     bool
}

// StartToolSpan starts a span for a local tool execution.
func (t *Tracer) StartToolSpan(ctx context.Context, toolName string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "tool."+toolName, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("tool.name", toolName))
	return ctx, span
}

// EndToolSpan ends a tool span with attributes.
func (t *Tracer) EndToolSpan(span trace.Span, opts ToolSpanOptions, err error) {
	for k, v := range opts.Args {
		span.SetAttributes(attribute.String("tool.arg."+k, truncateAny(v, 500)))
	}
	span.SetAttributes(attribute.Bool("tool.ok", opts.OK))

	// Result only in debug mode (may contain user data)
	if t.debug && opts.Result != "" {
		span.SetAttributes(attribute.String("tool.result", truncate(opts.Result, 4000)))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// --- Disambiguation Spans ---

// DisambigSpanOptions contains options for disambiguation spans.
type DisambigSpanOptions struct {
	State      string
	Candidates int
	Selected   string
	Utterance  string // Only included if debug=true
}

// StartDisambigSpan starts a span for a disambiguation transition.
func (t *Tracer) StartDisambigSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "disambig."+name, trace.WithSpanKind(trace.SpanKindInternal))
}

// EndDisambigSpan ends a disambiguation span with attributes.
func (t *Tracer) EndDisambigSpan(span trace.Span, opts DisambigSpanOptions, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("disambig.state", opts.State),
		attribute.Int("disambig.candidates", opts.Candidates),
	}
	if opts.Selected != "" {
		attrs = append(attrs, attribute.String("disambig.selected", opts.Selected))
	}
	if t.debug && opts.Utterance != "" {
		attrs = append(attrs, attribute.String("disambig.utterance", truncate(opts.Utterance, 1000)))
	}
	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// --- Context Propagation ---

// InjectContext injects trace context into a carrier for cross-process propagation.
func InjectContext(ctx context.Context, carrier propagation.TextMapCarrier) {
	otel.GetTextMapPropagator().Inject(ctx, carrier)
}

// ExtractContext extracts trace context from a carrier.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// MapCarrier is a simple map-based TextMapCarrier for context propagation.
type MapCarrier map[string]string

func (c MapCarrier) Get(key string) string {
	return c[key]
}

func (c MapCarrier) Set(key, value string) {
	c[key] = value
}

func (c MapCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// --- Helpers ---

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func truncateAny(v interface{}, maxLen int) string {
	switch val := v.(type) {
	case string:
		return truncate(val, maxLen)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "<unrepresentable>"
		}
		return truncate(string(data), maxLen)
	}
}
