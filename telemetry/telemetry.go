// Package telemetry records the observable life of a voice session.
//
// Every normalized frame, dispatch decision, deferred output, and
// disambiguation transition is recorded as an Event. Observers fan the
// stream out to logs, files, HTTP collectors, or a message bus.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/voxtlabs/voxtrade/logging"
)

// Event kinds recorded by the session engine.
const (
	KindFrameReceived     = "frame_received"
	KindCallCreated       = "call_created"
	KindArgsFragment      = "args_fragment"
	KindCallCompleted     = "call_completed"
	KindTurnFinished      = "turn_finished"
	KindToolDispatched    = "tool_dispatched"
	KindToolResult        = "tool_result"
	KindRemoteHandled     = "remote_handled"
	KindOutputEmitted     = "output_emitted"
	KindOutputDeferred    = "output_deferred"
	KindOutputBackfilled  = "output_backfilled"
	KindOutputDropped     = "output_dropped"
	KindPolicyDenied      = "policy_denied"
	KindMalformedArgs     = "malformed_args"
	KindDisambigOffered   = "disambig_offered"
	KindDisambigResolved  = "disambig_resolved"
	KindDisambigDismissed = "disambig_dismissed"
	KindPanicRecovered    = "panic_recovered"
)

// Event is one record in a session's event stream.
type Event struct {
	SessionID string                 `json:"session_id"`
	Seq       uint64                 `json:"seq"`
	Kind      string                 `json:"kind"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Observer receives session events as they happen.
// Record must not block the caller; slow sinks buffer or drop.
type Observer interface {
	Record(ev Event)
}

// Flusher is implemented by observers that buffer events.
type Flusher interface {
	Flush() error
	Close() error
}

// NewObserver creates an observer for the named export mode.
func NewObserver(mode, target string) (Observer, error) {
	switch mode {
	case "http":
		return NewHTTPExporter(target), nil
	case "file":
		return NewFileExporter(target)
	case "log":
		return NewLogObserver(logging.New()), nil
	case "":
		return NopObserver{}, nil
	default:
		return nil, fmt.Errorf("unknown telemetry export mode: %s", mode)
	}
}

// --- Nop Observer ---

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) Record(ev Event) {}

// --- Log Observer ---

// LogObserver writes each event as a debug log line.
type LogObserver struct {
	logger *logging.Logger
}

// NewLogObserver creates an observer backed by the given logger.
func NewLogObserver(logger *logging.Logger) *LogObserver {
	return &LogObserver{logger: logger.WithComponent("telemetry")}
}

func (o *LogObserver) Record(ev Event) {
	fields := map[string]interface{}{
		"session": ev.SessionID,
		"seq":     ev.Seq,
	}
	for k, v := range ev.Data {
		fields[k] = v
	}
	o.logger.Debug(ev.Kind, fields)
}

// --- Multi Observer ---

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

func (m MultiObserver) Record(ev Event) {
	for _, o := range m {
		o.Record(ev)
	}
}

// Flush flushes every buffering member.
func (m MultiObserver) Flush() error {
	var firstErr error
	for _, o := range m {
		if f, ok := o.(Flusher); ok {
			if err := f.Flush(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Close closes every buffering member.
func (m MultiObserver) Close() error {
	var firstErr error
	for _, o := range m {
		if f, ok := o.(Flusher); ok {
			if err := f.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// --- HTTP Exporter ---

// HTTPExporter batches events and posts them to an HTTP collector.
type HTTPExporter struct {
	endpoint string
	client   *http.Client
	buffer   []Event
	mu       sync.Mutex
}

// NewHTTPExporter creates a new HTTP exporter.
func NewHTTPExporter(endpoint string) *HTTPExporter {
	return &HTTPExporter{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		buffer: make([]Event, 0, 100),
	}
}

func (e *HTTPExporter) Record(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffer = append(e.buffer, ev)
	if len(e.buffer) >= 100 {
		e.flush()
	}
}

func (e *HTTPExporter) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flush()
}

func (e *HTTPExporter) flush() error {
	if len(e.buffer) == 0 {
		return nil
	}

	data, err := json.Marshal(e.buffer)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", e.endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("telemetry endpoint returned %d", resp.StatusCode)
	}

	e.buffer = e.buffer[:0]
	return nil
}

func (e *HTTPExporter) Close() error {
	return e.Flush()
}

// --- File Exporter ---

// FileExporter appends events to a file, one JSON object per line.
type FileExporter struct {
	file *os.File
	mu   sync.Mutex
}

// NewFileExporter creates a new file exporter.
func NewFileExporter(path string) (*FileExporter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry file: %w", err)
	}
	return &FileExporter{file: file}, nil
}

func (e *FileExporter) Record(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.file.Write(data)
	e.file.Write([]byte("\n"))
}

func (e *FileExporter) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.file.Sync()
}

func (e *FileExporter) Close() error {
	e.Flush()
	return e.file.Close()
}
