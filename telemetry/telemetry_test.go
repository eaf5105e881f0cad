package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxtlabs/voxtrade/bus"
)

func event(kind string, seq uint64) Event {
	return Event{
		SessionID: "sess-123",
		Seq:       seq,
		Kind:      kind,
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"call_id": "call_1"},
	}
}

func TestNopObserver(t *testing.T) {
	// Should not panic
	NopObserver{}.Record(event(KindCallCreated, 1))
}

func TestFileExporter(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "telemetry.jsonl")

	exp, err := NewFileExporter(path)
	if err != nil {
		t.Fatalf("NewFileExporter() error = %v", err)
	}
	defer exp.Close()

	exp.Record(event(KindCallCreated, 1))
	exp.Record(event(KindToolDispatched, 2))
	exp.Flush()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty file")
	}

	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}
}

func TestHTTPExporter(t *testing.T) {
	var received []Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
	}))
	defer srv.Close()

	exp := NewHTTPExporter(srv.URL)
	exp.Record(event(KindCallCreated, 1))
	exp.Record(event(KindOutputEmitted, 2))

	if err := exp.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].Kind != KindCallCreated || received[1].Seq != 2 {
		t.Errorf("unexpected events: %+v", received)
	}

	// Second flush with empty buffer is a no-op
	if err := exp.Flush(); err != nil {
		t.Errorf("empty Flush() error = %v", err)
	}
}

func TestMultiObserver(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "telemetry.jsonl")
	fileExp, err := NewFileExporter(path)
	if err != nil {
		t.Fatalf("NewFileExporter() error = %v", err)
	}

	multi := MultiObserver{NopObserver{}, fileExp}
	multi.Record(event(KindTurnFinished, 1))

	if err := multi.Flush(); err != nil {
		t.Errorf("Flush() error = %v", err)
	}
	if err := multi.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if len(data) == 0 {
		t.Error("expected event written through multi observer")
	}
}

func TestBusObserver(t *testing.T) {
	b := bus.NewMemoryBus(bus.DefaultConfig())
	defer b.Close()

	sub, err := b.Subscribe(bus.SessionSubject("sess-123"))
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	defer sub.Unsubscribe()

	obs := NewBusObserver(b)
	obs.Record(event(KindDisambigOffered, 7))

	select {
	case msg := <-sub.Messages():
		var got Event
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("unmarshal error: %v", err)
		}
		if got.Kind != KindDisambigOffered || got.Seq != 7 {
			t.Errorf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for bus event")
	}
}

func TestNewObserver(t *testing.T) {
	tests := []struct {
		mode    string
		wantErr bool
	}{
		{"log", false},
		{"", false},
		{"http", false},
		{"unknown", true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			obs, err := NewObserver(tt.mode, "http://localhost:0")
			if (err != nil) != tt.wantErr {
				t.Errorf("NewObserver() error = %v, wantErr %v", err, tt.wantErr)
			}
			if f, ok := obs.(Flusher); ok && tt.mode != "http" {
				f.Close()
			}
		})
	}
}

func TestTracer_NoopWhenUnset(t *testing.T) {
	SetGlobalTracer(nil)
	tr := GetTracer()

	// Spans from the no-op tracer must be safe to use
	_, span := tr.StartToolSpan(context.Background(), "resolve_token")
	tr.EndToolSpan(span, ToolSpanOptions{Tool: "resolve_token", OK: true}, nil)
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncateAny(map[string]interface{}{"k": "v"}, 100); got != `{"k":"v"}` {
		t.Errorf("truncateAny = %q", got)
	}
}
