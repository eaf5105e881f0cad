package frame

import (
	"encoding/json"
	"testing"
)

func TestCallOutput(t *testing.T) {
	f, err := CallOutput("call_7", map[string]interface{}{"ok": true})
	if err != nil {
		t.Fatalf("CallOutput error: %v", err)
	}
	if f.Type != "conversation.item.create" {
		t.Errorf("type = %q", f.Type)
	}
	if got := f.Str("item", "type"); got != "function_call_output" {
		t.Errorf("item.type = %q", got)
	}
	if got := f.Str("item", "call_id"); got != "call_7" {
		t.Errorf("item.call_id = %q", got)
	}

	// Output must be the payload serialized as a JSON string, not an object.
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(f.Str("item", "output")), &payload); err != nil {
		t.Fatalf("output is not JSON text: %v", err)
	}
	if payload["ok"] != true {
		t.Errorf("payload = %v", payload)
	}
}

func TestSpeak(t *testing.T) {
	f := Speak("Say a number (1-3).")
	if f.Type != "response.create" {
		t.Errorf("type = %q", f.Type)
	}
	if got := f.Str("response", "instructions"); got != "Say a number (1-3)." {
		t.Errorf("instructions = %q", got)
	}
}

func TestDecode_RejectsNonObject(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("expected error for non-JSON input")
	}
}
