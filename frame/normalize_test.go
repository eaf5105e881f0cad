package frame

import "testing"

func TestNormalize_Variants(t *testing.T) {
	tests := []struct {
		name      string
		obj       map[string]interface{}
		kind      Kind
		ownership Ownership
	}{
		{
			name: "function call created",
			obj:  map[string]interface{}{"type": "response.function_call.created"},
			kind: KindCallCreated,
		},
		{
			name: "mcp call created",
			obj:  map[string]interface{}{"type": "response.mcp_call.created"},
			kind: KindCallCreated, ownership: OwnedRemote,
		},
		{
			name: "args delta dotted spelling",
			obj:  map[string]interface{}{"type": "response.function_call.arguments.delta"},
			kind: KindArgsDelta,
		},
		{
			name: "args delta underscore spelling",
			obj:  map[string]interface{}{"type": "response.function_call_arguments.delta"},
			kind: KindArgsDelta,
		},
		{
			name: "mcp args delta underscore spelling",
			obj:  map[string]interface{}{"type": "response.mcp_call_arguments.delta"},
			kind: KindArgsDelta, ownership: OwnedRemote,
		},
		{
			name: "args done",
			obj:  map[string]interface{}{"type": "response.function_call_arguments.done"},
			kind: KindArgsDone,
		},
		{
			name: "completed",
			obj:  map[string]interface{}{"type": "response.function_call.completed"},
			kind: KindCallCompleted,
		},
		{
			name: "mcp done",
			obj:  map[string]interface{}{"type": "response.mcp_call.done"},
			kind: KindCallCompleted, ownership: OwnedRemote,
		},
		{
			name: "output item added with function_call item",
			obj: map[string]interface{}{
				"type": "response.output_item.added",
				"item": map[string]interface{}{"type": "function_call"},
			},
			kind: KindCallCreated,
		},
		{
			name: "output item done with mcp_call item",
			obj: map[string]interface{}{
				"type": "response.output_item.done",
				"item": map[string]interface{}{"type": "mcp_call"},
			},
			kind: KindCallCompleted, ownership: OwnedRemote,
		},
		{
			name: "output item added with message item passes through",
			obj: map[string]interface{}{
				"type": "response.output_item.added",
				"item": map[string]interface{}{"type": "message"},
			},
			kind: KindOther,
		},
		{
			name: "turn finished",
			obj:  map[string]interface{}{"type": "response.done"},
			kind: KindTurnFinished,
		},
		{
			name: "error",
			obj:  map[string]interface{}{"type": "error"},
			kind: KindError,
		},
		{
			name: "audio delta passes through",
			obj:  map[string]interface{}{"type": "response.audio_transcript.delta"},
			kind: KindOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Normalize(New(tt.obj))
			if ev.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", ev.Kind, tt.kind)
			}
			if ev.Ownership != tt.ownership {
				t.Errorf("ownership = %v, want %v", ev.Ownership, tt.ownership)
			}
			if ev.Frame == nil || ev.Frame.Type != tt.obj["type"] {
				t.Error("frame must pass through unchanged")
			}
		})
	}
}

func TestNormalize_NilFrame(t *testing.T) {
	ev := Normalize(nil)
	if ev.Kind != KindOther {
		t.Errorf("kind = %v, want KindOther", ev.Kind)
	}
}
