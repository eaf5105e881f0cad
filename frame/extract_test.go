package frame

import "testing"

func TestItemID_ShapeOrder(t *testing.T) {
	tests := []struct {
		name string
		obj  map[string]interface{}
		want string
	}{
		{"top-level item_id", map[string]interface{}{"item_id": "it_1"}, "it_1"},
		{"nested item.id", map[string]interface{}{"item": map[string]interface{}{"id": "it_2"}}, "it_2"},
		{"bare id", map[string]interface{}{"id": "it_3"}, "it_3"},
		{
			"item_id wins over id",
			map[string]interface{}{"item_id": "it_a", "id": "it_b"},
			"it_a",
		},
		{"absent", map[string]interface{}{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ItemID(New(tt.obj)); got != tt.want {
				t.Errorf("ItemID = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCallID_Shapes(t *testing.T) {
	f := New(map[string]interface{}{"item": map[string]interface{}{"call_id": "call_9"}})
	if got := CallID(f); got != "call_9" {
		t.Errorf("CallID = %q, want call_9", got)
	}
	f = New(map[string]interface{}{"call_id": "call_1", "item": map[string]interface{}{"call_id": "call_2"}})
	if got := CallID(f); got != "call_1" {
		t.Errorf("CallID = %q, want call_1 (top-level first)", got)
	}
}

func TestToolName_Shapes(t *testing.T) {
	tests := []struct {
		obj  map[string]interface{}
		want string
	}{
		{map[string]interface{}{"name": "resolve_token"}, "resolve_token"},
		{map[string]interface{}{"function": map[string]interface{}{"name": "run_agent"}}, "run_agent"},
		{map[string]interface{}{"item": map[string]interface{}{"name": "get_wallet_balance"}}, "get_wallet_balance"},
	}
	for _, tt := range tests {
		if got := ToolName(New(tt.obj)); got != tt.want {
			t.Errorf("ToolName(%v) = %q, want %q", tt.obj, got, tt.want)
		}
	}
}

func TestArgsFragment_DeltaThenArguments(t *testing.T) {
	f := New(map[string]interface{}{"delta": `{"qu`})
	if got := ArgsFragment(f); got != `{"qu` {
		t.Errorf("ArgsFragment = %q", got)
	}
	f = New(map[string]interface{}{"arguments": `{"query":"BONK"}`})
	if got := ArgsFragment(f); got != `{"query":"BONK"}` {
		t.Errorf("ArgsFragment = %q", got)
	}
	f = New(map[string]interface{}{
		"item": map[string]interface{}{"arguments": `{"query":"WIF"}`},
	})
	if got := ArgsFragment(f); got != `{"query":"WIF"}` {
		t.Errorf("ArgsFragment = %q", got)
	}
}

func TestTurnCalls(t *testing.T) {
	f := New(map[string]interface{}{
		"type": "response.done",
		"response": map[string]interface{}{
			"output": []interface{}{
				map[string]interface{}{
					"type":    "function_call",
					"id":      "it_1",
					"call_id": "call_1",
					"name":    "resolve_token",
				},
				map[string]interface{}{"type": "message"},
				map[string]interface{}{
					"type":    "function_call",
					"id":      "it_2",
					"call_id": "call_2",
				},
			},
		},
	})

	calls := TurnCalls(f)
	if len(calls) != 2 {
		t.Fatalf("len = %d, want 2", len(calls))
	}
	if calls[0].ItemID != "it_1" || calls[0].CallID != "call_1" || calls[0].Name != "resolve_token" {
		t.Errorf("first call = %+v", calls[0])
	}
	if calls[1].ItemID != "it_2" || calls[1].CallID != "call_2" {
		t.Errorf("second call = %+v", calls[1])
	}
}

func TestTurnCalls_EmptyResponse(t *testing.T) {
	if calls := TurnCalls(New(map[string]interface{}{"type": "response.done"})); calls != nil {
		t.Errorf("calls = %v, want nil", calls)
	}
}

func TestTranscript(t *testing.T) {
	tests := []struct {
		name string
		obj  map[string]interface{}
		want string
		ok   bool
	}{
		{
			name: "created item with input_text part",
			obj: map[string]interface{}{
				"type": "conversation.item.created",
				"item": map[string]interface{}{
					"role": "user",
					"content": []interface{}{
						map[string]interface{}{"type": "input_text", "text": "the second one"},
					},
				},
			},
			want: "the second one", ok: true,
		},
		{
			name: "assistant item ignored",
			obj: map[string]interface{}{
				"type": "conversation.item.created",
				"item": map[string]interface{}{
					"role": "assistant",
					"content": []interface{}{
						map[string]interface{}{"type": "text", "text": "hello"},
					},
				},
			},
		},
		{
			name: "input audio transcription completed",
			obj: map[string]interface{}{
				"type":       "conversation.item.input_audio_transcription.completed",
				"transcript": "yes do it",
			},
			want: "yes do it", ok: true,
		},
		{
			name: "unrelated frame",
			obj:  map[string]interface{}{"type": "response.audio_transcript.delta", "delta": "hi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Transcript(New(tt.obj))
			if ok != tt.ok || got != tt.want {
				t.Errorf("Transcript = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}
