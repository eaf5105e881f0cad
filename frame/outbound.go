package frame

import "encoding/json"

// Outbound frame builders. The transport expects three frame kinds from this
// engine: a tool-output item, a response trigger, and a spoken-instruction
// response used by the disambiguation flow.

// CallOutput builds the frame that submits a tool result for a known call id.
// The payload is JSON-serialized into the output field as the protocol
// requires.
func CallOutput(callID string, payload interface{}) (*Frame, error) {
	out, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return New(map[string]interface{}{
		"type": "conversation.item.create",
		"item": map[string]interface{}{
			"type":    "function_call_output",
			"call_id": callID,
			"output":  string(out),
		},
	}), nil
}

// ResponseTrigger builds the frame that asks the remote model to continue the
// conversation, typically sent right after a tool output.
func ResponseTrigger() *Frame {
	return New(map[string]interface{}{"type": "response.create"})
}

// Speak builds a response frame carrying plain-text instructions for the
// remote model to voice back to the user.
func Speak(text string) *Frame {
	return New(map[string]interface{}{
		"type": "response.create",
		"response": map[string]interface{}{
			"instructions": text,
		},
	})
}
