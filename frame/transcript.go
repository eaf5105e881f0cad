package frame

import "strings"

// Transcript extracts a user utterance from a frame, if it carries one.
// Two shapes exist: a created conversation item with user-role content parts,
// and the dedicated input-audio-transcription events.
func Transcript(f *Frame) (string, bool) {
	if f == nil {
		return "", false
	}

	if f.Type == "conversation.item.created" && f.Str("item", "role") == "user" {
		for _, raw := range f.Slice("item", "content") {
			part, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			text, _ := part["text"].(string)
			if text == "" {
				text, _ = part["value"].(string)
			}
			ptype, _ := part["type"].(string)
			if text != "" && (strings.Contains(ptype, "input") ||
				strings.Contains(ptype, "transcript") ||
				strings.Contains(ptype, "text")) {
				return text, true
			}
		}
		return "", false
	}

	if strings.HasPrefix(f.Type, "conversation.item.input_audio_transcription") {
		if t := f.Str("transcript"); t != "" {
			return t, true
		}
		if t := f.Str("text"); t != "" {
			return t, true
		}
	}

	return "", false
}
