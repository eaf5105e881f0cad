package frame

// Field-shape extractors. A frame may carry the same datum under several
// layouts depending on the event spelling; each extractor walks an ordered
// list of shapes and returns the first non-empty match.

type shape []string

func firstMatch(f *Frame, shapes []shape) string {
	for _, s := range shapes {
		if v := f.Str(s...); v != "" {
			return v
		}
	}
	return ""
}

var itemIDShapes = []shape{
	{"item_id"},
	{"item", "id"},
	{"id"},
}

// ItemID extracts the ephemeral item identifier of the call this frame
// belongs to, or "".
func ItemID(f *Frame) string {
	return firstMatch(f, itemIDShapes)
}

var callIDShapes = []shape{
	{"call_id"},
	{"item", "call_id"},
}

// CallID extracts the transport call identifier, or "". The call id may
// arrive later than the item id; callers must tolerate "".
func CallID(f *Frame) string {
	return firstMatch(f, callIDShapes)
}

var nameShapes = []shape{
	{"name"},
	{"function", "name"},
	{"item", "name"},
}

// ToolName extracts the tool name announced by a creation frame, or "".
func ToolName(f *Frame) string {
	return firstMatch(f, nameShapes)
}

var deltaShapes = []shape{
	{"delta"},
	{"arguments"},
	{"item", "arguments"},
}

// ArgsFragment extracts a streamed argument fragment from a delta frame.
func ArgsFragment(f *Frame) string {
	return firstMatch(f, deltaShapes)
}

var finalArgsShapes = []shape{
	{"arguments"},
	{"item", "arguments"},
}

// FinalArguments extracts a complete (non-streamed) arguments field off a
// terminal frame, used when no fragments were accumulated.
func FinalArguments(f *Frame) string {
	return firstMatch(f, finalArgsShapes)
}

// RemoteOutput extracts the compact result a remote executor may embed in a
// completion frame.
func RemoteOutput(f *Frame) string {
	for _, s := range []shape{{"item", "output"}, {"output"}, {"result"}} {
		if v := f.Str(s...); v != "" {
			return v
		}
	}
	return ""
}

// TurnCall is one (item id, call id) pair reported by a turn-finished frame.
type TurnCall struct {
	ItemID string
	CallID string
	Name   string
	// Arguments is the canonical full argument text, when reported.
	Arguments string
}

// TurnCalls reads the authoritative call list off a turn-finished frame.
// The list lives under response.output as function_call items.
func TurnCalls(f *Frame) []TurnCall {
	items := f.Slice("response", "output")
	var calls []TurnCall
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		typ, _ := item["type"].(string)
		if typ != "function_call" && typ != "mcp_call" {
			continue
		}
		tc := TurnCall{}
		tc.ItemID, _ = item["id"].(string)
		tc.CallID, _ = item["call_id"].(string)
		tc.Name, _ = item["name"].(string)
		tc.Arguments, _ = item["arguments"].(string)
		if tc.ItemID == "" && tc.CallID == "" {
			continue
		}
		calls = append(calls, tc)
	}
	return calls
}
