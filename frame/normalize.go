package frame

// Kind is the canonical event taxonomy.
type Kind int

const (
	// KindOther marks non-call traffic, passed through untouched.
	KindOther Kind = iota
	// KindCallCreated marks the first sight of a tool call.
	KindCallCreated
	// KindArgsDelta carries a streamed argument fragment.
	KindArgsDelta
	// KindArgsDone marks the end of streamed arguments.
	KindArgsDone
	// KindCallCompleted marks a call's terminal frame.
	KindCallCompleted
	// KindTurnFinished carries the authoritative call list for a turn.
	KindTurnFinished
	// KindError is a transport-level error report.
	KindError
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCallCreated:
		return "call_created"
	case KindArgsDelta:
		return "args_delta"
	case KindArgsDone:
		return "args_done"
	case KindCallCompleted:
		return "call_completed"
	case KindTurnFinished:
		return "turn_finished"
	case KindError:
		return "error"
	default:
		return "other"
	}
}

// Ownership records which side executes the tool.
type Ownership int

const (
	// OwnedLocal means this engine must execute the tool itself.
	OwnedLocal Ownership = iota
	// OwnedRemote means an external executor already ran the tool and
	// merely reports a result; protocol completion belongs to it.
	OwnedRemote
)

// String returns the ownership name.
func (o Ownership) String() string {
	if o == OwnedRemote {
		return "remote"
	}
	return "local"
}

// Event is a frame plus its canonical classification.
type Event struct {
	Kind      Kind
	Ownership Ownership
	Frame     *Frame
}

// Normalize classifies a frame. It is pure and stateless: unknown types come
// back as KindOther with the frame untouched.
func Normalize(f *Frame) Event {
	ev := Event{Kind: KindOther, Ownership: OwnedLocal, Frame: f}
	if f == nil {
		return ev
	}

	switch f.Type {
	// Local-execution spellings.
	case "response.function_call.created":
		ev.Kind = KindCallCreated
	case "response.function_call_arguments.delta",
		"response.function_call.arguments.delta":
		ev.Kind = KindArgsDelta
	case "response.function_call_arguments.done",
		"response.function_call.arguments.done":
		ev.Kind = KindArgsDone
	case "response.function_call.completed":
		ev.Kind = KindCallCompleted

	// Remote-execution spellings for the same semantic events.
	case "response.mcp_call.created":
		ev.Kind = KindCallCreated
		ev.Ownership = OwnedRemote
	case "response.mcp_call.arguments.delta",
		"response.mcp_call_arguments.delta":
		ev.Kind = KindArgsDelta
		ev.Ownership = OwnedRemote
	case "response.mcp_call.completed", "response.mcp_call.done":
		ev.Kind = KindCallCompleted
		ev.Ownership = OwnedRemote

	// Item-envelope spellings: classification depends on the item type.
	case "response.output_item.added":
		switch f.Str("item", "type") {
		case "function_call":
			ev.Kind = KindCallCreated
		case "mcp_call":
			ev.Kind = KindCallCreated
			ev.Ownership = OwnedRemote
		}
	case "response.output_item.done":
		switch f.Str("item", "type") {
		case "function_call":
			ev.Kind = KindCallCompleted
		case "mcp_call":
			ev.Kind = KindCallCompleted
			ev.Ownership = OwnedRemote
		}

	case "response.done":
		ev.Kind = KindTurnFinished
	case "error":
		ev.Kind = KindError
	}

	return ev
}
