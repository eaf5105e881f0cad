package engine

import (
	"strings"

	"github.com/voxtlabs/voxtrade/frame"
)

// CallRecord tracks one tool call from first sighting to dispatch.
//
// A record is registered under its item id the moment the call is first
// observed; the transport call id may arrive later or never. Once the call
// reaches its terminal state the record leaves both lookup tables but keeps
// its essential fields for the dispatcher.
type CallRecord struct {
	Name      string
	ItemID    string
	CallID    string
	Ownership frame.Ownership

	args       strings.Builder
	rawArgs    string
	dispatched bool
}

// AppendArgs accumulates a streamed argument fragment.
func (r *CallRecord) AppendArgs(fragment string) {
	r.args.WriteString(fragment)
}

// ArgsText returns the accumulated raw argument text.
func (r *CallRecord) ArgsText() string {
	return r.args.String()
}

// deferredOutput is a ready payload parked until its call id is known.
type deferredOutput struct {
	Name    string
	Payload interface{}
}
