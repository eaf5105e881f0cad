package telemetry

import (
	"encoding/json"

	"github.com/voxtlabs/voxtrade/bus"
)

// BusObserver publishes events on a message bus, one subject per session.
// Publish failures are dropped; the event stream is advisory.
type BusObserver struct {
	bus bus.MessageBus
}

// NewBusObserver creates an observer publishing to the given bus.
func NewBusObserver(b bus.MessageBus) *BusObserver {
	return &BusObserver{bus: b}
}

func (o *BusObserver) Record(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	o.bus.Publish(bus.SessionSubject(ev.SessionID), data)
}
