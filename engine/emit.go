package engine

import (
	"github.com/voxtlabs/voxtrade/frame"
	"github.com/voxtlabs/voxtrade/telemetry"
)

// emit sends a call's closing output and triggers the next response.
// Without a call id the output cannot be addressed yet, so it parks in the
// deferred table until the id arrives on a later frame.
func (s *Session) emit(rec *CallRecord, payload interface{}) {
	if rec.CallID == "" {
		if rec.ItemID == "" {
			s.logger.Warn("output has no addressable id, dropping", map[string]interface{}{
				"tool": rec.Name,
			})
			return
		}
		if err := s.deferred.Put(rec.ItemID, deferredOutput{Name: rec.Name, Payload: payload}); err != nil {
			s.logger.Error("deferring output failed", map[string]interface{}{
				"item_id": rec.ItemID,
				"error":   err.Error(),
			})
			return
		}
		s.logger.OutputDeferred(rec.ItemID)
		s.record(telemetry.KindOutputDeferred, map[string]interface{}{
			"tool":    rec.Name,
			"item_id": rec.ItemID,
		})
		return
	}
	s.send(rec.Name, rec.CallID, payload)
}

// tryBackfill emits a parked output once its call id is finally known.
// Taking the entry makes the backfill single-shot: a second frame naming
// the same item finds nothing and does nothing.
func (s *Session) tryBackfill(itemID, callID string) {
	if itemID == "" || callID == "" {
		return
	}
	v, ok := s.deferred.Take(itemID)
	if !ok {
		return
	}
	d := v.(deferredOutput)
	s.logger.OutputBackfilled(itemID, callID)
	s.record(telemetry.KindOutputBackfilled, map[string]interface{}{
		"tool":    d.Name,
		"item_id": itemID,
		"call_id": callID,
	})
	s.send(d.Name, callID, d.Payload)
}

// send writes a call output frame followed by a response trigger.
func (s *Session) send(name, callID string, payload interface{}) {
	f, err := frame.CallOutput(callID, payload)
	if err != nil {
		s.logger.Error("encoding call output failed", map[string]interface{}{
			"tool":    name,
			"call_id": callID,
			"error":   err.Error(),
		})
		return
	}
	if err := s.tr.Send(f); err != nil {
		s.logger.Error("sending call output failed", map[string]interface{}{
			"tool":    name,
			"call_id": callID,
			"error":   err.Error(),
		})
		return
	}
	if err := s.tr.Send(frame.ResponseTrigger()); err != nil {
		s.logger.Error("sending response trigger failed", map[string]interface{}{
			"call_id": callID,
			"error":   err.Error(),
		})
	}
	s.record(telemetry.KindOutputEmitted, map[string]interface{}{
		"tool":    name,
		"call_id": callID,
	})
}

// onDeferredExpired runs when a parked output outlives the table TTL.
func (s *Session) onDeferredExpired(key string, value interface{}) {
	d, _ := value.(deferredOutput)
	s.logger.OutputDropped(key, s.deferredTTL)
	s.record(telemetry.KindOutputDropped, map[string]interface{}{
		"tool":    d.Name,
		"item_id": key,
	})
}
