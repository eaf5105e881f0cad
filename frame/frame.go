// Package frame decodes realtime control-channel frames and maps the
// vendor's event spellings onto a canonical taxonomy.
//
// The wire protocol emits the same semantic event under at least two naming
// schemes depending on which execution path the remote side chose. Normalize
// collapses both onto one Kind plus an ownership tag so the rest of the
// engine never sees vendor spellings.
package frame

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotJSON is returned by Decode for input that is not a JSON object.
var ErrNotJSON = errors.New("frame is not a JSON object")

// Frame is one decoded control-channel frame. The raw object is retained so
// field-shape extractors can probe variant layouts without re-parsing.
type Frame struct {
	// Type is the vendor event type string ("" if absent).
	Type string

	obj map[string]interface{}
}

// Decode parses raw JSON into a Frame.
func Decode(data []byte) (*Frame, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	return New(obj), nil
}

// New wraps an already-decoded object in a Frame.
func New(obj map[string]interface{}) *Frame {
	if obj == nil {
		obj = map[string]interface{}{}
	}
	typ, _ := obj["type"].(string)
	return &Frame{Type: typ, obj: obj}
}

// Marshal serializes the frame back to JSON.
func (f *Frame) Marshal() ([]byte, error) {
	return json.Marshal(f.obj)
}

// Object returns the underlying decoded object.
func (f *Frame) Object() map[string]interface{} {
	return f.obj
}

// Str returns the string value at a dotted path of keys, or "".
func (f *Frame) Str(path ...string) string {
	v := f.get(path...)
	s, _ := v.(string)
	return s
}

// Map returns the object value at a dotted path of keys, or nil.
func (f *Frame) Map(path ...string) map[string]interface{} {
	v := f.get(path...)
	m, _ := v.(map[string]interface{})
	return m
}

// Slice returns the array value at a dotted path of keys, or nil.
func (f *Frame) Slice(path ...string) []interface{} {
	v := f.get(path...)
	s, _ := v.([]interface{})
	return s
}

func (f *Frame) get(path ...string) interface{} {
	var cur interface{} = f.obj
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}
