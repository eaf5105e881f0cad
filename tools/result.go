package tools

import (
	"encoding/json"
	"fmt"
)

// DefaultBriefLimit caps how much of a result is spoken or echoed back.
const DefaultBriefLimit = 400

// Result is the decoded JSON body returned by the tool endpoint.
// A transport or decode failure is represented in-band as
// {"ok": false, "error": "..."} so callers never branch on a Go error.
type Result map[string]interface{}

// Failure builds an in-band failure result.
func Failure(err error) Result {
	return Result{"ok": false, "error": err.Error()}
}

// OK reports whether the endpoint marked the call successful.
// A result without an "ok" field counts as successful.
func (r Result) OK() bool {
	v, present := r["ok"]
	if !present {
		return true
	}
	ok, isBool := v.(bool)
	return isBool && ok
}

// ErrorMessage returns the endpoint's error string, if any.
func (r Result) ErrorMessage() string {
	s, _ := r["error"].(string)
	return s
}

// Results returns the candidate list carried in the "results" field.
func (r Result) Results() []map[string]interface{} {
	raw, ok := r["results"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// Brief renders the result as JSON truncated to max bytes, with an
// ellipsis marker when cut. A max of zero or less uses DefaultBriefLimit.
func (r Result) Brief(max int) string {
	if max <= 0 {
		max = DefaultBriefLimit
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("{\"ok\":false,\"error\":%q}", err.Error())
	}
	s := string(data)
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
