package engine

import (
	"encoding/json"
	"regexp"
)

// Fallback extractors for argument buffers that fail strict parsing.
// A truncated stream like {"query":"BON leaves a recoverable fragment;
// the capture stops at the next quote or at end of input.
var (
	queryFragment  = regexp.MustCompile(`"query"\s*:\s*"([^"]*)`)
	symbolFragment = regexp.MustCompile(`"symbol"\s*:\s*"([^"]*)`)
)

// parseArgs turns raw argument text into a structured object.
//
// Strict JSON is tried first. On failure the raw text is scanned for the
// known argument fragments and a minimal object is synthesized from
// whatever was recoverable. The second return reports whether the strict
// parse succeeded; parseArgs itself never fails.
func parseArgs(raw string) (map[string]interface{}, bool) {
	if raw == "" {
		return map[string]interface{}{}, true
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil && parsed != nil {
		return parsed, true
	}

	recovered := map[string]interface{}{}
	if m := queryFragment.FindStringSubmatch(raw); m != nil && m[1] != "" {
		recovered["query"] = m[1]
	}
	if m := symbolFragment.FindStringSubmatch(raw); m != nil && m[1] != "" {
		recovered["symbol"] = m[1]
	}
	return recovered, false
}
