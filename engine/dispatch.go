package engine

import (
	"context"
	"regexp"
	"time"

	"github.com/voxtlabs/voxtrade/disambig"
	"github.com/voxtlabs/voxtrade/errors"
	"github.com/voxtlabs/voxtrade/frame"
	"github.com/voxtlabs/voxtrade/telemetry"
	"github.com/voxtlabs/voxtrade/tools"
)

// resolveTokenTool names the lookup call whose result feeds disambiguation.
const resolveTokenTool = "resolve_token"

// base58Signature matches a transaction signature inside remote output.
var base58Signature = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{32,88}`)

// noResult is the closing payload when a tool produced nothing usable.
func noResult() map[string]interface{} {
	return map[string]interface{}{"ok": false, "error": "no_result"}
}

// dispatch routes a completed call. Remote calls were already executed
// upstream and only get acknowledged; local calls go to the tool endpoint
// unless policy forbids the name.
func (s *Session) dispatch(ctx context.Context, rec *CallRecord, args map[string]interface{}, f *frame.Frame) {
	if rec.Ownership == frame.OwnedRemote {
		s.handleRemote(rec, f)
		return
	}

	if !s.policy.IsLocal(rec.Name) {
		s.logger.PolicyDenied(rec.Name, rec.CallID)
		s.record(telemetry.KindPolicyDenied, map[string]interface{}{
			"tool":    rec.Name,
			"call_id": rec.CallID,
		})
		return
	}

	s.logger.ToolCall(rec.Name, rec.CallID)
	s.record(telemetry.KindToolDispatched, map[string]interface{}{
		"tool":    rec.Name,
		"call_id": rec.CallID,
	})

	// The HTTP round trip runs off the frame loop; its continuation
	// re-enters through the resume channel so registry and emitter
	// state stay single-threaded.
	go func() {
		spanCtx, span := s.tracer.StartToolSpan(ctx, rec.Name)
		start := time.Now()
		result := s.invoker.Invoke(spanCtx, rec.Name, args)
		dur := time.Since(start)
		s.tracer.EndToolSpan(span, telemetry.ToolSpanOptions{
			Tool:   rec.Name,
			Args:   args,
			Result: result.Brief(tools.DefaultBriefLimit),
			OK:     result.OK(),
		}, nil)
		s.enqueue(func() { s.finishLocal(rec, args, result, dur) })
	}()
}

// handleRemote acknowledges a call the upstream side already executed.
// No HTTP call is made and no closing output is sent.
func (s *Session) handleRemote(rec *CallRecord, f *frame.Frame) {
	s.logger.RemoteHandled(rec.Name, rec.CallID)
	data := map[string]interface{}{
		"tool":    rec.Name,
		"call_id": rec.CallID,
	}
	if out := frame.RemoteOutput(f); out != "" {
		if sig := base58Signature.FindString(out); sig != "" {
			data["signature"] = sig
		}
	}
	s.record(telemetry.KindRemoteHandled, data)
}

// finishLocal runs on the frame loop once a tool round trip returns.
func (s *Session) finishLocal(rec *CallRecord, args map[string]interface{}, result tools.Result, dur time.Duration) {
	data := map[string]interface{}{
		"tool":        rec.Name,
		"call_id":     rec.CallID,
		"ok":          result.OK(),
		"duration_ms": dur.Milliseconds(),
	}
	if result.OK() {
		s.logger.ToolResult(rec.Name, dur, nil)
	} else {
		// Failures keep the raw argument text for diagnosis.
		s.logger.ToolFailed(rec.Name, rec.CallID, rec.rawArgs, resultError(result))
		data["args"] = rec.rawArgs
	}
	s.logger.Debug("tool result body", map[string]interface{}{
		"tool": rec.Name,
		"body": result.Brief(tools.DefaultBriefLimit),
	})
	s.record(telemetry.KindToolResult, data)

	if rec.Name == resolveTokenTool {
		s.finishResolveToken(rec, args, result)
		return
	}

	s.emit(rec, closingPayload(result))
}

// finishResolveToken closes out a token lookup. The closing output goes to
// the transport first so the turn can finish, then any candidates are
// handed to the disambiguation machine.
func (s *Session) finishResolveToken(rec *CallRecord, args map[string]interface{}, result tools.Result) {
	s.emit(rec, closingPayload(result))

	if s.machine == nil {
		return
	}
	query := tools.Args(args).StringOr("query", "")
	if query == "" {
		query = tools.Args(args).StringOr("symbol", "")
	}
	s.machine.Offer(query, candidatesFrom(result))
}

// closingPayload picks what to send back as the call's output.
func closingPayload(result tools.Result) interface{} {
	if len(result) == 0 {
		return noResult()
	}
	if mcp, ok := result["mcp"]; ok && mcp != nil {
		return mcp
	}
	return map[string]interface{}(result)
}

// candidatesFrom maps a lookup result's entries into candidates.
func candidatesFrom(result tools.Result) []disambig.Candidate {
	rows := result.Results()
	out := make([]disambig.Candidate, 0, len(rows))
	for _, row := range rows {
		c := disambig.Candidate{
			Address: stringField(row, "address", "mint"),
			Symbol:  stringField(row, "symbol"),
			Name:    stringField(row, "name"),
		}
		if c.Address == "" {
			continue
		}
		if v, ok := row["liquidity_usd"].(float64); ok {
			c.LiquidityUSD = v
		} else if v, ok := row["liquidity"].(float64); ok {
			c.LiquidityUSD = v
		}
		out = append(out, c)
	}
	return out
}

func stringField(row map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func resultError(result tools.Result) error {
	msg := result.ErrorMessage()
	if msg == "" {
		msg = "tool reported failure"
	}
	return errors.New(errors.ErrCodeToolFailed, msg)
}
