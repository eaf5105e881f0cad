// Package logging provides real-time log output derived from session events.
// The telemetry record is the forensic trail. This package provides optional
// console output for monitoring a live session, derived from frame events.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger provides structured logging to stdout.
// This is for real-time monitoring only - forensic analysis uses telemetry.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	sessionID string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
		sessionID: l.sessionID,
	}
}

// WithSession returns a new logger tagged with a session ID.
func (l *Logger) WithSession(sessionID string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: l.component,
		sessionID: sessionID,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var parts []string
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry in traditional format: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}
	if l.sessionID != "" {
		fieldStr = fmt.Sprintf(" session=%s%s", l.sessionID, fieldStr)
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Event-derived logging methods ---
// These are called by the session engine after recording telemetry.
// They provide real-time console output without duplicating data.

// ToolCall logs a local tool invocation (real-time output).
func (l *Logger) ToolCall(tool, callID string) {
	l.Debug("tool_call", map[string]interface{}{
		"tool":    tool,
		"call_id": callID,
	})
}

// ToolResult logs a tool result (real-time output).
func (l *Logger) ToolResult(tool string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"tool":     tool,
		"duration": duration.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		l.Error("tool_error", fields)
	} else {
		l.Debug("tool_result", fields)
	}
}

// ToolFailed logs a failed tool call with the raw argument text that
// produced it.
func (l *Logger) ToolFailed(tool, callID, rawArgs string, err error) {
	l.Error("tool_error", map[string]interface{}{
		"tool":    tool,
		"call_id": callID,
		"args":    rawArgs,
		"error":   err.Error(),
	})
}

// CallCreated logs a newly registered call record.
func (l *Logger) CallCreated(tool, itemID, callID, ownership string) {
	l.Debug("call_created", map[string]interface{}{
		"tool":      tool,
		"item_id":   itemID,
		"call_id":   callID,
		"ownership": ownership,
	})
}

// CallCompleted logs a call reaching its terminal state.
func (l *Logger) CallCompleted(tool, callID string, dispatched bool) {
	l.Debug("call_completed", map[string]interface{}{
		"tool":       tool,
		"call_id":    callID,
		"dispatched": dispatched,
	})
}

// OutputDeferred logs an output parked while its call ID is unknown.
func (l *Logger) OutputDeferred(itemID string) {
	l.Debug("output_deferred", map[string]interface{}{
		"item_id": itemID,
	})
}

// OutputBackfilled logs a deferred output released by a late call ID.
func (l *Logger) OutputBackfilled(itemID, callID string) {
	l.Debug("output_backfilled", map[string]interface{}{
		"item_id": itemID,
		"call_id": callID,
	})
}

// OutputDropped logs a deferred output expiring without a call ID.
func (l *Logger) OutputDropped(itemID string, age time.Duration) {
	l.Warn("output_dropped", map[string]interface{}{
		"item_id": itemID,
		"age":     age.String(),
	})
}

// RemoteHandled logs a remote-owned call that was observed but not dispatched.
func (l *Logger) RemoteHandled(tool, callID string) {
	l.Debug("remote_handled", map[string]interface{}{
		"tool":    tool,
		"call_id": callID,
	})
}

// PolicyDenied logs a call rejected by the local allow-list.
func (l *Logger) PolicyDenied(tool, callID string) {
	l.Warn("policy_denied", map[string]interface{}{
		"tool":    tool,
		"call_id": callID,
	})
}

// MalformedArgs logs an argument buffer that failed strict parsing.
func (l *Logger) MalformedArgs(tool, callID string, recovered bool) {
	l.Warn("malformed_args", map[string]interface{}{
		"tool":      tool,
		"call_id":   callID,
		"recovered": recovered,
	})
}

// Disambiguation logs a state transition in the candidate selection flow.
func (l *Logger) Disambiguation(state string, candidates int) {
	l.Debug("disambiguation", map[string]interface{}{
		"state":      state,
		"candidates": candidates,
	})
}

// PanicRecovered logs a recovered handler panic.
func (l *Logger) PanicRecovered(where string, value interface{}) {
	l.Error("panic_recovered", map[string]interface{}{
		"where": where,
		"value": fmt.Sprintf("%v", value),
	})
}
