package errors

// ErrorCategory classifies errors by their nature and retry semantics.
type ErrorCategory string

// Error categories define how errors should be handled.
const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: tool endpoint timeouts, transport congestion.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: malformed frames, tools outside the local allow-list.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryInternal indicates unexpected errors or corrupted state.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	return c == CategoryTransient
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

// Error codes for the failure taxonomy of the reconciliation engine.
const (
	// Transient errors
	ErrCodeTimeout     ErrorCode = "TIMEOUT"      // Operation timed out
	ErrCodeToolFailed  ErrorCode = "TOOL_FAILED"  // Tool endpoint call failed
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED" // Local call budget exhausted

	// Permanent errors
	ErrCodeMalformedArgs   ErrorCode = "MALFORMED_ARGS"   // Argument buffer unparseable
	ErrCodeNotAllowed      ErrorCode = "NOT_ALLOWED"      // Tool outside the local allow-list
	ErrCodeUnknownCall     ErrorCode = "UNKNOWN_CALL"     // Call id never resolved
	ErrCodeDeferredExpired ErrorCode = "DEFERRED_EXPIRED" // Deferred output dropped by TTL
	ErrCodeCanceled        ErrorCode = "CANCELED"         // Operation was canceled

	// Internal errors
	ErrCodeInternal        ErrorCode = "INTERNAL"         // Unexpected internal error
	ErrCodeSendFailed      ErrorCode = "SEND_FAILED"      // Outbound frame could not be sent
	ErrCodeTransportClosed ErrorCode = "TRANSPORT_CLOSED" // Control channel gone
	ErrCodePanic           ErrorCode = "PANIC"            // Recovered from panic
)

// codeCategories maps codes to their default categories.
var codeCategories = map[ErrorCode]ErrorCategory{
	ErrCodeTimeout:         CategoryTransient,
	ErrCodeToolFailed:      CategoryTransient,
	ErrCodeRateLimited:     CategoryTransient,
	ErrCodeMalformedArgs:   CategoryPermanent,
	ErrCodeNotAllowed:      CategoryPermanent,
	ErrCodeUnknownCall:     CategoryPermanent,
	ErrCodeDeferredExpired: CategoryPermanent,
	ErrCodeCanceled:        CategoryPermanent,
	ErrCodeInternal:        CategoryInternal,
	ErrCodeSendFailed:      CategoryInternal,
	ErrCodeTransportClosed: CategoryInternal,
	ErrCodePanic:           CategoryInternal,
}

// CategoryFor returns the default category for a code.
func CategoryFor(code ErrorCode) ErrorCategory {
	if cat, ok := codeCategories[code]; ok {
		return cat
	}
	return CategoryInternal
}
