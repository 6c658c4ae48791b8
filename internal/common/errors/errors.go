// Package errors provides the standardized error taxonomy of the resolution engine.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeStoreUnavailable     ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"

	ErrCodeSearchUnavailable ErrorCode = "SEARCH_UNAVAILABLE"
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeTranslationFailed ErrorCode = "TRANSLATION_FAILED"
	ErrCodeMalformedPeriod   ErrorCode = "MALFORMED_PERIOD"
	ErrCodeUnknownOperation  ErrorCode = "UNKNOWN_OPERATION"
	ErrCodeInvalidArguments  ErrorCode = "INVALID_ARGUMENTS"

	ErrCodeDecisionServiceFailed ErrorCode = "DECISION_SERVICE_FAILED"
	ErrCodeGenerationFailed      ErrorCode = "GENERATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewStoreUnavailableError creates a retryable structured-store connection error.
func NewStoreUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Structured store not reachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Structured store query error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchUnavailableError creates a retryable semantic-store connection error.
func NewSearchUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchUnavailable,
		Message:   "Semantic store not reachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable semantic search error.
func NewSearchQueryFailedError(query string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Semantic store query error",
		Details:   fmt.Sprintf("query: %s, error: %s", query, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTranslationFailedError creates a translation error. It is recovered
// locally by the term expansion gateway and never reaches the caller.
func NewTranslationFailedError(term string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTranslationFailed,
		Message:   "Translation service error",
		Details:   fmt.Sprintf("term: %s, error: %s", term, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedPeriodError creates a non-retryable period format error.
// Valid periods are YYYY or YYYY-MM.
func NewMalformedPeriodError(period string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedPeriod,
		Message:   "Period must be YYYY or YYYY-MM",
		Details:   fmt.Sprintf("period: %q", period),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownOperationError creates a non-retryable unknown operation error.
func NewUnknownOperationError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownOperation,
		Message:   "Operation not in the analytic catalog",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidArgumentsError creates a non-retryable argument validation error.
func NewInvalidArgumentsError(operation, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidArguments,
		Message:   "Operation arguments failed validation",
		Details:   fmt.Sprintf("operation: %s, %s", operation, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDecisionServiceFailedError creates a retryable decision service error.
// The orchestrator recovers by answering without tool data.
func NewDecisionServiceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecisionServiceFailed,
		Message:   "Decision service error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationFailedError creates a retryable generation service error.
// The composer recovers with the deterministic fallback formatter.
func NewGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   "Generation service error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsRetryable reports whether err carries a retryable StandardError.
func IsRetryable(err error) bool {
	if se, ok := err.(*StandardError); ok {
		return se.Retryable
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "STORE") || strings.Contains(codeStr, "QUERY"):
		return "STORE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "TRANSLATION") || strings.Contains(codeStr, "DECISION") || strings.Contains(codeStr, "GENERATION"):
		return "SERVICE"
	case strings.Contains(codeStr, "PERIOD") || strings.Contains(codeStr, "ARGUMENTS") || strings.Contains(codeStr, "OPERATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
