// Package errors provides the advisor's error taxonomy and its mapping to
// HTTP responses and Camunda job outcomes.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Generative backend. Recovered by the fallback matcher inside a turn.
	ErrCodeGenAITimeout     ErrorCode = "GENAI_TIMEOUT"
	ErrCodeGenAIUnavailable ErrorCode = "GENAI_UNAVAILABLE"

	// Caller-correctable input.
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeProfileIncomplete ErrorCode = "PROFILE_INCOMPLETE"
	ErrCodeLoanNotFound      ErrorCode = "LOAN_NOT_FOUND"

	// Storage.
	ErrCodePersistenceFailed  ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeEngineUnavailable      ErrorCode = "ENGINE_UNAVAILABLE"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewGenAITimeoutError reports a backend call that exceeded its deadline.
func NewGenAITimeoutError(provider string) *StandardError {
	return newError(ErrCodeGenAITimeout, "Generative backend timed out",
		fmt.Sprintf("provider: %s", provider), true, nil)
}

// NewGenAIUnavailableError covers auth, quota, transport and malformed responses.
func NewGenAIUnavailableError(provider string, err error) *StandardError {
	return newError(ErrCodeGenAIUnavailable, "Generative backend unavailable",
		fmt.Sprintf("provider: %s, error: %v", provider, err), true, err)
}

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Request validation failed", details, false, nil)
}

// NewProfileIncompleteError is returned when a financial profile lacks the
// fields needed for an eligibility check.
func NewProfileIncompleteError(details string) *StandardError {
	return newError(ErrCodeProfileIncomplete, "Please complete your financial profile first", details, false, nil)
}

// NewLoanNotFoundError creates a non-retryable catalog lookup error.
func NewLoanNotFoundError(loanID string) *StandardError {
	return newError(ErrCodeLoanNotFound, "Loan not found", fmt.Sprintf("loanId: %s", loanID), false, nil)
}

// NewPersistenceError wraps a conversation store failure.
func NewPersistenceError(operation string, err error) *StandardError {
	return newError(ErrCodePersistenceFailed, "Conversation persistence failed",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true, err)
}

// NewCatalogUnavailableError wraps a loan catalog read failure.
func NewCatalogUnavailableError(err error) *StandardError {
	return newError(ErrCodeCatalogUnavailable, "Loan catalog unavailable", err.Error(), true, err)
}

// NewNotificationSendFailedError wraps an outcome publishing failure.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification send failed",
		fmt.Sprintf("channel: %s, error: %v", channel, err), true, err)
}

// NewEngineUnavailableError wraps a failed workflow engine command.
func NewEngineUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeEngineUnavailable, "Workflow engine unavailable",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true, err)
}

// NewInternalError wraps anything that does not fit the taxonomy.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// ==========================
// 4. Error Conversion
// ==========================

// AsStandardError finds a StandardError in err's chain, or wraps err as internal.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// HTTPStatus maps an error to the status code returned by the HTTP API.
func HTTPStatus(err error) int {
	switch AsStandardError(err).Code {
	case ErrCodeValidationFailed, ErrCodeProfileIncomplete:
		return http.StatusBadRequest
	case ErrCodeLoanNotFound:
		return http.StatusNotFound
	case ErrCodeGenAITimeout:
		return http.StatusGatewayTimeout
	case ErrCodeGenAIUnavailable, ErrCodeCatalogUnavailable, ErrCodeEngineUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePersistenceFailed,
		ErrCodeCatalogUnavailable,
		ErrCodeNotificationSendFailed,
		ErrCodeEngineUnavailable:
		return 3
	case ErrCodeGenAITimeout, ErrCodeGenAIUnavailable:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "GENAI"):
		return "BACKEND"
	case codeStr == string(ErrCodeValidationFailed) || strings.Contains(codeStr, "PROFILE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "PERSISTENCE") || strings.Contains(codeStr, "CATALOG") || strings.Contains(codeStr, "LOAN"):
		return "STORAGE"
	case strings.Contains(codeStr, "ENGINE"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
