// Package errors provides the standardized scoring error taxonomy and its
// mapping onto workflow job failures.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfiguration  ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeDataIntegrity  ErrorCode = "DATA_INTEGRITY_ERROR"
	ErrCodeProvider       ErrorCode = "PROVIDER_ERROR"
	ErrCodeDataFormat     ErrorCode = "DATA_FORMAT_ERROR"
	ErrCodeScoringPending ErrorCode = "SCORING_PENDING"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any *StandardError carrying the same code, so the sentinels
// below can be used with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata attaches a key/value pair and returns the receiver.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Sentinels for errors.Is comparisons.
var (
	ErrConfiguration  = &StandardError{Code: ErrCodeConfiguration}
	ErrDataIntegrity  = &StandardError{Code: ErrCodeDataIntegrity}
	ErrProvider       = &StandardError{Code: ErrCodeProvider}
	ErrDataFormat     = &StandardError{Code: ErrCodeDataFormat}
	ErrScoringPending = &StandardError{Code: ErrCodeScoringPending}
)

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

// NewConfigurationError reports an application whose type/mode pair has no strategy.
func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   "Application scoring configuration is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDataIntegrityError reports missing or empty reference data.
func NewDataIntegrityError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataIntegrity,
		Message:   "Reference data is missing or empty",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderError wraps a model invocation failure. It is not retried here.
func NewProviderError(provider string, err error) *StandardError {
	details := provider
	if err != nil {
		details = fmt.Sprintf("provider: %s, error: %s", provider, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeProvider,
		Message:   "Model invocation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewDataFormatError reports model output that does not match the expected shape.
func NewDataFormatError(details string, err error) *StandardError {
	if err != nil {
		details = fmt.Sprintf("%s: %s", details, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeDataFormat,
		Message:   "Model output could not be parsed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewScoringPendingError is the soft "no result yet" outcome of the follower poll.
func NewScoringPendingError(cacheKey string, attempts int) *StandardError {
	return &StandardError{
		Code:      ErrCodeScoringPending,
		Message:   "Scoring result not available yet",
		Details:   fmt.Sprintf("cacheKey: %s, attempts: %d", cacheKey, attempts),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Helpers
// ==========================

// BPMNErrorMapping maps internal codes to the BPMN error codes modelled in the process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeConfiguration:  "SCORING_CONFIGURATION_ERROR",
	ErrCodeDataIntegrity:  "SCORING_DATA_INTEGRITY_ERROR",
	ErrCodeProvider:       "SCORING_PROVIDER_ERROR",
	ErrCodeDataFormat:     "SCORING_DATA_FORMAT_ERROR",
	ErrCodeScoringPending: "SCORING_PENDING",
	ErrCodeInternal:       "SCORING_INTERNAL_ERROR",
}

// GetRetryCount returns how many job retries a code deserves.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeScoringPending:
		return 3
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError into its workflow representation.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	code, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		code = string(stdErr.Code)
	}
	return &BPMNError{
		Code:           code,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        GetRetryCount(stdErr.Code),
		ErrorVariables: stdErr.Metadata,
	}
}

// IsRetryableErrorCode reports whether a code should be retried by the caller.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logging.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeConfiguration, ErrCodeDataIntegrity:
		return "data"
	case ErrCodeProvider, ErrCodeDataFormat:
		return "provider"
	case ErrCodeScoringPending:
		return "transient"
	default:
		return "internal"
	}
}

// AsStandardError returns the first *StandardError in err's chain, wrapping
// anything else as an internal error.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}
