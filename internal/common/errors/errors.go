// Package errors provides standardized error handling for the query engine and
// its BPMN workflow integration.
package errors

import (
	"errors"
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
	ErrCodeClassificationFailed  ErrorCode = "CLASSIFICATION_FAILED"
	ErrCodeUnsupportedQueryType  ErrorCode = "UNSUPPORTED_QUERY_TYPE"
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnauthorized          ErrorCode = "UNAUTHORIZED"
	ErrCodeExternalServiceError  ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeLLMTimeout            ErrorCode = "LLM_TIMEOUT"
	ErrCodeQueryExecutionFailed  ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeInvalidJobInput       ErrorCode = "INVALID_JOB_INPUT"
	ErrCodeCacheOperationFailed  ErrorCode = "CACHE_OPERATION_FAILED"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
	ErrCodeResourceNotFound      ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeIndexNotFound         ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeSearchQueryFailed     ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeDatabaseConnectFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
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
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// UserMessage is the text that may be shown to the person asking the question.
func (e *StandardError) UserMessage() string {
	return e.Message
}

// WithMetadata attaches a key to the error metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// AsStandardError finds the first StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
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

// NewClassificationError is returned when the model output is not a usable intent.
func NewClassificationError(cause error) *StandardError {
	details := "empty intent"
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      ErrCodeClassificationFailed,
		Message:   "Could not understand the query",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewUnsupportedQueryError creates a non-retryable error for an unknown query type.
func NewUnsupportedQueryError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedQueryType,
		Message:   "Query type not supported",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates a non-retryable parameter validation error.
func NewValidationError(message, value string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Details:   fmt.Sprintf("value: %s", value),
		Retryable: false,
		Metadata:  map[string]interface{}{"value": value},
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthorizationError is returned when a non-admin calls an admin-only query.
func NewAuthorizationError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewExternalServiceError wraps a failure from a store, lookup or model call.
func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalServiceError,
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "Language model call timed out",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(indexName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexNotFound,
		Message:   "Elasticsearch index not found",
		Details:   fmt.Sprintf("indexName: %s", indexName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInvalidJobInputError creates a non-retryable error for malformed job variables.
func NewInvalidJobInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidJobInput,
		Message:   "Invalid job input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewCacheOperationFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheOperationFailed,
		Message:   "Query cache operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResourceNotFound,
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeClassificationFailed:  "CLASSIFICATION_FAILED",
	ErrCodeUnsupportedQueryType:  "UNSUPPORTED_QUERY_TYPE",
	ErrCodeValidationFailed:      "VALIDATION_FAILED",
	ErrCodeUnauthorized:          "UNAUTHORIZED",
	ErrCodeExternalServiceError:  "EXTERNAL_SERVICE_ERROR",
	ErrCodeLLMTimeout:            "LLM_TIMEOUT",
	ErrCodeQueryExecutionFailed:  "QUERY_EXECUTION_FAILED",
	ErrCodeInvalidJobInput:       "INVALID_JOB_INPUT",
	ErrCodeCacheOperationFailed:  "CACHE_OPERATION_FAILED",
	ErrCodeSearchQueryFailed:     "SEARCH_QUERY_FAILED",
	ErrCodeIndexNotFound:         "INDEX_NOT_FOUND",
	ErrCodeDatabaseConnectFailed: "DATABASE_CONNECTION_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeExternalServiceError,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeDatabaseConnectFailed,
		ErrCodeCacheOperationFailed:
		return 3

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
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
	case strings.Contains(codeStr, "UNAUTHORIZED"):
		return "AUTH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY_EXECUTION"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "CLASSIFICATION") || strings.Contains(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "UNSUPPORTED"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
