package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeShapeError         ErrorCode = "SHAPE_ERROR"
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeColumnNotFound     ErrorCode = "COLUMN_NOT_FOUND"
	ErrCodeDatasetUnavailable ErrorCode = "DATASET_UNAVAILABLE"

	ErrCodeCacheFailure        ErrorCode = "CACHE_FAILURE"
	ErrCodeReportPublishFailed ErrorCode = "REPORT_PUBLISH_FAILED"

	ErrCodeAnalysisTimeout ErrorCode = "ANALYSIS_TIMEOUT"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

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
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error and returns it for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

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

// NewShapeError reports a dimensional mismatch on the named input.
func NewShapeError(dimension, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeShapeError,
		Message:   fmt.Sprintf("invalid shape for %s", dimension),
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"dimension": dimension},
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewColumnNotFoundError(column string) *StandardError {
	return &StandardError{
		Code:      ErrCodeColumnNotFound,
		Message:   "Column not found in reference dataset",
		Details:   fmt.Sprintf("column: %s", column),
		Retryable: false,
		Metadata:  map[string]interface{}{"column": column},
		Timestamp: time.Now().UTC(),
	}
}

func NewDatasetUnavailableError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatasetUnavailable,
		Message:   "Reference dataset unavailable",
		Details:   fmt.Sprintf("source: %s, error: %v", source, err),
		Retryable: true,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewCacheFailureError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheFailure,
		Message:   "Result cache operation failed",
		Details:   fmt.Sprintf("op: %s, error: %v", op, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewReportPublishFailedError(sink string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportPublishFailed,
		Message:   "Report publishing failed",
		Details:   fmt.Sprintf("sink: %s, error: %v", sink, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewAnalysisTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisTimeout,
		Message:   "Analysis timed out",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

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

// AsStandardError finds the first StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

func IsCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeShapeError:          "SHAPE_ERROR",
	ErrCodeInvalidInput:        "INVALID_INPUT",
	ErrCodeColumnNotFound:      "COLUMN_NOT_FOUND",
	ErrCodeDatasetUnavailable:  "DATASET_UNAVAILABLE",
	ErrCodeCacheFailure:        "CACHE_FAILURE",
	ErrCodeReportPublishFailed: "REPORT_PUBLISH_FAILED",
	ErrCodeAnalysisTimeout:     "ANALYSIS_TIMEOUT",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatasetUnavailable,
		ErrCodeCacheFailure,
		ErrCodeReportPublishFailed:
		return 3

	case ErrCodeAnalysisTimeout:
		return 2

	default:
		return 0 // shape and input errors never succeed on retry
	}
}

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

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SHAPE") || strings.Contains(codeStr, "INPUT"):
		return "VALIDATION"
	case strings.Contains(codeStr, "DATASET") || strings.Contains(codeStr, "COLUMN"):
		return "DATASET"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "REPORT"):
		return "REPORTING"
	case strings.Contains(codeStr, "TIMEOUT"):
		return "TIMEOUT"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeShapeError, ErrCodeInvalidInput, ErrCodeColumnNotFound:
		return http.StatusBadRequest
	case ErrCodeDatasetUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeAnalysisTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
