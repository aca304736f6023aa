// Package errors provides standardized error handling for BPMN workflow
// integration across the assistant workers.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Command interpretation
	ErrCodeMessageTooLong      ErrorCode = "MESSAGE_TOO_LONG"
	ErrCodeIntentParsingFailed ErrorCode = "INTENT_PARSING_FAILED"
	ErrCodeGenAITimeout        ErrorCode = "GENAI_TIMEOUT"

	// LMS platform API
	ErrCodeLMSAuthFailed     ErrorCode = "LMS_AUTH_FAILED"
	ErrCodeLMSAPIFailed      ErrorCode = "LMS_API_FAILED"
	ErrCodeLMSTimeout        ErrorCode = "LMS_TIMEOUT"
	ErrCodeUserNotFound      ErrorCode = "USER_NOT_FOUND"
	ErrCodeCourseNotFound    ErrorCode = "COURSE_NOT_FOUND"
	ErrCodeSessionNotFound   ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeEnrollmentFailed  ErrorCode = "ENROLLMENT_FAILED"
	ErrCodeAttendanceFailed  ErrorCode = "ATTENDANCE_FAILED"
	ErrCodeUnsupportedIntent ErrorCode = "UNSUPPORTED_INTENT"

	// Bulk jobs
	ErrCodeJobNotFound   ErrorCode = "JOB_NOT_FOUND"
	ErrCodeBulkJobFailed ErrorCode = "BULK_JOB_FAILED"

	// Infrastructure
	ErrCodeDatabaseFailed    ErrorCode = "DATABASE_FAILED"
	ErrCodeRedisFailed       ErrorCode = "REDIS_FAILED"
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeNotificationSend  ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// StandardError is a structured application error.
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

// New builds a StandardError with the retryability implied by its code.
func New(code ErrorCode, message string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Retryable: GetRetryCount(code) > 0,
		Timestamp: time.Now().UTC(),
	}
}

// Wrap attaches an underlying error's text as details.
func Wrap(code ErrorCode, message string, err error) *StandardError {
	stdErr := New(code, message)
	if err != nil {
		stdErr.Details = err.Error()
	}
	return stdErr
}

// GetRetryCount maps an error code to the number of Zeebe retries it earns.
// Zero means the failure is deterministic and retrying cannot help.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeLMSTimeout, ErrCodeGenAITimeout, ErrCodeSearchTimeout:
		return 2
	case ErrCodeLMSAPIFailed, ErrCodeDatabaseFailed, ErrCodeRedisFailed,
		ErrCodeSearchQueryFailed, ErrCodeNotificationSend:
		return 3
	case ErrCodeLMSAuthFailed:
		return 1
	default:
		return 0
	}
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeMessageTooLong, ErrCodeIntentParsingFailed, ErrCodeGenAITimeout, ErrCodeUnsupportedIntent:
		return "interpretation"
	case ErrCodeLMSAuthFailed, ErrCodeLMSAPIFailed, ErrCodeLMSTimeout,
		ErrCodeUserNotFound, ErrCodeCourseNotFound, ErrCodeSessionNotFound,
		ErrCodeEnrollmentFailed, ErrCodeAttendanceFailed:
		return "platform"
	case ErrCodeJobNotFound, ErrCodeBulkJobFailed:
		return "jobs"
	case ErrCodeDatabaseFailed, ErrCodeRedisFailed, ErrCodeSearchQueryFailed,
		ErrCodeSearchTimeout, ErrCodeNotificationSend:
		return "infrastructure"
	default:
		return "internal"
	}
}

// BPMNError is an error shaped for the Camunda workflow engine.
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

// ToErrorVariables flattens the error for workflow variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"retryable":    e.Retryable,
	}
	if e.Details != "" {
		vars["errorDetails"] = e.Details
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ConvertToBPMNError maps a StandardError to its workflow representation.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   GetRetryCount(stdErr.Code),
	}
}

// AsStandardError unwraps err into a StandardError, or nil.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return nil
}
