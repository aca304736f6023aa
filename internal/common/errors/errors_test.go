// internal/common/errors/errors_test.go
package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSetsRetryabilityFromCode(t *testing.T) {
	retryable := New(ErrCodeLMSTimeout, "platform timed out")
	assert.True(t, retryable.Retryable)

	terminal := New(ErrCodeUserNotFound, "no such user")
	assert.False(t, terminal.Retryable)
}

func TestWrapCarriesDetails(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := Wrap(ErrCodeRedisFailed, "job store unavailable", cause)
	assert.Equal(t, ErrCodeRedisFailed, err.Code)
	assert.Equal(t, cause.Error(), err.Details)
	assert.True(t, err.Retryable)
}

func TestGetRetryCount(t *testing.T) {
	assert.Equal(t, 2, GetRetryCount(ErrCodeSearchTimeout))
	assert.Equal(t, 3, GetRetryCount(ErrCodeLMSAPIFailed))
	assert.Equal(t, 1, GetRetryCount(ErrCodeLMSAuthFailed))
	assert.Equal(t, 0, GetRetryCount(ErrCodeMessageTooLong))
	assert.Equal(t, 0, GetRetryCount(ErrCodeUnsupportedIntent))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "interpretation", GetErrorCategory(ErrCodeMessageTooLong))
	assert.Equal(t, "platform", GetErrorCategory(ErrCodeCourseNotFound))
	assert.Equal(t, "jobs", GetErrorCategory(ErrCodeJobNotFound))
	assert.Equal(t, "infrastructure", GetErrorCategory(ErrCodeSearchQueryFailed))
	assert.Equal(t, "internal", GetErrorCategory(ErrorCode("NO_SUCH_CODE")))
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := Wrap(ErrCodeNotificationSend, "ses rejected message", fmt.Errorf("throttled"))
	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "NOTIFICATION_SEND_FAILED", bpmnErr.Code)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.True(t, bpmnErr.Retryable)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "NOTIFICATION_SEND_FAILED", vars["errorCode"])
	assert.Equal(t, "throttled", vars["errorDetails"])
}

func TestAsStandardError(t *testing.T) {
	stdErr := New(ErrCodeBulkJobFailed, "partial failure")
	wrapped := fmt.Errorf("worker: %w", stdErr)

	got := AsStandardError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, ErrCodeBulkJobFailed, got.Code)

	assert.Nil(t, AsStandardError(fmt.Errorf("plain error")))
}
