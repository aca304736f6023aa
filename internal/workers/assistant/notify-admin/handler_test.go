// internal/workers/assistant/notify-admin/handler_test.go
package notifyadmin

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms-assistant/internal/common/logger"
)

type fakeEmail struct {
	sent []*ses.SendEmailInput
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, input)
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

type fakeTopic struct {
	published []*sns.PublishInput
	err       error
}

func (f *fakeTopic) Publish(_ context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.published = append(f.published, input)
	return &sns.PublishOutput{}, nil
}

func testConfig() *Config {
	cfg := LoadConfig()
	cfg.SenderEmail = "assistant@acme.com"
	cfg.AdminEmail = "fallback@acme.com"
	cfg.SNSTopicARN = "arn:aws:sns:eu-west-1:123:assistant-events"
	return cfg
}

func TestExecute_BulkJobCompleted(t *testing.T) {
	email := &fakeEmail{}
	topic := &fakeTopic{}
	h := NewHandler(testConfig(), email, topic, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		Kind:       KindBulkJobCompleted,
		AdminEmail: "admin@acme.com",
		JobID:      "job-42",
		Intent:     "bulk_enroll_course",
		Summary:    "25 processed, 2 failed",
	})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.True(t, out.EmailSent)
	assert.True(t, out.TopicNotified)
	assert.Equal(t, "msg-1", out.MessageID)

	require.Len(t, email.sent, 1)
	assert.Equal(t, []string{"admin@acme.com"}, email.sent[0].Destination.ToAddresses)
	assert.Contains(t, *email.sent[0].Message.Subject.Data, "job-42")

	require.Len(t, topic.published, 1)
	assert.Contains(t, *topic.published[0].Message, "25 processed")
}

func TestExecute_FallsBackToConfiguredAdmin(t *testing.T) {
	email := &fakeEmail{}
	h := NewHandler(testConfig(), email, nil, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		Kind:    KindCommandFailed,
		Intent:  "enroll_user_in_course",
		Summary: "user not found",
	})
	require.NoError(t, err)
	assert.True(t, out.EmailSent)
	assert.False(t, out.TopicNotified)
	require.Len(t, email.sent, 1)
	assert.Equal(t, []string{"fallback@acme.com"}, email.sent[0].Destination.ToAddresses)
}

func TestExecute_UnknownKind(t *testing.T) {
	h := NewHandler(testConfig(), &fakeEmail{}, &fakeTopic{}, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Kind: "pager_duty"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestExecute_SESFailure(t *testing.T) {
	email := &fakeEmail{err: errors.New("throttled")}
	h := NewHandler(testConfig(), email, &fakeTopic{}, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{
		Kind:       KindBulkJobCompleted,
		AdminEmail: "admin@acme.com",
		JobID:      "job-42",
		Summary:    "done",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotificationFailed)
}
