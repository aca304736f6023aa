// internal/workers/assistant/notify-admin/handler.go
package notifyadmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lms-assistant/internal/common/logger"
	"lms-assistant/internal/common/metrics"
)

const (
	TaskType = "notify-admin"
)

var (
	ErrNotificationFailed = errors.New("NOTIFICATION_SEND_FAILED")
	ErrUnknownKind        = errors.New("UNKNOWN_NOTIFICATION_KIND")
)

// EmailSender is the SES surface the handler needs.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// TopicPublisher is the SNS surface the handler needs.
type TopicPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config *Config
	email  EmailSender
	topic  TopicPublisher
	logger logger.Logger
}

func NewHandler(config *Config, email EmailSender, topic TopicPublisher, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		email:  email,
		topic:  topic,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("parse input: %w", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		retries := int32(0)
		if errors.Is(err, ErrNotificationFailed) {
			retries = 2
		}
		h.failJob(client, job, err, retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	subject, body, err := renderNotification(input)
	if err != nil {
		return nil, err
	}

	out := &Output{}

	recipient := input.AdminEmail
	if recipient == "" {
		recipient = h.config.AdminEmail
	}

	if h.email != nil && recipient != "" {
		resp, err := h.email.SendEmail(ctx, &ses.SendEmailInput{
			Source: aws.String(h.config.SenderEmail),
			Destination: &sestypes.Destination{
				ToAddresses: []string{recipient},
			},
			Message: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(body)},
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: ses: %v", ErrNotificationFailed, err)
		}
		out.EmailSent = true
		if resp.MessageId != nil {
			out.MessageID = *resp.MessageId
		}
	}

	if h.topic != nil && h.config.SNSTopicARN != "" {
		_, err := h.topic.Publish(ctx, &sns.PublishInput{
			TopicArn: aws.String(h.config.SNSTopicARN),
			Subject:  aws.String(subject),
			Message:  aws.String(body),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: sns: %v", ErrNotificationFailed, err)
		}
		out.TopicNotified = true
	}

	out.Success = true
	h.logger.Info("notification delivered", map[string]interface{}{
		"kind":  string(input.Kind),
		"email": out.EmailSent,
		"topic": out.TopicNotified,
	})
	return out, nil
}

func renderNotification(input *Input) (subject, body string, err error) {
	switch input.Kind {
	case KindBulkJobCompleted:
		subject = fmt.Sprintf("Bulk job %s finished", input.JobID)
		body = fmt.Sprintf("Job %s (%s) finished.\n\n%s", input.JobID, input.Intent, input.Summary)
	case KindCommandFailed:
		subject = fmt.Sprintf("Command failed: %s", input.Intent)
		body = fmt.Sprintf("The assistant could not complete %q.\n\n%s", input.Intent, input.Summary)
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnknownKind, input.Kind)
	}
	if input.Detail != "" {
		body += "\n\n" + input.Detail
	}
	return subject, body, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, retries int32) {
	errorCode := "UNKNOWN_ERROR"
	switch {
	case errors.Is(err, ErrNotificationFailed):
		errorCode = "NOTIFICATION_SEND_FAILED"
	case errors.Is(err, ErrUnknownKind):
		errorCode = "UNKNOWN_NOTIFICATION_KIND"
	}

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": errorCode,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(errorCode + ": " + err.Error()).
		Send(context.Background())
}

// Execute exposes the notification path for direct callers and tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
