// internal/workers/assistant/bulk-enrollment/handler.go
package bulkenrollment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lms-assistant/internal/common/logger"
	"lms-assistant/internal/common/metrics"
	"lms-assistant/internal/jobs"
	"lms-assistant/internal/lms"
	"lms-assistant/internal/nlu"
)

const (
	TaskType = "bulk-enrollment"
)

var (
	ErrUnsupportedIntent = errors.New("UNSUPPORTED_INTENT")
	ErrEmptyBatch        = errors.New("EMPTY_BATCH")
	ErrBatchTooLarge     = errors.New("BATCH_TOO_LARGE")
	ErrBulkJobFailed     = errors.New("BULK_JOB_FAILED")
)

type Handler struct {
	config *Config
	lms    lms.Client
	jobs   *jobs.Store
	logger logger.Logger
}

func NewHandler(config *Config, client lms.Client, jobStore *jobs.Store, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		lms:    client,
		jobs:   jobStore,
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
		if errors.Is(err, ErrBulkJobFailed) {
			retries = 1
		}
		h.failJob(client, job, err, retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var mutate func(ctx context.Context, req lms.EnrollmentRequest) error
	switch input.Intent {
	case nlu.IntentBulkEnrollCourse, nlu.IntentBulkEnrollLearningPlan:
		mutate = h.lms.Enroll
	case nlu.IntentBulkUnenrollCourse:
		mutate = h.lms.Unenroll
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedIntent, input.Intent)
	}

	emails, err := h.resolveBatch(ctx, input.Entities)
	if err != nil {
		return nil, err
	}

	job, err := h.jobs.Create(ctx, input.Intent, len(emails))
	if err != nil {
		return nil, fmt.Errorf("%w: create job: %v", ErrBulkJobFailed, err)
	}
	metrics.BulkJobUsers.Observe(float64(len(emails)))

	template := enrollmentTemplate(input.Entities)

	processed, failed := 0, 0
	var failures []string
	for _, email := range emails {
		req := template
		req.Email = email

		if err := mutate(ctx, req); err != nil {
			failed++
			failures = append(failures, fmt.Sprintf("%s: %v", email, err))
		}
		processed++

		if processed%h.config.ProgressEvery == 0 {
			if _, err := h.jobs.UpdateProgress(ctx, job.ID, processed, failed, lastFailure(failures)); err != nil {
				h.logger.Warn("progress update failed", map[string]interface{}{
					"jobId": job.ID,
					"error": err.Error(),
				})
			}
		}

		if ctx.Err() != nil {
			_, _ = h.jobs.Fail(ctx, job.ID, "batch interrupted: "+ctx.Err().Error())
			return nil, fmt.Errorf("%w: %v", ErrBulkJobFailed, ctx.Err())
		}
	}

	if _, err := h.jobs.UpdateProgress(ctx, job.ID, processed, failed, lastFailure(failures)); err != nil {
		h.logger.Warn("progress update failed", map[string]interface{}{
			"jobId": job.ID,
			"error": err.Error(),
		})
	}
	final, err := h.jobs.Complete(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: complete job: %v", ErrBulkJobFailed, err)
	}

	h.logger.Info("bulk job finished", map[string]interface{}{
		"jobId":     final.ID,
		"status":    string(final.Status),
		"processed": processed,
		"failed":    failed,
	})

	return &Output{
		JobID:     final.ID,
		Status:    string(final.Status),
		Total:     len(emails),
		Processed: processed,
		Failed:    failed,
		Errors:    failures,
	}, nil
}

// resolveBatch turns the extracted entities into the list of target emails,
// expanding a team reference through the platform directory.
func (h *Handler) resolveBatch(ctx context.Context, ents nlu.Entities) ([]string, error) {
	emails := ents.Emails
	if len(emails) == 0 && ents.Email != "" {
		emails = []string{strings.ToLower(ents.Email)}
	}

	if ents.TeamName != "" {
		members, err := h.lms.ListTeamMembers(ctx, ents.TeamName)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve team %q: %v", ErrBulkJobFailed, ents.TeamName, err)
		}
		seen := make(map[string]bool, len(emails))
		for _, e := range emails {
			seen[e] = true
		}
		for _, m := range members {
			addr := strings.ToLower(m.Email)
			if addr != "" && !seen[addr] {
				seen[addr] = true
				emails = append(emails, addr)
			}
		}
	}

	if len(emails) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(emails) > h.config.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d users (max %d)", ErrBatchTooLarge, len(emails), h.config.MaxBatchSize)
	}
	return emails, nil
}

func enrollmentTemplate(ents nlu.Entities) lms.EnrollmentRequest {
	req := lms.EnrollmentRequest{
		ResourceType:   string(ents.ResourceType),
		AssignmentType: string(ents.AssignmentType),
		StartValidity:  ents.StartValidity,
		EndValidity:    ents.EndValidity,
	}
	switch ents.ResourceType {
	case nlu.ResourceLearningPlan:
		req.ResourceName = ents.LearningPlanName
	default:
		req.ResourceType = string(nlu.ResourceCourse)
		req.ResourceID = ents.CourseID
		req.ResourceName = ents.CourseName
	}
	return req
}

func lastFailure(failures []string) string {
	if len(failures) == 0 {
		return ""
	}
	return failures[len(failures)-1]
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
	case errors.Is(err, ErrUnsupportedIntent):
		errorCode = "UNSUPPORTED_INTENT"
	case errors.Is(err, ErrEmptyBatch):
		errorCode = "EMPTY_BATCH"
	case errors.Is(err, ErrBatchTooLarge):
		errorCode = "BATCH_TOO_LARGE"
	case errors.Is(err, ErrBulkJobFailed):
		errorCode = "BULK_JOB_FAILED"
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

// Execute exposes the batch path for direct callers and tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
