// internal/workers/assistant/search-catalog/handler.go
package searchcatalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"

	commonerrors "lms-assistant/internal/common/errors"
	"lms-assistant/internal/common/logger"
	"lms-assistant/internal/common/metrics"
	"lms-assistant/internal/nlu"
	"lms-assistant/internal/workers/assistant/search-catalog/queries"
)

const (
	TaskType = "search-catalog"
)

var (
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
	ErrSearchTimeout     = errors.New("SEARCH_TIMEOUT")
	ErrUnsupportedIntent = errors.New("UNSUPPORTED_INTENT")
	ErrMissingTerm       = errors.New("MISSING_SEARCH_TERM")
)

type Handler struct {
	config *Config
	client *elasticsearch.Client
	logger logger.Logger
}

func NewHandler(config *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: client,
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
		if errors.Is(err, ErrSearchTimeout) {
			retries = 2
		}
		h.failJob(client, job, err, retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	cq, err := h.buildQuery(input)
	if err != nil {
		return nil, err
	}

	result, err := queries.Execute(ctx, h.client, cq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrSearchTimeout
		}
		if errors.Is(err, queries.ErrMissingTerm) {
			return nil, fmt.Errorf("%w: %v", ErrMissingTerm, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}

	h.logger.Info("search completed", map[string]interface{}{
		"intent":    input.Intent,
		"totalHits": result.TotalHits,
		"tookMs":    result.Took,
	})

	return &Output{
		Intent:    input.Intent,
		Results:   result.Data,
		TotalHits: result.TotalHits,
		Took:      result.Took,
	}, nil
}

// buildQuery maps a search intent onto the index and query kind it targets.
func (h *Handler) buildQuery(input *Input) (queries.CatalogQuery, error) {
	var cq queries.CatalogQuery
	cq.Term = input.Entities.SearchTerm
	cq.Pagination.From = input.From
	cq.Pagination.Size = h.config.PageSize

	switch input.Intent {
	case nlu.IntentSearchCourses:
		cq.Index = h.config.CatalogIndex
		cq.Kind = queries.KindCourses
	case nlu.IntentSearchLearningPlans:
		cq.Index = h.config.CatalogIndex
		cq.Kind = queries.KindLearningPlans
	case nlu.IntentSearchSessions:
		cq.Index = h.config.CatalogIndex
		cq.Kind = queries.KindSessions
		cq.DateFrom = input.Entities.SessionDate
	case nlu.IntentSearchUsers:
		cq.Index = h.config.UserIndex
		cq.Kind = queries.KindUsers
	default:
		return cq, fmt.Errorf("%w: %s", ErrUnsupportedIntent, input.Intent)
	}

	if cq.Term == "" {
		return cq, fmt.Errorf("%w: empty search term", ErrMissingTerm)
	}
	return cq, nil
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
	case errors.Is(err, ErrSearchTimeout):
		errorCode = "SEARCH_TIMEOUT"
	case errors.Is(err, ErrSearchQueryFailed):
		errorCode = "SEARCH_QUERY_FAILED"
	case errors.Is(err, ErrUnsupportedIntent):
		errorCode = "UNSUPPORTED_INTENT"
	case errors.Is(err, ErrMissingTerm):
		errorCode = "MISSING_SEARCH_TERM"
	}

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":        job.Key,
		"error":         err.Error(),
		"errorCode":     errorCode,
		"errorCategory": commonerrors.GetErrorCategory(commonerrors.ErrorCode(errorCode)),
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(errorCode + ": " + err.Error()).
		Send(context.Background())
}

// Execute exposes the search path for direct callers and tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
