// internal/workers/assistant/analyze-intent/handler.go
package analyzeintent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	httpclient "lms-assistant/internal/common/http"
	"lms-assistant/internal/common/logger"
	"lms-assistant/internal/common/metrics"
	"lms-assistant/internal/nlu"
)

const (
	TaskType = "analyze-intent"
)

var (
	ErrMessageTooLong      = errors.New("MESSAGE_TOO_LONG")
	ErrIntentParsingFailed = errors.New("INTENT_PARSING_FAILED")
	ErrGenAITimeout        = errors.New("GENAI_TIMEOUT")
)

type Handler struct {
	config   *Config
	analyzer *nlu.Analyzer
	client   *httpclient.Client
	logger   logger.Logger
}

func NewHandler(config *Config, analyzer *nlu.Analyzer, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		analyzer: analyzer,
		client:   httpclient.NewClient(config.Timeout),
		logger: log.WithFields(map[string]interface{}{
			"taskType": TaskType,
		}),
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
		if errors.Is(err, ErrGenAITimeout) {
			retries = 1
		}
		h.failJob(client, job, err, retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.Message) > h.config.MaxMessageLength {
		return nil, fmt.Errorf("%w: %d characters", ErrMessageTooLong, len(input.Message))
	}

	start := time.Now()
	result := h.analyzer.Analyze(input.Message)
	metrics.AnalyzeDuration.Observe(time.Since(start).Seconds())

	output := &Output{
		Intent:     result.Intent,
		Entities:   result.Entities,
		Confidence: result.Confidence,
		Source:     "rules",
	}

	// The rule engine is authoritative for anything it recognizes. Only a
	// miss (or a weak match) is handed to the GenAI fallback.
	if h.config.GenAIEnabled && result.Confidence < h.config.ConfidenceFloor {
		fallback, err := h.classifyWithGenAI(ctx, input)
		if err != nil {
			h.logger.Warn("genai fallback failed, keeping rule result", map[string]interface{}{
				"error": err.Error(),
			})
		} else if fallback.Confidence > result.Confidence {
			output = fallback
		}
	}

	metrics.MessagesAnalyzed.WithLabelValues(output.Intent).Inc()

	h.logger.Info("message classified", map[string]interface{}{
		"intent":     output.Intent,
		"confidence": output.Confidence,
		"source":     output.Source,
	})

	return output, nil
}

func (h *Handler) classifyWithGenAI(ctx context.Context, input *Input) (*Output, error) {
	requestBody := map[string]interface{}{
		"message": input.Message,
	}
	if input.Context != nil {
		requestBody["context"] = input.Context
	}

	body, _ := json.Marshal(requestBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrGenAITimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", h.config.GenAIBaseURL+"/api/ai/classify", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIntentParsingFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, lastErr = h.client.Do(req)

		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return nil, ErrGenAITimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrGenAITimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrIntentParsingFailed, lastErr)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrIntentParsingFailed)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Intent     string       `json:"intent"`
		Entities   nlu.Entities `json:"entities"`
		Confidence float64      `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrIntentParsingFailed, err)
	}
	if apiResponse.Intent == "" {
		apiResponse.Intent = nlu.IntentUnknown
	}

	return &Output{
		Intent:     apiResponse.Intent,
		Entities:   apiResponse.Entities,
		Confidence: apiResponse.Confidence,
		Source:     "genai",
	}, nil
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
	case errors.Is(err, ErrMessageTooLong):
		errorCode = "MESSAGE_TOO_LONG"
	case errors.Is(err, ErrGenAITimeout):
		errorCode = "GENAI_TIMEOUT"
	case errors.Is(err, ErrIntentParsingFailed):
		errorCode = "INTENT_PARSING_FAILED"
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

// Execute exposes the classification path for direct callers and tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
