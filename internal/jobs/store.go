// internal/jobs/store.go

// Package jobs tracks bulk enrollment jobs in Redis so "check job status"
// and "list jobs" commands can answer while a bulk operation is still
// running.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"lms-assistant/internal/common/logger"
)

// Status is the lifecycle state of a background job.
type Status string

const (
	StatusPending            Status = "pending"
	StatusRunning            Status = "running"
	StatusCompleted          Status = "completed"
	StatusCompletedWithError Status = "completed_with_errors"
	StatusFailed             Status = "failed"
)

// Job is one background bulk operation.
type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    Status    `json:"status"`
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Errors    []string  `json:"errors,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const (
	keyPrefix = "assistant:job:"
	indexKey  = "assistant:jobs"
)

// Store persists job state in Redis with a TTL.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewStore builds a Store. ttl bounds how long finished jobs stay
// queryable.
func NewStore(rdb *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		rdb:    rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "jobs.Store"}),
	}
}

// Create registers a new pending job and returns it.
func (s *Store) Create(ctx context.Context, jobType string, total int) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    StatusPending,
		Total:     total,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, job); err != nil {
		return nil, err
	}
	if err := s.rdb.SAdd(ctx, indexKey, job.ID).Err(); err != nil {
		return nil, fmt.Errorf("index job: %w", err)
	}

	s.logger.Info("job created", map[string]interface{}{
		"jobId": job.ID,
		"type":  jobType,
		"total": total,
	})
	return job, nil
}

// Get fetches a job by id. Returns redis.Nil wrapped when unknown.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

// UpdateProgress records per-user progress on a running job.
func (s *Store) UpdateProgress(ctx context.Context, id string, processed, failed int, errMsg string) (*Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	job.Status = StatusRunning
	job.Processed = processed
	job.Failed = failed
	if errMsg != "" {
		job.Errors = append(job.Errors, errMsg)
	}
	job.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Complete marks a job finished, distinguishing clean completion from
// partial failure.
func (s *Store) Complete(ctx context.Context, id string) (*Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Failed > 0 {
		job.Status = StatusCompletedWithError
	} else {
		job.Status = StatusCompleted
	}
	job.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Fail marks the whole job failed.
func (s *Store) Fail(ctx context.Context, id, reason string) (*Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	job.Status = StatusFailed
	if reason != "" {
		job.Errors = append(job.Errors, reason)
	}
	job.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// List returns all jobs still inside their TTL, newest first. Index entries
// whose job key already expired are pruned as a side effect.
func (s *Store) List(ctx context.Context) ([]Job, error) {
	ids, err := s.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	var out []Job
	for _, id := range ids {
		job, err := s.Get(ctx, id)
		if errors.Is(err, redis.Nil) {
			_ = s.rdb.SRem(ctx, indexKey, id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *job)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) save(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+job.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}
