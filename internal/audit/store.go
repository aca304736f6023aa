// Package audit persists a trail of executed admin commands so support
// staff can reconstruct what the assistant did on whose behalf.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"lms-assistant/internal/common/logger"
)

// Outcome describes how a command execution ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeDenied  Outcome = "denied"
)

// Record is one executed (or attempted) admin command.
type Record struct {
	ID         int64           `json:"id"`
	AdminEmail string          `json:"adminEmail"`
	Message    string          `json:"message"`
	Intent     string          `json:"intent"`
	Entities   json.RawMessage `json:"entities,omitempty"`
	Confidence float64         `json:"confidence"`
	Outcome    Outcome         `json:"outcome"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Store writes and reads audit records from Postgres.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "audit"}),
	}
}

const insertQuery = `
	INSERT INTO command_audit (admin_email, message, intent, entities, confidence, outcome, error, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id`

// Write inserts a record and fills in its ID and CreatedAt.
func (s *Store) Write(ctx context.Context, rec *Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	entities := rec.Entities
	if len(entities) == 0 {
		entities = json.RawMessage("{}")
	}

	err := s.db.QueryRowContext(ctx, insertQuery,
		rec.AdminEmail, rec.Message, rec.Intent, []byte(entities),
		rec.Confidence, string(rec.Outcome), rec.Error, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}

	s.logger.Debug("audit record written", map[string]interface{}{
		"id":     rec.ID,
		"intent": rec.Intent,
	})
	return nil
}

const recentQuery = `
	SELECT id, admin_email, message, intent, entities, confidence, outcome, error, created_at
	FROM command_audit
	WHERE admin_email = $1
	ORDER BY created_at DESC
	LIMIT $2`

// Recent returns the latest records for one admin, newest first.
func (s *Store) Recent(ctx context.Context, adminEmail string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, recentQuery, adminEmail, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var entities []byte
		var outcome string
		if err := rows.Scan(&rec.ID, &rec.AdminEmail, &rec.Message, &rec.Intent,
			&entities, &rec.Confidence, &outcome, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.Entities = json.RawMessage(entities)
		rec.Outcome = Outcome(outcome)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}
	return out, nil
}
