package models

import (
	"time"

	"github.com/google/uuid"
)

type QueryHistory struct {
	ID              uuid.UUID `json:"id"`
	SandboxID       uuid.UUID `json:"sandbox_id"`
	QueryText       string    `json:"query_text"`
	ExecutedAt      time.Time `json:"executed_at"`
	Success         bool      `json:"success"`
	ExecutionTimeMs int       `json:"execution_time_ms"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	HintID          string    `json:"hint_id,omitempty"`
}

func (q *QueryHistory) Prepare() {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.ExecutedAt.IsZero() {
		q.ExecutedAt = time.Now()
	}
}
