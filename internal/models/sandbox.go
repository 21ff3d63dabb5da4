package models

import (
	"time"

	"github.com/google/uuid"
)

// SandboxInfo is the public view of a live sandbox.
type SandboxInfo struct {
	ID         uuid.UUID `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	Restored   bool      `json:"restored,omitempty"`
}
