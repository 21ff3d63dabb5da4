package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type journalEntry struct {
	statements []string
	expiresAt  time.Time
}

// MemoryJournalRepository is the in-process JournalStore. Entries expire
// ttl after their last write or touch.
type MemoryJournalRepository struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[uuid.UUID]*journalEntry
}

func NewMemoryJournalRepository(ttl time.Duration) *MemoryJournalRepository {
	return &MemoryJournalRepository{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[uuid.UUID]*journalEntry),
	}
}

func (r *MemoryJournalRepository) Append(_ context.Context, sandboxID uuid.UUID, statement string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()

	e, ok := r.entries[sandboxID]
	if !ok {
		e = &journalEntry{}
		r.entries[sandboxID] = e
	}
	e.statements = append(e.statements, statement)
	e.expiresAt = r.now().Add(r.ttl)
	return nil
}

func (r *MemoryJournalRepository) Statements(_ context.Context, sandboxID uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sandboxID]
	if !ok || r.now().After(e.expiresAt) {
		return nil, nil
	}
	out := make([]string, len(e.statements))
	copy(out, e.statements)
	return out, nil
}

func (r *MemoryJournalRepository) Touch(_ context.Context, sandboxID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[sandboxID]; ok {
		e.expiresAt = r.now().Add(r.ttl)
	}
	return nil
}

func (r *MemoryJournalRepository) Delete(_ context.Context, sandboxID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, sandboxID)
	return nil
}

func (r *MemoryJournalRepository) sweepLocked() {
	now := r.now()
	for id, e := range r.entries {
		if now.After(e.expiresAt) {
			delete(r.entries, id)
		}
	}
}
