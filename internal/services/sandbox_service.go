package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"sqlplayground/internal/database"
	"sqlplayground/internal/logging"
	"sqlplayground/internal/models"
	"sqlplayground/internal/repositories"
	"sqlplayground/internal/utils"
)

var (
	ErrSandboxNotFound  = errors.New("sandbox not found")
	ErrTooManySandboxes = errors.New("too many active sandboxes, try again later")
)

// Palette holds the table background colors, assigned round-robin.
var Palette = []string{
	"#b2ebf2", "#ffe082", "#c0ca33", "#f44336", "#ce93d8",
	"#90caf9", "#ffe0b2", "#80cbc4", "#e6ee9c", "#ffab91",
}

// Sandbox is one student's private database plus its display state.
type Sandbox struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu       sync.Mutex
	db       *sql.DB
	colors   map[string]string
	lastUsed time.Time
	restored bool
}

// withDB runs fn while holding the sandbox lock, so statement batches and
// the schema reads that follow them never interleave.
func (s *Sandbox) withDB(fn func(db *sql.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrSandboxNotFound
	}
	s.lastUsed = time.Now()
	return fn(s.db)
}

// colorFor keeps the first color a table was given. New tables get the
// palette entry at their position in the current listing.
func (s *Sandbox) colorFor(table string, idx int) string {
	if c, ok := s.colors[table]; ok {
		return c
	}
	c := Palette[idx%len(Palette)]
	s.colors[table] = c
	return c
}

func (s *Sandbox) Info() models.SandboxInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.SandboxInfo{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		LastUsedAt: s.lastUsed,
		Restored:   s.restored,
	}
}

func (s *Sandbox) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed)
}

func (s *Sandbox) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type SandboxOptions struct {
	MaxSandboxes int
	TTL          time.Duration
	SweepEvery   time.Duration
}

// SandboxService is the registry of live sandboxes.
type SandboxService struct {
	journal repositories.JournalStore
	history repositories.QueryHistoryStore
	opts    SandboxOptions

	mu        sync.Mutex
	sandboxes map[uuid.UUID]*Sandbox
	restores  singleflight.Group
}

func NewSandboxService(journal repositories.JournalStore, history repositories.QueryHistoryStore, opts SandboxOptions) *SandboxService {
	return &SandboxService{
		journal:   journal,
		history:   history,
		opts:      opts,
		sandboxes: make(map[uuid.UUID]*Sandbox),
	}
}

func (s *SandboxService) newSandbox(ctx context.Context, id uuid.UUID) (*Sandbox, error) {
	db, err := database.OpenSandbox(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Sandbox{
		ID:        id,
		CreatedAt: now,
		db:        db,
		colors:    make(map[string]string),
		lastUsed:  now,
	}, nil
}

func (s *SandboxService) Create(ctx context.Context) (*Sandbox, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.full() {
		return nil, ErrTooManySandboxes
	}

	sb, err := s.newSandbox(ctx, uuid.New())
	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox: %w", err)
	}
	s.sandboxes[sb.ID] = sb

	logging.Info("sandbox created", "sandbox_id", sb.ID, "active", len(s.sandboxes))
	return sb, nil
}

// Get returns a live sandbox. An unknown id with a non-empty journal is
// rebuilt by replaying the journal into a fresh database. Concurrent
// requests for the same id share one restore, and the registry stays
// unlocked while it runs.
func (s *SandboxService) Get(ctx context.Context, id uuid.UUID) (*Sandbox, error) {
	if sb, ok := s.lookup(id); ok {
		return sb, nil
	}

	v, err, _ := s.restores.Do(id.String(), func() (interface{}, error) {
		return s.restore(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Sandbox), nil
}

func (s *SandboxService) lookup(id uuid.UUID) (*Sandbox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sb, ok := s.sandboxes[id]
	return sb, ok
}

func (s *SandboxService) full() bool {
	return s.opts.MaxSandboxes > 0 && len(s.sandboxes) >= s.opts.MaxSandboxes
}

func (s *SandboxService) restore(ctx context.Context, id uuid.UUID) (*Sandbox, error) {
	if sb, ok := s.lookup(id); ok {
		return sb, nil
	}

	statements, err := s.journal.Statements(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read sandbox journal: %w", err)
	}
	if len(statements) == 0 {
		return nil, ErrSandboxNotFound
	}

	s.mu.Lock()
	atLimit := s.full()
	s.mu.Unlock()
	if atLimit {
		return nil, ErrTooManySandboxes
	}

	sb, err := s.newSandbox(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to restore sandbox: %w", err)
	}
	sb.restored = true

	failed := 0
	for _, stmt := range statements {
		if utils.TouchesFiles(stmt) {
			failed++
			continue
		}
		if _, err := sb.db.ExecContext(ctx, stmt); err != nil {
			failed++
			logging.Warn("journal statement failed on replay", "sandbox_id", id, "err", err)
		}
	}

	s.mu.Lock()
	if s.full() {
		s.mu.Unlock()
		sb.close()
		return nil, ErrTooManySandboxes
	}
	s.sandboxes[id] = sb
	s.mu.Unlock()

	logging.Info("sandbox restored from journal", "sandbox_id", id, "statements", len(statements), "failed", failed)
	return sb, nil
}

// Reset swaps the sandbox database for an empty one and forgets the
// journal and the table colors.
func (s *SandboxService) Reset(ctx context.Context, id uuid.UUID) (*Sandbox, error) {
	sb, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	db, err := database.OpenSandbox(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reset sandbox: %w", err)
	}

	sb.mu.Lock()
	if sb.db == nil {
		sb.mu.Unlock()
		db.Close()
		return nil, ErrSandboxNotFound
	}
	// Cleared under the lock: a batch that finished before the reset must
	// not leave statements behind in the new journal.
	if err := s.journal.Delete(ctx, id); err != nil {
		sb.mu.Unlock()
		db.Close()
		return nil, fmt.Errorf("failed to clear sandbox journal: %w", err)
	}
	old := sb.db
	sb.db = db
	sb.colors = make(map[string]string)
	sb.lastUsed = time.Now()
	sb.restored = false
	sb.mu.Unlock()

	old.Close()

	logging.Info("sandbox reset", "sandbox_id", id)
	return sb, nil
}

// Delete closes the sandbox and drops its journal and history.
func (s *SandboxService) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	sb, ok := s.sandboxes[id]
	delete(s.sandboxes, id)
	s.mu.Unlock()

	if ok {
		if err := sb.close(); err != nil {
			logging.Warn("failed to close sandbox database", "sandbox_id", id, "err", err)
		}
	}

	if err := s.journal.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete sandbox journal: %w", err)
	}
	if err := s.history.DeleteBySandboxID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete sandbox history: %w", err)
	}

	if !ok {
		return ErrSandboxNotFound
	}

	logging.Info("sandbox deleted", "sandbox_id", id)
	return nil
}

func (s *SandboxService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sandboxes)
}

// Evict closes sandboxes idle for longer than the TTL. Their journals are
// kept, so a returning student gets their tables back through Get.
func (s *SandboxService) Evict(now time.Time) int {
	if s.opts.TTL <= 0 {
		return 0
	}

	s.mu.Lock()
	var stale []*Sandbox
	for id, sb := range s.sandboxes {
		if sb.idleSince(now) > s.opts.TTL {
			stale = append(stale, sb)
			delete(s.sandboxes, id)
		}
	}
	s.mu.Unlock()

	for _, sb := range stale {
		if err := sb.close(); err != nil {
			logging.Warn("failed to close evicted sandbox", "sandbox_id", sb.ID, "err", err)
		}
	}
	if len(stale) > 0 {
		logging.Info("evicted idle sandboxes", "count", len(stale))
	}
	return len(stale)
}

// Run evicts idle sandboxes periodically until ctx is cancelled.
func (s *SandboxService) Run(ctx context.Context) {
	every := s.opts.SweepEvery
	if every <= 0 {
		every = time.Minute
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Evict(now)
		}
	}
}

// Close shuts every sandbox down. Journals are left in place.
func (s *SandboxService) Close() {
	s.mu.Lock()
	all := s.sandboxes
	s.sandboxes = make(map[uuid.UUID]*Sandbox)
	s.mu.Unlock()

	for _, sb := range all {
		sb.close()
	}
}
