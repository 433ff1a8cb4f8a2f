package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jolly-agents/server/internal/agent/model"
	errx "github.com/jolly-agents/server/internal/core/error"
)

type memoryEntry struct {
	session   model.ChatSession
	expiresAt time.Time
}

// MemorySessionRepository keeps sessions in process memory. Entries expire
// ttl after their last write; expired entries are dropped lazily.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *MemorySessionRepository) Save(ctx context.Context, session model.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()
	r.putLocked(session)
	return nil
}

func (r *MemorySessionRepository) Load(ctx context.Context, sessionID string) (model.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.getLocked(sessionID)
}

// Update holds the lock across fn so concurrent commits to one session serialise.
func (r *MemorySessionRepository) Update(ctx context.Context, sessionID string, fn func(model.ChatSession) (model.ChatSession, error)) (model.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, err := r.getLocked(sessionID)
	if err != nil {
		return model.ChatSession{}, err
	}
	next, err := fn(cur)
	if err != nil {
		return model.ChatSession{}, err
	}
	next.ID = sessionID
	r.putLocked(next)
	return next, nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}

func (r *MemorySessionRepository) getLocked(sessionID string) (model.ChatSession, error) {
	e, ok := r.sessions[sessionID]
	if ok && r.expired(e) {
		delete(r.sessions, sessionID)
		ok = false
	}
	if !ok {
		return model.ChatSession{}, errx.NotFound(fmt.Errorf("%w: %s", errx.ErrSessionNotFound, sessionID))
	}
	return e.session, nil
}

func (r *MemorySessionRepository) putLocked(session model.ChatSession) {
	e := memoryEntry{session: session}
	if r.ttl > 0 {
		e.expiresAt = r.now().Add(r.ttl)
	}
	r.sessions[session.ID] = e
}

func (r *MemorySessionRepository) sweepLocked() {
	for id, e := range r.sessions {
		if r.expired(e) {
			delete(r.sessions, id)
		}
	}
}

func (r *MemorySessionRepository) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !r.now().Before(e.expiresAt)
}

var _ model.SessionRepository = (*MemorySessionRepository)(nil)
