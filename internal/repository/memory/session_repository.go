// Package memory holds the in-process session store. While a session is
// active this store is the single source of truth for its metadata and loaded
// history; it is not invalidated by durable-store writes from other processes.
package memory

import (
	"errors"
	"sync"
	"time"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrConflict reports a compare-and-swap failure: the session changed
	// between the caller's read and its update.
	ErrConflict = errors.New("session modified concurrently")
)

// sessionEntry pairs the canonical session with its revision counter. The
// revision increments on every mutation and backs Update's CAS check.
type sessionEntry struct {
	session *entity.ChatSession
	rev     uint64
}

type SessionRepository struct {
	// mu guards only the in-memory read-modify-write sequences below; it is
	// never held across I/O.
	mu    sync.Mutex
	cache *cache.Cache
	log   logger.ILogger
}

// NewSessionRepository creates a store whose idle entries expire after an hour
// and are purged every ten minutes. An expired session is not lost: the next
// access read-repairs it from the durable store.
func NewSessionRepository(log logger.ILogger) *SessionRepository {
	return &SessionRepository{
		cache: cache.New(1*time.Hour, 10*time.Minute),
		log:   log,
	}
}

// Insert stores a new session. If the id is already present the existing
// session is returned untouched; the conflict is logged, never an overwrite.
func (r *SessionRepository) Insert(session *entity.ChatSession) *entity.ChatSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := session.Id.String()
	if e, found := r.entry(id); found {
		r.log.Warn("session-store", "session already exists, insert ignored", map[string]interface{}{
			"session_id": id,
		})
		return e.session.Clone()
	}
	r.cache.Set(id, &sessionEntry{session: session.Clone(), rev: 1}, cache.DefaultExpiration)
	return session.Clone()
}

// Get returns a snapshot of the session and the revision to pass to Update.
func (r *SessionRepository) Get(sessionId string) (*entity.ChatSession, uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, found := r.entry(sessionId)
	if !found {
		return nil, 0, false
	}
	return e.session.Clone(), e.rev, true
}

// List returns snapshots of every live session, in no particular order.
func (r *SessionRepository) List() []*entity.ChatSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.cache.Items()
	sessions := make([]*entity.ChatSession, 0, len(items))
	for _, item := range items {
		sessions = append(sessions, item.Object.(*sessionEntry).session.Clone())
	}
	return sessions
}

// Update replaces the stored session metadata if rev still matches the stored
// revision, so an interleaved mutation is detected instead of silently
// overwritten. The loaded history is kept from the stored entry.
func (r *SessionRepository) Update(session *entity.ChatSession, rev uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := session.Id.String()
	e, found := r.entry(id)
	if !found {
		r.log.Warn("session-store", "session not found for update", map[string]interface{}{
			"session_id": id,
		})
		return ErrNotFound
	}
	if e.rev != rev {
		return ErrConflict
	}
	replacement := session.Clone()
	replacement.Messages = e.session.Messages
	r.cache.Set(id, &sessionEntry{session: replacement, rev: rev + 1}, cache.DefaultExpiration)
	return nil
}

// AppendMessages appends to the session's loaded history. The append is
// visible to any Get that starts after this call returns.
func (r *SessionRepository) AppendMessages(sessionId string, messages ...*entity.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, found := r.entry(sessionId)
	if !found {
		return ErrNotFound
	}
	updated := e.session.Clone()
	for _, m := range messages {
		updated.AddMessage(m)
	}
	r.cache.Set(sessionId, &sessionEntry{session: updated, rev: e.rev + 1}, cache.DefaultExpiration)
	return nil
}

// SetMessages installs a fully loaded history in one step; readers observe
// either the previous history or the complete new one, never a partial load.
func (r *SessionRepository) SetMessages(sessionId string, messages []*entity.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, found := r.entry(sessionId)
	if !found {
		return ErrNotFound
	}
	updated := e.session.Clone()
	updated.Messages = append([]*entity.ChatMessage(nil), messages...)
	r.cache.Set(sessionId, &sessionEntry{session: updated, rev: e.rev + 1}, cache.DefaultExpiration)
	return nil
}

// ApplyTurn appends the turn's two messages and adds its token usage as one
// in-memory mutation, bypassing the CAS check: the durable store has already
// accepted the turn, so the cache must converge on it. The usage is a delta
// onto whatever totals the entry holds now, so turns that started from the
// same snapshot still accumulate.
func (r *SessionRepository) ApplyTurn(prompt, completion *entity.ChatMessage, usage entity.TurnUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := prompt.SessionId.String()
	e, found := r.entry(id)
	if !found {
		return ErrNotFound
	}
	updated := e.session.Clone()
	updated.InputTokens += usage.InputTokens
	updated.OutputTokens += usage.OutputTokens
	now := time.Now().UTC()
	updated.UpdatedAt = &now
	updated.AddMessage(prompt)
	updated.AddMessage(completion)
	r.cache.Set(id, &sessionEntry{session: updated, rev: e.rev + 1}, cache.DefaultExpiration)
	return nil
}

// Delete removes the session. Deleting an absent id is logged and succeeds.
func (r *SessionRepository) Delete(sessionId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.entry(sessionId); !found {
		r.log.Info("session-store", "session not found for delete", map[string]interface{}{
			"session_id": sessionId,
		})
		return
	}
	r.cache.Delete(sessionId)
}

func (r *SessionRepository) entry(sessionId string) (*sessionEntry, bool) {
	if x, found := r.cache.Get(sessionId); found {
		return x.(*sessionEntry), true
	}
	return nil, false
}
