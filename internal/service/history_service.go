package service

import (
	"context"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/contract"
	"ai-docchat-be/internal/repository/memory"
	"ai-docchat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// IHistoryService coordinates the in-memory session store with the durable
// chat-record store. While a session is live the in-memory copy is
// authoritative; every turn and rename is written through to the durable
// store, and sessions evicted from memory are repaired from it on the next
// read.
type IHistoryService interface {
	CreateSession(ctx context.Context) (*entity.ChatSession, error)
	GetSessions(ctx context.Context) ([]*entity.ChatSession, error)
	// GetSession returns a snapshot plus the revision to hand back to
	// UpdateSession.
	GetSession(ctx context.Context, sessionId uuid.UUID) (*entity.ChatSession, uint64, error)
	GetSessionMessages(ctx context.Context, sessionId uuid.UUID) ([]*entity.ChatMessage, error)
	// UpdateSession replaces session metadata. It fails with
	// memory.ErrConflict when the session changed since the rev snapshot,
	// without touching either store.
	UpdateSession(ctx context.Context, session *entity.ChatSession, rev uint64) error
	// UpsertTurn persists one exchange: the session's token usage plus the
	// prompt and completion messages, atomically. Either all three records
	// land or none do. The usage is applied as a delta in both stores, so
	// concurrent turns on one session accumulate their counts.
	UpsertTurn(ctx context.Context, sessionId uuid.UUID, prompt, completion *entity.ChatMessage, usage entity.TurnUsage) error
	// DeleteSession removes the session and all its messages, reporting how
	// many durable records were removed. Deleting an absent session is not an
	// error.
	DeleteSession(ctx context.Context, sessionId uuid.UUID) (int64, error)
}

type historyService struct {
	uowFactory unitofwork.RepositoryFactory
	sessions   *memory.SessionRepository
	log        logger.ILogger
}

func NewHistoryService(
	uowFactory unitofwork.RepositoryFactory,
	sessions *memory.SessionRepository,
	log logger.ILogger,
) IHistoryService {
	return &historyService{
		uowFactory: uowFactory,
		sessions:   sessions,
		log:        log,
	}
}

func (h *historyService) CreateSession(ctx context.Context) (*entity.ChatSession, error) {
	session := entity.NewChatSession()

	uow := h.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatRecordRepository().InsertSession(ctx, session); err != nil {
		return nil, err
	}

	return h.sessions.Insert(session), nil
}

// GetSessions merges the durable listing with the live in-memory snapshots.
// For a session that is active in memory, the in-memory copy wins.
func (h *historyService) GetSessions(ctx context.Context) ([]*entity.ChatSession, error) {
	uow := h.uowFactory.NewUnitOfWork(ctx)
	stored, err := uow.ChatRecordRepository().FindSessions(ctx)
	if err != nil {
		return nil, err
	}

	live := make(map[uuid.UUID]*entity.ChatSession)
	for _, s := range h.sessions.List() {
		live[s.Id] = s
	}

	sessions := make([]*entity.ChatSession, 0, len(stored))
	for _, s := range stored {
		if l, ok := live[s.Id]; ok {
			sessions = append(sessions, l)
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (h *historyService) GetSession(ctx context.Context, sessionId uuid.UUID) (*entity.ChatSession, uint64, error) {
	if session, rev, found := h.sessions.Get(sessionId.String()); found {
		return session, rev, nil
	}

	// Evicted or never loaded here: repair from the durable store.
	uow := h.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatRecordRepository().FindSessionByID(ctx, sessionId)
	if err != nil {
		return nil, 0, err
	}
	if session == nil {
		return nil, 0, contract.ErrRecordNotFound
	}

	h.log.Info("history", "session repaired from durable store", map[string]interface{}{
		"session_id": sessionId.String(),
	})
	h.sessions.Insert(session)

	repaired, rev, found := h.sessions.Get(sessionId.String())
	if !found {
		return nil, 0, memory.ErrNotFound
	}
	return repaired, rev, nil
}

func (h *historyService) GetSessionMessages(ctx context.Context, sessionId uuid.UUID) ([]*entity.ChatMessage, error) {
	session, _, err := h.GetSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if len(session.Messages) > 0 {
		return session.Messages, nil
	}

	uow := h.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ChatRecordRepository().FindMessagesBySessionID(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return messages, nil
	}

	if err := h.sessions.SetMessages(sessionId.String(), messages); err != nil {
		// The entry expired between reads; the next access repairs it again.
		h.log.Warn("history", "loaded history not cached", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
	return messages, nil
}

func (h *historyService) UpdateSession(ctx context.Context, session *entity.ChatSession, rev uint64) error {
	// CAS against the authoritative copy first: a conflict must prevent the
	// durable write, not follow it.
	if err := h.sessions.Update(session, rev); err != nil {
		return err
	}

	uow := h.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatRecordRepository().ReplaceSession(ctx, session); err != nil {
		// The cache already holds the rejected update: drop the entry rather
		// than serve it, and let the next read repair from the store.
		h.sessions.Delete(session.Id.String())
		h.log.Error("history", "durable session update failed, cache entry dropped", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		return err
	}
	return nil
}

func (h *historyService) UpsertTurn(ctx context.Context, sessionId uuid.UUID, prompt, completion *entity.ChatMessage, usage entity.TurnUsage) error {
	if prompt.SessionId != sessionId || completion.SessionId != sessionId {
		return contract.ErrShardKeyMismatch
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	uow := h.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	items := []contract.BatchItem{
		contract.SessionTurnItem(sessionId, usage),
		contract.MessageInsertItem(prompt),
		contract.MessageInsertItem(completion),
	}
	if err := uow.ChatRecordRepository().UpsertBatch(ctx, items); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	// The durable store accepted the turn; the cache converges on it even if
	// the entry was mutated or evicted in the meantime.
	if err := h.sessions.ApplyTurn(prompt, completion, usage); err != nil {
		h.log.Warn("history", "turn not applied to session cache", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
	return nil
}

func (h *historyService) DeleteSession(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	uow := h.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	removed, err := uow.ChatRecordRepository().DeleteBySessionID(ctx, sessionId)
	if err == nil {
		err = uow.Commit()
	}

	// Drop the cached entry even when the durable delete failed: its durable
	// state is unknown now, and the next read repairs from the store.
	h.sessions.Delete(sessionId.String())
	if err != nil {
		return 0, err
	}

	h.log.Info("history", "session deleted", map[string]interface{}{
		"session_id": sessionId.String(),
		"records":    removed,
	})
	return removed, nil
}
