package contract

import (
	"context"
	"errors"

	"ai-docchat-be/internal/entity"

	"github.com/google/uuid"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	// ErrShardKeyMismatch reports a batch whose items do not all share one
	// session id. Nothing is written when it is returned.
	ErrShardKeyMismatch = errors.New("all batch items must share the same session id")
)

// BatchItemKind discriminates the batch item union.
type BatchItemKind int

const (
	BatchSessionUpdate BatchItemKind = iota
	BatchMessageInsert
)

// BatchItem is one element of an atomic upsert batch: either a session turn
// update or a message insert, according to Kind. Turn updates carry the
// usage as a delta, not absolute totals, so the store can apply it atomically
// against whatever totals the session holds by then.
type BatchItem struct {
	Kind      BatchItemKind
	SessionId uuid.UUID
	Usage     entity.TurnUsage
	Message   *entity.ChatMessage
}

func SessionTurnItem(sessionId uuid.UUID, usage entity.TurnUsage) BatchItem {
	return BatchItem{Kind: BatchSessionUpdate, SessionId: sessionId, Usage: usage}
}

func MessageInsertItem(m *entity.ChatMessage) BatchItem {
	return BatchItem{Kind: BatchMessageInsert, Message: m}
}

// ShardKey returns the session id the item belongs to.
func (i BatchItem) ShardKey() uuid.UUID {
	switch i.Kind {
	case BatchSessionUpdate:
		return i.SessionId
	default:
		return i.Message.SessionId
	}
}

// ChatRecordRepository persists sessions and messages in one logical
// collection keyed by the session shard key. UpsertBatch and DeleteBySessionId
// are only atomic when executed inside a unit-of-work transaction; the store,
// not the caller, provides that atomicity boundary.
type ChatRecordRepository interface {
	InsertSession(ctx context.Context, session *entity.ChatSession) error
	ReplaceSession(ctx context.Context, session *entity.ChatSession) error
	InsertMessage(ctx context.Context, message *entity.ChatMessage) error
	FindSessionByID(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error)
	FindSessions(ctx context.Context) ([]*entity.ChatSession, error)
	FindMessagesBySessionID(ctx context.Context, sessionId uuid.UUID) ([]*entity.ChatMessage, error)
	// UpsertBatch writes every item, rejecting the whole batch with
	// ErrShardKeyMismatch when items span more than one session.
	UpsertBatch(ctx context.Context, items []BatchItem) error
	// DeleteBySessionID removes every record sharing the shard key and
	// reports how many records went away.
	DeleteBySessionID(ctx context.Context, sessionId uuid.UUID) (int64, error)
}
