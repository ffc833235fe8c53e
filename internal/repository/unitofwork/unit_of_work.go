package unitofwork

import (
	"context"

	"ai-docchat-be/internal/repository/contract"
)

// UnitOfWork scopes repository calls to one transaction. Between Begin and
// Commit every repository write lands in the same transaction; this is the
// atomicity boundary the turn upsert and the cascade delete rely on.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatRecordRepository() contract.ChatRecordRepository
	ChunkEmbeddingRepository() contract.ChunkEmbeddingRepository
}
