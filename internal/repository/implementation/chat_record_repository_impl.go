package implementation

import (
	"context"
	"errors"
	"time"

	"ai-docchat-be/internal/constant"
	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/mapper"
	"ai-docchat-be/internal/model"
	"ai-docchat-be/internal/repository/contract"
	"ai-docchat-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatRecordMapper
}

func NewChatRecordRepository(db *gorm.DB) contract.ChatRecordRepository {
	return &ChatRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatRecordMapper(),
	}
}

func (r *ChatRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatRecordRepositoryImpl) InsertSession(ctx context.Context, session *entity.ChatSession) error {
	m := r.mapper.SessionToRecord(session)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ChatRecordRepositoryImpl) ReplaceSession(ctx context.Context, session *entity.ChatSession) error {
	m := r.mapper.SessionToRecord(session)
	result := r.db.WithContext(ctx).
		Model(&model.ChatRecord{}).
		Where("id = ? AND record_type = ?", session.Id, constant.RecordTypeSession).
		Updates(map[string]interface{}{
			"name":          m.Name,
			"input_tokens":  m.InputTokens,
			"output_tokens": m.OutputTokens,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contract.ErrRecordNotFound
	}
	return nil
}

func (r *ChatRecordRepositoryImpl) InsertMessage(ctx context.Context, message *entity.ChatMessage) error {
	m := r.mapper.MessageToRecord(message)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ChatRecordRepositoryImpl) FindSessionByID(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error) {
	var m model.ChatRecord
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByID{ID: id},
		specification.ByRecordType{RecordType: constant.RecordTypeSession},
	)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contract.ErrRecordNotFound
		}
		return nil, err
	}
	return r.mapper.RecordToSession(&m), nil
}

func (r *ChatRecordRepositoryImpl) FindSessions(ctx context.Context) ([]*entity.ChatSession, error) {
	var models []*model.ChatRecord
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByRecordType{RecordType: constant.RecordTypeSession},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	sessions := make([]*entity.ChatSession, len(models))
	for i, m := range models {
		sessions[i] = r.mapper.RecordToSession(m)
	}
	return sessions, nil
}

func (r *ChatRecordRepositoryImpl) FindMessagesBySessionID(ctx context.Context, sessionId uuid.UUID) ([]*entity.ChatMessage, error) {
	var models []*model.ChatRecord
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.BySessionID{SessionID: sessionId},
		specification.ByRecordType{RecordType: constant.RecordTypeMessage},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.RecordsToMessages(models), nil
}

// UpsertBatch writes the items through gorm upserts. Callers run it inside a
// unit-of-work transaction; the shard key check happens before any write so a
// mismatched batch touches nothing.
func (r *ChatRecordRepositoryImpl) UpsertBatch(ctx context.Context, items []contract.BatchItem) error {
	if len(items) == 0 {
		return nil
	}
	shardKey := items[0].ShardKey()
	for _, item := range items[1:] {
		if item.ShardKey() != shardKey {
			return contract.ErrShardKeyMismatch
		}
	}

	for _, item := range items {
		switch item.Kind {
		case contract.BatchSessionUpdate:
			// Increment in SQL rather than writing caller-held totals, so
			// interleaved turns cannot erase each other's counts.
			result := r.db.WithContext(ctx).
				Model(&model.ChatRecord{}).
				Where("id = ? AND record_type = ?", item.SessionId, constant.RecordTypeSession).
				Updates(map[string]interface{}{
					"input_tokens":  gorm.Expr("input_tokens + ?", item.Usage.InputTokens),
					"output_tokens": gorm.Expr("output_tokens + ?", item.Usage.OutputTokens),
					"updated_at":    time.Now().UTC(),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return contract.ErrRecordNotFound
			}
		case contract.BatchMessageInsert:
			m := r.mapper.MessageToRecord(item.Message)
			err := r.db.WithContext(ctx).
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "id"}},
					UpdateAll: true,
				}).
				Create(m).Error
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *ChatRecordRepositoryImpl) DeleteBySessionID(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Delete(&model.ChatRecord{})
	return result.RowsAffected, result.Error
}
