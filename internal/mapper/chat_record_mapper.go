package mapper

import (
	"time"

	"ai-docchat-be/internal/constant"
	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/model"
)

type ChatRecordMapper struct{}

func NewChatRecordMapper() *ChatRecordMapper {
	return &ChatRecordMapper{}
}

func (m *ChatRecordMapper) SessionToRecord(s *entity.ChatSession) *model.ChatRecord {
	if s == nil {
		return nil
	}
	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}
	return &model.ChatRecord{
		Id:           s.Id,
		RecordType:   constant.RecordTypeSession,
		SessionId:    s.SessionId(),
		Name:         s.Name,
		InputTokens:  s.InputTokens,
		OutputTokens: s.OutputTokens,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *ChatRecordMapper) RecordToSession(r *model.ChatRecord) *entity.ChatSession {
	if r == nil {
		return nil
	}
	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}
	return &entity.ChatSession{
		Id:           r.Id,
		Name:         r.Name,
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *ChatRecordMapper) MessageToRecord(msg *entity.ChatMessage) *model.ChatRecord {
	if msg == nil {
		return nil
	}
	return &model.ChatRecord{
		Id:          msg.Id,
		RecordType:  constant.RecordTypeMessage,
		SessionId:   msg.SessionId,
		Role:        msg.Role,
		PromptText:  msg.PromptText,
		DisplayText: msg.DisplayText,
		Tokens:      msg.Tokens,
		CreatedAt:   msg.CreatedAt,
	}
}

func (m *ChatRecordMapper) RecordToMessage(r *model.ChatRecord) *entity.ChatMessage {
	if r == nil {
		return nil
	}
	return &entity.ChatMessage{
		Id:          r.Id,
		SessionId:   r.SessionId,
		Role:        r.Role,
		PromptText:  r.PromptText,
		DisplayText: r.DisplayText,
		Tokens:      r.Tokens,
		CreatedAt:   r.CreatedAt,
	}
}

func (m *ChatRecordMapper) RecordsToMessages(records []*model.ChatRecord) []*entity.ChatMessage {
	messages := make([]*entity.ChatMessage, len(records))
	for i, r := range records {
		messages[i] = m.RecordToMessage(r)
	}
	return messages
}
