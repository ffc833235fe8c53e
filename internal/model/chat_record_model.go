package model

import (
	"time"

	"github.com/google/uuid"
)

// ChatRecord is the single logical collection for conversation state.
// Sessions and messages co-reside, distinguished by RecordType; SessionId is
// the shard key scoping every atomic multi-record batch (for a session record
// it equals Id).
type ChatRecord struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	RecordType   string    `gorm:"type:varchar(20);not null;index"`
	SessionId    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name         string    `gorm:"type:text"`
	Role         string    `gorm:"type:varchar(20)"`
	PromptText   string    `gorm:"type:text"`
	DisplayText  string    `gorm:"type:text"`
	Tokens       *int
	InputTokens  int       `gorm:"default:0"`
	OutputTokens int       `gorm:"default:0"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (ChatRecord) TableName() string {
	return "chat_records"
}
