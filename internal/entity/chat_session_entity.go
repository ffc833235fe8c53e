package entity

import (
	"time"

	"ai-docchat-be/internal/constant"

	"github.com/google/uuid"
)

// ChatSession is the authoritative session record. Messages carries the loaded
// history: an empty slice means "not yet loaded", never a partial load.
type ChatSession struct {
	Id           uuid.UUID
	Name         string
	InputTokens  int
	OutputTokens int
	CreatedAt    time.Time
	UpdatedAt    *time.Time

	Messages []*ChatMessage
}

func NewChatSession() *ChatSession {
	return &ChatSession{
		Id:        uuid.New(),
		Name:      constant.DefaultSessionName,
		CreatedAt: time.Now().UTC(),
	}
}

// SessionId doubles as the shard key; for a session record it is its own id.
func (s *ChatSession) SessionId() uuid.UUID {
	return s.Id
}

func (s *ChatSession) TokensUsed() int {
	return s.InputTokens + s.OutputTokens
}

// TurnUsage is one exchange's token cost. Turn writes carry it as a delta so
// interleaved turns on the same session accumulate instead of overwriting
// each other's totals.
type TurnUsage struct {
	InputTokens  int
	OutputTokens int
}

func (s *ChatSession) AddMessage(m *ChatMessage) {
	s.Messages = append(s.Messages, m)
}

// Clone returns a deep copy; the message slice is copied so callers can never
// mutate the store-owned history through a snapshot.
func (s *ChatSession) Clone() *ChatSession {
	c := *s
	if s.Messages != nil {
		c.Messages = make([]*ChatMessage, len(s.Messages))
		copy(c.Messages, s.Messages)
	}
	return &c
}
