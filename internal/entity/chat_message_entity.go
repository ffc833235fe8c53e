package entity

import (
	"time"

	"ai-docchat-be/internal/constant"

	"github.com/google/uuid"
)

// ChatMessage is one chat-history item. PromptText is what the model sees;
// DisplayText is what the user typed (they differ on grounded search turns).
// Tokens is nil until counted and is set exactly once, at creation, before the
// message takes part in any packing decision.
type ChatMessage struct {
	Id          uuid.UUID
	SessionId   uuid.UUID
	Role        string
	PromptText  string
	DisplayText string
	Tokens      *int
	CreatedAt   time.Time
}

func NewPromptMessage(sessionId uuid.UUID, role, promptText, displayText string, tokens int) *ChatMessage {
	return &ChatMessage{
		Id:          uuid.New(),
		SessionId:   sessionId,
		Role:        role,
		PromptText:  promptText,
		DisplayText: displayText,
		Tokens:      &tokens,
		CreatedAt:   time.Now().UTC(),
	}
}

func NewCompletionMessage(sessionId uuid.UUID, completionText string, tokens int) *ChatMessage {
	return NewPromptMessage(sessionId, constant.ChatMessageRoleAssistant, completionText, completionText, tokens)
}

func (m *ChatMessage) TokenCount() int {
	if m.Tokens == nil {
		return 0
	}
	return *m.Tokens
}
