package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateChatSessionResponse struct {
	Id   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ChatSessionResponse struct {
	Id           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	InputTokens  int        `json:"input_tokens"`
	OutputTokens int        `json:"output_tokens"`
	TokensUsed   int        `json:"tokens_used"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

type ChatMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Tokens    int       `json:"tokens"`
	CreatedAt time.Time `json:"created_at"`
}

type SendChatRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
	Message   string    `json:"message" validate:"required"`
}

type SendChatResponse struct {
	SessionId    uuid.UUID `json:"session_id"`
	Reply        string    `json:"reply"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
}

type RenameSessionRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
}

type RenameSessionResponse struct {
	Id   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
