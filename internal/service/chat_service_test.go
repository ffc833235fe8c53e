package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-docchat-be/internal/constant"
	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/repository/contract"
	"ai-docchat-be/internal/repository/memory"
	"ai-docchat-be/pkg/rag/search"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newChatFixture wires a real history service and in-memory session store
// behind the chat service; only the durable store and the model are faked.
// The nil orchestrator keeps turns ungrounded, which is also the degraded
// path a failing vector search falls back to.
func newChatFixture(model *fakeLLM, maxWindowTokens int) (IChatService, IHistoryService, *memory.SessionRepository, *fakeUowFactory) {
	factory := newFakeUowFactory()
	sessions := memory.NewSessionRepository(nopLogger{})
	history := NewHistoryService(factory, sessions, nopLogger{})
	chat := NewChatService(factory, history, wordCounter{}, model, nil, search.Config{}, maxWindowTokens, nopLogger{})
	return chat, history, sessions, factory
}

func repeatWords(word string, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = word
	}
	return strings.Join(words, " ")
}

func TestSendChatPersistsTheTurn(t *testing.T) {
	ctx := context.Background()
	model := &fakeLLM{reply: "the answer", inputTokens: 11, outputTokens: 4}
	chat, history, _, factory := newChatFixture(model, 50)

	created, err := chat.CreateSession(ctx)
	require.NoError(t, err)

	res, err := chat.SendChat(ctx, &dto.SendChatRequest{
		SessionId: created.Id,
		Message:   "what is a vector index",
	})
	require.NoError(t, err)

	assert.Equal(t, created.Id, res.SessionId)
	assert.Equal(t, "the answer", res.Reply)
	assert.Equal(t, 11, res.InputTokens)
	assert.Equal(t, 4, res.OutputTokens)

	// The model saw exactly one user message: no history yet.
	require.Len(t, model.calls, 1)
	require.Len(t, model.calls[0], 1)
	assert.Equal(t, constant.ChatMessageRoleUser, model.calls[0][0].Role)
	assert.Equal(t, "what is a vector index", model.calls[0][0].Content)

	// The turn landed atomically and is visible through the history service.
	require.Len(t, factory.uow.records.batches, 1)
	messages, err := history.GetSessionMessages(ctx, created.Id)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, messages[0].Role)
	assert.Equal(t, constant.ChatMessageRoleAssistant, messages[1].Role)
	assert.Equal(t, "the answer", messages[1].DisplayText)

	session, _, err := history.GetSession(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, 15, session.TokensUsed())
	assert.NotNil(t, session.UpdatedAt)
}

func TestSendChatWindowExcludesOldMessages(t *testing.T) {
	ctx := context.Background()
	model := &fakeLLM{reply: "ok"}
	// wordCounter makes every seeded message 20 tokens and the prompt 4.
	// Budget 50 fits the prompt plus the two newest messages only.
	chat, history, sessions, _ := newChatFixture(model, 50)

	session, err := history.CreateSession(ctx)
	require.NoError(t, err)

	seeded := []*entity.ChatMessage{
		entity.NewPromptMessage(session.Id, constant.ChatMessageRoleUser, repeatWords("oldest", 20), repeatWords("oldest", 20), 20),
		entity.NewCompletionMessage(session.Id, repeatWords("middle", 20), 20),
		entity.NewPromptMessage(session.Id, constant.ChatMessageRoleUser, repeatWords("newest", 20), repeatWords("newest", 20), 20),
	}
	require.NoError(t, sessions.SetMessages(session.Id.String(), seeded))

	_, err = chat.SendChat(ctx, &dto.SendChatRequest{
		SessionId: session.Id,
		Message:   "and what about this",
	})
	require.NoError(t, err)

	require.Len(t, model.calls, 1)
	sent := model.calls[0]
	require.Len(t, sent, 3, "oldest message should fall outside the window")
	assert.True(t, strings.HasPrefix(sent[0].Content, "middle"))
	assert.True(t, strings.HasPrefix(sent[1].Content, "newest"))
	assert.Equal(t, "and what about this", sent[2].Content)
}

func TestSendChatFallsBackToCountedUsage(t *testing.T) {
	ctx := context.Background()
	// A provider that reports no usage, like ollama mid-stream failures.
	model := &fakeLLM{reply: "three word reply"}
	chat, _, _, _ := newChatFixture(model, 50)

	created, err := chat.CreateSession(ctx)
	require.NoError(t, err)

	res, err := chat.SendChat(ctx, &dto.SendChatRequest{
		SessionId: created.Id,
		Message:   "five words in this question",
	})
	require.NoError(t, err)

	// Input falls back to the window total, output to the counted reply.
	assert.Equal(t, 5, res.InputTokens)
	assert.Equal(t, 3, res.OutputTokens)
}

func TestSendChatModelFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	model := &fakeLLM{err: errors.New("model unavailable")}
	chat, history, _, factory := newChatFixture(model, 50)

	created, err := chat.CreateSession(ctx)
	require.NoError(t, err)

	_, err = chat.SendChat(ctx, &dto.SendChatRequest{
		SessionId: created.Id,
		Message:   "hello",
	})
	require.Error(t, err)

	assert.Empty(t, factory.uow.records.batches)
	messages, err := history.GetSessionMessages(ctx, created.Id)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSendChatUnknownSession(t *testing.T) {
	ctx := context.Background()
	chat, _, _, _ := newChatFixture(&fakeLLM{reply: "ok"}, 50)

	_, err := chat.SendChat(ctx, &dto.SendChatRequest{
		SessionId: uuid.New(),
		Message:   "hello",
	})
	assert.ErrorIs(t, err, contract.ErrRecordNotFound)
}

func TestRenameSessionUnknownIdReportsNotFound(t *testing.T) {
	ctx := context.Background()
	model := &fakeLLM{reply: "should not be asked"}
	chat, _, _, _ := newChatFixture(model, 50)

	_, err := chat.RenameSession(ctx, &dto.RenameSessionRequest{SessionId: uuid.New()})
	assert.ErrorIs(t, err, contract.ErrRecordNotFound)
	assert.Empty(t, model.calls)
}

func TestRenameSessionUsesFirstUserMessage(t *testing.T) {
	ctx := context.Background()
	model := &fakeLLM{reply: "  Vector Indexes \n"}
	chat, history, sessions, factory := newChatFixture(model, 50)

	session, err := history.CreateSession(ctx)
	require.NoError(t, err)

	seeded := []*entity.ChatMessage{
		entity.NewCompletionMessage(session.Id, "welcome", 1),
		entity.NewPromptMessage(session.Id, constant.ChatMessageRoleUser, "grounded text", "how do vector indexes work", 5),
	}
	require.NoError(t, sessions.SetMessages(session.Id.String(), seeded))

	res, err := chat.RenameSession(ctx, &dto.RenameSessionRequest{SessionId: session.Id})
	require.NoError(t, err)
	assert.Equal(t, "Vector Indexes", res.Name)

	// The model is asked about the user's words, not the grounded prompt.
	require.Len(t, model.calls, 1)
	require.Len(t, model.calls[0], 2)
	assert.Equal(t, constant.ChatMessageRoleSystem, model.calls[0][0].Role)
	assert.Equal(t, "how do vector indexes work", model.calls[0][1].Content)

	// The rename reached the durable store.
	assert.Equal(t, 1, factory.uow.records.replaceCalls)
	assert.Equal(t, "Vector Indexes", factory.uow.records.sessions[session.Id].Name)
}

func TestRenameSessionWithoutHistoryKeepsName(t *testing.T) {
	ctx := context.Background()
	model := &fakeLLM{reply: "should not be asked"}
	chat, history, _, factory := newChatFixture(model, 50)

	session, err := history.CreateSession(ctx)
	require.NoError(t, err)

	res, err := chat.RenameSession(ctx, &dto.RenameSessionRequest{SessionId: session.Id})
	require.NoError(t, err)

	assert.Equal(t, constant.DefaultSessionName, res.Name)
	assert.Empty(t, model.calls)
	assert.Zero(t, factory.uow.records.replaceCalls)
}

func TestRenameSessionBlankReplyKeepsName(t *testing.T) {
	ctx := context.Background()
	model := &fakeLLM{reply: "   "}
	chat, history, sessions, factory := newChatFixture(model, 50)

	session, err := history.CreateSession(ctx)
	require.NoError(t, err)
	seeded := []*entity.ChatMessage{
		entity.NewPromptMessage(session.Id, constant.ChatMessageRoleUser, "q", "q", 1),
	}
	require.NoError(t, sessions.SetMessages(session.Id.String(), seeded))

	res, err := chat.RenameSession(ctx, &dto.RenameSessionRequest{SessionId: session.Id})
	require.NoError(t, err)
	assert.Equal(t, constant.DefaultSessionName, res.Name)
	assert.Zero(t, factory.uow.records.replaceCalls)
}

func TestDeleteSessionThroughChatService(t *testing.T) {
	ctx := context.Background()
	chat, history, _, _ := newChatFixture(&fakeLLM{reply: "ok"}, 50)

	created, err := chat.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, chat.DeleteSession(ctx, created.Id))

	_, _, err = history.GetSession(ctx, created.Id)
	assert.Error(t, err)
}
