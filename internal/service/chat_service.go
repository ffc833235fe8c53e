package service

import (
	"context"
	"fmt"
	"strings"

	"ai-docchat-be/internal/constant"
	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/packer"
	"ai-docchat-be/pkg/rag/search"

	"github.com/google/uuid"
)

// TokenCounter counts text with the same encoding every budget constant
// assumes. pkg/token's Counter satisfies it.
type TokenCounter interface {
	Count(text string) int
}

type IChatService interface {
	CreateSession(ctx context.Context) (*dto.CreateChatSessionResponse, error)
	GetSessions(ctx context.Context) ([]*dto.ChatSessionResponse, error)
	GetHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.ChatMessageResponse, error)
	SendChat(ctx context.Context, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	RenameSession(ctx context.Context, req *dto.RenameSessionRequest) (*dto.RenameSessionResponse, error)
	DeleteSession(ctx context.Context, sessionId uuid.UUID) error
}

type chatService struct {
	uowFactory         unitofwork.RepositoryFactory
	history            IHistoryService
	counter            TokenCounter
	llmProvider        llm.LLMProvider
	searchOrchestrator *search.Orchestrator
	searchConfig       search.Config
	maxWindowTokens    int
	log                logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	history IHistoryService,
	counter TokenCounter,
	llmProvider llm.LLMProvider,
	searchOrchestrator *search.Orchestrator,
	searchConfig search.Config,
	maxWindowTokens int,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:         uowFactory,
		history:            history,
		counter:            counter,
		llmProvider:        llmProvider,
		searchOrchestrator: searchOrchestrator,
		searchConfig:       searchConfig,
		maxWindowTokens:    maxWindowTokens,
		log:                log,
	}
}

func (c *chatService) CreateSession(ctx context.Context) (*dto.CreateChatSessionResponse, error) {
	session, err := c.history.CreateSession(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.CreateChatSessionResponse{
		Id:   session.Id,
		Name: session.Name,
	}, nil
}

func (c *chatService) GetSessions(ctx context.Context) ([]*dto.ChatSessionResponse, error) {
	sessions, err := c.history.GetSessions(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ChatSessionResponse, 0, len(sessions))
	for _, s := range sessions {
		res = append(res, toSessionResponse(s))
	}
	return res, nil
}

func (c *chatService) GetHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.ChatMessageResponse, error) {
	messages, err := c.history.GetSessionMessages(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, &dto.ChatMessageResponse{
			Id:        m.Id,
			Role:      m.Role,
			Text:      m.DisplayText,
			Tokens:    m.TokenCount(),
			CreatedAt: m.CreatedAt,
		})
	}
	return res, nil
}

// SendChat runs one full exchange: optional grounding, window assembly, the
// model call, then the atomic turn upsert. A canceled context aborts the turn
// before anything is persisted.
func (c *chatService) SendChat(ctx context.Context, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	session, _, err := c.history.GetSession(ctx, req.SessionId)
	if err != nil {
		return nil, err
	}

	promptText := c.groundPrompt(ctx, req.Message)
	promptTokens := c.counter.Count(promptText)

	// Snapshot the history before this turn's prompt exists anywhere.
	messages, err := c.history.GetSessionMessages(ctx, req.SessionId)
	if err != nil {
		return nil, err
	}

	newestFirst := make([]packer.Unit, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		newestFirst = append(newestFirst, packer.Unit{
			Text:   messages[i].PromptText,
			Tokens: messages[i].TokenCount(),
		})
	}

	window, err := packer.BuildWindow(
		packer.Unit{Text: promptText, Tokens: promptTokens},
		newestFirst,
		c.maxWindowTokens,
	)
	if err != nil {
		return nil, err
	}

	c.log.Debug("chat", "conversation window assembled", map[string]interface{}{
		"session_id":       req.SessionId.String(),
		"history_messages": len(messages),
		"included":         window.Included,
		"window_tokens":    window.Tokens,
	})

	llmHistory := make([]llm.Message, 0, window.Included+1)
	for _, m := range messages[len(messages)-window.Included:] {
		llmHistory = append(llmHistory, llm.Message{
			Role:    m.Role,
			Content: m.PromptText,
		})
	}
	llmHistory = append(llmHistory, llm.Message{
		Role:    constant.ChatMessageRoleUser,
		Content: promptText,
	})

	completion, err := c.llmProvider.Chat(ctx, llmHistory)
	if err != nil {
		return nil, err
	}

	inputTokens := completion.InputTokens
	if inputTokens == 0 {
		inputTokens = window.Tokens
	}
	outputTokens := completion.OutputTokens
	if outputTokens == 0 {
		outputTokens = c.counter.Count(completion.Text)
	}

	prompt := entity.NewPromptMessage(session.Id, constant.ChatMessageRoleUser, promptText, req.Message, promptTokens)
	reply := entity.NewCompletionMessage(session.Id, completion.Text, outputTokens)
	usage := entity.TurnUsage{InputTokens: inputTokens, OutputTokens: outputTokens}

	if err := c.history.UpsertTurn(ctx, session.Id, prompt, reply, usage); err != nil {
		return nil, err
	}

	return &dto.SendChatResponse{
		SessionId:    session.Id,
		Reply:        completion.Text,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
	}, nil
}

// groundPrompt wraps the question in the grounded-search template when the
// vector store has relevant chunks. Search failures degrade to the plain
// question rather than failing the turn.
func (c *chatService) groundPrompt(ctx context.Context, question string) string {
	if c.searchOrchestrator == nil {
		return question
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	results, err := c.searchOrchestrator.Execute(ctx, uow, question, c.searchConfig)
	if err != nil {
		c.log.Warn("chat", "grounded search failed, answering without context", map[string]interface{}{
			"error": err.Error(),
		})
		return question
	}
	if len(results) == 0 {
		return question
	}

	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Text)
	}
	return fmt.Sprintf(constant.GroundedSearchPromptTemplate, strings.Join(texts, "\n"), question)
}

// RenameSession asks the model for a one-or-two-word label based on the
// session's first user message.
func (c *chatService) RenameSession(ctx context.Context, req *dto.RenameSessionRequest) (*dto.RenameSessionResponse, error) {
	session, rev, err := c.history.GetSession(ctx, req.SessionId)
	if err != nil {
		return nil, err
	}

	messages, err := c.history.GetSessionMessages(ctx, req.SessionId)
	if err != nil {
		return nil, err
	}

	var firstPrompt string
	for _, m := range messages {
		if m.Role == constant.ChatMessageRoleUser {
			firstPrompt = m.DisplayText
			break
		}
	}
	if firstPrompt == "" {
		return &dto.RenameSessionResponse{Id: session.Id, Name: session.Name}, nil
	}

	completion, err := c.llmProvider.Chat(ctx, []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.SummarizeSessionPrompt},
		{Role: constant.ChatMessageRoleUser, Content: firstPrompt},
	})
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(completion.Text)
	if name == "" {
		return &dto.RenameSessionResponse{Id: session.Id, Name: session.Name}, nil
	}

	session.Name = name
	if err := c.history.UpdateSession(ctx, session, rev); err != nil {
		return nil, err
	}

	return &dto.RenameSessionResponse{Id: session.Id, Name: name}, nil
}

func (c *chatService) DeleteSession(ctx context.Context, sessionId uuid.UUID) error {
	_, err := c.history.DeleteSession(ctx, sessionId)
	return err
}

func toSessionResponse(s *entity.ChatSession) *dto.ChatSessionResponse {
	return &dto.ChatSessionResponse{
		Id:           s.Id,
		Name:         s.Name,
		InputTokens:  s.InputTokens,
		OutputTokens: s.OutputTokens,
		TokensUsed:   s.TokensUsed(),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
