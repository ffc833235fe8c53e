package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/repository/contract"
	"ai-docchat-be/internal/repository/specification"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/blobstore"
	"ai-docchat-be/pkg/embedding"
	"ai-docchat-be/pkg/llm"

	"github.com/google/uuid"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// wordCounter stands in for the tiktoken counter: one token per field.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// --- durable store fakes ---

type fakeRecordRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.ChatSession
	messages map[uuid.UUID][]*entity.ChatMessage

	batches      [][]contract.BatchItem
	replaceCalls int
	findCalls    int
	failUpsert   error
	failReplace  error
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{
		sessions: make(map[uuid.UUID]*entity.ChatSession),
		messages: make(map[uuid.UUID][]*entity.ChatMessage),
	}
}

func (f *fakeRecordRepo) InsertSession(ctx context.Context, session *entity.ChatSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.Id] = session.Clone()
	return nil
}

func (f *fakeRecordRepo) ReplaceSession(ctx context.Context, session *entity.ChatSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceCalls++
	if f.failReplace != nil {
		return f.failReplace
	}
	if _, ok := f.sessions[session.Id]; !ok {
		return contract.ErrRecordNotFound
	}
	f.sessions[session.Id] = session.Clone()
	return nil
}

func (f *fakeRecordRepo) InsertMessage(ctx context.Context, message *entity.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[message.SessionId] = append(f.messages[message.SessionId], message)
	return nil
}

func (f *fakeRecordRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	s, ok := f.sessions[id]
	if !ok {
		return nil, contract.ErrRecordNotFound
	}
	return s.Clone(), nil
}

func (f *fakeRecordRepo) FindSessions(ctx context.Context) ([]*entity.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sessions := make([]*entity.ChatSession, 0, len(f.sessions))
	for _, s := range f.sessions {
		sessions = append(sessions, s.Clone())
	}
	return sessions, nil
}

func (f *fakeRecordRepo) FindMessagesBySessionID(ctx context.Context, sessionId uuid.UUID) ([]*entity.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[sessionId], nil
}

func (f *fakeRecordRepo) UpsertBatch(ctx context.Context, items []contract.BatchItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpsert != nil {
		return f.failUpsert
	}
	if len(items) > 0 {
		key := items[0].ShardKey()
		for _, item := range items[1:] {
			if item.ShardKey() != key {
				return contract.ErrShardKeyMismatch
			}
		}
	}
	f.batches = append(f.batches, items)
	for _, item := range items {
		switch item.Kind {
		case contract.BatchSessionUpdate:
			s, ok := f.sessions[item.SessionId]
			if !ok {
				return contract.ErrRecordNotFound
			}
			s.InputTokens += item.Usage.InputTokens
			s.OutputTokens += item.Usage.OutputTokens
			now := time.Now().UTC()
			s.UpdatedAt = &now
		case contract.BatchMessageInsert:
			f.messages[item.Message.SessionId] = append(f.messages[item.Message.SessionId], item.Message)
		}
	}
	return nil
}

func (f *fakeRecordRepo) DeleteBySessionID(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	if _, ok := f.sessions[sessionId]; ok {
		delete(f.sessions, sessionId)
		removed++
	}
	removed += int64(len(f.messages[sessionId]))
	delete(f.messages, sessionId)
	return removed, nil
}

type fakeChunkRepo struct {
	created     []*entity.ChunkEmbedding
	deletedDocs []string
	findResult  []*entity.ChunkEmbedding
}

func (f *fakeChunkRepo) Create(ctx context.Context, e *entity.ChunkEmbedding) error {
	f.created = append(f.created, e)
	return nil
}

func (f *fakeChunkRepo) CreateBulk(ctx context.Context, es []*entity.ChunkEmbedding) error {
	f.created = append(f.created, es...)
	return nil
}

func (f *fakeChunkRepo) DeleteByDocumentName(ctx context.Context, documentName string) error {
	f.deletedDocs = append(f.deletedDocs, documentName)
	return nil
}

func (f *fakeChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChunkEmbedding, error) {
	return f.findResult, nil
}

func (f *fakeChunkRepo) SearchSimilarWithScore(ctx context.Context, embeddingValues []float32, limit int, threshold float64) ([]*contract.ScoredChunkEmbedding, error) {
	return nil, nil
}

type fakeUow struct {
	records *fakeRecordRepo
	chunks  *fakeChunkRepo

	begun      int
	committed  int
	rolledBack int
}

func (f *fakeUow) Begin(ctx context.Context) error { f.begun++; return nil }
func (f *fakeUow) Commit() error                   { f.committed++; return nil }
func (f *fakeUow) Rollback() error                 { f.rolledBack++; return nil }

func (f *fakeUow) ChatRecordRepository() contract.ChatRecordRepository {
	return f.records
}

func (f *fakeUow) ChunkEmbeddingRepository() contract.ChunkEmbeddingRepository {
	return f.chunks
}

type fakeUowFactory struct {
	uow *fakeUow
}

func newFakeUowFactory() *fakeUowFactory {
	return &fakeUowFactory{uow: &fakeUow{
		records: newFakeRecordRepo(),
		chunks:  &fakeChunkRepo{},
	}}
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

// --- provider fakes ---

type fakeLLM struct {
	reply        string
	inputTokens  int
	outputTokens int
	err          error

	calls [][]llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Completion, error) {
	f.calls = append(f.calls, history)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Completion{
		Text:         f.reply,
		InputTokens:  f.inputTokens,
		OutputTokens: f.outputTokens,
	}, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Completion, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

type fakeEmbedder struct {
	values []float32
}

func (f *fakeEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: f.values},
	}, nil
}

type fakePublisher struct {
	payloads [][]byte
}

func (f *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	f.payloads = append(f.payloads, payload)
	return nil
}

// memStore is an in-memory blobstore.Store.
type memStore struct {
	blobs map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (m *memStore) List(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(m.blobs))
	for name := range m.blobs {
		names = append(names, name)
	}
	return names, nil
}

func (m *memStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, ok := m.blobs[name]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", name)
	}
	return data, nil
}

func (m *memStore) Put(ctx context.Context, name string, data []byte) error {
	if _, ok := m.blobs[name]; ok {
		return blobstore.ErrBlobExists
	}
	m.blobs[name] = data
	return nil
}

type fakeAnalyzer struct {
	paragraphs []string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, name string, data []byte) ([]string, error) {
	return f.paragraphs, nil
}
