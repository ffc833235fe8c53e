package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"ai-docchat-be/internal/constant"
	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/specification"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/analysis"
	"ai-docchat-be/pkg/blobstore"
	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/packer"
	"ai-docchat-be/pkg/pdfsplit"
)

// noisePattern strips everything outside the characters the clean pass is
// expected to work with.
var noisePattern = regexp.MustCompile(`[^0-9a-zA-Z .+-]`)

// IIngestionService turns source documents into cleaned, token-budgeted
// chunks and publishes one embed event per chunk.
type IIngestionService interface {
	IngestAll(ctx context.Context) error
	IngestDocument(ctx context.Context, name string) error
	ListChunks(ctx context.Context, documentName string) (*dto.DocumentChunksResponse, error)
}

type ingestionService struct {
	source     blobstore.Store
	pages      blobstore.Store
	analyzer   analysis.Analyzer
	counter    TokenCounter
	llm        llm.LLMProvider
	publisher  IPublisherService
	uowFactory unitofwork.RepositoryFactory
	tokenLimit int
	log        logger.ILogger
}

func NewIngestionService(
	source blobstore.Store,
	pages blobstore.Store,
	analyzer analysis.Analyzer,
	counter TokenCounter,
	llmProvider llm.LLMProvider,
	publisher IPublisherService,
	uowFactory unitofwork.RepositoryFactory,
	tokenLimit int,
	log logger.ILogger,
) IIngestionService {
	return &ingestionService{
		source:     source,
		pages:      pages,
		analyzer:   analyzer,
		counter:    counter,
		llm:        llmProvider,
		publisher:  publisher,
		uowFactory: uowFactory,
		tokenLimit: tokenLimit,
		log:        log,
	}
}

func (s *ingestionService) IngestAll(ctx context.Context) error {
	names, err := s.source.List(ctx)
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
			s.log.Info("ingest", "skipping non-pdf blob", map[string]interface{}{"name": name})
			continue
		}
		if err := s.IngestDocument(ctx, name); err != nil {
			return fmt.Errorf("ingest %s: %w", name, err)
		}
	}
	return nil
}

func (s *ingestionService) IngestDocument(ctx context.Context, name string) error {
	data, err := s.source.Get(ctx, name)
	if err != nil {
		return err
	}

	pages, err := pdfsplit.SplitPages(name, data)
	if err != nil {
		return err
	}

	s.log.Info("ingest", "document split", map[string]interface{}{
		"document": name,
		"pages":    len(pages),
	})

	// Re-ingesting replaces the document's embeddings; clear the old ones
	// before the first new chunk event goes out.
	if err := s.clearEmbeddings(ctx, name); err != nil {
		return err
	}

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.ingestPage(ctx, name, page); err != nil {
			return err
		}
	}
	return nil
}

func (s *ingestionService) ingestPage(ctx context.Context, documentName string, page pdfsplit.Page) error {
	if err := s.pages.Put(ctx, page.Name, page.Data); err != nil {
		if !errors.Is(err, blobstore.ErrBlobExists) {
			return err
		}
		s.log.Warn("ingest", "page blob already stored, keeping existing", map[string]interface{}{
			"page": page.Name,
		})
	}

	paragraphs, err := s.analyzer.Analyze(ctx, page.Name, page.Data)
	if err != nil {
		return err
	}

	units := make([]packer.Paragraph, 0, len(paragraphs))
	for _, p := range paragraphs {
		text := strings.TrimSpace(noisePattern.ReplaceAllString(p, ""))
		if text == "" {
			continue
		}
		units = append(units, packer.Paragraph{
			Text:   text,
			Tokens: s.counter.Count(text),
		})
	}

	batches, err := packer.PackForward(units, s.tokenLimit)
	if err != nil {
		return err
	}

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunkName := fmt.Sprintf("%s_chunk_%d", strings.TrimSuffix(page.Name, ".pdf"), i)
		cleaned, err := s.cleanBatch(ctx, documentName, batch.Text())
		if err != nil {
			return err
		}
		if cleaned == "" || cleaned == constant.UnknownChunkMarker {
			s.log.Info("ingest", "chunk discarded by clean pass", map[string]interface{}{
				"chunk": chunkName,
			})
			continue
		}

		if err := s.publishChunk(ctx, documentName, chunkName, cleaned); err != nil {
			return err
		}
	}
	return nil
}

func (s *ingestionService) cleanBatch(ctx context.Context, documentName, text string) (string, error) {
	completion, err := s.llm.Chat(ctx, []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: fmt.Sprintf(constant.CleanChunkPromptTemplate, documentName)},
		{Role: constant.ChatMessageRoleUser, Content: text},
	})
	if err != nil {
		return "", fmt.Errorf("clean chunk: %w", err)
	}
	return strings.TrimSpace(completion.Text), nil
}

func (s *ingestionService) publishChunk(ctx context.Context, documentName, chunkName, chunk string) error {
	payload, err := json.Marshal(dto.PublishEmbedChunkMessage{
		DocumentName: documentName,
		ChunkName:    chunkName,
		Chunk:        chunk,
	})
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, payload)
}

func (s *ingestionService) ListChunks(ctx context.Context, documentName string) (*dto.DocumentChunksResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.ChunkEmbeddingRepository().FindAll(ctx,
		specification.ByDocumentName{DocumentName: documentName},
		specification.OrderBy{Field: "chunk_name"},
	)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(chunks))
	for _, c := range chunks {
		names = append(names, c.ChunkName)
	}
	return &dto.DocumentChunksResponse{
		DocumentName: documentName,
		ChunkNames:   names,
	}, nil
}

func (s *ingestionService) clearEmbeddings(ctx context.Context, documentName string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChunkEmbeddingRepository().DeleteByDocumentName(ctx, documentName); err != nil {
		return err
	}
	return uow.Commit()
}
