package search

import (
	"context"
	"fmt"

	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/contract"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/embedding"
)

// Orchestrator handles vector search over document chunks
type Orchestrator struct {
	embeddingProvider embedding.EmbeddingProvider
	log               logger.ILogger
}

// NewOrchestrator creates a new search orchestrator
func NewOrchestrator(embeddingProvider embedding.EmbeddingProvider, log logger.ILogger) *Orchestrator {
	return &Orchestrator{
		embeddingProvider: embeddingProvider,
		log:               log,
	}
}

// Config encapsulates search parameters
type Config struct {
	MinRelevance float64
	Limit        int
}

// DefaultConfig returns default search configuration
func DefaultConfig() Config {
	return Config{
		MinRelevance: 0.7,
		Limit:        5,
	}
}

// Result is one retrieved chunk, most relevant first
type Result struct {
	DocumentName string
	ChunkName    string
	Text         string
	Relevance    float64
}

// Execute embeds the query and returns matching chunks above the
// relevance floor, ordered by descending relevance
func (o *Orchestrator) Execute(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	query string,
	config Config,
) ([]Result, error) {

	embeddingRes, err := o.embeddingProvider.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	scoredResults, err := uow.ChunkEmbeddingRepository().SearchSimilarWithScore(
		ctx,
		embeddingRes.Embedding.Values,
		config.Limit,
		config.MinRelevance,
	)
	if err != nil {
		o.log.Error("search", "vector search failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	o.log.Debug("search", "vector search results", map[string]interface{}{
		"query_len": len(query),
		"matches":   len(scoredResults),
	})

	return o.toResults(scoredResults), nil
}

func (o *Orchestrator) toResults(scored []*contract.ScoredChunkEmbedding) []Result {
	results := make([]Result, 0, len(scored))
	for _, s := range scored {
		results = append(results, Result{
			DocumentName: s.Embedding.DocumentName,
			ChunkName:    s.Embedding.ChunkName,
			Text:         s.Embedding.Chunk,
			Relevance:    s.Similarity,
		})
	}
	return results
}
