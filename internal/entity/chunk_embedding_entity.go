package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChunkEmbedding is one stored document chunk with its embedding vector.
// Chunks are produced once per split boundary and immutable afterwards; they
// outlive the source document record.
type ChunkEmbedding struct {
	Id             uuid.UUID
	DocumentName   string
	ChunkName      string
	Chunk          string
	EmbeddingValue []float32
	CreatedAt      time.Time
}
