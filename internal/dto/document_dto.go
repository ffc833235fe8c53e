package dto

// PublishEmbedChunkMessage is the payload of an embed-chunk event on the
// internal pubsub. One event carries one cleaned chunk.
type PublishEmbedChunkMessage struct {
	DocumentName string `json:"document_name"`
	ChunkName    string `json:"chunk_name"`
	Chunk        string `json:"chunk"`
}

type DocumentChunksResponse struct {
	DocumentName string   `json:"document_name"`
	ChunkNames   []string `json:"chunk_names"`
}
