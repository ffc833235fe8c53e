package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-docchat-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConsumerFixture(values []float32) (*consumerService, *fakeUowFactory) {
	factory := newFakeUowFactory()
	svc := &consumerService{
		topicName:         "embed_chunk",
		uowFactory:        factory,
		embeddingProvider: &fakeEmbedder{values: values},
		log:               nopLogger{},
	}
	return svc, factory
}

func assertAcked(t *testing.T, msg *message.Message) {
	t.Helper()
	select {
	case <-msg.Acked():
	case <-time.After(time.Second):
		t.Fatal("message was not acked")
	}
}

func TestProcessMessageStoresEmbedding(t *testing.T) {
	svc, factory := newConsumerFixture([]float32{0.1, 0.2, 0.3})

	payload, err := json.Marshal(dto.PublishEmbedChunkMessage{
		DocumentName: "manual.pdf",
		ChunkName:    "manual_1_chunk_0",
		Chunk:        "cleaned chunk text",
	})
	require.NoError(t, err)

	msg := message.NewMessage(watermill.NewUUID(), payload)
	svc.processMessage(context.Background(), msg)

	assertAcked(t, msg)
	require.Len(t, factory.uow.chunks.created, 1)
	stored := factory.uow.chunks.created[0]
	assert.Equal(t, "manual.pdf", stored.DocumentName)
	assert.Equal(t, "manual_1_chunk_0", stored.ChunkName)
	assert.Equal(t, "cleaned chunk text", stored.Chunk)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, stored.EmbeddingValue)
	assert.Equal(t, 1, factory.uow.committed)
}

func TestProcessMessageAcksMalformedPayload(t *testing.T) {
	svc, factory := newConsumerFixture([]float32{0.1})

	msg := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	svc.processMessage(context.Background(), msg)

	// Malformed payloads are acked so the subscription does not spin on them.
	assertAcked(t, msg)
	assert.Empty(t, factory.uow.chunks.created)
}
