package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	log               logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		log:               log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedChunkMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("consumer", "failed to unmarshal chunk message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.log.Info("consumer", "embedding chunk", map[string]interface{}{
		"document": payload.DocumentName,
		"chunk":    payload.ChunkName,
	})

	res, err := cs.embeddingProvider.Generate(payload.Chunk, "RETRIEVAL_DOCUMENT")
	if err != nil {
		cs.log.Error("consumer", "embedding generation failed", map[string]interface{}{
			"chunk": payload.ChunkName,
			"error": err.Error(),
		})
		msg.Nack() // Nack for retriable errors
		return
	}

	chunkEmbedding := &entity.ChunkEmbedding{
		Id:             uuid.New(),
		DocumentName:   payload.DocumentName,
		ChunkName:      payload.ChunkName,
		Chunk:          payload.Chunk,
		EmbeddingValue: res.Embedding.Values,
		CreatedAt:      time.Now().UTC(),
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		cs.log.Error("consumer", "failed to begin transaction", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.ChunkEmbeddingRepository().Create(ctx, chunkEmbedding); err != nil {
		cs.log.Error("consumer", "failed to store embedding", map[string]interface{}{
			"chunk": payload.ChunkName,
			"error": err.Error(),
		})
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		cs.log.Error("consumer", "failed to commit transaction", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Nack()
		return
	}

	msg.Ack()
}
