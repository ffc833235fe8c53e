package bootstrap

import (
	"context"
	"log"

	"ai-docchat-be/internal/config"
	"ai-docchat-be/internal/controller"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/memory"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/internal/service"
	"ai-docchat-be/pkg/analysis"
	"ai-docchat-be/pkg/blobstore"
	"ai-docchat-be/pkg/embedding"
	"ai-docchat-be/pkg/llm/factory"
	"ai-docchat-be/pkg/rag/search"
	"ai-docchat-be/pkg/token"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController

	// Background Services (Exposed for main.go to run)
	ConsumerService  service.IConsumerService
	IngestionService service.IIngestionService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	counter, err := token.NewCounter(cfg.Ai.EncodingName)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load token encoding: %v", err)
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbeddingModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbeddingModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GoogleGeminiKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.LLMAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Session & History
	sessionRepo := memory.NewSessionRepository(sysLogger)
	historyService := service.NewHistoryService(uowFactory, sessionRepo, sysLogger)

	searchOrchestrator := search.NewOrchestrator(embeddingProvider, sysLogger)
	searchConfig := search.Config{
		MinRelevance: cfg.Ai.MinRelevance,
		Limit:        cfg.Ai.SearchLimit,
	}

	chatService := service.NewChatService(
		uowFactory,
		historyService,
		counter,
		llmProvider,
		searchOrchestrator,
		searchConfig,
		cfg.Ai.MaxConversationTokens,
		sysLogger,
	)

	// 5. Ingestion Pipeline
	sourceStore, pagesStore := newBlobStores(cfg)
	analyzer := analysis.NewHTTPAnalyzer(cfg.Ingest.AnalyzerBaseURL)

	publisherService := service.NewPublisherService(cfg.Ai.EmbedChunkTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Ai.EmbedChunkTopic,
		uowFactory,
		embeddingProvider,
		sysLogger,
	)

	ingestionService := service.NewIngestionService(
		sourceStore,
		pagesStore,
		analyzer,
		counter,
		llmProvider,
		publisherService,
		uowFactory,
		cfg.Ingest.TokenLimit,
		sysLogger,
	)

	// 6. Controllers
	return &Container{
		ChatController:     controller.NewChatController(chatService),
		DocumentController: controller.NewDocumentController(ingestionService),

		ConsumerService:  consumerService,
		IngestionService: ingestionService,

		Logger: sysLogger,
	}
}

func newBlobStores(cfg *config.Config) (blobstore.Store, blobstore.Store) {
	if cfg.Ingest.BlobStoreMode == "s3" {
		ctx := context.Background()
		source, err := blobstore.NewS3Store(ctx, cfg.Ingest.S3Bucket, cfg.Ingest.S3Region, cfg.Ingest.SourceContainer)
		if err != nil {
			log.Fatalf("[FATAL] Failed to open source blob store: %v", err)
		}
		pages, err := blobstore.NewS3Store(ctx, cfg.Ingest.S3Bucket, cfg.Ingest.S3Region, cfg.Ingest.PagesContainer)
		if err != nil {
			log.Fatalf("[FATAL] Failed to open pages blob store: %v", err)
		}
		return source, pages
	}

	source, err := blobstore.NewFileStore(cfg.Ingest.SourceContainer)
	if err != nil {
		log.Fatalf("[FATAL] Failed to open source blob store: %v", err)
	}
	pages, err := blobstore.NewFileStore(cfg.Ingest.PagesContainer)
	if err != nil {
		log.Fatalf("[FATAL] Failed to open pages blob store: %v", err)
	}
	return source, pages
}
