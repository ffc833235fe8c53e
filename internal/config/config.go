package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Ingest   IngestConfig
}

type AppConfig struct {
	ServiceName        string
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	TracingEnabled     bool
	OTLPEndpoint       string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EncodingName          string // tiktoken encoding used for all token accounting
	MaxConversationTokens int    // budget for the rolling chat window
	LLMProvider           string // "ollama" or "openai"
	LLMModel              string
	LLMBaseURL            string
	LLMAPIKey             string
	EmbeddingProvider     string // "ollama" or "gemini"
	OllamaBaseURL         string
	OllamaEmbeddingModel  string
	GoogleGeminiKey       string
	SearchLimit           int
	MinRelevance          float64
	EmbedChunkTopic       string
}

type IngestConfig struct {
	TokenLimit      int    // max tokens per chunk batch
	AnalyzerBaseURL string // document analysis endpoint
	BlobStoreMode   string // "fs" or "s3"
	SourceContainer string // raw uploads (fs path or bucket prefix)
	PagesContainer  string // split single-page documents
	S3Bucket        string
	S3Region        string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			ServiceName:        getEnv("APP_SERVICE_NAME", "ai-docchat-backend"),
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			TracingEnabled:     getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EncodingName:          getEnv("TOKEN_ENCODING", "cl100k_base"),
			MaxConversationTokens: getEnvAsInt("MAX_CONVERSATION_TOKENS", 2000),
			LLMProvider:           getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:              getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:            getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:             getEnv("LLM_API_KEY", ""),
			EmbeddingProvider:     getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:         getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			GoogleGeminiKey:       getEnv("GOOGLE_GEMINI_API_KEY", ""),
			SearchLimit:           getEnvAsInt("SEARCH_LIMIT", 5),
			MinRelevance:          getEnvAsFloat("MIN_RELEVANCE", 0.7),
			EmbedChunkTopic:       getEnv("EMBED_CHUNK_TOPIC_NAME", "EMBED_DOCUMENT_CHUNK"),
		},
		Ingest: IngestConfig{
			TokenLimit:      getEnvAsInt("CHUNK_TOKEN_LIMIT", 256),
			AnalyzerBaseURL: getEnv("ANALYZER_BASE_URL", "http://localhost:5000"),
			BlobStoreMode:   getEnv("BLOB_STORE_MODE", "fs"),
			SourceContainer: getEnv("SOURCE_CONTAINER", "documents"),
			PagesContainer:  getEnv("PAGES_CONTAINER", "document-pages"),
			S3Bucket:        getEnv("S3_BUCKET", ""),
			S3Region:        getEnv("S3_REGION", "us-east-1"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
