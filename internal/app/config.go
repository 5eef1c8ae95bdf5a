package app

import (
	"strings"

	"github.com/docuvault/rag-backend/internal/logger"
	"github.com/docuvault/rag-backend/internal/utils"
)

type Config struct {
	Environment    string
	Port           string
	AllowedOrigins []string

	AuthServiceURL string

	OllamaBaseURL     string
	ChatModel         string
	EmbedModel        string
	EmbedDimension    int
	OllamaTimeout     int
	OllamaMaxRetries  int
	MaxResponseTokens int
	Temperature       float64

	MaxContextMessages int

	ChunkSize    int
	ChunkOverlap int
	MaxTopK      int

	VectorProvider string
}

func LoadConfig(log *logger.Logger) Config {
	environment := utils.GetEnv("ENVIRONMENT", "development", log)
	port := utils.GetEnv("PORT", "8000", log)
	allowedOrigins := utils.GetEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}, log)

	authServiceURL := utils.GetEnv("AUTH_SERVICE_URL", "", log)

	ollamaBaseURL := utils.GetEnv("OLLAMA_BASE_URL", "http://localhost:11434", log)
	chatModel := utils.GetEnv("OLLAMA_MODEL", "llama3.2:3b", log)
	embedModel := utils.GetEnv("EMBEDDING_MODEL", "nomic-embed-text", log)
	embedDimension := utils.GetEnvAsInt("EMBED_DIMENSION", 768, log)
	ollamaTimeout := utils.GetEnvAsInt("OLLAMA_TIMEOUT_SECONDS", 60, log)
	ollamaMaxRetries := utils.GetEnvAsInt("OLLAMA_MAX_RETRIES", 2, log)
	maxResponseTokens := utils.GetEnvAsInt("MAX_RESPONSE_TOKENS", 150, log)
	temperature := utils.GetEnvAsFloat("TEMPERATURE", 0.7, log)

	maxContextMessages := utils.GetEnvAsInt("MAX_CONTEXT_MESSAGES", 10, log)

	chunkSize := utils.GetEnvAsInt("CHUNK_SIZE", 1000, log)
	chunkOverlap := utils.GetEnvAsInt("CHUNK_OVERLAP", 200, log)
	maxTopK := utils.GetEnvAsInt("MAX_TOP_K", 20, log)

	vectorProvider := strings.ToLower(utils.GetEnv("VECTOR_PROVIDER", "postgres", log))

	return Config{
		Environment:        environment,
		Port:               port,
		AllowedOrigins:     allowedOrigins,
		AuthServiceURL:     authServiceURL,
		OllamaBaseURL:      ollamaBaseURL,
		ChatModel:          chatModel,
		EmbedModel:         embedModel,
		EmbedDimension:     embedDimension,
		OllamaTimeout:      ollamaTimeout,
		OllamaMaxRetries:   ollamaMaxRetries,
		MaxResponseTokens:  maxResponseTokens,
		Temperature:        temperature,
		MaxContextMessages: maxContextMessages,
		ChunkSize:          chunkSize,
		ChunkOverlap:       chunkOverlap,
		MaxTopK:            maxTopK,
		VectorProvider:     vectorProvider,
	}
}
