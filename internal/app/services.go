package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/docuvault/rag-backend/internal/logger"
	"github.com/docuvault/rag-backend/internal/rag"
	"github.com/docuvault/rag-backend/internal/services"
)

type Services struct {
	Ollama   services.OllamaClient
	Document services.DocumentService
	Chat     services.ChatService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	ollama, err := services.NewOllamaClient(log, services.OllamaConfig{
		BaseURL:           cfg.OllamaBaseURL,
		Model:             cfg.ChatModel,
		EmbedModel:        cfg.EmbedModel,
		EmbedDimension:    cfg.EmbedDimension,
		TimeoutSeconds:    cfg.OllamaTimeout,
		MaxRetries:        cfg.OllamaMaxRetries,
		MaxResponseTokens: cfg.MaxResponseTokens,
		Temperature:       cfg.Temperature,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init ollama client: %w", err)
	}

	store, err := resolveVectorStore(log, db, cfg)
	if err != nil {
		return Services{}, err
	}
	if store.Dimension() != ollama.Dimension() {
		return Services{}, fmt.Errorf(
			"embedder dimension %d does not match vector store dimension %d",
			ollama.Dimension(), store.Dimension(),
		)
	}

	chunker := rag.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	document := services.NewDocumentService(log, chunker, ollama, store, cfg.MaxTopK)
	chat := services.NewChatService(db, log, reposet.Conversation, reposet.Message, ollama, cfg.ChatModel, cfg.MaxContextMessages)

	return Services{
		Ollama:   ollama,
		Document: document,
		Chat:     chat,
	}, nil
}
