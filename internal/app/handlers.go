package app

import (
	"github.com/docuvault/rag-backend/internal/handlers"
	"github.com/docuvault/rag-backend/internal/logger"
)

type Handlers struct {
	Document *handlers.DocumentHandler
	Chat     *handlers.ChatHandler
}

func wireHandlers(log *logger.Logger, cfg Config, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Document: handlers.NewDocumentHandler(log, serviceset.Document, cfg.MaxTopK),
		Chat:     handlers.NewChatHandler(log, serviceset.Chat),
	}
}
