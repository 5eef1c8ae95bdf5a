package app

import (
	"github.com/gin-gonic/gin"

	"github.com/docuvault/rag-backend/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers, mw Middleware, tracingEnabled bool) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:     "rag-backend",
		AllowedOrigins:  cfg.AllowedOrigins,
		TracingEnabled:  tracingEnabled,
		DocumentHandler: handlerset.Document,
		ChatHandler:     handlerset.Chat,
		AuthMiddleware:  mw.Auth,
	})
}
