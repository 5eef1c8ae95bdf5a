package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/docuvault/rag-backend/internal/handlers"
	"github.com/docuvault/rag-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName     string
	AllowedOrigins  []string
	TracingEnabled  bool
	DocumentHandler *handlers.DocumentHandler
	ChatHandler     *handlers.ChatHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}

	// ===============
	// || Public    ||
	// ===============
	router.GET("/", handlers.Root)
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/api/health", cfg.DocumentHandler.DocumentHealth)
	router.GET("/api/documents/health", cfg.DocumentHandler.DocumentHealth)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	// Documents
	api.POST("/documents/process", cfg.DocumentHandler.ProcessDocument)
	api.POST("/documents/query", cfg.DocumentHandler.QueryDocuments)
	api.DELETE("/documents/:document_id", cfg.DocumentHandler.DeleteDocument)
	// Chat
	api.POST("/chat", cfg.ChatHandler.SendMessage)
	api.GET("/conversations", cfg.ChatHandler.ListConversations)
	api.GET("/chat/:conversation_id/history", cfg.ChatHandler.GetHistory)
	api.DELETE("/chat/:conversation_id", cfg.ChatHandler.DeleteConversation)

	return router
}
