package app

import (
	"github.com/docuvault/rag-backend/internal/logger"
	"github.com/docuvault/rag-backend/internal/middleware"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

// Auth stays nil when AUTH_SERVICE_URL is unset; the API then runs open,
// which is the expected mode for local development.
func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	mw := Middleware{}
	if cfg.AuthServiceURL != "" {
		mw.Auth = middleware.NewAuthMiddleware(log, cfg.AuthServiceURL)
	} else {
		log.Warn("AUTH_SERVICE_URL not set, API endpoints are unauthenticated")
	}
	return mw
}
