package app

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/docuvault/rag-backend/internal/logger"
	"github.com/docuvault/rag-backend/internal/rag"
	"github.com/docuvault/rag-backend/internal/vectorstore"
)

type VectorProvider string

const (
	VectorProviderPostgres VectorProvider = "postgres"
	VectorProviderMemory   VectorProvider = "memory"
)

type VectorProviderBootstrapError struct {
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (provider=%q): %v", e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVectorStore picks the configured vector store backend. The memory
// provider holds vectors per process and is meant for tests and local runs
// without pgvector.
func resolveVectorStore(log *logger.Logger, db *gorm.DB, cfg Config) (rag.VectorStore, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.VectorProvider))
	if provider == "" {
		provider = string(VectorProviderPostgres)
	}

	switch provider {
	case string(VectorProviderPostgres):
		if db == nil {
			return nil, &VectorProviderBootstrapError{
				Provider: provider,
				Cause:    fmt.Errorf("postgres provider requires a database connection"),
			}
		}
		log.Info("Selecting vector store provider", "provider", provider, "dimension", cfg.EmbedDimension)
		return instrumentVectorStore(provider, vectorstore.NewPostgresStore(db, log, cfg.EmbedDimension)), nil
	case string(VectorProviderMemory):
		log.Info("Selecting vector store provider", "provider", provider, "dimension", cfg.EmbedDimension)
		return instrumentVectorStore(provider, vectorstore.NewMemoryStore(log, cfg.EmbedDimension)), nil
	default:
		return nil, &VectorProviderBootstrapError{
			Provider: provider,
			Cause:    fmt.Errorf("unknown provider, expected %q or %q", VectorProviderPostgres, VectorProviderMemory),
		}
	}
}
