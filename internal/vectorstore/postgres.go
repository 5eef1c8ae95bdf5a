package vectorstore

import (
	"context"
	"encoding/json"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docuvault/rag-backend/internal/logger"
	"github.com/docuvault/rag-backend/internal/rag"
	"github.com/docuvault/rag-backend/internal/types"
)

// PostgresStore persists chunks in the document_chunk table and searches
// them with pgvector cosine distance. The chunk set for a document is
// replaced inside one transaction holding a per-document advisory lock, so
// concurrent ingests of the same document cannot interleave their
// delete-then-insert sequences.
type PostgresStore struct {
	db        *gorm.DB
	log       *logger.Logger
	dimension int
}

var _ rag.VectorStore = (*PostgresStore)(nil)

func NewPostgresStore(db *gorm.DB, baseLog *logger.Logger, dimension int) *PostgresStore {
	return &PostgresStore{
		db:        db,
		log:       baseLog.With("service", "PostgresVectorStore"),
		dimension: dimension,
	}
}

func (s *PostgresStore) Store(ctx context.Context, documentID string, chunks []rag.ChunkInput) error {
	for _, ch := range chunks {
		if len(ch.Embedding) != s.dimension {
			return &rag.DimensionMismatchError{Want: s.dimension, Got: len(ch.Embedding)}
		}
	}

	rows := make([]*types.DocumentChunk, 0, len(chunks))
	for _, ch := range chunks {
		var meta datatypes.JSON
		if ch.Metadata != nil {
			b, err := json.Marshal(ch.Metadata)
			if err != nil {
				return &rag.StoreError{Op: "store", Err: err}
			}
			meta = datatypes.JSON(b)
		}
		rows = append(rows, &types.DocumentChunk{
			DocumentID: documentID,
			ChunkIndex: ch.Index,
			Content:    ch.Content,
			Embedding:  pgvector.NewVector(ch.Embedding),
			Metadata:   meta,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serializes replace operations per document id across connections.
		if err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, documentID).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", documentID).Delete(&types.DocumentChunk{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		const batchSize = 100
		return tx.CreateInBatches(rows, batchSize).Error
	})
	if err != nil {
		s.log.Error("Failed to store document chunks", "document_id", documentID, "error", err)
		return &rag.StoreError{Op: "store", Err: err}
	}
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, query []float32, topK int) ([]rag.Match, error) {
	if len(query) != s.dimension {
		return nil, &rag.DimensionMismatchError{Want: s.dimension, Got: len(query)}
	}
	if topK < 1 {
		topK = 1
	}

	q := pgvector.NewVector(query)
	var rows []struct {
		DocumentID string         `gorm:"column:document_id"`
		ChunkIndex int            `gorm:"column:chunk_index"`
		Content    string         `gorm:"column:content"`
		Metadata   datatypes.JSON `gorm:"column:metadata"`
		Score      float64        `gorm:"column:score"`
	}
	err := s.db.WithContext(ctx).Raw(`
		SELECT document_id, chunk_index, content, metadata,
		       1 - (embedding <=> ?) AS score
		FROM document_chunk
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> ?, document_id ASC, chunk_index ASC
		LIMIT ?`, q, q, topK).Scan(&rows).Error
	if err != nil {
		s.log.Error("Similarity search failed", "error", err)
		return nil, &rag.StoreError{Op: "search", Err: err}
	}

	out := make([]rag.Match, 0, len(rows))
	for _, r := range rows {
		var meta map[string]any
		if len(r.Metadata) > 0 {
			if err := json.Unmarshal(r.Metadata, &meta); err != nil {
				meta = nil
			}
		}
		out = append(out, rag.Match{
			ChunkID:  rag.ChunkID(r.DocumentID, r.ChunkIndex),
			Content:  r.Content,
			Score:    r.Score,
			Metadata: meta,
		})
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, documentID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, documentID).Error; err != nil {
			return err
		}
		return tx.Where("document_id = ?", documentID).Delete(&types.DocumentChunk{}).Error
	})
	if err != nil {
		s.log.Error("Failed to delete document chunks", "document_id", documentID, "error", err)
		return &rag.StoreError{Op: "delete", Err: err}
	}
	return nil
}

func (s *PostgresStore) Dimension() int {
	return s.dimension
}

func (s *PostgresStore) Healthy(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
