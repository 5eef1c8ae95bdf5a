package types

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// DocumentChunk is one retrievable passage of an ingested document. The
// chunk set for a document is always written as a whole: chunk_index values
// are contiguous from 0 and the (document_id, chunk_index) pair is unique.
// The column is declared without a fixed dimension; EMBED_DIMENSION is
// enforced by the vector store before any row is written or queried.
type DocumentChunk struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID string          `gorm:"column:document_id;not null;index;uniqueIndex:idx_document_chunk_doc_pos" json:"document_id"`
	ChunkIndex int             `gorm:"column:chunk_index;not null;uniqueIndex:idx_document_chunk_doc_pos" json:"chunk_index"`
	Content    string          `gorm:"column:content;type:text;not null" json:"content"`
	Embedding  pgvector.Vector `gorm:"column:embedding;type:vector" json:"embedding"`
	Metadata   datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt  time.Time       `gorm:"not null;default:now()" json:"created_at"`
}

func (DocumentChunk) TableName() string {
	return "document_chunk"
}
