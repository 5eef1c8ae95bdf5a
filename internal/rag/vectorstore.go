package rag

import (
	"context"
	"fmt"
	"math"
)

// ChunkInput is one passage to persist: its 0-based position within the
// document, its text, its embedding and any caller metadata.
type ChunkInput struct {
	Index     int
	Content   string
	Embedding []float32
	Metadata  map[string]any
}

// Match is one similarity search result.
type Match struct {
	ChunkID  string         `json:"chunk_id"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// VectorStore persists document chunks with embeddings and answers top-K
// similarity queries.
//
// Store replaces the full chunk set for a document atomically: either all
// chunks are persisted or none, and re-storing a document first purges the
// prior set. Store and Delete for the same document id are serialized so
// concurrent re-ingestion cannot interleave delete and insert.
//
// Search returns at most topK matches ordered by descending cosine
// similarity, ties broken by ascending chunk id. An empty store yields an
// empty result, a query vector of the wrong dimension a
// DimensionMismatchError. Delete of an unknown document id is a no-op.
type VectorStore interface {
	Store(ctx context.Context, documentID string, chunks []ChunkInput) error
	Search(ctx context.Context, query []float32, topK int) ([]Match, error)
	Delete(ctx context.Context, documentID string) error
	Dimension() int
	Healthy(ctx context.Context) error
}

// ChunkID derives the stable chunk identifier from a document id and the
// chunk's position within it.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// Cosine returns the cosine similarity of a and b, or -1 for mismatched or
// zero-norm inputs.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return -1
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
