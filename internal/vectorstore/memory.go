package vectorstore

import (
	"context"
	"sort"
	"sync"

	"github.com/docuvault/rag-backend/internal/logger"
	"github.com/docuvault/rag-backend/internal/rag"
)

type memoryChunk struct {
	documentID string
	index      int
	content    string
	embedding  []float32
	metadata   map[string]any
}

// MemoryStore is a brute-force cosine similarity store. It backs tests and
// VECTOR_PROVIDER=memory deployments where no Postgres is available. The
// single mutex serializes Store/Delete, which also covers the per-document
// replace requirement.
type MemoryStore struct {
	log       *logger.Logger
	dimension int

	mu   sync.RWMutex
	docs map[string][]memoryChunk
}

func NewMemoryStore(log *logger.Logger, dimension int) *MemoryStore {
	return &MemoryStore{
		log:       log.With("service", "MemoryVectorStore"),
		dimension: dimension,
		docs:      make(map[string][]memoryChunk),
	}
}

func (s *MemoryStore) Store(ctx context.Context, documentID string, chunks []rag.ChunkInput) error {
	for _, ch := range chunks {
		if len(ch.Embedding) != s.dimension {
			return &rag.DimensionMismatchError{Want: s.dimension, Got: len(ch.Embedding)}
		}
	}
	rows := make([]memoryChunk, 0, len(chunks))
	for _, ch := range chunks {
		emb := make([]float32, len(ch.Embedding))
		copy(emb, ch.Embedding)
		rows = append(rows, memoryChunk{
			documentID: documentID,
			index:      ch.Index,
			content:    ch.Content,
			embedding:  emb,
			metadata:   ch.Metadata,
		})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[documentID] = rows
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, query []float32, topK int) ([]rag.Match, error) {
	if len(query) != s.dimension {
		return nil, &rag.DimensionMismatchError{Want: s.dimension, Got: len(query)}
	}
	if topK < 1 {
		topK = 1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		chunk memoryChunk
		score float64
	}
	var all []scored
	for _, rows := range s.docs {
		for _, ch := range rows {
			all = append(all, scored{chunk: ch, score: rag.Cosine(ch.embedding, query)})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		if all[i].chunk.documentID != all[j].chunk.documentID {
			return all[i].chunk.documentID < all[j].chunk.documentID
		}
		return all[i].chunk.index < all[j].chunk.index
	})
	if topK > len(all) {
		topK = len(all)
	}

	out := make([]rag.Match, 0, topK)
	for _, sc := range all[:topK] {
		out = append(out, rag.Match{
			ChunkID:  rag.ChunkID(sc.chunk.documentID, sc.chunk.index),
			Content:  sc.chunk.content,
			Score:    sc.score,
			Metadata: sc.chunk.metadata,
		})
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, documentID)
	return nil
}

func (s *MemoryStore) Dimension() int {
	return s.dimension
}

func (s *MemoryStore) Healthy(ctx context.Context) error {
	return nil
}
