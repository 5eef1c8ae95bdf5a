package services

import (
	"context"
	"strings"

	"github.com/docuvault/rag-backend/internal/logger"
	"github.com/docuvault/rag-backend/internal/rag"
)

const DefaultMaxTopK = 20

// ProcessResult reports one completed ingestion.
type ProcessResult struct {
	DocumentID    string `json:"document_id"`
	ChunksCreated int    `json:"chunks_created"`
}

// QueryResult carries the ranked sources for a question. Answer stays an
// empty placeholder: answer synthesis happens outside this service.
type QueryResult struct {
	Query   string      `json:"query"`
	Answer  string      `json:"answer"`
	Sources []rag.Match `json:"sources"`
}

// ComponentHealth reports readiness of the retrieval components.
type ComponentHealth struct {
	Chunker     bool `json:"chunker"`
	Embedder    bool `json:"embedder"`
	VectorStore bool `json:"vector_store"`
}

func (h ComponentHealth) Ready() bool {
	return h.Chunker && h.Embedder && h.VectorStore
}

// DocumentService orchestrates the ingest pipeline (clean, chunk, embed,
// store) and the query pipeline (embed, search). It holds no mutable state;
// concurrent calls are independent.
type DocumentService interface {
	Process(ctx context.Context, documentID, text string, metadata map[string]any) (ProcessResult, error)
	Query(ctx context.Context, question string, maxResults int) (QueryResult, error)
	Delete(ctx context.Context, documentID string) error
	EstimateChunkCount(text string) int
	Health(ctx context.Context) ComponentHealth
}

type documentService struct {
	log      *logger.Logger
	chunker  rag.Chunker
	embedder rag.Embedder
	store    rag.VectorStore
	maxTopK  int
}

func NewDocumentService(log *logger.Logger, chunker rag.Chunker, embedder rag.Embedder, store rag.VectorStore, maxTopK int) DocumentService {
	if maxTopK <= 0 {
		maxTopK = DefaultMaxTopK
	}
	return &documentService{
		log:      log.With("service", "DocumentService"),
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		maxTopK:  maxTopK,
	}
}

func (s *documentService) Process(ctx context.Context, documentID, text string, metadata map[string]any) (ProcessResult, error) {
	cleaned := rag.CleanForChunking(text)
	chunks := s.chunker.Chunk(cleaned)
	if len(chunks) == 0 {
		return ProcessResult{}, rag.ErrEmptyDocument
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return ProcessResult{}, err
	}

	inputs := make([]rag.ChunkInput, 0, len(chunks))
	for i, content := range chunks {
		meta := map[string]any{"document_id": documentID}
		for k, v := range metadata {
			meta[k] = v
		}
		inputs = append(inputs, rag.ChunkInput{
			Index:     i,
			Content:   content,
			Embedding: embeddings[i],
			Metadata:  meta,
		})
	}
	if err := s.store.Store(ctx, documentID, inputs); err != nil {
		return ProcessResult{}, err
	}

	s.log.Info("Document processed", "document_id", documentID, "chunks_created", len(chunks))
	return ProcessResult{DocumentID: documentID, ChunksCreated: len(chunks)}, nil
}

func (s *documentService) Query(ctx context.Context, question string, maxResults int) (QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return QueryResult{}, rag.ErrInvalidQuery
	}
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > s.maxTopK {
		maxResults = s.maxTopK
	}

	embedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return QueryResult{}, err
	}
	matches, err := s.store.Search(ctx, embedding, maxResults)
	if err != nil {
		return QueryResult{}, err
	}
	return QueryResult{Query: question, Answer: "", Sources: matches}, nil
}

func (s *documentService) Delete(ctx context.Context, documentID string) error {
	if err := s.store.Delete(ctx, documentID); err != nil {
		return err
	}
	s.log.Info("Document deleted", "document_id", documentID)
	return nil
}

func (s *documentService) EstimateChunkCount(text string) int {
	return s.chunker.EstimateChunkCount(rag.CleanForChunking(text))
}

func (s *documentService) Health(ctx context.Context) ComponentHealth {
	h := ComponentHealth{Chunker: true}
	if s.embedder != nil && s.embedder.Healthy(ctx) == nil {
		h.Embedder = true
	}
	if s.store != nil && s.store.Healthy(ctx) == nil {
		h.VectorStore = true
	}
	return h
}
