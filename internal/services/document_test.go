package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docuvault/rag-backend/internal/logger"
	"github.com/docuvault/rag-backend/internal/rag"
	"github.com/docuvault/rag-backend/internal/vectorstore"
)

// stubEmbedder maps text deterministically onto a 3-dimensional vector so
// tests can predict search rankings without a model server.
type stubEmbedder struct {
	dim     int
	err     error
	vectors map[string][]float32
	calls   int
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := e.vectors[t]; ok {
			out[i] = v
			continue
		}
		v := make([]float32, e.dim)
		for j := 0; j < e.dim; j++ {
			v[j] = float32(len(t)%(j+2)) + 1
		}
		out[i] = v
	}
	return out, nil
}

func (e *stubEmbedder) Dimension() int { return e.dim }

func (e *stubEmbedder) Healthy(ctx context.Context) error { return e.err }

func newTestDocumentService(t *testing.T, emb rag.Embedder) (DocumentService, *vectorstore.MemoryStore) {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	store := vectorstore.NewMemoryStore(log, emb.Dimension())
	svc := NewDocumentService(log, rag.NewChunker(1000, 200), emb, store, DefaultMaxTopK)
	return svc, store
}

func TestProcessSplitsAndStores(t *testing.T) {
	emb := &stubEmbedder{dim: 3}
	svc, _ := newTestDocumentService(t, emb)

	text := strings.Repeat("a", 600) + "\n\n" + strings.Repeat("b", 700)
	res, err := svc.Process(context.Background(), "doc1", text, map[string]any{"source": "upload"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.DocumentID != "doc1" {
		t.Fatalf("document id = %q", res.DocumentID)
	}
	if res.ChunksCreated != 2 {
		t.Fatalf("chunks created = %d, want 2", res.ChunksCreated)
	}
}

func TestProcessEmptyDocument(t *testing.T) {
	svc, _ := newTestDocumentService(t, &stubEmbedder{dim: 3})

	for _, text := range []string{"", "   \n\n\t  "} {
		_, err := svc.Process(context.Background(), "doc1", text, nil)
		if !errors.Is(err, rag.ErrEmptyDocument) {
			t.Fatalf("Process(%q) error = %v, want ErrEmptyDocument", text, err)
		}
	}
}

func TestProcessReplacesOnReingest(t *testing.T) {
	emb := &stubEmbedder{dim: 3}
	svc, _ := newTestDocumentService(t, emb)

	long := strings.Repeat("first version text. ", 80)
	if _, err := svc.Process(context.Background(), "doc1", long, nil); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	res, err := svc.Process(context.Background(), "doc1", "short second version", nil)
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if res.ChunksCreated != 1 {
		t.Fatalf("chunks created after reingest = %d, want 1", res.ChunksCreated)
	}

	q, err := svc.Query(context.Background(), "short second version", 20)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(q.Sources) != 1 {
		t.Fatalf("stored chunks after reingest = %d, want 1", len(q.Sources))
	}
	if q.Sources[0].ChunkID != "doc1_chunk_0" {
		t.Fatalf("chunk id = %q", q.Sources[0].ChunkID)
	}
}

func TestProcessPropagatesEmbedderFailure(t *testing.T) {
	emb := &stubEmbedder{dim: 3, err: &rag.ModelUnavailableError{Transient: true, Err: errors.New("connection refused")}}
	svc, _ := newTestDocumentService(t, emb)

	_, err := svc.Process(context.Background(), "doc1", "some text", nil)
	if !rag.IsModelUnavailable(err) {
		t.Fatalf("Process error = %v, want model unavailable", err)
	}

	q, qerr := svc.Query(context.Background(), "anything", 5)
	if !rag.IsModelUnavailable(qerr) {
		t.Fatalf("Query error = %v, want model unavailable", qerr)
	}
	if len(q.Sources) != 0 {
		t.Fatalf("unexpected sources on failure: %v", q.Sources)
	}
}

func TestQueryValidation(t *testing.T) {
	svc, _ := newTestDocumentService(t, &stubEmbedder{dim: 3})

	for _, q := range []string{"", "   "} {
		if _, err := svc.Query(context.Background(), q, 5); !errors.Is(err, rag.ErrInvalidQuery) {
			t.Fatalf("Query(%q) error = %v, want ErrInvalidQuery", q, err)
		}
	}
}

func TestQueryClampsMaxResults(t *testing.T) {
	emb := &stubEmbedder{dim: 3}
	svc, _ := newTestDocumentService(t, emb)

	if _, err := svc.Process(context.Background(), "doc1", "alpha beta gamma", nil); err != nil {
		t.Fatalf("Process: %v", err)
	}

	for _, n := range []int{-3, 0, 1, 20, 500} {
		res, err := svc.Query(context.Background(), "alpha", n)
		if err != nil {
			t.Fatalf("Query(maxResults=%d): %v", n, err)
		}
		if len(res.Sources) > DefaultMaxTopK {
			t.Fatalf("maxResults=%d returned %d sources", n, len(res.Sources))
		}
	}
}

func TestQueryAnswerIsEmptyPlaceholder(t *testing.T) {
	emb := &stubEmbedder{dim: 3}
	svc, _ := newTestDocumentService(t, emb)

	if _, err := svc.Process(context.Background(), "doc1", "retrieval only", nil); err != nil {
		t.Fatalf("Process: %v", err)
	}
	res, err := svc.Query(context.Background(), "retrieval only", 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Answer != "" {
		t.Fatalf("answer = %q, want empty", res.Answer)
	}
	if res.Query != "retrieval only" {
		t.Fatalf("query echoed back as %q", res.Query)
	}
}

func TestDeleteRemovesDocument(t *testing.T) {
	emb := &stubEmbedder{dim: 3}
	svc, _ := newTestDocumentService(t, emb)

	if _, err := svc.Process(context.Background(), "doc1", "text to delete", nil); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if err := svc.Delete(context.Background(), "doc1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	res, err := svc.Query(context.Background(), "text to delete", 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Sources) != 0 {
		t.Fatalf("sources after delete = %d, want 0", len(res.Sources))
	}

	// Deleting an unknown document is a no-op.
	if err := svc.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("Delete(missing): %v", err)
	}
}

func TestEstimateChunkCount(t *testing.T) {
	svc, _ := newTestDocumentService(t, &stubEmbedder{dim: 3})

	if got := svc.EstimateChunkCount(""); got != 0 {
		t.Fatalf("estimate for empty = %d, want 0", got)
	}
	if got := svc.EstimateChunkCount("tiny"); got != 1 {
		t.Fatalf("estimate for tiny = %d, want 1", got)
	}
	if got := svc.EstimateChunkCount(strings.Repeat("x", 2500)); got != 2 {
		t.Fatalf("estimate for 2500 chars = %d, want 2", got)
	}
}

func TestHealthReflectsComponents(t *testing.T) {
	okSvc, _ := newTestDocumentService(t, &stubEmbedder{dim: 3})
	h := okSvc.Health(context.Background())
	if !h.Ready() || !h.Chunker || !h.Embedder || !h.VectorStore {
		t.Fatalf("health = %+v, want all ready", h)
	}

	downSvc, _ := newTestDocumentService(t, &stubEmbedder{dim: 3, err: errors.New("down")})
	h = downSvc.Health(context.Background())
	if h.Ready() {
		t.Fatalf("health = %+v, want not ready", h)
	}
	if !h.Chunker || h.Embedder {
		t.Fatalf("health = %+v, want chunker up and embedder down", h)
	}
}
