package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/docuvault/rag-backend/internal/rag"
)

type instrumentedVectorStore struct {
	provider string
	inner    rag.VectorStore
	tracer   trace.Tracer
}

func instrumentVectorStore(provider string, inner rag.VectorStore) rag.VectorStore {
	if inner == nil {
		return nil
	}
	return &instrumentedVectorStore{
		provider: provider,
		inner:    inner,
		tracer:   otel.Tracer("vectorstore"),
	}
}

func (s *instrumentedVectorStore) Store(ctx context.Context, documentID string, chunks []rag.ChunkInput) error {
	ctx, span := s.startSpan(ctx, "vectorstore.store",
		attribute.String("document.id", documentID),
		attribute.Int("chunk.count", len(chunks)),
	)
	defer span.End()
	return s.record(span, s.inner.Store(ctx, documentID, chunks))
}

func (s *instrumentedVectorStore) Search(ctx context.Context, embedding []float32, topK int) ([]rag.Match, error) {
	ctx, span := s.startSpan(ctx, "vectorstore.search", attribute.Int("top_k", topK))
	defer span.End()
	out, err := s.inner.Search(ctx, embedding, topK)
	if err == nil {
		span.SetAttributes(attribute.Int("match.count", len(out)))
	}
	return out, s.record(span, err)
}

func (s *instrumentedVectorStore) Delete(ctx context.Context, documentID string) error {
	ctx, span := s.startSpan(ctx, "vectorstore.delete", attribute.String("document.id", documentID))
	defer span.End()
	return s.record(span, s.inner.Delete(ctx, documentID))
}

func (s *instrumentedVectorStore) Dimension() int {
	return s.inner.Dimension()
}

func (s *instrumentedVectorStore) Healthy(ctx context.Context) error {
	return s.inner.Healthy(ctx)
}

func (s *instrumentedVectorStore) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("vectorstore.provider", s.provider))
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *instrumentedVectorStore) record(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
