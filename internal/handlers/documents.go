package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docuvault/rag-backend/internal/logger"
	"github.com/docuvault/rag-backend/internal/services"
)

type DocumentHandler struct {
	log             *logger.Logger
	documentService services.DocumentService
	maxTopK         int
}

func NewDocumentHandler(log *logger.Logger, dsvc services.DocumentService, maxTopK int) *DocumentHandler {
	if maxTopK <= 0 {
		maxTopK = services.DefaultMaxTopK
	}
	return &DocumentHandler{
		log:             log.With("handler", "DocumentHandler"),
		documentService: dsvc,
		maxTopK:         maxTopK,
	}
}

type processDocumentRequest struct {
	Text       string         `json:"text" binding:"required"`
	DocumentID string         `json:"document_id"`
	Metadata   map[string]any `json:"metadata"`
}

type processDocumentResponse struct {
	Message       string `json:"message"`
	DocumentID    string `json:"document_id"`
	ChunksCreated int    `json:"chunks_created"`
}

// POST /api/documents/process
// Ingest one document: clean, chunk, embed and index it. Reingesting the
// same document_id replaces its previous chunks.
func (h *DocumentHandler) ProcessDocument(c *gin.Context) {
	var req processDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	documentID := strings.TrimSpace(req.DocumentID)
	if documentID == "" {
		documentID = uuid.New().String()
	}

	res, err := h.documentService.Process(c.Request.Context(), documentID, req.Text, req.Metadata)
	if err != nil {
		h.log.Warn("Document processing failed", "document_id", documentID, "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, processDocumentResponse{
		Message:       "Document processed successfully",
		DocumentID:    res.DocumentID,
		ChunksCreated: res.ChunksCreated,
	})
}

type queryDocumentsRequest struct {
	Query      string `json:"query" binding:"required"`
	MaxResults *int   `json:"max_results"`
}

// POST /api/documents/query
// Embed the question and return the top matching chunks ranked by cosine
// similarity. max_results defaults to 5 and must stay within 1..20.
func (h *DocumentHandler) QueryDocuments(c *gin.Context) {
	var req queryDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	maxResults := 5
	if req.MaxResults != nil {
		maxResults = *req.MaxResults
		if maxResults < 1 || maxResults > h.maxTopK {
			RespondError(c, http.StatusBadRequest, "invalid_request",
				fmt.Errorf("max_results must be between 1 and %d", h.maxTopK))
			return
		}
	}

	res, err := h.documentService.Query(c.Request.Context(), req.Query, maxResults)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, res)
}

// DELETE /api/documents/:document_id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	documentID := strings.TrimSpace(c.Param("document_id"))
	if documentID == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("document_id is required"))
		return
	}
	if err := h.documentService.Delete(c.Request.Context(), documentID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"message":     "Document deleted successfully",
		"document_id": documentID,
	})
}

// GET /api/documents/health
// Per-component readiness of the retrieval pipeline.
func (h *DocumentHandler) DocumentHealth(c *gin.Context) {
	health := h.documentService.Health(c.Request.Context())
	status := "healthy"
	code := http.StatusOK
	if !health.Ready() {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"components": health,
	})
}
