package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/docuvault/rag-backend/internal/rag"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError translates service-layer failures into HTTP statuses.
// Validation problems are the caller's fault, a down model is a gateway
// problem, and everything else is a server error.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rag.ErrEmptyDocument):
		RespondError(c, http.StatusBadRequest, "empty_document", err)
	case errors.Is(err, rag.ErrInvalidQuery):
		RespondError(c, http.StatusBadRequest, "invalid_query", err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		RespondError(c, http.StatusNotFound, "not_found", errors.New("resource not found"))
	case rag.IsModelUnavailable(err):
		var unavailable *rag.ModelUnavailableError
		status := http.StatusServiceUnavailable
		if errors.As(err, &unavailable) && unavailable.Transient {
			status = http.StatusGatewayTimeout
		}
		RespondError(c, status, "model_unavailable", err)
	case rag.IsDimensionMismatch(err):
		RespondError(c, http.StatusInternalServerError, "dimension_mismatch", err)
	case rag.IsStoreFailure(err):
		RespondError(c, http.StatusInternalServerError, "store_failure", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
