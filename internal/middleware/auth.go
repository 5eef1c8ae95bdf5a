package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docuvault/rag-backend/internal/logger"
)

// AuthMiddleware delegates token validation to an external auth service.
// The bearer token is forwarded as-is; this service never inspects or
// decodes it itself.
type AuthMiddleware struct {
	log            *logger.Logger
	authServiceURL string
	httpClient     *http.Client
}

func NewAuthMiddleware(log *logger.Logger, authServiceURL string) *AuthMiddleware {
	return &AuthMiddleware{
		log:            log.With("Middleware", "AuthMiddleware"),
		authServiceURL: strings.TrimRight(authServiceURL, "/"),
		httpClient:     &http.Client{Timeout: 5 * time.Second},
	}
}

type validateResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, am.authServiceURL+"/auth/validate", nil)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth request failed"})
			return
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := am.httpClient.Do(req)
		if err != nil {
			am.log.Warn("Auth service unreachable", "error", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var payload validateResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload); err != nil {
			am.log.Warn("Auth service returned malformed payload", "error", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
			return
		}
		if payload.UserID != "" {
			c.Set("user_id", payload.UserID)
		}
		if payload.Email != "" {
			c.Set("user_email", payload.Email)
		}
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
