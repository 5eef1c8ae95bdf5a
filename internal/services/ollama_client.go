package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/docuvault/rag-backend/internal/logger"
	"github.com/docuvault/rag-backend/internal/rag"
)

// ChatMessage is one turn sent to or received from the model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OllamaClient talks to a local Ollama server. It is the process-wide
// embedding and chat-completion backend; callers may share one instance
// across requests.
type OllamaClient interface {
	rag.Embedder
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
}

type OllamaConfig struct {
	BaseURL           string
	Model             string
	EmbedModel        string
	EmbedDimension    int
	TimeoutSeconds    int
	MaxRetries        int
	MaxResponseTokens int
	Temperature       float64
}

type ollamaClient struct {
	log        *logger.Logger
	cfg        OllamaConfig
	httpClient *http.Client
}

func NewOllamaClient(log *logger.Logger, cfg OllamaConfig) (OllamaClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("missing ollama base url")
	}
	if cfg.EmbedDimension <= 0 {
		return nil, fmt.Errorf("embed dimension must be positive, got %d", cfg.EmbedDimension)
	}
	timeoutSec := cfg.TimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = 60
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &ollamaClient{
		log:        log.With("service", "OllamaClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

type ollamaHTTPError struct {
	StatusCode int
	Body       string
}

func (e *ollamaHTTPError) Error() string {
	return fmt.Sprintf("ollama http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

func isTransientErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr *ollamaHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	// url.Error wrapping connection refused etc.
	return strings.Contains(err.Error(), "connection refused")
}

func jitterSleep(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	low := base.Seconds() - delta
	v := low + rand.Float64()*(2*delta)
	return time.Duration(v * float64(time.Second))
}

func (c *ollamaClient) doOnce(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ollamaHTTPError{StatusCode: resp.StatusCode, Body: truncateBody(raw)}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *ollamaClient) call(ctx context.Context, method, path string, body any, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(jitterSleep(time.Duration(attempt) * 500 * time.Millisecond)):
			}
		}
		lastErr = c.doOnce(ctx, method, path, body, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			// Caller canceled or deadline passed; retrying is pointless.
			return lastErr
		}
		if !isTransientErr(lastErr) {
			return lastErr
		}
		c.log.Warn("Ollama call failed, retrying", "path", path, "attempt", attempt+1, "error", lastErr)
	}
	return lastErr
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (c *ollamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *ollamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	req := map[string]any{
		"model": c.cfg.EmbedModel,
		"input": texts,
	}
	var resp ollamaEmbedResponse
	if err := c.call(ctx, http.MethodPost, "/api/embed", req, &resp); err != nil {
		return nil, &rag.ModelUnavailableError{Transient: isTransientErr(err), Err: err}
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &rag.ModelUnavailableError{
			Err: fmt.Errorf("embed returned %d vectors for %d inputs", len(resp.Embeddings), len(texts)),
		}
	}
	for i, vec := range resp.Embeddings {
		if len(vec) != c.cfg.EmbedDimension {
			if len(vec) == 0 {
				return nil, &rag.ModelUnavailableError{
					Err: fmt.Errorf("embed returned an empty vector for input %d", i),
				}
			}
			return nil, &rag.DimensionMismatchError{Want: c.cfg.EmbedDimension, Got: len(vec)}
		}
	}
	return resp.Embeddings, nil
}

func (c *ollamaClient) Dimension() int {
	return c.cfg.EmbedDimension
}

type ollamaChatResponse struct {
	Message ChatMessage `json:"message"`
}

func (c *ollamaClient) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	req := map[string]any{
		"model":    c.cfg.Model,
		"messages": messages,
		"stream":   false,
		"options": map[string]any{
			"num_predict": c.cfg.MaxResponseTokens,
			"temperature": c.cfg.Temperature,
			"stop":        []string{"\n\n\n"},
		},
	}
	var resp ollamaChatResponse
	if err := c.call(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return "", &rag.ModelUnavailableError{Transient: isTransientErr(err), Err: err}
	}
	content := strings.TrimSpace(resp.Message.Content)
	if content == "" {
		return "", &rag.ModelUnavailableError{Err: fmt.Errorf("chat returned no content")}
	}
	return content, nil
}

func (c *ollamaClient) Healthy(ctx context.Context) error {
	if err := c.doOnce(ctx, http.MethodGet, "/api/tags", nil, nil); err != nil {
		return &rag.ModelUnavailableError{Transient: isTransientErr(err), Err: err}
	}
	return nil
}

func truncateBody(raw []byte) string {
	const maxErrorBodyBytes = 1024
	s := strings.TrimSpace(string(raw))
	if len(s) > maxErrorBodyBytes {
		s = s[:maxErrorBodyBytes]
	}
	return s
}
