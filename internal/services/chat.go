package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docuvault/rag-backend/internal/logger"
	"github.com/docuvault/rag-backend/internal/repos"
	"github.com/docuvault/rag-backend/internal/types"
)

const chatSystemPrompt = "You are a helpful assistant. Provide clear, concise answers. " +
	"Keep responses brief (2-3 sentences) but always complete your thoughts. " +
	"Never end mid-sentence."

const (
	titleMaxLen       = 50
	previewMaxLen     = 100
	defaultMaxContext = 10
)

type ChatResult struct {
	Response       string        `json:"response"`
	Messages       []ChatMessage `json:"messages"`
	ConversationID uuid.UUID     `json:"conversation_id"`
	UserID         *string       `json:"user_id,omitempty"`
	Model          string        `json:"model"`
}

type MessagePreview struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ConversationSummary struct {
	ConversationID uuid.UUID       `json:"conversation_id"`
	UserID         *string         `json:"user_id,omitempty"`
	Title          string          `json:"title"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	MessageCount   int64           `json:"message_count"`
	LastMessage    *MessagePreview `json:"last_message,omitempty"`
}

// ChatService persists conversations and proxies each turn to the local LLM
// with a bounded window of recent history.
type ChatService interface {
	Send(ctx context.Context, conversationID *uuid.UUID, userID *string, message string) (*ChatResult, error)
	ListConversations(ctx context.Context, userID *string) ([]ConversationSummary, error)
	History(ctx context.Context, conversationID uuid.UUID) ([]*types.Message, error)
	DeleteConversation(ctx context.Context, conversationID uuid.UUID) error
}

type chatService struct {
	db            *gorm.DB
	log           *logger.Logger
	conversations repos.ConversationRepo
	messages      repos.MessageRepo
	llm           OllamaClient
	model         string
	maxContext    int
}

func NewChatService(
	db *gorm.DB,
	baseLog *logger.Logger,
	conversationRepo repos.ConversationRepo,
	messageRepo repos.MessageRepo,
	llm OllamaClient,
	model string,
	maxContextMessages int,
) ChatService {
	if maxContextMessages <= 0 {
		maxContextMessages = defaultMaxContext
	}
	return &chatService{
		db:            db,
		log:           baseLog.With("service", "ChatService"),
		conversations: conversationRepo,
		messages:      messageRepo,
		llm:           llm,
		model:         model,
		maxContext:    maxContextMessages,
	}
}

func (s *chatService) Send(ctx context.Context, conversationID *uuid.UUID, userID *string, message string) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("message must not be empty")
	}

	id := uuid.New()
	if conversationID != nil && *conversationID != uuid.Nil {
		id = *conversationID
	}

	conversation, err := s.conversations.GetByID(ctx, nil, id)
	switch {
	case err == nil:
		if err := s.conversations.Touch(ctx, nil, id); err != nil {
			return nil, fmt.Errorf("touch conversation: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		conversation, err = s.conversations.Create(ctx, nil, &types.Conversation{
			ID:     id,
			UserID: userID,
			Title:  titleFromMessage(message),
		})
		if err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
	default:
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	if _, err := s.messages.Create(ctx, nil, &types.Message{
		ConversationID: id,
		Role:           types.MessageRoleUser,
		Content:        message,
	}); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	recent, err := s.messages.ListRecent(ctx, nil, id, s.maxContext)
	if err != nil {
		return nil, fmt.Errorf("load recent messages: %w", err)
	}
	turns := make([]ChatMessage, 0, len(recent)+1)
	turns = append(turns, ChatMessage{Role: "system", Content: chatSystemPrompt})
	// ListRecent is newest-first; the model wants chronological order.
	for i := len(recent) - 1; i >= 0; i-- {
		turns = append(turns, ChatMessage{Role: recent[i].Role, Content: recent[i].Content})
	}

	answer, err := s.llm.Chat(ctx, turns)
	if err != nil {
		return nil, err
	}

	if _, err := s.messages.Create(ctx, nil, &types.Message{
		ConversationID: id,
		Role:           types.MessageRoleAssistant,
		Content:        answer,
	}); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	all, err := s.messages.ListByConversation(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("load conversation history: %w", err)
	}
	history := make([]ChatMessage, 0, len(all))
	for _, m := range all {
		history = append(history, ChatMessage{Role: m.Role, Content: m.Content})
	}

	resolvedUserID := userID
	if resolvedUserID == nil {
		resolvedUserID = conversation.UserID
	}
	s.log.Info("Chat turn completed", "conversation_id", id, "history_len", len(history))
	return &ChatResult{
		Response:       answer,
		Messages:       history,
		ConversationID: id,
		UserID:         resolvedUserID,
		Model:          s.model,
	}, nil
}

func (s *chatService) ListConversations(ctx context.Context, userID *string) ([]ConversationSummary, error) {
	conversations, err := s.conversations.List(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		count, err := s.messages.CountByConversation(ctx, nil, conv.ID)
		if err != nil {
			return nil, fmt.Errorf("count messages: %w", err)
		}
		last, err := s.messages.LastByConversation(ctx, nil, conv.ID)
		if err != nil {
			return nil, fmt.Errorf("load last message: %w", err)
		}
		summary := ConversationSummary{
			ConversationID: conv.ID,
			UserID:         conv.UserID,
			Title:          conv.Title,
			CreatedAt:      conv.CreatedAt,
			UpdatedAt:      conv.UpdatedAt,
			MessageCount:   count,
		}
		if last != nil {
			summary.LastMessage = &MessagePreview{
				Role:      last.Role,
				Content:   truncateRunes(last.Content, previewMaxLen),
				Timestamp: last.CreatedAt,
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *chatService) History(ctx context.Context, conversationID uuid.UUID) ([]*types.Message, error) {
	if _, err := s.conversations.GetByID(ctx, nil, conversationID); err != nil {
		return nil, err
	}
	return s.messages.ListByConversation(ctx, nil, conversationID)
}

func (s *chatService) DeleteConversation(ctx context.Context, conversationID uuid.UUID) error {
	if _, err := s.conversations.GetByID(ctx, nil, conversationID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.messages.DeleteByConversation(ctx, tx, conversationID); err != nil {
			return err
		}
		return s.conversations.Delete(ctx, tx, conversationID)
	})
}

func titleFromMessage(message string) string {
	return truncateRunes(message, titleMaxLen)
}

// truncateRunes counts codepoints, not bytes, so multi-byte text is never
// cut mid-rune.
func truncateRunes(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
