package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docuvault/rag-backend/internal/logger"
	"github.com/docuvault/rag-backend/internal/repos"
	"github.com/docuvault/rag-backend/internal/types"
)

type memConversationRepo struct {
	byID map[uuid.UUID]*types.Conversation
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{byID: map[uuid.UUID]*types.Conversation{}}
}

func (r *memConversationRepo) Create(ctx context.Context, tx *gorm.DB, c *types.Conversation) (*types.Conversation, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.byID[c.ID] = c
	return c, nil
}

func (r *memConversationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *memConversationRepo) List(ctx context.Context, tx *gorm.DB, userID *string) ([]*types.Conversation, error) {
	var out []*types.Conversation
	for _, c := range r.byID {
		if userID != nil && (c.UserID == nil || *c.UserID != *userID) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memConversationRepo) Touch(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	c, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (r *memConversationRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

type memMessageRepo struct {
	messages []*types.Message
	nextID   int64
}

func (r *memMessageRepo) Create(ctx context.Context, tx *gorm.DB, m *types.Message) (*types.Message, error) {
	r.nextID++
	m.ID = r.nextID
	m.CreatedAt = time.Now()
	r.messages = append(r.messages, m)
	return m, nil
}

func (r *memMessageRepo) forConversation(id uuid.UUID) []*types.Message {
	var out []*types.Message
	for _, m := range r.messages {
		if m.ConversationID == id {
			out = append(out, m)
		}
	}
	return out
}

func (r *memMessageRepo) ListByConversation(ctx context.Context, tx *gorm.DB, id uuid.UUID) ([]*types.Message, error) {
	return r.forConversation(id), nil
}

func (r *memMessageRepo) ListRecent(ctx context.Context, tx *gorm.DB, id uuid.UUID, limit int) ([]*types.Message, error) {
	all := r.forConversation(id)
	var out []*types.Message
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (r *memMessageRepo) CountByConversation(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	return int64(len(r.forConversation(id))), nil
}

func (r *memMessageRepo) LastByConversation(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Message, error) {
	all := r.forConversation(id)
	if len(all) == 0 {
		return nil, nil
	}
	return all[len(all)-1], nil
}

func (r *memMessageRepo) DeleteByConversation(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	var kept []*types.Message
	for _, m := range r.messages {
		if m.ConversationID != id {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}

type stubLLM struct {
	stubEmbedder
	reply    string
	chatErr  error
	lastSeen []ChatMessage
}

func (s *stubLLM) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	s.lastSeen = append([]ChatMessage(nil), messages...)
	if s.chatErr != nil {
		return "", s.chatErr
	}
	return s.reply, nil
}

func newTestChatService(t *testing.T, llm *stubLLM, maxContext int) (ChatService, *memConversationRepo, *memMessageRepo) {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	convRepo := newMemConversationRepo()
	msgRepo := &memMessageRepo{}
	svc := NewChatService(nil, log, convRepo, msgRepo, llm, "llama3.2:3b", maxContext)
	return svc, convRepo, msgRepo
}

var (
	_ repos.ConversationRepo = (*memConversationRepo)(nil)
	_ repos.MessageRepo      = (*memMessageRepo)(nil)
)

func TestSendCreatesConversationWithTruncatedTitle(t *testing.T) {
	llm := &stubLLM{reply: "Hi."}
	svc, convRepo, _ := newTestChatService(t, llm, 10)

	long := strings.Repeat("z", 80)
	res, err := svc.Send(context.Background(), nil, nil, long)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	conv, ok := convRepo.byID[res.ConversationID]
	if !ok {
		t.Fatal("conversation was not created")
	}
	want := strings.Repeat("z", 50) + "..."
	if conv.Title != want {
		t.Fatalf("title = %q, want %q", conv.Title, want)
	}

	short, err := svc.Send(context.Background(), nil, nil, "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if convRepo.byID[short.ConversationID].Title != "hello" {
		t.Fatalf("short title = %q", convRepo.byID[short.ConversationID].Title)
	}
}

func TestSendTitleTruncatesOnRuneBoundary(t *testing.T) {
	llm := &stubLLM{reply: "ok"}
	svc, convRepo, _ := newTestChatService(t, llm, 10)

	long := strings.Repeat("日", 60)
	res, err := svc.Send(context.Background(), nil, nil, long)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	title := convRepo.byID[res.ConversationID].Title
	if !utf8.ValidString(title) {
		t.Fatalf("title is not valid utf-8: %q", title)
	}
	if want := strings.Repeat("日", 50) + "..."; title != want {
		t.Fatalf("title = %q, want %q", title, want)
	}
}

func TestListConversationsPreviewRuneBoundary(t *testing.T) {
	llm := &stubLLM{reply: strings.Repeat("é", 120)}
	svc, _, _ := newTestChatService(t, llm, 10)

	if _, err := svc.Send(context.Background(), nil, nil, "hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	all, err := svc.ListConversations(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(all) != 1 || all[0].LastMessage == nil {
		t.Fatalf("summaries = %+v", all)
	}
	preview := all[0].LastMessage.Content
	if !utf8.ValidString(preview) {
		t.Fatalf("preview is not valid utf-8: %q", preview)
	}
	if want := strings.Repeat("é", 100) + "..."; preview != want {
		t.Fatalf("preview = %q, want %q", preview, want)
	}
}

func TestSendPersistsBothTurns(t *testing.T) {
	llm := &stubLLM{reply: "Paris is the capital of France."}
	svc, _, msgRepo := newTestChatService(t, llm, 10)

	res, err := svc.Send(context.Background(), nil, nil, "What is the capital of France?")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Response != "Paris is the capital of France." {
		t.Fatalf("response = %q", res.Response)
	}
	stored := msgRepo.forConversation(res.ConversationID)
	if len(stored) != 2 {
		t.Fatalf("stored %d messages, want 2", len(stored))
	}
	if stored[0].Role != types.MessageRoleUser || stored[1].Role != types.MessageRoleAssistant {
		t.Fatalf("roles = %s, %s", stored[0].Role, stored[1].Role)
	}
	if len(res.Messages) != 2 {
		t.Fatalf("history length = %d, want 2", len(res.Messages))
	}
	if res.Model != "llama3.2:3b" {
		t.Fatalf("model = %q", res.Model)
	}
}

func TestSendBoundsContextWindow(t *testing.T) {
	llm := &stubLLM{reply: "ok"}
	svc, _, _ := newTestChatService(t, llm, 4)

	var convID *uuid.UUID
	for i := 0; i < 6; i++ {
		res, err := svc.Send(context.Background(), convID, nil, "turn")
		if err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
		convID = &res.ConversationID
	}

	// system prompt plus at most maxContext persisted turns
	if len(llm.lastSeen) != 5 {
		t.Fatalf("model saw %d messages, want 5", len(llm.lastSeen))
	}
	if llm.lastSeen[0].Role != "system" {
		t.Fatalf("first message role = %q", llm.lastSeen[0].Role)
	}
	// chronological order: oldest of the window first, newest last
	if llm.lastSeen[len(llm.lastSeen)-1].Content != "turn" {
		t.Fatalf("last message = %+v", llm.lastSeen[len(llm.lastSeen)-1])
	}
}

func TestSendContinuesExistingConversation(t *testing.T) {
	llm := &stubLLM{reply: "ok"}
	svc, convRepo, _ := newTestChatService(t, llm, 10)

	first, err := svc.Send(context.Background(), nil, nil, "first question")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	second, err := svc.Send(context.Background(), &first.ConversationID, nil, "second question")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if second.ConversationID != first.ConversationID {
		t.Fatal("conversation id changed between turns")
	}
	if len(convRepo.byID) != 1 {
		t.Fatalf("conversation count = %d, want 1", len(convRepo.byID))
	}
	if len(second.Messages) != 4 {
		t.Fatalf("history length = %d, want 4", len(second.Messages))
	}
	// title stays pinned to the opening message
	if convRepo.byID[first.ConversationID].Title != "first question" {
		t.Fatalf("title = %q", convRepo.byID[first.ConversationID].Title)
	}
}

func TestSendEmptyMessage(t *testing.T) {
	svc, _, _ := newTestChatService(t, &stubLLM{reply: "ok"}, 10)
	if _, err := svc.Send(context.Background(), nil, nil, "   "); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestSendDoesNotPersistAssistantOnLLMFailure(t *testing.T) {
	llm := &stubLLM{chatErr: errors.New("model offline")}
	svc, _, msgRepo := newTestChatService(t, llm, 10)

	_, err := svc.Send(context.Background(), nil, nil, "hello")
	if err == nil {
		t.Fatal("expected error from llm")
	}
	// user turn is durable even when the model fails
	if len(msgRepo.messages) != 1 || msgRepo.messages[0].Role != types.MessageRoleUser {
		t.Fatalf("stored messages = %d", len(msgRepo.messages))
	}
}

func TestListConversationsSummaries(t *testing.T) {
	llm := &stubLLM{reply: strings.Repeat("a", 150)}
	svc, _, _ := newTestChatService(t, llm, 10)

	alice := "alice"
	res, err := svc.Send(context.Background(), nil, &alice, "hi from alice")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	bob := "bob"
	if _, err := svc.Send(context.Background(), nil, &bob, "hi from bob"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	all, err := svc.ListConversations(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("listed %d conversations, want 2", len(all))
	}

	mine, err := svc.ListConversations(context.Background(), &alice)
	if err != nil {
		t.Fatalf("ListConversations(alice): %v", err)
	}
	if len(mine) != 1 || mine[0].ConversationID != res.ConversationID {
		t.Fatalf("alice's conversations = %+v", mine)
	}
	if mine[0].MessageCount != 2 {
		t.Fatalf("message count = %d, want 2", mine[0].MessageCount)
	}
	if mine[0].LastMessage == nil {
		t.Fatal("missing last message preview")
	}
	if got := mine[0].LastMessage.Content; len(got) != 103 || !strings.HasSuffix(got, "...") {
		t.Fatalf("preview = %q (len %d)", got, len(got))
	}
}

func TestHistoryUnknownConversation(t *testing.T) {
	svc, _, _ := newTestChatService(t, &stubLLM{reply: "ok"}, 10)
	if _, err := svc.History(context.Background(), uuid.New()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("error = %v, want record not found", err)
	}
}

func TestDeleteUnknownConversation(t *testing.T) {
	svc, _, _ := newTestChatService(t, &stubLLM{reply: "ok"}, 10)
	if err := svc.DeleteConversation(context.Background(), uuid.New()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("error = %v, want record not found", err)
	}
}
