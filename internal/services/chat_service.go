package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
)

var (
	ErrChatNotFound   = errors.New("chat not found")
	ErrNotParticipant = errors.New("user is not a participant in this chat")
	ErrEmptyMessage   = errors.New("message content is required")
)

// ChatService manages two-party conversations. Messages are append-only; only
// their read flag changes after creation.
type ChatService interface {
	// EnsureChat creates the chat for the pair if it does not exist yet.
	// Idempotent: the same pair always maps to the same chat.
	EnsureChat(ctx context.Context, a, b string) (*models.Chat, error)
	ChatsFor(ctx context.Context, userID string) ([]*models.Chat, error)
	Messages(ctx context.Context, chatID, userID string) ([]*models.Message, error)
	SendMessage(ctx context.Context, chatID, fromID, content string) (*models.Message, error)
	// MarkRead flags all unread messages addressed to userID in the chat
	// and returns how many were updated.
	MarkRead(ctx context.Context, chatID, userID string) (int64, error)
	DeleteFor(ctx context.Context, userID string) error
}

// MemoryChatService is the in-memory ChatService.
type MemoryChatService struct {
	mu       sync.RWMutex
	chats    map[string]*models.Chat      // chatID -> chat
	messages map[string][]*models.Message // chatID -> ordered messages
}

func NewMemoryChatService() *MemoryChatService {
	return &MemoryChatService{
		chats:    make(map[string]*models.Chat),
		messages: make(map[string][]*models.Message),
	}
}

func (s *MemoryChatService) EnsureChat(ctx context.Context, a, b string) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := models.ChatID(a, b)
	if chat, exists := s.chats[id]; exists {
		return copyChat(chat), nil
	}

	chat := &models.Chat{
		ID:           id,
		Participants: []string{a, b},
		CreatedAt:    time.Now().UTC(),
	}
	s.chats[id] = chat
	return copyChat(chat), nil
}

func (s *MemoryChatService) ChatsFor(ctx context.Context, userID string) ([]*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Chat, 0)
	for _, chat := range s.chats {
		if chat.HasParticipant(userID) {
			out = append(out, copyChat(chat))
		}
	}
	// Most recently active first.
	sort.Slice(out, func(i, j int) bool {
		return lastActivity(out[i]).After(lastActivity(out[j]))
	})
	return out, nil
}

func (s *MemoryChatService) Messages(ctx context.Context, chatID, userID string) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, exists := s.chats[chatID]
	if !exists {
		return nil, ErrChatNotFound
	}
	if !chat.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}

	msgs := s.messages[chatID]
	out := make([]*models.Message, len(msgs))
	for i, m := range msgs {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}

func (s *MemoryChatService) SendMessage(ctx context.Context, chatID, fromID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chat, exists := s.chats[chatID]
	if !exists {
		return nil, ErrChatNotFound
	}
	if !chat.HasParticipant(fromID) {
		return nil, ErrNotParticipant
	}

	msg := &models.Message{
		ID:         uuid.New().String(),
		ChatID:     chatID,
		FromUserID: fromID,
		ToUserID:   chat.Peer(fromID),
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	s.messages[chatID] = append(s.messages[chatID], msg)
	last := *msg
	chat.LastMessage = &last

	cp := *msg
	return &cp, nil
}

func (s *MemoryChatService) MarkRead(ctx context.Context, chatID, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, exists := s.chats[chatID]
	if !exists {
		return 0, ErrChatNotFound
	}
	if !chat.HasParticipant(userID) {
		return 0, ErrNotParticipant
	}

	var updated int64
	for _, msg := range s.messages[chatID] {
		if msg.ToUserID == userID && !msg.Read {
			msg.Read = true
			updated++
		}
	}
	if chat.LastMessage != nil && chat.LastMessage.ToUserID == userID {
		chat.LastMessage.Read = true
	}
	return updated, nil
}

func (s *MemoryChatService) DeleteFor(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, chat := range s.chats {
		if chat.HasParticipant(userID) {
			delete(s.chats, id)
			delete(s.messages, id)
		}
	}
	return nil
}

func copyChat(chat *models.Chat) *models.Chat {
	cp := *chat
	cp.Participants = append([]string(nil), chat.Participants...)
	if chat.LastMessage != nil {
		last := *chat.LastMessage
		cp.LastMessage = &last
	}
	return &cp
}

func lastActivity(chat *models.Chat) time.Time {
	if chat.LastMessage != nil {
		return chat.LastMessage.CreatedAt
	}
	return chat.CreatedAt
}
