package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/middleware"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/services"
)

type ChatHandler struct {
	chats services.ChatService
	log   *zap.Logger
}

func NewChatHandler(chats services.ChatService, log *zap.Logger) *ChatHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatHandler{chats: chats, log: log}
}

// ListChats returns the caller's chats, most recent activity first.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	chats, err := h.chats.ChatsFor(ctx, userID)
	if err != nil {
		h.log.Error("listing chats failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load chats"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(chats))
}

// ListMessages returns a chat's messages in send order. Participants only.
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	chatID := chi.URLParam(r, "chatId")
	if chatID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing chatId"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	msgs, err := h.chats.Messages(ctx, chatID, userID)
	if err != nil {
		h.writeChatError(w, chatID, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(msgs))
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	chatID := chi.URLParam(r, "chatId")
	if chatID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing chatId"))
		return
	}

	var req models.SendMessageBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	msg, err := h.chats.SendMessage(ctx, chatID, userID, req.Content)
	if err != nil {
		if errors.Is(err, services.ErrEmptyMessage) {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Message content is required"))
			return
		}
		h.writeChatError(w, chatID, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(msg))
}

// MarkRead flags every unread message addressed to the caller in the chat.
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	chatID := chi.URLParam(r, "chatId")
	if chatID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing chatId"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	updated, err := h.chats.MarkRead(ctx, chatID, userID)
	if err != nil {
		h.writeChatError(w, chatID, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]int64{"updated": updated}))
}

func (h *ChatHandler) writeChatError(w http.ResponseWriter, chatID string, err error) {
	switch {
	case errors.Is(err, services.ErrChatNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Chat not found"))
	case errors.Is(err, services.ErrNotParticipant):
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Not a participant in this chat"))
	default:
		h.log.Error("chat operation failed", zap.String("chat_id", chatID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Chat operation failed"))
	}
}
