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

type ConnectionHandler struct {
	connections services.ConnectionService
	log         *zap.Logger
}

func NewConnectionHandler(connections services.ConnectionService, log *zap.Logger) *ConnectionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConnectionHandler{connections: connections, log: log}
}

func (h *ConnectionHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var req models.SendRequestBody
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

	created, err := h.connections.SendRequest(ctx, userID, req.ToUserID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfRequest):
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Cannot send a connection request to yourself"))
		case errors.Is(err, services.ErrDuplicateRequest):
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("A request between these users already exists"))
		case errors.Is(err, services.ErrMessageTooLong):
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Message must be 200 characters or fewer"))
		default:
			h.log.Error("send request failed", zap.String("from", userID), zap.String("to", req.ToUserID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to send connection request"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(created))
}

// ListIncoming returns the caller's pending incoming requests, newest first.
func (h *ConnectionHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	reqs, err := h.connections.IncomingPending(ctx, userID)
	if err != nil {
		h.log.Error("listing incoming requests failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load connection requests"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(reqs))
}

// ListSent returns every request the caller has sent, any status.
func (h *ConnectionHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	reqs, err := h.connections.SentBy(ctx, userID)
	if err != nil {
		h.log.Error("listing sent requests failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load connection requests"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(reqs))
}

func (h *ConnectionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.connections.Accept)
}

func (h *ConnectionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.connections.Reject)
}

func (h *ConnectionHandler) respond(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID, requestID string) (*models.ConnectionRequest, error)) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing requestId"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	updated, err := fn(ctx, userID, requestID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRequestNotFound):
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Connection request not found"))
		case errors.Is(err, services.ErrNotRecipient):
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Only the recipient can respond to a request"))
		case errors.Is(err, services.ErrRequestClosed):
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("Request has already been responded to"))
		default:
			h.log.Error("responding to request failed", zap.String("request_id", requestID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to respond to request"))
		}
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(updated))
}
