package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/middleware"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/services"
)

type AccountHandler struct {
	accounts *services.AccountService
	log      *zap.Logger
}

func NewAccountHandler(accounts *services.AccountService, log *zap.Logger) *AccountHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountHandler{accounts: accounts, log: log}
}

// DeleteAccount removes all data for the authenticated user and returns
// stored image URLs so the client can delete the blobs (best effort).
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := h.accounts.DeleteAccount(ctx, userID)
	if err != nil {
		h.log.Error("account deletion failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete account"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(result))
}
