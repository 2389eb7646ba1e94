package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/middleware"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/services"
)

type ProfileHandler struct {
	store    services.ProfileStore
	resolver *services.ProfileResolver
	pipeline *services.ProfileMutationPipeline
	search   *services.SearchService
	avatars  services.AvatarStore
	log      *zap.Logger
}

func NewProfileHandler(store services.ProfileStore, resolver *services.ProfileResolver, pipeline *services.ProfileMutationPipeline, search *services.SearchService, avatars services.AvatarStore, log *zap.Logger) *ProfileHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileHandler{store: store, resolver: resolver, pipeline: pipeline, search: search, avatars: avatars, log: log}
}

// GetProfile returns the caller's assembled profile. A missing record comes
// back as a placeholder so the client can route to profile setup.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	prof := h.resolver.Resolve(ctx, sess)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(prof))
}

// UpdateProfile applies a partial update. Omitted fields keep their value;
// fields present with an empty value are cleared; supplied lists replace the
// stored lists wholesale.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var req models.UpdateProfileRequest
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

	prof, err := h.pipeline.Apply(ctx, sess, &req)
	if err != nil {
		h.log.Error("profile update failed", zap.String("user_id", sess.UserID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update profile"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(prof))
}

// GetPublicProfile returns the public view of another user's profile.
func (h *ProfileHandler) GetPublicProfile(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUserID(r.Context()) == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	targetID := chi.URLParam(r, "userId")
	if targetID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing userId"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	prof, err := h.resolver.ResolveID(ctx, targetID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Profile not found"))
			return
		}
		h.log.Error("public profile load failed", zap.String("target", targetID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load profile"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(prof.Public()))
}

// Search filters the user directory. The caller never appears in results.
func (h *ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var filters models.SearchFilters
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	results, err := h.search.Search(ctx, userID, filters)
	if err != nil {
		h.log.Error("user search failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Search failed"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(results))
}

const maxAvatarSizeMB = 8

// UploadAvatar stores a new profile image and saves its URL on the profile.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	if h.avatars == nil {
		writeJSON(w, http.StatusNotImplemented, models.NewErrorResponse("Avatar uploads are not enabled"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSizeMB*1024*1024)
	if err := r.ParseMultipartForm(maxAvatarSizeMB * 1024 * 1024); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("File too large or invalid form data"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("No image file provided"))
		return
	}
	defer file.Close()

	if !isValidImageType(header.Header.Get("Content-Type")) {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid image type. Allowed: JPEG, PNG, GIF, WebP"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	imageURL, err := h.avatars.Upload(ctx, sess.UserID, header.Filename, file)
	if err != nil {
		h.log.Error("avatar upload failed", zap.String("user_id", sess.UserID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to upload image"))
		return
	}

	// Stored via the store, not the mutation pipeline: changing the picture
	// alone does not finish profile setup.
	defaults := services.ProfileDefaults{Email: sess.Email, Name: sess.Name}
	if _, err := h.store.Upsert(ctx, sess.UserID, defaults, &models.UpdateProfileRequest{ProfileImage: &imageURL}); err != nil {
		h.log.Error("avatar save failed", zap.String("user_id", sess.UserID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to save image"))
		return
	}
	prof := h.resolver.Resolve(ctx, sess)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(prof))
}

func isValidImageType(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
