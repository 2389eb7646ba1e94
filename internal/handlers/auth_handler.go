package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/auth"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/middleware"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/services"
)

type AuthHandler struct {
	provider auth.Provider
	profiles services.ProfileStore
	resolver *services.ProfileResolver
	log      *zap.Logger
}

func NewAuthHandler(provider auth.Provider, profiles services.ProfileStore, resolver *services.ProfileResolver, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{provider: provider, profiles: profiles, resolver: resolver, log: log}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	res, err := h.provider.SignUp(ctx, req.Email, req.Password, auth.Metadata{Name: req.Name})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicateAccount):
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("Email already registered"))
		case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidEmail):
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse(err.Error()))
		default:
			h.log.Error("sign up failed", zap.String("email", req.Email), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to create account"))
		}
		return
	}

	if res.RequiresConfirmation || res.Session == nil {
		writeJSON(w, http.StatusCreated, models.NewSuccessResponse(models.AuthResponse{
			RequiresConfirmation: true,
		}))
		return
	}

	// Optional sign-up form fields are stored right away so the profile
	// setup screen starts pre-filled.
	if upd := signUpProfileFields(&req); upd != nil {
		defaults := services.ProfileDefaults{Email: res.Session.Email, Name: req.Name}
		if _, err := h.profiles.Upsert(ctx, res.Session.UserID, defaults, upd); err != nil {
			h.log.Warn("storing sign-up profile fields failed",
				zap.String("user_id", res.Session.UserID), zap.Error(err))
		}
	}

	prof := h.resolver.Resolve(ctx, res.Session)
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(models.AuthResponse{
		Token:   res.Session.Token,
		Profile: prof,
	}))
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	sess, err := h.provider.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			// One generic provider error for unknown accounts and wrong
			// passwords. A profile lookup tells the two apart.
			if _, lookupErr := h.profiles.GetByEmail(ctx, req.Email); errors.Is(lookupErr, services.ErrProfileNotFound) {
				writeJSON(w, http.StatusNotFound, models.NewErrorResponse("No account found with this email"))
			} else {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Incorrect password"))
			}
		case errors.Is(err, auth.ErrEmailNotConfirmed):
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Please confirm your email before signing in"))
		case errors.Is(err, auth.ErrTooManyAttempts):
			writeJSON(w, http.StatusTooManyRequests, models.NewErrorResponse("Too many sign-in attempts, try again later"))
		default:
			h.log.Error("sign in failed", zap.String("email", req.Email), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Sign in failed"))
		}
		return
	}

	prof := h.resolver.Resolve(ctx, sess)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.AuthResponse{
		Token:   sess.Token,
		Profile: prof,
	}))
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	// Succeeds whether or not the email is registered.
	if err := h.provider.ResetPasswordForEmail(ctx, req.Email); err != nil {
		h.log.Error("password reset failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to send reset email"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{
		"message": "If an account exists for that email, a reset link has been sent",
	}))
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.provider.SignOut(ctx); err != nil {
		// Sign-out is best effort; the client has already dropped its token.
		h.log.Warn("provider sign-out failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(nil))
}

// Session returns the verified session and its resolved profile.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	prof := h.resolver.Resolve(ctx, sess)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.AuthResponse{
		Token:   sess.Token,
		Profile: prof,
	}))
}

// FederatedURL returns the redirect entry point for an external identity
// provider such as Google.
func (h *AuthHandler) FederatedURL(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	redirect, err := h.provider.FederatedSignInURL(name)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Unsupported sign-in provider"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"url": redirect}))
}

func signUpProfileFields(req *models.SignUpRequest) *models.UpdateProfileRequest {
	upd := &models.UpdateProfileRequest{}
	set := false
	if req.DateOfBirth != "" {
		upd.DateOfBirth = &req.DateOfBirth
		set = true
	}
	if req.Gender != "" {
		upd.Gender = &req.Gender
		set = true
	}
	if req.SchoolOrJob != "" {
		upd.SchoolOrJob = &req.SchoolOrJob
		set = true
	}
	if req.Location != "" {
		upd.Location = &req.Location
		set = true
	}
	if req.Bio != "" {
		upd.Bio = &req.Bio
		set = true
	}
	if !set {
		return nil
	}
	return upd
}
