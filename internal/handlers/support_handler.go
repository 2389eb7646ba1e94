package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/middleware"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/services"
)

type SupportHandler struct {
	recaptcha  *services.RecaptchaVerifier
	mailer     *services.SendGridMailer
	flags      services.FlagService
	trustProxy bool
	log        *zap.Logger
}

func NewSupportHandler(recaptcha *services.RecaptchaVerifier, mailer *services.SendGridMailer, flags services.FlagService, trustProxy bool, log *zap.Logger) *SupportHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SupportHandler{recaptcha: recaptcha, mailer: mailer, flags: flags, trustProxy: trustProxy, log: log}
}

type supportRequestBody struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Message        string `json:"message"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// SubmitSupportRequest handles the public contact form. It is unauthenticated,
// so submissions are gated by reCAPTCHA.
func (h *SupportHandler) SubmitSupportRequest(w http.ResponseWriter, r *http.Request) {
	var req supportRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	msg := strings.TrimSpace(req.Message)
	token := strings.TrimSpace(req.RecaptchaToken)

	errors := map[string]string{}
	if name == "" {
		errors["name"] = "Name is required"
	} else if len(name) > 120 {
		errors["name"] = "Name is too long"
	}

	if email == "" {
		errors["email"] = "Email is required"
	} else if len(email) > 254 {
		errors["email"] = "Email is too long"
	} else if _, err := mail.ParseAddress(email); err != nil {
		errors["email"] = "Email is invalid"
	}

	if msg == "" {
		errors["message"] = "Message is required"
	} else if len(msg) > 4000 {
		errors["message"] = "Message is too long"
	}

	if token == "" {
		errors["recaptchaToken"] = "reCAPTCHA token is required"
	}

	if len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	remoteIP := clientIP(r, h.trustProxy)

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	verdict, err := h.recaptcha.Verify(ctx, token, remoteIP)
	if err != nil {
		h.log.Error("recaptcha verification errored", zap.String("ip", remoteIP), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to verify reCAPTCHA"))
		return
	}
	if !verdict.OK {
		h.log.Warn("recaptcha verification failed", zap.String("ip", remoteIP), zap.String("reason", verdict.Reason))
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse("reCAPTCHA verification failed"))
		return
	}

	ticket := generateSupportTicket()
	if err := h.mailer.SendSupportEmail(ctx, ticket, name, email, msg); err != nil {
		h.log.Error("support email send failed", zap.String("ticket", ticket), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to send support request"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{
		"ticket": ticket,
	}))
}

// ReportUser records a strike against the reported user and alerts the
// support inbox.
func (h *SupportHandler) ReportUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	targetID := chi.URLParam(r, "userId")
	if targetID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing userId"))
		return
	}
	if targetID == userID {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Cannot report yourself"))
		return
	}

	var req models.ReportUserBody
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

	flag, err := h.flags.AddStrike(ctx, targetID)
	if err != nil {
		h.log.Error("recording report failed", zap.String("target", targetID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to record report"))
		return
	}

	if h.mailer != nil {
		reason := req.Reason
		if req.Message != "" {
			reason = reason + "\n\n" + req.Message
		}
		if err := h.mailer.SendReportAlert(ctx, targetID, flag.Strikes, reason); err != nil {
			h.log.Warn("report alert email failed", zap.String("target", targetID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(flag))
}

func generateSupportTicket() string {
	// Example: SK-20260131-032508-A1B2C3D4
	now := time.Now().UTC().Format("20060102-150405")
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	if len(id) > 8 {
		id = id[:8]
	}
	return "SK-" + now + "-" + id
}
