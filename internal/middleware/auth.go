package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/auth"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
)

type contextKey string

const sessionKey contextKey = "session"

// BearerAuth validates the Authorization bearer token against the auth
// provider and stores the verified session in the request context.
func BearerAuth(provider auth.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Authorization header required"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid authorization header format"))
				return
			}

			sess, err := provider.VerifyToken(r.Context(), parts[1])
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession returns the verified session stored by BearerAuth, or nil.
func GetSession(ctx context.Context) *auth.Session {
	sess, ok := ctx.Value(sessionKey).(*auth.Session)
	if !ok {
		return nil
	}
	return sess
}

// GetUserID extracts the authenticated user id from context.
func GetUserID(ctx context.Context) string {
	if sess := GetSession(ctx); sess != nil {
		return sess.UserID
	}
	return ""
}

// GetUserEmail extracts the authenticated email from context.
func GetUserEmail(ctx context.Context) string {
	if sess := GetSession(ctx); sess != nil {
		return sess.Email
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
