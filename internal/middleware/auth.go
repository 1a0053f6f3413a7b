package middleware

import (
	"context"
	"net/http"
	"strings"

	"gitlab.tepseg.com/ai/imagegen-backend/internal/auth"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserID returns the authenticated account id stored by AuthMiddleware,
// or "" on unprotected routes.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// AuthMiddleware enforces the bearer session token on protected routes.
// A missing token is 401, a present-but-unverifiable one is 403.
type AuthMiddleware struct {
	sessions *auth.SessionManager
}

func NewAuthMiddleware(sessions *auth.SessionManager) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || token == "" || token == header {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Access token required"})
			return
		}

		userID, err := m.sessions.Verify(token)
		if err != nil {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
