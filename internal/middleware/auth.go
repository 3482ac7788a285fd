package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"

	"github.com/ledgerlink/ledgerlink-backend/internal/models"
	"github.com/ledgerlink/ledgerlink-backend/pkg/logger"
)

// TokenVerifier is the identity provider surface the gate needs; satisfied
// by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type userDirectory interface {
	FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error)
}

type Middleware struct {
	Verifier TokenVerifier
	Users    userDirectory
}

func NewMiddleware(verifier TokenVerifier, users userDirectory) *Middleware {
	return &Middleware{Verifier: verifier, Users: users}
}

// context key
type contextKey string

const UserKey contextKey = "user"

// Authenticate verifies the bearer identity token, then re-validates against
// the local directory: the first login provisions the user record (first user
// ever becomes admin), and a deactivated user is treated as unauthenticated
// even though their identity token is still valid. The admin and active
// flags come from the local record, not the token.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeAuthError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeAuthError(w, http.StatusUnauthorized, "invalid Authorization header")
			return
		}

		token, err := m.Verifier.VerifyIDToken(r.Context(), parts[1])
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		email, _ := token.Claims["email"].(string)
		if email == "" {
			writeAuthError(w, http.StatusUnauthorized, "token carries no email claim")
			return
		}

		user, err := m.Users.FindOrCreateByEmail(r.Context(), email)
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error("user lookup failed during authentication", "error", err)
			writeAuthError(w, http.StatusInternalServerError, "authentication failed")
			return
		}
		if !user.Active {
			writeAuthError(w, http.StatusUnauthorized, "account disabled")
			return
		}

		_, ctx := logger.With(r.Context(), "user_id", user.ID)
		ctx = context.WithValue(ctx, UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin layers on Authenticate. The caller is authenticated, so a
// missing admin flag gets a visible denial rather than a login redirect.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := User(r.Context())
		if user == nil {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !user.IsAdmin {
			writeAuthError(w, http.StatusForbidden, "admin_required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// User extracts the authenticated user from context; nil when the request
// did not pass the gate.
func User(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserKey).(*models.User)
	return user
}

// UID returns the authenticated user's id, or empty.
func UID(ctx context.Context) string {
	if user := User(ctx); user != nil {
		return user.ID
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
