package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"

	"github.com/ledgerlink/ledgerlink-backend/internal/models"
	"github.com/ledgerlink/ledgerlink-backend/pkg/helpers"
)

type fakeVerifier struct {
	token *auth.Token
	err   error
}

func (f *fakeVerifier) VerifyIDToken(_ context.Context, _ string) (*auth.Token, error) {
	return f.token, f.err
}

type fakeDirectory struct {
	user   *models.User
	err    error
	emails []string
}

func (f *fakeDirectory) FindOrCreateByEmail(_ context.Context, email string) (*models.User, error) {
	f.emails = append(f.emails, email)
	return f.user, f.err
}

func tokenWithEmail(email string) *auth.Token {
	return &auth.Token{Claims: map[string]interface{}{"email": email}}
}

func runAuthenticate(t *testing.T, m *Middleware, authorization string) (*httptest.ResponseRecorder, *models.User) {
	t.Helper()

	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = User(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req = req.WithContext(helpers.TestCtx())
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	m.Authenticate(next).ServeHTTP(rec, req)
	return rec, seen
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return body["error"]
}

func TestAuthenticateSuccess(t *testing.T) {
	directory := &fakeDirectory{user: &models.User{ID: "u-1", Email: "a@b.co", Active: true}}
	m := NewMiddleware(&fakeVerifier{token: tokenWithEmail("a@b.co")}, directory)

	rec, seen := runAuthenticate(t, m, "Bearer good-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen == nil || seen.ID != "u-1" {
		t.Fatalf("authenticated user not in context: %+v", seen)
	}
	if len(directory.emails) != 1 || directory.emails[0] != "a@b.co" {
		t.Fatalf("directory lookup calls: %#v", directory.emails)
	}
}

func TestAuthenticateMissingHeader(t *testing.T) {
	m := NewMiddleware(&fakeVerifier{}, &fakeDirectory{})

	rec, _ := runAuthenticate(t, m, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	m := NewMiddleware(&fakeVerifier{}, &fakeDirectory{})

	for _, header := range []string{"good-token", "Basic abc", "Bearer"} {
		rec, _ := runAuthenticate(t, m, header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	m := NewMiddleware(&fakeVerifier{err: errors.New("expired")}, &fakeDirectory{})

	rec, _ := runAuthenticate(t, m, "Bearer stale-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateNoEmailClaim(t *testing.T) {
	m := NewMiddleware(&fakeVerifier{token: &auth.Token{Claims: map[string]interface{}{}}}, &fakeDirectory{})

	rec, _ := runAuthenticate(t, m, "Bearer good-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateInactiveUser(t *testing.T) {
	// A deactivated user still holds a valid identity token; the gate must
	// treat them as unauthenticated.
	directory := &fakeDirectory{user: &models.User{ID: "u-1", Email: "a@b.co", Active: false}}
	m := NewMiddleware(&fakeVerifier{token: tokenWithEmail("a@b.co")}, directory)

	rec, seen := runAuthenticate(t, m, "Bearer good-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if errorBody(t, rec) != "account disabled" {
		t.Fatalf("error = %q", errorBody(t, rec))
	}
	if seen != nil {
		t.Fatalf("handler must not run for a disabled user")
	}
}

func TestAuthenticateDirectoryFailure(t *testing.T) {
	directory := &fakeDirectory{err: errors.New("firestore down")}
	m := NewMiddleware(&fakeVerifier{token: tokenWithEmail("a@b.co")}, directory)

	rec, _ := runAuthenticate(t, m, "Bearer good-token")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	m := NewMiddleware(&fakeVerifier{}, &fakeDirectory{})
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name       string
		user       *models.User
		wantStatus int
		wantError  string
	}{
		{"admin passes", &models.User{ID: "u-1", IsAdmin: true, Active: true}, http.StatusOK, ""},
		{"non-admin forbidden", &models.User{ID: "u-2", Active: true}, http.StatusForbidden, "admin_required"},
		{"no user unauthorized", nil, http.StatusUnauthorized, "unauthorized"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
			ctx := helpers.TestCtx()
			if tc.user != nil {
				ctx = context.WithValue(ctx, UserKey, tc.user)
			}
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()
			m.RequireAdmin(next).ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantError != "" && errorBody(t, rec) != tc.wantError {
				t.Fatalf("error = %q, want %q", errorBody(t, rec), tc.wantError)
			}
		})
	}
}

func TestUIDHelper(t *testing.T) {
	if got := UID(context.Background()); got != "" {
		t.Fatalf("UID on empty context = %q, want empty", got)
	}
	ctx := context.WithValue(context.Background(), UserKey, &models.User{ID: "u-9"})
	if got := UID(ctx); got != "u-9" {
		t.Fatalf("UID = %q, want u-9", got)
	}
}
