package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/knitec/iq-platform/internal/identity"
)

type stubVerifier struct {
	user      identity.User
	err       error
	lastToken string
}

func (v *stubVerifier) Verify(token string) (identity.User, error) {
	v.lastToken = token
	if v.err != nil {
		return identity.User{}, v.err
	}
	return v.user, nil
}

func (v *stubVerifier) CookieName() string { return "test_auth" }

func TestSessionAuthMissingCredentials(t *testing.T) {
	mw := SessionAuth(&stubVerifier{})
	req := httptest.NewRequest(http.MethodGet, "/chat/sessions", nil)
	rec := httptest.NewRecorder()

	called := false
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rec, req)

	if called {
		t.Fatalf("expected handler to not be called")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestSessionAuthBearerToken(t *testing.T) {
	verifier := &stubVerifier{user: identity.User{Username: "jsmith", Name: "John Smith"}}
	mw := SessionAuth(verifier)

	req := httptest.NewRequest(http.MethodGet, "/chat/sessions", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	rec := httptest.NewRecorder()

	called := false
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := identity.FromContext(r.Context())
		if !ok || user.Username != "jsmith" {
			t.Fatalf("expected the verified user in context, got %+v", user)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if verifier.lastToken != "header-token" {
		t.Fatalf("expected the bearer token to be verified, got %q", verifier.lastToken)
	}
}

func TestSessionAuthCookieToken(t *testing.T) {
	verifier := &stubVerifier{user: identity.User{Username: "jsmith"}}
	mw := SessionAuth(verifier)

	req := httptest.NewRequest(http.MethodGet, "/chat/ws", nil)
	req.AddCookie(&http.Cookie{Name: "test_auth", Value: "cookie-token"})
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if verifier.lastToken != "cookie-token" {
		t.Fatalf("expected the cookie token to be verified, got %q", verifier.lastToken)
	}
}

func TestSessionAuthHeaderWinsOverCookie(t *testing.T) {
	verifier := &stubVerifier{user: identity.User{Username: "jsmith"}}
	mw := SessionAuth(verifier)

	req := httptest.NewRequest(http.MethodGet, "/chat/sessions", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: "test_auth", Value: "cookie-token"})
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if verifier.lastToken != "header-token" {
		t.Fatalf("expected the header token to win, got %q", verifier.lastToken)
	}
}

func TestSessionAuthInvalidToken(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("bad signature")}
	mw := SessionAuth(verifier)

	req := httptest.NewRequest(http.MethodGet, "/chat/sessions", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()

	called := false
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rec, req)

	if called {
		t.Fatalf("expected handler to not be called")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}
