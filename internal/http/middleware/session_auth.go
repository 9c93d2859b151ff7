package middleware

import (
	"net/http"
	"strings"

	"github.com/knitec/iq-platform/internal/identity"
)

// SessionVerifier checks a signed session token and resolves the user it
// belongs to.
type SessionVerifier interface {
	Verify(token string) (identity.User, error)
	CookieName() string
}

// SessionAuth enforces a signed session on protected endpoints. The token is
// read from the Authorization header first and the session cookie second, so
// fetch calls and WebSocket upgrades authenticate the same way.
func SessionAuth(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if cookie, err := r.Cookie(verifier.CookieName()); err == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			user, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, "invalid session", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
