package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/knitec/iq-platform/internal/identity"
	"github.com/knitec/iq-platform/pkg/logging"
)

const (
	defaultCookieName = "knitec_iq_auth"
	defaultExpiryDays = 30
)

// sessionClaims carries the display name alongside the registered subject.
type sessionClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Service checks passwords against the credentials file and issues signed
// session tokens.
type Service struct {
	creds  *Credentials
	secret []byte
	expiry time.Duration
	logger *logging.Logger
}

// NewService builds a Service from loaded credentials. A non-empty
// secretOverride replaces the cookie key from the file.
func NewService(creds *Credentials, secretOverride string, logger *logging.Logger) (*Service, error) {
	if logger == nil {
		logger = logging.Default()
	}

	secret := creds.Cookie.Key
	if secretOverride != "" {
		secret = secretOverride
	}
	if secret == "" {
		return nil, ErrNoSigningKey
	}

	expiryDays := creds.Cookie.ExpiryDays
	if expiryDays <= 0 {
		expiryDays = defaultExpiryDays
	}

	return &Service{
		creds:  creds,
		secret: []byte(secret),
		expiry: time.Duration(expiryDays) * 24 * time.Hour,
		logger: logger,
	}, nil
}

// Login verifies the password for username and returns a signed session
// token. Unknown users and wrong passwords both come back as
// ErrInvalidCredentials so callers cannot probe for accounts.
func (s *Service) Login(username, password string) (string, identity.User, error) {
	entry, ok := s.creds.user(username)
	if !ok {
		return "", identity.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(entry.Password), []byte(password)); err != nil {
		return "", identity.User{}, ErrInvalidCredentials
	}

	now := time.Now()
	claims := sessionClaims{
		Name: entry.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", identity.User{}, fmt.Errorf("sign session token: %w", err)
	}

	return signed, identity.User{Username: username, Name: entry.Name}, nil
}

// Verify parses a session token and resolves the signed-in user. Tokens for
// accounts that have since been removed from the credentials file are
// rejected.
func (s *Service) Verify(tokenStr string) (identity.User, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return identity.User{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return identity.User{}, ErrInvalidToken
	}
	if _, ok := s.creds.user(claims.Subject); !ok {
		return identity.User{}, ErrInvalidToken
	}
	return identity.User{Username: claims.Subject, Name: claims.Name}, nil
}

// CookieName is the session cookie the handler sets and the middleware reads.
func (s *Service) CookieName() string {
	if s.creds.Cookie.Name != "" {
		return s.creds.Cookie.Name
	}
	return defaultCookieName
}

// Expiry is how long issued session tokens stay valid.
func (s *Service) Expiry() time.Duration {
	return s.expiry
}
