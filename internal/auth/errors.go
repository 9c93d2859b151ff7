package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for unknown users and wrong passwords alike
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidToken is returned when a session token fails verification
	ErrInvalidToken = errors.New("invalid session token")

	// ErrNoSigningKey is returned when neither the credentials file nor the
	// environment provides a token signing key
	ErrNoSigningKey = errors.New("no session signing key configured")

	// ErrNoUsers is returned when the credentials file defines no accounts
	ErrNoUsers = errors.New("credentials file has no users")
)
