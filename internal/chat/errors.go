package chat

import "errors"

var (
	// ErrEmptyMessage is returned when a turn is submitted without text
	ErrEmptyMessage = errors.New("message text is required")

	// ErrInvalidSessionID is returned for ids that are not safe file names
	ErrInvalidSessionID = errors.New("invalid session id")

	// ErrSessionForbidden is returned when a user addresses a session owned
	// by someone else
	ErrSessionForbidden = errors.New("session belongs to another user")

	// ErrInvalidUsername is returned for usernames that cannot own sessions
	ErrInvalidUsername = errors.New("invalid username")

	// ErrModelRequest wraps failures from the hosted model API
	ErrModelRequest = errors.New("model request failed")
)
