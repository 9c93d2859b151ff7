package intake

import "errors"

var (
	// ErrRecordNotFound is returned when no submission exists for the lookup
	ErrRecordNotFound = errors.New("contact record not found")
)
