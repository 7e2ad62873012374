package storage

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotOwner           = errors.New("you do not own this product")
	ErrListingNotFound    = errors.New("product not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports malformed or missing input. Nothing is written
// when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DenialError is a business rule refusal. Reason is meant for end users.
type DenialError struct {
	Reason string
}

func (e *DenialError) Error() string {
	return e.Reason
}
