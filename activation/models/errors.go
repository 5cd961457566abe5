package models

import "fmt"

const (
	ReasonRequired = "required"
	ReasonFormat   = "format"
	ReasonRange    = "range"
	ReasonCurrency = "currency"
	ReasonPIN      = "pin"
	ReasonTerms    = "terms"
	ReasonNumeric  = "numeric"

	ReasonMissing   = "missing"
	ReasonMalformed = "malformed"
	ReasonInvalid   = "invalid"
)

// ValidationError reports malformed or out-of-range client input.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthError reports a missing, malformed or rejected credential.
type AuthError struct {
	Reason  string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// PersistenceError wraps a failed store operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
