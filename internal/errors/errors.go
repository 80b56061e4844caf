package errors

import (
	"errors"
	"fmt"
)

// Common error types for the OAuth bridge
var (
	// Request validation errors
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidRequest   = errors.New("invalid request")

	// Signature errors. Callers must not reveal which of the two checks failed.
	ErrInvalidSignature = errors.New("invalid signature")
	ErrStaleTimestamp   = errors.New("request timestamp expired")

	// Session errors
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrWrongTokenUse = errors.New("token type not valid for this use")

	// Company errors
	ErrCompanyNotFound = errors.New("company not found")
	ErrNoRefreshToken  = errors.New("no refresh token stored")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
