package errors

import (
	"errors"
	"fmt"
)

// Common error types for the quiz web client
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no active session")

	// Token errors
	ErrNoAccessToken   = errors.New("refresh response contained no access token")
	ErrNoRefreshToken  = errors.New("no refresh token stored")
	ErrRefreshRejected = errors.New("refresh token rejected")

	// General errors
	ErrNotFound = errors.New("not found")
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
