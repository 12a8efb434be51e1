// Package apple implements the Sign in with Apple embedded-browser flow: it watches
// the webview navigation for the redirect URI, injects the form collector script
// and classifies the posted form data into a single Result.
package apple

import (
	"errors"
	"fmt"
)

// AuthenticationError represents a terminal failure of an authentication attempt.
type AuthenticationError struct {
	// Type is the machine readable failure class.
	Type string `json:"type"`
	// Message is a human-readable message describing the error.
	Message string `json:"message"`
	// Cause is the underlying error, if any.
	Cause error `json:"-"`
}

// Error returns a string representation of the authentication error.
func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AuthenticationError of the same type, so
// errors.Is(err, ErrStateMismatch) works for errors built by NewAuthenticationError.
func (e *AuthenticationError) Is(target error) bool {
	var other *AuthenticationError
	if !errors.As(target, &other) {
		return false
	}
	return other.Type == e.Type
}

// Failure classes.
var (
	// ErrProviderError is reported when Apple answers with an error other than a user cancel.
	ErrProviderError = &AuthenticationError{
		Type:    "provider_error",
		Message: "Apple reported an error",
	}

	// ErrMalformedResponse is reported when the form data lacks the state and/or code fields.
	ErrMalformedResponse = &AuthenticationError{
		Type:    "malformed_response",
		Message: "response is missing required fields: state and/or code",
	}

	// ErrStateMismatch is reported when the returned state differs from the expected one.
	ErrStateMismatch = &AuthenticationError{
		Type:    "state_mismatch",
		Message: "state mismatch: response state does not match the expected state",
	}
)

// NewAuthenticationError creates a new authentication error with a cause based on a base error.
func NewAuthenticationError(baseErr *AuthenticationError, cause error) *AuthenticationError {
	return &AuthenticationError{
		Type:    baseErr.Type,
		Message: baseErr.Message,
		Cause:   cause,
	}
}

// newProviderError embeds the raw provider error value in the message.
func newProviderError(value string) *AuthenticationError {
	return &AuthenticationError{
		Type:    ErrProviderError.Type,
		Message: fmt.Sprintf("Apple error: %s", value),
	}
}

// IsAuthenticationError checks if an error is an authentication error.
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// GetUserFriendlyMessage returns a user-friendly message for a failed attempt.
func GetUserFriendlyMessage(err error) string {
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		return "An unexpected error occurred. Please try again."
	}
	switch authErr.Type {
	case ErrProviderError.Type:
		return fmt.Sprintf("Apple could not complete the sign in (%s). Please try again.", authErr.Message)
	case ErrMalformedResponse.Type:
		return "Apple returned an incomplete response. Please try again."
	case ErrStateMismatch.Type:
		return "The sign in response could not be verified. Please start a new sign in."
	default:
		return "Authentication failed. Please try again."
	}
}
