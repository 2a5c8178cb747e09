// Package identity talks to the email/password identity provider. It never
// implements the authentication protocol itself for the Firebase backend; the
// Local provider exists so the in-memory backend can run without a network.
package identity

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// Account is a signed-in identity.
type Account struct {
	UID   string
	Token string
	Email string
}

// Provider creates credentials and exchanges them for bearer tokens.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Account, error)
	SignUp(ctx context.Context, email, password string) (Account, error)
	// Lookup resolves a previously issued token; it fails once the token is stale.
	Lookup(ctx context.Context, token string) (Account, error)
}

// StatusError carries the provider's response status. Code is 0 when the
// request never got a response.
type StatusError struct {
	Code    int
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	if e.Code == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error { return e.Err }

// statusError converts a transport error into a StatusError.
func statusError(err error) error {
	if err == nil {
		return nil
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = gerr.Error()
		}
		return &StatusError{Code: gerr.Code, Message: msg, Err: err}
	}
	return &StatusError{Message: err.Error(), Err: err}
}

// Status returns the provider status code carried by err, or 0.
func Status(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
