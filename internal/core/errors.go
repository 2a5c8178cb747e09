package core

import (
	"errors"
	"net/http"
	"strings"

	"github.com/example/onlinetravel/internal/identity"
)

var (
	// ErrSessionExpired is returned by AutoLogin when there is no cached
	// session or the cached token no longer works.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidShareURL is returned for urls that were not built by ShareURL
	// for this backend domain.
	ErrInvalidShareURL = errors.New("invalid url")
	// ErrNotAuthenticated is returned by Session operations that need a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrMissingID is returned when an entity that must already exist has no id.
	ErrMissingID = errors.New("entity has no id")
)

// AuthErrorKind classifies a failed login or registration.
type AuthErrorKind int

const (
	// ServiceError covers every failure that is not a rejected credential.
	ServiceError AuthErrorKind = iota
	BadCredentials
	DuplicateAccount
)

func (k AuthErrorKind) String() string {
	switch k {
	case BadCredentials:
		return "bad credentials"
	case DuplicateAccount:
		return "duplicate account"
	default:
		return "service"
	}
}

// AuthError carries a message suitable for the user plus the provider error.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	Cause   error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Cause }

// authError maps a provider failure. A 400 response means the credentials
// were rejected; any other failure keeps the provider message up to the first
// url it contains.
func authError(err error, rejected AuthErrorKind, rejectedMsg string) *AuthError {
	if identity.Status(err) == http.StatusBadRequest {
		return &AuthError{Kind: rejected, Message: rejectedMsg, Cause: err}
	}
	msg, _, _ := strings.Cut(err.Error(), "http")
	return &AuthError{Kind: ServiceError, Message: msg + "...", Cause: err}
}
