// Package auth verifies credentials, issues and checks access tokens, and
// decides who may read or change which restaurant's data.
package auth

import (
	"errors"

	"github.com/arunika0/menu/internal/metrics"
)

// Sentinel errors of the authentication and authorization layer.  Handlers
// map them to HTTP statuses with errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("missing bearer token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
)

// DenyError records why an authorization decision failed.  Reason is one
// of the sentinels above and is what errors.Is matches against; Detail is
// the client facing message.
type DenyError struct {
	Reason error
	Detail string
}

func (e *DenyError) Error() string {
	if e.Detail == "" {
		return e.Reason.Error()
	}
	return e.Detail
}

func (e *DenyError) Unwrap() error { return e.Reason }

func deny(reason error, detail string) error {
	metrics.AuthzDenials.WithLabelValues(reason.Error()).Inc()
	return &DenyError{Reason: reason, Detail: detail}
}
