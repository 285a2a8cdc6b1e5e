// Package handler implements the HTTP endpoints of the menu API.  Handlers
// parse and validate input, consult the auth package for access decisions
// and delegate persistence to the repositories.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/arunika0/menu/internal/auth"
	"github.com/arunika0/menu/internal/logger"
	"github.com/arunika0/menu/internal/repository"
	"github.com/arunika0/menu/internal/storage"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// inputError is a client mistake reported as 400 with its text.
type inputError string

func (e inputError) Error() string { return string(e) }

// respondError writes the JSON error response for err.  Errors without a
// known sentinel are logged and reported as a generic 500.
func respondError(c echo.Context, err error) error {
	status, msg := http.StatusInternalServerError, "internal server error"
	var input inputError
	switch {
	case errors.As(err, &input):
		status, msg = http.StatusBadRequest, input.Error()
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, auth.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, auth.ErrBadRequest), errors.Is(err, auth.ErrInvalidCredentials):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, storage.ErrTooLarge), errors.Is(err, storage.ErrUnsupportedType):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, repository.ErrConflict):
		status, msg = http.StatusConflict, "already exists"
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "request timed out"
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(c).Error("request failed", zap.Error(err))
	}
	return c.JSON(status, echo.Map{"error": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// queryUint reads the first present query parameter among names.  A
// missing or empty parameter yields nil; a malformed one yields ok=false.
func queryUint(c echo.Context, names ...string) (v *uint64, ok bool) {
	for _, name := range names {
		raw := strings.TrimSpace(c.QueryParam(name))
		if raw == "" {
			continue
		}
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, false
		}
		return &n, true
	}
	return nil, true
}

// trimmed returns nil for nil or blank input.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func deleted(c echo.Context, what string) error {
	return c.JSON(http.StatusOK, echo.Map{"message": what + " deleted successfully"})
}
