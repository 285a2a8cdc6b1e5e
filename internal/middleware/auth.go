// Package middleware provides the Echo middleware shared by the API routes:
// bearer authentication, role gates, the Redis response cache and the
// Redis token bucket.
package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/arunika0/menu/internal/auth"
	"github.com/arunika0/menu/internal/logger"
	"github.com/arunika0/menu/internal/model"
)

const identityKey = "identity"

// Authenticate verifies the Authorization header.  In Mandatory mode a
// missing or bad token ends the request with 401; in Optional mode the
// request continues anonymously.  A verified identity is stored in the
// context and tagged onto the request logger.
func Authenticate(a *auth.Authenticator, mode auth.Mode) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := a.Verify(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				if mode == auth.Optional {
					return next(c)
				}
				logger.FromContext(c).Debug("authentication failed", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": authMessage(err)})
			}

			c.Set(identityKey, &id)
			logger.With(c, zap.Uint64("user_id", id.UserID), zap.String("role", string(id.Role)))
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by Authenticate, or nil for
// anonymous requests.
func IdentityFrom(c echo.Context) *model.Identity {
	id, _ := c.Get(identityKey).(*model.Identity)
	return id
}

func authMessage(err error) string {
	if errors.Is(err, auth.ErrMissingToken) {
		return auth.ErrMissingToken.Error()
	}
	return auth.ErrInvalidToken.Error()
}
