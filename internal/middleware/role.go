package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arunika0/menu/internal/auth"
	"github.com/arunika0/menu/internal/model"
)

// RequireRoles rejects requests whose identity is absent (401) or whose
// role is not in roles (403).  It must run after Authenticate.
func RequireRoles(roles ...model.Role) echo.MiddlewareFunc {
	allowed := model.Roles(roles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := auth.Authorize(IdentityFrom(c), allowed, nil); err != nil {
				status := http.StatusForbidden
				if errors.Is(err, auth.ErrUnauthorized) {
					status = http.StatusUnauthorized
				}
				return c.JSON(status, echo.Map{"error": err.Error()})
			}
			return next(c)
		}
	}
}
