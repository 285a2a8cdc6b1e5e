package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arunika0/menu/internal/auth"
	"github.com/arunika0/menu/internal/metrics"
	"github.com/arunika0/menu/internal/middleware"
	"github.com/arunika0/menu/internal/model"
)

// AuthHandler serves login and the current identity.
type AuthHandler struct {
	Verifier *auth.Verifier
}

func NewAuthHandler(v *auth.Verifier) *AuthHandler {
	return &AuthHandler{Verifier: v}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Token        string         `json:"token"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Role         model.Role     `json:"role"`
	RestaurantID *uint64        `json:"restaurant_id"`
	User         model.Identity `json:"user"`
}

// Login exchanges a username and password for an access token.  Wrong
// credentials get 400 without saying which part was wrong.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return badRequest(c, "username and password are required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Verifier.Authenticate(ctx, req.Username, req.Password)
	switch {
	case err == nil:
		metrics.LoginAttempts.WithLabelValues("success").Inc()
	case errors.Is(err, auth.ErrInvalidCredentials):
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return respondError(c, err)
	default:
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, loginResp{
		Token:        res.Token,
		ExpiresAt:    res.ExpiresAt,
		Role:         res.Identity.Role,
		RestaurantID: res.Identity.RestaurantID,
		User:         res.Identity,
	})
}

// Me returns the identity carried by the bearer token.
func (h *AuthHandler) Me(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	if id == nil {
		return respondError(c, auth.ErrUnauthorized)
	}
	return c.JSON(http.StatusOK, id)
}
