package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/arunika0/menu/internal/auth"
	"github.com/arunika0/menu/internal/events"
	"github.com/arunika0/menu/internal/model"
	"github.com/arunika0/menu/internal/repository"
)

// UserHandler manages credential records.  All routes are super_admin only.
type UserHandler struct {
	Users       *repository.UserRepo
	Restaurants *repository.RestaurantRepo
	Hasher      auth.Hasher
	Notify      *Notifier
}

type userReq struct {
	Username     string  `json:"username"`
	Password     string  `json:"password"`
	Role         string  `json:"role"`
	RestaurantID *uint64 `json:"restaurant_id"`
}

// minPasswordLen is the shortest password accepted for new credentials.
const minPasswordLen = 8

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Create(c echo.Context) error {
	var req userReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if len(req.Password) < minPasswordLen {
		return badRequest(c, "password must be at least 8 characters")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.validate(ctx, req)
	if err != nil {
		return respondError(c, err)
	}
	hash, err := h.Hasher.Hash(req.Password)
	if err != nil {
		return respondError(c, err)
	}
	u.PasswordHash = hash

	id, err := h.Users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return respondError(c, err)
	}
	u.ID = id

	h.Notify.changed(c, userEvent(events.ActionCreated, u))
	return c.JSON(http.StatusCreated, u)
}

// Update replaces username, role and restaurant.  An empty password keeps
// the current one.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req userReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Password != "" && len(req.Password) < minPasswordLen {
		return badRequest(c, "password must be at least 8 characters")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	current, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	u, err := h.validate(ctx, req)
	if err != nil {
		return respondError(c, err)
	}
	u.ID = id
	u.PasswordHash = current.PasswordHash
	if req.Password != "" {
		if u.PasswordHash, err = h.Hasher.Hash(req.Password); err != nil {
			return respondError(c, err)
		}
	}

	if err := h.Users.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return respondError(c, err)
	}

	h.Notify.changed(c, userEvent(events.ActionUpdated, u))
	return c.JSON(http.StatusOK, u)
}

// validate builds the user described by req.  Input problems come back as
// inputError.
func (h *UserHandler) validate(ctx context.Context, req userReq) (model.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return model.User{}, inputError("username is required")
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return model.User{}, inputError(err.Error())
	}
	if err := model.CheckTenantBinding(role, req.RestaurantID); err != nil {
		return model.User{}, inputError(err.Error())
	}
	if req.RestaurantID != nil {
		exists, err := h.Restaurants.Exists(ctx, *req.RestaurantID)
		if err != nil {
			return model.User{}, err
		}
		if !exists {
			return model.User{}, inputError("unknown restaurant")
		}
	}
	return model.User{Username: username, Role: role, RestaurantID: req.RestaurantID}, nil
}

func userEvent(action string, u model.User) events.CatalogEvent {
	ev := events.NewCatalogEvent(events.EntityUser, action, u.ID)
	ev.Name = u.Username
	if u.RestaurantID != nil {
		ev.RestaurantID = *u.RestaurantID
	}
	return ev
}
