package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/arunika0/menu/internal/auth"
	"github.com/arunika0/menu/internal/events"
	"github.com/arunika0/menu/internal/middleware"
	"github.com/arunika0/menu/internal/model"
	"github.com/arunika0/menu/internal/repository"
)

// CategoryHandler serves categories.  Writes are open to both admin roles
// and are ownership checked per request.
type CategoryHandler struct {
	Categories  *repository.CategoryRepo
	Restaurants *repository.RestaurantRepo
	Notify      *Notifier
}

type categoryReq struct {
	Name         string  `json:"name"`
	RestaurantID *uint64 `json:"restaurant_id"`
}

// List supports ?restaurant_id= (alias ?tenant_id=).  A restaurant_admin
// is always limited to its own restaurant.
func (h *CategoryHandler) List(c echo.Context) error {
	requested, ok := queryUint(c, "restaurant_id", "tenant_id")
	if !ok {
		return badRequest(c, "invalid restaurant_id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Categories.List(ctx, auth.ScopeList(middleware.IdentityFrom(c), requested))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CategoryHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cat, err := h.Categories.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) Create(c echo.Context) error {
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return badRequest(c, "name is required")
	}

	tenant, err := auth.ResolveTenant(middleware.IdentityFrom(c), req.RestaurantID)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	exists, err := h.Restaurants.Exists(ctx, tenant)
	if err != nil {
		return respondError(c, err)
	}
	if !exists {
		return badRequest(c, "unknown restaurant")
	}

	cat := model.Category{Name: name, RestaurantID: tenant}
	if err := h.Categories.Create(ctx, &cat); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "category already exists"})
		}
		return respondError(c, err)
	}
	h.Notify.changed(c, categoryEvent(events.ActionCreated, cat))
	return c.JSON(http.StatusCreated, cat)
}

// Update renames a category.  The owning restaurant cannot change.
func (h *CategoryHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return badRequest(c, "name is required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	cat, err := h.Categories.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if err := auth.Authorize(middleware.IdentityFrom(c), nil, &cat.RestaurantID); err != nil {
		return respondError(c, err)
	}
	if req.RestaurantID != nil && *req.RestaurantID != cat.RestaurantID {
		return badRequest(c, "restaurant_id cannot be changed")
	}

	cat.Name = name
	if err := h.Categories.Rename(ctx, id, name); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "category already exists"})
		}
		return respondError(c, err)
	}
	h.Notify.changed(c, categoryEvent(events.ActionUpdated, cat))
	return c.JSON(http.StatusOK, cat)
}

// Delete removes a category; its menu items remain without a category.
func (h *CategoryHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cat, err := h.Categories.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if err := auth.Authorize(middleware.IdentityFrom(c), nil, &cat.RestaurantID); err != nil {
		return respondError(c, err)
	}
	if err := h.Categories.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	h.Notify.changed(c, categoryEvent(events.ActionDeleted, cat))
	return deleted(c, "category")
}

func categoryEvent(action string, cat model.Category) events.CatalogEvent {
	ev := events.NewCatalogEvent(events.EntityCategory, action, cat.ID)
	ev.RestaurantID = cat.RestaurantID
	ev.Name = cat.Name
	return ev
}
