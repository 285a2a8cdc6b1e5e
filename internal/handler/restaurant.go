package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/arunika0/menu/internal/auth"
	"github.com/arunika0/menu/internal/events"
	"github.com/arunika0/menu/internal/logger"
	"github.com/arunika0/menu/internal/middleware"
	"github.com/arunika0/menu/internal/model"
	"github.com/arunika0/menu/internal/repository"
	"github.com/arunika0/menu/internal/storage"
)

// RestaurantHandler serves the restaurant (tenant) resource.  Writes are
// super_admin only; the route group enforces that.
type RestaurantHandler struct {
	Restaurants *repository.RestaurantRepo
	Menu        *repository.MenuRepo
	Files       storage.FileStore
	Notify      *Notifier
}

type restaurantReq struct {
	Name        string  `json:"name"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
}

func (r restaurantReq) toModel() (model.Restaurant, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return model.Restaurant{}, inputError("name is required")
	}
	return model.Restaurant{
		Name:        name,
		Address:     trimmed(r.Address),
		Description: trimmed(r.Description),
		Image:       trimmed(r.Image),
	}, nil
}

// List returns every restaurant, except that a restaurant_admin only sees
// its own.
func (h *RestaurantHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Restaurants.List(ctx, auth.ScopeList(middleware.IdentityFrom(c), nil))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *RestaurantHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	rest, err := h.Restaurants.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rest)
}

func (h *RestaurantHandler) Create(c echo.Context) error {
	var req restaurantReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	rest, err := req.toModel()
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Restaurants.Create(ctx, &rest); err != nil {
		return respondError(c, err)
	}
	h.Notify.changed(c, restaurantEvent(events.ActionCreated, rest))
	return c.JSON(http.StatusCreated, rest)
}

// Update replaces all fields.  A replaced image is removed from the file
// store on a best-effort basis once no other row references it.
func (h *RestaurantHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req restaurantReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	rest, err := req.toModel()
	if err != nil {
		return respondError(c, err)
	}
	rest.ID = id

	ctx, cancel := requestContext(c)
	defer cancel()

	old, err := h.Restaurants.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Restaurants.Update(ctx, rest); err != nil {
		return respondError(c, err)
	}
	if old.Image != nil && (rest.Image == nil || *rest.Image != *old.Image) {
		removeImage(c, h.Files, h.Restaurants, *old.Image)
	}
	h.Notify.changed(c, restaurantEvent(events.ActionUpdated, rest))
	return c.JSON(http.StatusOK, rest)
}

// Delete removes the restaurant with its categories, menu items and admin
// accounts, then the images they referenced.
func (h *RestaurantHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	old, err := h.Restaurants.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	var images []string
	if h.Menu != nil {
		if images, err = h.Menu.ImagesOf(ctx, id); err != nil {
			return respondError(c, err)
		}
	}
	if old.Image != nil {
		images = append(images, *old.Image)
	}
	if err := h.Restaurants.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	for _, ref := range images {
		removeImage(c, h.Files, h.Restaurants, ref)
	}
	h.Notify.changed(c, restaurantEvent(events.ActionDeleted, old))
	return deleted(c, "restaurant")
}

func restaurantEvent(action string, r model.Restaurant) events.CatalogEvent {
	ev := events.NewCatalogEvent(events.EntityRestaurant, action, r.ID)
	ev.RestaurantID = r.ID
	ev.Name = r.Name
	return ev
}

// imageRefs tells whether an image URL is still referenced by some row.
type imageRefs interface {
	ImageInUse(ctx context.Context, ref string) (bool, error)
}

// removeImage deletes a stored image unless another restaurant or menu item
// still uses it.  Failures are only logged.
func removeImage(c echo.Context, files storage.FileStore, refs imageRefs, ref string) {
	if files == nil {
		return
	}
	ctx := c.Request().Context()
	log := logger.FromContext(c)
	used, err := refs.ImageInUse(ctx, ref)
	if err != nil {
		log.Warn("check image references failed", zap.String("ref", ref), zap.Error(err))
		return
	}
	if used {
		return
	}
	if err := files.Delete(ctx, ref); err != nil {
		log.Warn("remove image failed", zap.String("ref", ref), zap.Error(err))
	}
}
