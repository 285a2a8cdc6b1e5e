package handler

import (
	"math"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/arunika0/menu/internal/auth"
	"github.com/arunika0/menu/internal/events"
	"github.com/arunika0/menu/internal/middleware"
	"github.com/arunika0/menu/internal/model"
	"github.com/arunika0/menu/internal/repository"
	"github.com/arunika0/menu/internal/storage"
)

// MenuHandler serves menu items.  Every write checks ownership of the item
// and that the referenced category belongs to the same restaurant.
type MenuHandler struct {
	Menu       *repository.MenuRepo
	Categories *repository.CategoryRepo
	Files      storage.FileStore
	Notify     *Notifier
}

type menuReq struct {
	Name         string   `json:"name"`
	Price        *float64 `json:"price"`
	Description  *string  `json:"description"`
	Image        *string  `json:"image"`
	CategoryID   *uint64  `json:"category_id"`
	RestaurantID *uint64  `json:"restaurant_id"`
}

func (r menuReq) toModel() (model.MenuItem, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" || r.Price == nil || r.CategoryID == nil {
		return model.MenuItem{}, inputError("name, price and category_id are required")
	}
	if *r.Price <= 0 || math.IsInf(*r.Price, 0) || math.IsNaN(*r.Price) {
		return model.MenuItem{}, inputError("price must be greater than zero")
	}
	category := *r.CategoryID
	return model.MenuItem{
		Name:        name,
		Price:       *r.Price,
		Description: trimmed(r.Description),
		Image:       trimmed(r.Image),
		CategoryID:  &category,
	}, nil
}

// List supports ?restaurant_id= (alias ?tenant_id=) and ?category_id=.  A
// restaurant_admin is always limited to its own restaurant.
func (h *MenuHandler) List(c echo.Context) error {
	requested, ok := queryUint(c, "restaurant_id", "tenant_id")
	if !ok {
		return badRequest(c, "invalid restaurant_id")
	}
	category, ok := queryUint(c, "category_id")
	if !ok {
		return badRequest(c, "invalid category_id")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := h.Menu.List(ctx, repository.MenuFilter{
		RestaurantID: auth.ScopeList(middleware.IdentityFrom(c), requested),
		CategoryID:   category,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *MenuHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	item, err := h.Menu.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) Create(c echo.Context) error {
	var req menuReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	item, err := req.toModel()
	if err != nil {
		return respondError(c, err)
	}

	id := middleware.IdentityFrom(c)
	tenant, err := auth.ResolveTenant(id, req.RestaurantID)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := auth.CheckCategoryTenant(ctx, h.Categories, *item.CategoryID, tenant); err != nil {
		return respondError(c, err)
	}
	item.RestaurantID = tenant
	if err := h.Menu.Create(ctx, &item); err != nil {
		return respondError(c, err)
	}

	created, err := h.Menu.GetByID(ctx, item.ID)
	if err != nil {
		return respondError(c, err)
	}
	h.Notify.changed(c, menuEvent(events.ActionCreated, created))
	return c.JSON(http.StatusCreated, created)
}

// Update replaces all mutable fields.  The item stays with its restaurant;
// a replaced image is removed from the file store on a best-effort basis
// once no other row references it.
func (h *MenuHandler) Update(c echo.Context) error {
	itemID, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req menuReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	item, err := req.toModel()
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	old, err := h.Menu.GetByID(ctx, itemID)
	if err != nil {
		return respondError(c, err)
	}
	if err := auth.Authorize(middleware.IdentityFrom(c), nil, &old.RestaurantID); err != nil {
		return respondError(c, err)
	}
	if req.RestaurantID != nil && *req.RestaurantID != old.RestaurantID {
		return badRequest(c, "restaurant_id cannot be changed")
	}
	if err := auth.CheckCategoryTenant(ctx, h.Categories, *item.CategoryID, old.RestaurantID); err != nil {
		return respondError(c, err)
	}

	item.ID = itemID
	item.RestaurantID = old.RestaurantID
	if err := h.Menu.Update(ctx, item); err != nil {
		return respondError(c, err)
	}
	if old.Image != nil && (item.Image == nil || *item.Image != *old.Image) {
		removeImage(c, h.Files, h.Menu, *old.Image)
	}

	updated, err := h.Menu.GetByID(ctx, itemID)
	if err != nil {
		return respondError(c, err)
	}
	h.Notify.changed(c, menuEvent(events.ActionUpdated, updated))
	return c.JSON(http.StatusOK, updated)
}

func (h *MenuHandler) Delete(c echo.Context) error {
	itemID, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	old, err := h.Menu.GetByID(ctx, itemID)
	if err != nil {
		return respondError(c, err)
	}
	if err := auth.Authorize(middleware.IdentityFrom(c), nil, &old.RestaurantID); err != nil {
		return respondError(c, err)
	}
	if err := h.Menu.Delete(ctx, itemID); err != nil {
		return respondError(c, err)
	}
	if old.Image != nil {
		removeImage(c, h.Files, h.Menu, *old.Image)
	}
	h.Notify.changed(c, menuEvent(events.ActionDeleted, old))
	return deleted(c, "menu item")
}

func menuEvent(action string, m model.MenuItem) events.CatalogEvent {
	ev := events.NewCatalogEvent(events.EntityMenuItem, action, m.ID)
	ev.RestaurantID = m.RestaurantID
	ev.Name = m.Name
	return ev
}
