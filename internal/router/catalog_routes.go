package router

import (
	"github.com/labstack/echo/v4"

	"github.com/arunika0/menu/internal/auth"
	"github.com/arunika0/menu/internal/middleware"
	"github.com/arunika0/menu/internal/model"
)

// registerCatalog mounts restaurants, categories, menu items and uploads.
// Listings accept an optional token and are cached per caller scope;
// single-item reads are public; writes need a token and an admin role.
func registerCatalog(api *echo.Group, d Deps) {
	optional := middleware.Authenticate(d.Authenticator, auth.Optional)
	mandatory := middleware.Authenticate(d.Authenticator, auth.Mandatory)
	cached := d.Cache.Middleware()
	superAdmin := middleware.RequireRoles(model.RoleSuperAdmin)
	admins := middleware.RequireRoles(model.RoleSuperAdmin, model.RoleRestaurantAdmin)

	write := func(roles echo.MiddlewareFunc) []echo.MiddlewareFunc {
		return []echo.MiddlewareFunc{mandatory, roles}
	}

	// ---- Restaurants ----
	api.GET("/restaurants", d.Restaurants.List, optional, cached)
	api.GET("/restaurants/:id", d.Restaurants.Get)
	api.POST("/restaurants", d.Restaurants.Create, write(superAdmin)...)
	api.PUT("/restaurants/:id", d.Restaurants.Update, write(superAdmin)...)
	api.DELETE("/restaurants/:id", d.Restaurants.Delete, write(superAdmin)...)

	// ---- Categories ----
	api.GET("/categories", d.Categories.List, optional, cached)
	api.GET("/categories/:id", d.Categories.Get)
	api.POST("/categories", d.Categories.Create, write(admins)...)
	api.PUT("/categories/:id", d.Categories.Update, write(admins)...)
	api.DELETE("/categories/:id", d.Categories.Delete, write(admins)...)

	// ---- Menu items ----
	api.GET("/menu", d.Menu.List, optional, cached)
	api.GET("/menu/:id", d.Menu.Get)
	api.POST("/menu", d.Menu.Create, write(admins)...)
	api.PUT("/menu/:id", d.Menu.Update, write(admins)...)
	api.DELETE("/menu/:id", d.Menu.Delete, write(admins)...)

	// ---- Uploads ----
	api.POST("/upload", d.Upload.Upload, write(admins)...)
}
