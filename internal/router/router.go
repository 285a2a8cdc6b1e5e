// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/arunika0/menu/internal/auth"
	"github.com/arunika0/menu/internal/handler"
	"github.com/arunika0/menu/internal/metrics"
	"github.com/arunika0/menu/internal/middleware"
	"github.com/arunika0/menu/internal/model"
)

// Deps bundles everything the routes need.
type Deps struct {
	DB            *sql.DB
	Authenticator *auth.Authenticator
	Cache         *middleware.ResponseCache
	LoginLimiter  echo.MiddlewareFunc

	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Restaurants *handler.RestaurantHandler
	Categories  *handler.CategoryHandler
	Menu        *handler.MenuHandler
	Upload      *handler.UploadHandler

	// UploadDir is served read-only under /uploads when set.
	UploadDir string
}

// RegisterRoutes registers every route of the service on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	if d.UploadDir != "" {
		e.Static("/uploads", d.UploadDir)
	}

	api := e.Group("/api")
	registerAuth(api, d)
	registerUsers(api, d)
	registerCatalog(api, d)
}

func registerAuth(api *echo.Group, d Deps) {
	login := []echo.MiddlewareFunc{}
	if d.LoginLimiter != nil {
		login = append(login, d.LoginLimiter)
	}
	api.POST("/login", d.Auth.Login, login...)
	api.GET("/me", d.Auth.Me, middleware.Authenticate(d.Authenticator, auth.Mandatory))
}

func registerUsers(api *echo.Group, d Deps) {
	g := api.Group("/users",
		middleware.Authenticate(d.Authenticator, auth.Mandatory),
		middleware.RequireRoles(model.RoleSuperAdmin),
	)
	g.GET("", d.Users.List)
	g.POST("", d.Users.Create)
	g.PUT("/:id", d.Users.Update)
}
