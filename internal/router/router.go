// Package router defines how HTTP routes are registered for the API.
package router

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-marketplace/internal/handler"
	"github.com/iliyamo/rental-marketplace/internal/middleware"
	"github.com/iliyamo/rental-marketplace/internal/model"
	"github.com/iliyamo/rental-marketplace/internal/utils"
)

// Handlers is everything the API routes dispatch to.
type Handlers struct {
	Auth     *handler.AuthHandler
	Listings *handler.ListingHandler
	Bookings *handler.BookingHandler
	Users    *handler.UserHandler
}

// RegisterRoutes registers the probes. ready may be nil.
func RegisterRoutes(e *echo.Echo, ready func(context.Context) error) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", handler.Ready(ready))
	}
}

// RegisterAPI mounts /api. Authentication runs before the role check, so a
// missing token is 401 and a wrong role is 403. Ownership is decided by
// the services.
func RegisterAPI(e *echo.Echo, h Handlers, tokens *utils.TokenService, cache *middleware.ResponseCache) {
	authn := middleware.JWTAuth(tokens)
	host := []echo.MiddlewareFunc{authn, middleware.RequireRole(model.RoleHost)}
	guest := []echo.MiddlewareFunc{authn, middleware.RequireRole(model.RoleGuest)}

	api := e.Group("/api")

	// ---- Auth ----
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/logout", h.Auth.Logout)
	api.GET("/auth/me", h.Auth.Me, authn)

	// ---- Listings ----
	api.GET("/listings", h.Listings.List, cache.Middleware())
	api.GET("/listings/:id", h.Listings.Get)
	api.GET("/listings/:id/availability", h.Listings.Availability)
	api.POST("/listings", h.Listings.Create, host...)
	api.PUT("/listings/:id", h.Listings.Update, host...)
	api.DELETE("/listings/:id", h.Listings.Delete, host...)

	// ---- Bookings ----
	api.GET("/bookings", h.Bookings.List, authn)
	api.GET("/bookings/:id", h.Bookings.Get, authn)
	api.POST("/bookings", h.Bookings.Create, guest...)
	api.PUT("/bookings/:id/status", h.Bookings.SetStatus, host...)
	api.DELETE("/bookings/:id", h.Bookings.Cancel, guest...)

	// ---- Users ----
	api.GET("/users", h.Users.List, authn, middleware.RequireRole(model.RoleAdmin))
	api.GET("/users/:id", h.Users.Get, authn)
	api.PUT("/users/:id", h.Users.Update, authn)
	api.DELETE("/users/:id", h.Users.Delete, authn)
}
