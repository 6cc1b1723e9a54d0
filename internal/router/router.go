package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/minhokang/car-sharing-reservation/internal/config"
	"github.com/minhokang/car-sharing-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/minhokang/car-sharing-reservation/internal/middleware" // import middleware for JWT authentication, caching and rate limiting
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this to verify the
	// service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session: register,
	// login, token refresh and logout.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	// Protected identity endpoint.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.GET("/me/coupons", a.MyCoupons)
}

// RegisterReservations registers the booking lifecycle endpoints.  All of
// them require a valid access token.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	g := e.Group("/v1/reservations")
	g.Use(middleware.JWTAuth(jwtSecret))

	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/insurances", h.InsuranceQuotes)
	g.PATCH("/:id/insurance", h.UpdateInsurance)
	g.PATCH("/:id/time", h.UpdateTime)
	g.PATCH("/:id/car", h.UpdateCar)
	g.PATCH("/:id/extension", h.Extend)
	g.POST("/:id/settlement", h.Settle)
}

// RegisterBrowse registers the unauthenticated browse endpoints.  When a
// Redis client is available the responses are cached and the routes are
// rate limited; with a nil client both middlewares degrade to no-ops.
func RegisterBrowse(e *echo.Echo, h *handler.BrowseHandler, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	g.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	// Available cars of a zone for a window, with per-car price previews.
	g.GET("/carzones/:id/cars", h.AvailableCars)
	// Reserved windows of a single car.
	g.GET("/cars/:id/timetable", h.CarTimeTable)
}
