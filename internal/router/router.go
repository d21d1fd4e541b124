package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/vexeviet/seat-hold/internal/config"
	"github.com/vexeviet/seat-hold/internal/handler"
	"github.com/vexeviet/seat-hold/internal/logger"
	"github.com/vexeviet/seat-hold/internal/middleware"
	"github.com/vexeviet/seat-hold/internal/model"
)

// Deps is everything the routes need.  Redis may be nil, in which case
// the response cache and the rate limiter are disabled.
type Deps struct {
	Auth         *handler.AuthHandler
	Browse       *handler.BrowseHandler
	Reservations *handler.ReservationHandler
	JWTSecret    string
	Cache        config.CacheConfig
	RateLimit    config.RateLimitConfig
	Redis        *redis.Client
	Log          *logger.Logger
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the login endpoint under /v1/auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
}

// RegisterPublic registers the unauthenticated browse endpoints.  The seat
// map read goes through the Redis response cache.
func RegisterPublic(e *echo.Echo, b *handler.BrowseHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/routes", b.ListRoutes)
	e.GET("/v1/routes/:id/seats", b.SeatAvailability, cache)
}

// RegisterCustomer registers the hold, booking and payment endpoints.
// Every route requires a CUSTOMER access token; holding seats is also
// rate limited per user.
func RegisterCustomer(e *echo.Echo, r *handler.ReservationHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleCustomer))
	g.POST("/routes/:id/hold", r.HoldSeats, limit)
	g.DELETE("/holds/:id", r.ReleaseHold)
	g.POST("/bookings", r.CreateBooking)
	g.POST("/payments", r.InitiatePayment)
}

// Register wires every route of the booking backend onto e.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e)
	RegisterAuth(e, d.Auth)
	RegisterPublic(e, d.Browse, middleware.NewRedisCache(d.Cache, d.Redis))
	RegisterCustomer(e, d.Reservations, d.JWTSecret, middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))
}
