package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/ociferry/ferry-booking/internal/api/docs"
	"github.com/ociferry/ferry-booking/internal/api/handler"
	"github.com/ociferry/ferry-booking/internal/api/middleware"
	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/core/ports"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Sessions ports.SessionService
	Bookings ports.BookingService
	Routes   ports.RouteService
	// Readiness maps dependency names to their probes for /health/ready.
	Readiness map[string]handler.Pinger
	// AuthLimiter throttles the credential endpoints. Optional.
	AuthLimiter *middleware.RateLimiter
	// Registerer receives the HTTP request metrics. Defaults to the
	// Prometheus default registerer.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
//
// @title                       OCI Ferry Booking API
// @version                     1.0
// @description                 Ferry route catalogue, checkout and booking management.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func NewRouter(deps Dependencies, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "ferry",
		Registerer: deps.Registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Sessions)
	profileHandler := handler.NewProfileHandler(deps.Sessions)
	routeHandler := handler.NewRouteHandler(deps.Routes)
	bookingHandler := handler.NewBookingHandler(deps.Bookings)
	authMiddleware := middleware.Auth(deps.Sessions)

	// --- Health probes and tooling (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)                         // liveness  – is the process alive?
	e.GET("/health/ready", handler.NewReadinessHandler(deps.Readiness).Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	auth := e.Group("/auth")
	var credentials []echo.MiddlewareFunc
	if deps.AuthLimiter != nil {
		credentials = append(credentials, deps.AuthLimiter.Middleware())
	}
	auth.POST("/signup", authHandler.SignUp, credentials...)
	auth.POST("/signin", authHandler.SignIn, credentials...)
	auth.POST("/confirm", authHandler.ConfirmEmail, credentials...)
	auth.POST("/refresh", authHandler.Refresh, authMiddleware)
	auth.POST("/signout", authHandler.SignOut, authMiddleware)

	v1 := e.Group("/v1")

	// --- Public catalogue ---
	v1.GET("/routes", routeHandler.List)
	v1.GET("/routes/:id", routeHandler.Get)

	// --- Signed-in users ---
	v1.GET("/me", profileHandler.Me, authMiddleware)
	v1.PATCH("/me", profileHandler.UpdateMe, authMiddleware)

	bookings := v1.Group("/bookings", authMiddleware)
	bookings.POST("/checkout", bookingHandler.Checkout)
	bookings.POST("/checkout/:reference/confirm", bookingHandler.Confirm)
	bookings.GET("", bookingHandler.History)

	// --- Admin panel ---
	admin := v1.Group("/admin", authMiddleware, middleware.RBAC(domain.RoleAdmin))
	admin.POST("/routes", routeHandler.Create)
	admin.PUT("/routes/:id", routeHandler.Update)
	admin.DELETE("/routes/:id", routeHandler.Delete)
	admin.GET("/bookings", bookingHandler.AdminList)
	admin.PATCH("/bookings/:id/status", bookingHandler.UpdateStatus)
	admin.GET("/stats", bookingHandler.Stats)

	return e
}

// requestLogger writes one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Str("remote_ip", v.RemoteIP).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
