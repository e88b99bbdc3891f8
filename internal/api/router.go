package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/nhonest/supermarket-web/internal/api/handler"
	"github.com/nhonest/supermarket-web/internal/api/middleware"
	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Auth          ports.AuthService
	Verifier      ports.TokenVerifier
	Orders        ports.OrderService
	Payments      ports.PaymentService
	Publisher     ports.Publisher
	Notifications http.Handler
	Checks        map[string]handler.Checker

	AllowedOrigins []string
	Log            zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	if len(d.AllowedOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: d.AllowedOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		}))
	}
	e.Use(echoprometheus.NewMiddleware("nhonest"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	orderHandler := handler.NewOrderHandler(d.Orders)
	paymentHandler := handler.NewPaymentHandler(d.Payments)
	notificationHandler := handler.NewNotificationHandler(d.Publisher)
	healthHandler := handler.NewHealthHandler(d.Checks)
	requireAuth := middleware.Auth(d.Verifier)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh-token", authHandler.Refresh, requireAuth)
	auth.POST("/logout", authHandler.Logout, requireAuth)

	// --- Admin notification socket (authenticates in-band) ---
	if d.Notifications != nil {
		e.GET("/ws", echo.WrapHandler(d.Notifications))
	}

	// --- API v1 ---
	v1 := e.Group("/v1", requireAuth)
	v1.POST("/orders", orderHandler.Create)
	v1.GET("/orders/:id", orderHandler.Get)
	v1.GET("/orders/:id/invoice", orderHandler.Invoice)
	v1.POST("/payments", paymentHandler.Create)
	v1.GET("/payments/:id", paymentHandler.Get)
	v1.POST("/notifications", notificationHandler.Broadcast,
		middleware.RequirePermission(domain.PermNotificationsSend))

	// --- Health checks (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
