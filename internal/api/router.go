package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"

	"github.com/vinylshop/storefront/internal/api/handler"
	"github.com/vinylshop/storefront/internal/api/middleware"
	"github.com/vinylshop/storefront/internal/core/ports"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Credentials ports.CredentialService
	Sessions    ports.SessionAuthority
	Cart        ports.CartService

	// LoginLimiter and RegisterLimiter throttle the auth endpoints; nil disables.
	LoginLimiter    middleware.Limiter
	RegisterLimiter middleware.Limiter

	// Health maps dependency names to readiness probes.
	Health map[string]handler.Pinger

	Cookie handler.CookieConfig

	// Registerer and Gatherer back the /metrics endpoint; nil means the
	// prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// Rate limits key on the peer address; client-supplied forwarding
	// headers are ignored. Deployments behind a proxy set a trusted extractor.
	e.IPExtractor = echo.ExtractIPDirect()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	promMiddleware, err := echoprometheus.MiddlewareConfig{
		Namespace:  "storefront",
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}.ToMiddleware()
	if err != nil {
		return nil, err
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(promMiddleware)
	e.Use(middleware.Session(d.Sessions, d.Cookie.Name, d.Log))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Credentials, d.Sessions, d.Cookie, d.Log)
	meHandler := handler.NewMeHandler(d.Credentials, d.Sessions)
	cartHandler := handler.NewCartHandler(d.Cart, d.Sessions)
	healthHandler := handler.NewHealthHandler(d.Health)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register, limit(d.RegisterLimiter, "register", d.Log)...)
	e.POST("/auth/login", authHandler.Login, limit(d.LoginLimiter, "login", d.Log)...)
	e.GET("/auth/logout", authHandler.Logout)
	e.GET("/me", meHandler.Me)

	// --- Cart routes ---
	// cart-count stays outside the gate: anonymous callers get 0.
	e.GET("/cart/cart-count", cartHandler.Count)

	cart := e.Group("/cart", middleware.RequireUser(d.Sessions))
	cart.POST("/add", cartHandler.AddItem)
	cart.GET("", cartHandler.List)
	cart.DELETE("/all", cartHandler.ClearAll)
	cart.DELETE("/:itemId", cartHandler.RemoveItem)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e, nil
}

func limit(l middleware.Limiter, scope string, log zerolog.Logger) []echo.MiddlewareFunc {
	if l == nil {
		return nil
	}
	return []echo.MiddlewareFunc{middleware.RateLimit(l, scope, log)}
}

// requestLogger emits one zerolog event per request.
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
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error()
			}
			if v.Error != nil {
				evt = evt.Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
