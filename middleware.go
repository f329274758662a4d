package inkwell

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// tokenCookie is the cookie carrying the session token.
const tokenCookie = "jwt"

// userContextKey is where the gates attach the resolved identity.
const userContextKey = "inkwell.user"

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{Level: 5}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	e.Use(responseTimeMiddleware)

	// Global per-IP limit: 100 requests per 10 minutes.
	e.Use(a.rateLimitMiddleware)

	// Soft identity resolution runs on every request.
	e.Use(a.Authenticate)
}

func (a *App) rateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !a.requestLimiter.Allow(c.RealIP()) {
			return c.JSON(http.StatusTooManyRequests, errorResponse{Message: "too many requests, try again later"})
		}
		return next(c)
	}
}

// responseTimeMiddleware records handler latency in an X-Response-Time
// header, set before the first byte is written.
func responseTimeMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		c.Response().Before(func() {
			ms := float64(time.Since(start).Nanoseconds()) / 1e6
			c.Response().Header().Set("X-Response-Time", fmt.Sprintf("%.3fms", ms))
		})
		return next(c)
	}
}

// Authenticate is the non-blocking identity gate. It resolves the session
// token to a user and attaches it to the context when possible, and always
// lets the request continue. Missing cookie, invalid token, and vanished
// user all degrade to "no identity".
func (a *App) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(tokenCookie)
		if err != nil || cookie.Value == "" {
			return next(c)
		}
		userID, err := a.Tokens.Verify(cookie.Value)
		if err != nil {
			return next(c)
		}
		user, err := a.Store.GetUserByID(userID)
		if err != nil {
			return next(c)
		}
		c.Set(userContextKey, &user)
		return next(c)
	}
}

// RequireAuth is the blocking identity gate for routes that need an
// authenticated actor. Any failure short-circuits with 401 and the wrapped
// handler is never invoked. It authenticates the actor only; per-resource
// ownership stays with the handlers.
func (a *App) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(tokenCookie)
		if err != nil || cookie.Value == "" {
			return notAuthenticated(c)
		}
		userID, err := a.Tokens.Verify(cookie.Value)
		if err != nil {
			return notAuthenticated(c)
		}
		user, err := a.Store.GetUserByID(userID)
		if err != nil {
			return notAuthenticated(c)
		}
		c.Set(userContextKey, &user)
		return next(c)
	}
}

func notAuthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Message: "please log in"})
}

// CurrentUser returns the identity attached by a gate, or nil when the
// request carries none.
func CurrentUser(c echo.Context) *User {
	user, _ := c.Get(userContextKey).(*User)
	return user
}
