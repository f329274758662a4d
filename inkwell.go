// Package inkwell is a blog platform backend built with Go, Echo, and SQLite.
// It provides user registration and login with stateless token sessions, blog
// CRUD with draft/published state, author-scoped listing, filtered search,
// read-count and reading-time tracking, and a Redis-backed response cache for
// list queries.
package inkwell

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// App is the central inkwell application. It wires together the store, the
// token service, the cache, handlers, and middleware. All shared state is
// initialized once in Start and never mutated afterwards.
type App struct {
	Config Config
	Echo   *echo.Echo
	Store  *Store
	Tokens *TokenService
	Cache  *PageCache

	requestLimiter *RateLimiter
	loginLimiter   *RateLimiter
	cacheBackend   CacheBackend
	redis          *RedisCache
	customRoutes   []func(*App)
}

// New creates an inkwell App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the database, token service, cache, middleware, and
// routes, then starts the server.
func (a *App) Start() error {
	if err := a.setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// setup wires every component without starting the listener.
func (a *App) setup() error {
	tokens, err := NewTokenService(a.Config.JWTSecret, a.Config.TokenTTL)
	if err != nil {
		return fmt.Errorf("inkwell: init token service: %w", err)
	}
	a.Tokens = tokens

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("inkwell: init store: %w", err)
	}
	a.Store = store

	if a.cacheBackend == nil {
		if a.Config.RedisAddr != "" {
			rc := NewRedisCache(a.Config.RedisAddr, a.Config.RedisPassword, a.Config.RedisDB)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := rc.Ping(ctx)
			cancel()
			if err != nil {
				// The cache is an optimization; a dead Redis must not
				// keep the server from coming up.
				a.Echo.Logger.Warnf("redis unreachable, using in-memory cache: %v", err)
				a.cacheBackend = NewMemoryCache()
			} else {
				a.redis = rc
				a.cacheBackend = rc
			}
		} else {
			a.cacheBackend = NewMemoryCache()
		}
	}
	a.Cache = NewPageCache(a.cacheBackend, a.Config.CacheTTL)

	a.requestLimiter = NewRateLimiter(100, 10*time.Minute)
	a.loginLimiter = NewRateLimiter(5, time.Minute)

	a.Echo.Validator = &requestValidator{validate: validator.New()}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.POST("/register", a.handleRegister)
	e.POST("/login", a.handleLogin)
	e.GET("/logout", a.handleLogout)

	e.GET("/feed.xml", a.handleFeed)

	e.GET("/blog", a.handleListPosts)
	e.POST("/blog", a.handleCreatePost, a.RequireAuth)
	e.GET("/blog/author/Post", a.handleMyPosts, a.RequireAuth)
	e.GET("/blog/:id", a.handleGetPost)
	e.PUT("/blog/state/:id", a.handleToggleState, a.RequireAuth)
	e.PUT("/blog/update/:id", a.handleUpdatePost, a.RequireAuth)
	e.POST("/blog/update/:id", a.handleUpdatePost, a.RequireAuth)
	e.POST("/blog/delete-post", a.handleDeletePost, a.RequireAuth)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		a.Store.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	return nil
}

// requestValidator adapts go-playground/validator to echo's Validator hook.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}
