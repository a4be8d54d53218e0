// Package fiber provides keydi integration for the Fiber web framework.
//
// This package provides middleware that creates one keydi.Scope per request
// and handler wrappers that resolve controllers from it.
//
// Example usage:
//
//	provider, _ := collection.Build()
//
//	app := fiber.New()
//	app.Use(keydifiber.ScopeMiddleware(provider))
//
//	app.Post("/login", keydifiber.Handle("auth", (*AuthController).Login))
//	app.Get("/users/:id", keydifiber.Handle("users", (*UserController).GetByID))
package fiber

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/junioryono/keydi"
)

// scopeKey is the key used to store the scope in fiber.Ctx.Locals
const scopeKey = "keydi_scope"

// Config holds the configuration for the scope middleware.
type Config struct {
	// Logger receives scope close failures.
	// Defaults to a no-op logger.
	Logger *zap.Logger

	// ErrorHandler is called when scope creation fails.
	// If nil, a default handler returning 500 Internal Server Error is used.
	ErrorHandler func(*fiber.Ctx, error) error

	// CloseErrorHandler is called when scope closing fails.
	// If nil, errors are logged.
	CloseErrorHandler func(error)

	// Middlewares are functions that run after scope creation.
	Middlewares []func(keydi.Scope, *fiber.Ctx) error
}

// Option configures the scope middleware.
type Option func(*Config)

// WithLogger sets the logger used by the default handlers.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithErrorHandler sets the error handler for scope creation failures.
func WithErrorHandler(h func(*fiber.Ctx, error) error) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithCloseErrorHandler sets the error handler for scope close failures.
func WithCloseErrorHandler(h func(error)) Option {
	return func(c *Config) {
		c.CloseErrorHandler = h
	}
}

// WithMiddleware adds a middleware function that runs after scope creation.
// Multiple middlewares are executed in the order they are added.
func WithMiddleware(mw func(keydi.Scope, *fiber.Ctx) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal Server Error",
	})
}

func newConfig(opts []Option) *Config {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	logger := cfg.Logger

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			logger.Error("failed to prepare request scope", requestFields(c, zap.Error(err))...)
			return internalError(c)
		}
	}

	if cfg.CloseErrorHandler == nil {
		cfg.CloseErrorHandler = func(err error) {
			logger.Error("failed to close scope", zap.Error(err))
		}
	}

	return cfg
}

// ScopeMiddleware creates a fiber.Handler that creates a keydi.Scope for
// each request. The scope is stored in fiber.Ctx.Locals and attached to
// the UserContext.
//
// The scope is closed when the handler chain returns.
func ScopeMiddleware(provider keydi.Provider, opts ...Option) fiber.Handler {
	cfg := newConfig(opts)

	return func(c *fiber.Ctx) error {
		scope, err := provider.CreateScope(c.UserContext())
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		defer func() {
			if err := scope.Close(); err != nil {
				cfg.CloseErrorHandler(err)
			}
		}()

		c.SetUserContext(scope.Context())
		c.Locals(scopeKey, scope)

		for _, mw := range cfg.Middlewares {
			if err := mw(scope, c); err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		return c.Next()
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// Logger receives failures seen by the default handlers.
	Logger *zap.Logger

	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(*fiber.Ctx, any) error

	// ScopeErrorHandler is called when scope retrieval fails.
	ScopeErrorHandler func(*fiber.Ctx, error) error

	// ResolutionErrorHandler is called when controller resolution fails.
	ResolutionErrorHandler func(*fiber.Ctx, error) error
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithHandlerLogger sets the logger used by the default handlers.
func WithHandlerLogger(l *zap.Logger) HandlerOption {
	return func(c *HandlerConfig) {
		c.Logger = l
	}
}

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics.
func WithPanicHandler(h func(*fiber.Ctx, any) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithScopeErrorHandler sets the error handler for scope retrieval failures.
func WithScopeErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ScopeErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for controller resolution failures.
func WithResolutionErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func newHandlerConfig(opts []HandlerOption) *HandlerConfig {
	cfg := &HandlerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	logger := cfg.Logger

	if cfg.PanicHandler == nil {
		cfg.PanicHandler = func(c *fiber.Ctx, v any) error {
			logger.Error("panic in handler", requestFields(c, zap.Any("panic", v))...)
			return internalError(c)
		}
	}

	if cfg.ScopeErrorHandler == nil {
		cfg.ScopeErrorHandler = func(c *fiber.Ctx, err error) error {
			logger.Error("failed to get scope from context", requestFields(c, zap.Error(err))...)
			return internalError(c)
		}
	}

	if cfg.ResolutionErrorHandler == nil {
		cfg.ResolutionErrorHandler = func(c *fiber.Ctx, err error) error {
			logger.Error("failed to resolve controller", requestFields(c,
				zap.Stringer("type", keydi.TypeOf(err)),
				zap.Error(err))...)
			return internalError(c)
		}
	}

	return cfg
}

// Handle wraps a controller method, resolving the controller under key from
// the scope stored by ScopeMiddleware.
//
// The method signature should be: func(T, *fiber.Ctx) error
func Handle[T any](key keydi.Key, method func(T, *fiber.Ctx) error, opts ...HandlerOption) fiber.Handler {
	cfg := newHandlerConfig(opts)

	return func(c *fiber.Ctx) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		scope := FromContext(c)
		if scope == nil {
			return cfg.ScopeErrorHandler(c, keydi.ErrScopeNotInContext)
		}

		controller, resolveErr := keydi.Resolve[T](scope, key)
		if resolveErr != nil {
			return cfg.ResolutionErrorHandler(c, resolveErr)
		}

		return method(controller, c)
	}
}

// FromContext retrieves the scope from fiber.Ctx.Locals, or nil when the
// request did not pass through ScopeMiddleware.
//
// Example:
//
//	scope := keydifiber.FromContext(c)
//	users := keydi.MustResolve[*UserService](scope, "users")
func FromContext(c *fiber.Ctx) keydi.Scope {
	scope, ok := c.Locals(scopeKey).(keydi.Scope)
	if !ok {
		return nil
	}
	return scope
}

func requestFields(c *fiber.Ctx, fields ...zap.Field) []zap.Field {
	out := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
	}

	if route := c.Route(); route != nil && route.Path != "" {
		out = append(out, zap.String("route", route.Path))
	}

	return append(out, fields...)
}
