// Package echo provides keydi integration for the Echo web framework.
//
// This package provides middleware that creates one keydi.Scope per request
// and handler wrappers that resolve controllers from it.
//
// Example usage:
//
//	provider, _ := collection.Build()
//
//	e := echo.New()
//	e.Use(keydiecho.ScopeMiddleware(provider))
//
//	e.POST("/login", keydiecho.Handle("auth", (*AuthController).Login))
//	e.GET("/users/:id", keydiecho.Handle("users", (*UserController).GetByID))
package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/junioryono/keydi"
)

// Config holds the configuration for the scope middleware.
type Config struct {
	// Logger receives scope close failures.
	// Defaults to a no-op logger.
	Logger *zap.Logger

	// ErrorHandler is called when scope creation fails.
	// If nil, a default handler returning 500 Internal Server Error is used.
	ErrorHandler func(echo.Context, error) error

	// CloseErrorHandler is called when scope closing fails.
	// If nil, errors are logged.
	CloseErrorHandler func(error)

	// Middlewares are functions that run after scope creation.
	Middlewares []func(keydi.Scope, echo.Context) error
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
func WithErrorHandler(h func(echo.Context, error) error) Option {
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
func WithMiddleware(mw func(keydi.Scope, echo.Context) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func internalError() error {
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
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
		cfg.ErrorHandler = func(c echo.Context, err error) error {
			logger.Error("failed to prepare request scope", requestFields(c, zap.Error(err))...)
			return internalError()
		}
	}

	if cfg.CloseErrorHandler == nil {
		cfg.CloseErrorHandler = func(err error) {
			logger.Error("failed to close scope", zap.Error(err))
		}
	}

	return cfg
}

// ScopeMiddleware creates an echo.MiddlewareFunc that creates a keydi.Scope
// for each request. The scope is attached to the request context and can be
// retrieved using keydi.FromContext.
//
// The scope is closed when the request completes.
func ScopeMiddleware(provider keydi.Provider, opts ...Option) echo.MiddlewareFunc {
	cfg := newConfig(opts)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scope, err := provider.CreateScope(c.Request().Context())
			if err != nil {
				return cfg.ErrorHandler(c, err)
			}

			defer func() {
				if err := scope.Close(); err != nil {
					cfg.CloseErrorHandler(err)
				}
			}()

			// Attach scope to request context
			c.SetRequest(c.Request().WithContext(scope.Context()))

			for _, mw := range cfg.Middlewares {
				if err := mw(scope, c); err != nil {
					return cfg.ErrorHandler(c, err)
				}
			}

			return next(c)
		}
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// Logger receives failures seen by the default handlers.
	Logger *zap.Logger

	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(echo.Context, any) error

	// ScopeErrorHandler is called when scope retrieval fails.
	ScopeErrorHandler func(echo.Context, error) error

	// ResolutionErrorHandler is called when controller resolution fails.
	ResolutionErrorHandler func(echo.Context, error) error
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
func WithPanicHandler(h func(echo.Context, any) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithScopeErrorHandler sets the error handler for scope retrieval failures.
func WithScopeErrorHandler(h func(echo.Context, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ScopeErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for controller resolution failures.
func WithResolutionErrorHandler(h func(echo.Context, error) error) HandlerOption {
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
		cfg.PanicHandler = func(c echo.Context, v any) error {
			logger.Error("panic in handler", requestFields(c, zap.Any("panic", v))...)
			return internalError()
		}
	}

	if cfg.ScopeErrorHandler == nil {
		cfg.ScopeErrorHandler = func(c echo.Context, err error) error {
			logger.Error("failed to get scope from context", requestFields(c, zap.Error(err))...)
			return internalError()
		}
	}

	if cfg.ResolutionErrorHandler == nil {
		cfg.ResolutionErrorHandler = func(c echo.Context, err error) error {
			logger.Error("failed to resolve controller", requestFields(c,
				zap.Stringer("type", keydi.TypeOf(err)),
				zap.Error(err))...)
			return internalError()
		}
	}

	return cfg
}

// Handle wraps a controller method, resolving the controller under key from
// the scope attached to the request context.
//
// The method signature should be: func(T, echo.Context) error
func Handle[T any](key keydi.Key, method func(T, echo.Context) error, opts ...HandlerOption) echo.HandlerFunc {
	cfg := newHandlerConfig(opts)

	return func(c echo.Context) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		scope, scopeErr := keydi.FromContext(c.Request().Context())
		if scopeErr != nil {
			return cfg.ScopeErrorHandler(c, scopeErr)
		}

		controller, resolveErr := keydi.Resolve[T](scope, key)
		if resolveErr != nil {
			return cfg.ResolutionErrorHandler(c, resolveErr)
		}

		return method(controller, c)
	}
}

func requestFields(c echo.Context, fields ...zap.Field) []zap.Field {
	out := []zap.Field{
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().URL.Path),
	}

	if route := c.Path(); route != "" {
		out = append(out, zap.String("route", route))
	}

	return append(out, fields...)
}
