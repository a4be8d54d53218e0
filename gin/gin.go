// Package gin provides keydi integration for the Gin web framework.
//
// This package provides middleware that creates one keydi.Scope per request
// and handler wrappers that resolve controllers from it.
//
// Example usage:
//
//	provider, _ := collection.Build()
//
//	g := gin.New()
//	g.Use(keydigin.ScopeMiddleware(provider))
//
//	g.POST("/login", keydigin.Handle("auth", (*AuthController).Login))
//	g.GET("/users/:id", keydigin.Handle("users", (*UserController).GetByID))
package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junioryono/keydi"
)

// Config holds the configuration for the scope middleware.
type Config struct {
	// Logger receives scope creation and close failures.
	// Defaults to a no-op logger.
	Logger *zap.Logger

	// ErrorHandler is called when scope creation fails.
	// If nil, a default handler returning 500 Internal Server Error is used.
	ErrorHandler func(*gin.Context, error)

	// CloseErrorHandler is called when scope closing fails.
	// If nil, errors are logged.
	CloseErrorHandler func(error)

	// Middlewares are functions that run after scope creation.
	// They can be used to initialize request context, set user claims, etc.
	Middlewares []func(keydi.Scope, *gin.Context) error
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
func WithErrorHandler(h func(*gin.Context, error)) Option {
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
//
// Example:
//
//	keydigin.ScopeMiddleware(provider,
//	    keydigin.WithMiddleware(func(scope keydi.Scope, c *gin.Context) error {
//	        reqCtx := keydi.MustResolve[*request.Context](scope, "request")
//	        reqCtx.SetGinContext(c)
//	        return nil
//	    }),
//	)
func WithMiddleware(mw func(keydi.Scope, *gin.Context) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func abortInternal(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
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
		cfg.ErrorHandler = func(c *gin.Context, err error) {
			logger.Error("failed to prepare request scope", requestFields(c, zap.Error(err))...)
			abortInternal(c)
		}
	}

	if cfg.CloseErrorHandler == nil {
		cfg.CloseErrorHandler = func(err error) {
			logger.Error("failed to close scope", zap.Error(err))
		}
	}

	return cfg
}

// ScopeMiddleware creates a gin.HandlerFunc that creates a keydi.Scope for
// each request. The scope is attached to the request context and can be
// retrieved using keydi.FromContext.
//
// The scope is closed when the request completes.
//
// Example:
//
//	g := gin.New()
//	g.Use(keydigin.ScopeMiddleware(provider))
func ScopeMiddleware(provider keydi.Provider, opts ...Option) gin.HandlerFunc {
	cfg := newConfig(opts)

	return func(c *gin.Context) {
		scope, err := provider.CreateScope(c.Request.Context())
		if err != nil {
			cfg.ErrorHandler(c, err)
			return
		}

		defer func() {
			if err := scope.Close(); err != nil {
				cfg.CloseErrorHandler(err)
			}
		}()

		// Attach scope to request context
		c.Request = c.Request.WithContext(scope.Context())

		for _, mw := range cfg.Middlewares {
			if err := mw(scope, c); err != nil {
				cfg.ErrorHandler(c, err)
				return
			}
		}

		c.Next()
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// Logger receives failures seen by the default handlers.
	Logger *zap.Logger

	// PanicRecovery enables panic recovery in the handler.
	// If true, panics are caught and handled by PanicHandler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	// If nil, a default handler returning 500 Internal Server Error is used.
	PanicHandler func(*gin.Context, any)

	// ScopeErrorHandler is called when scope retrieval fails.
	// If nil, a default handler returning 500 Internal Server Error is used.
	ScopeErrorHandler func(*gin.Context, error)

	// ResolutionErrorHandler is called when controller resolution fails.
	// If nil, a default handler returning 500 Internal Server Error is used.
	ResolutionErrorHandler func(*gin.Context, error)
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

// WithPanicHandler sets the handler for panics (requires WithPanicRecovery(true)).
func WithPanicHandler(h func(*gin.Context, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithScopeErrorHandler sets the error handler for scope retrieval failures.
func WithScopeErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ScopeErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for controller resolution failures.
func WithResolutionErrorHandler(h func(*gin.Context, error)) HandlerOption {
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
		cfg.PanicHandler = func(c *gin.Context, r any) {
			logger.Error("panic in handler", requestFields(c, zap.Any("panic", r))...)
			abortInternal(c)
		}
	}

	if cfg.ScopeErrorHandler == nil {
		cfg.ScopeErrorHandler = func(c *gin.Context, err error) {
			logger.Error("failed to get scope from context", requestFields(c, zap.Error(err))...)
			abortInternal(c)
		}
	}

	if cfg.ResolutionErrorHandler == nil {
		cfg.ResolutionErrorHandler = func(c *gin.Context, err error) {
			logger.Error("failed to resolve controller", requestFields(c,
				zap.Stringer("type", keydi.TypeOf(err)),
				zap.Error(err))...)
			abortInternal(c)
		}
	}

	return cfg
}

// Handle wraps a controller method, resolving the controller under key from
// the scope attached to the request context.
//
// The method signature should be: func(T, *gin.Context)
//
// Example:
//
//	g.GET("/users/:id", keydigin.Handle("users", (*UserController).GetByID))
func Handle[T any](key keydi.Key, method func(T, *gin.Context), opts ...HandlerOption) gin.HandlerFunc {
	cfg := newHandlerConfig(opts)

	return func(c *gin.Context) {
		if cfg.PanicRecovery {
			defer func() {
				if r := recover(); r != nil {
					cfg.PanicHandler(c, r)
				}
			}()
		}

		scope, err := keydi.FromContext(c.Request.Context())
		if err != nil {
			cfg.ScopeErrorHandler(c, err)
			return
		}

		controller, err := keydi.Resolve[T](scope, key)
		if err != nil {
			cfg.ResolutionErrorHandler(c, err)
			return
		}

		method(controller, c)
	}
}

func requestFields(c *gin.Context, fields ...zap.Field) []zap.Field {
	out := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	}

	if route := c.FullPath(); route != "" {
		out = append(out, zap.String("route", route))
	}

	return append(out, fields...)
}
