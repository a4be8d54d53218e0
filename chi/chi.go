// Package chi provides keydi integration for the Chi router.
//
// This package provides middleware that creates one keydi.Scope per request
// and handler wrappers that resolve controllers from it.
//
// Example usage:
//
//	provider, _ := collection.Build()
//
//	r := chi.NewRouter()
//	r.Use(keydichi.ScopeMiddleware(provider))
//
//	r.Post("/login", keydichi.Handle("auth", (*AuthController).Login))
//	r.Get("/users/{id}", keydichi.Handle("users", (*UserController).GetByID))
package chi

import (
	"net/http"

	chiv5 "github.com/go-chi/chi/v5"
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
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// CloseErrorHandler is called when scope closing fails.
	// If nil, errors are logged.
	CloseErrorHandler func(error)

	// Middlewares are functions that run after scope creation.
	// They can be used to initialize request context, set user data, etc.
	Middlewares []func(keydi.Scope, *http.Request) error
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
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
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
func WithMiddleware(mw func(keydi.Scope, *http.Request) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func newConfig(opts []Option) *Config {
	cfg := &Config{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
		cfg.Logger = logger
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("failed to prepare request scope", requestFields(r, zap.Error(err))...)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}

	if cfg.CloseErrorHandler == nil {
		cfg.CloseErrorHandler = func(err error) {
			logger.Error("failed to close scope", zap.Error(err))
		}
	}

	return cfg
}

// ScopeMiddleware creates a Chi middleware that creates a keydi.Scope for
// each request. The scope is attached to the request context and can be
// retrieved using keydi.FromContext.
//
// The scope is closed when the request completes.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(keydichi.ScopeMiddleware(provider))
func ScopeMiddleware(provider keydi.Provider, opts ...Option) func(http.Handler) http.Handler {
	cfg := newConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, err := provider.CreateScope(r.Context())
			if err != nil {
				cfg.ErrorHandler(w, r, err)
				return
			}

			defer func() {
				if err := scope.Close(); err != nil {
					cfg.CloseErrorHandler(err)
				}
			}()

			// Attach scope to request context
			r = r.WithContext(scope.Context())

			for _, mw := range cfg.Middlewares {
				if err := mw(scope, r); err != nil {
					cfg.ErrorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// Logger receives failures seen by the default handlers.
	Logger *zap.Logger

	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(http.ResponseWriter, *http.Request, any)

	// ScopeErrorHandler is called when scope retrieval fails.
	ScopeErrorHandler func(http.ResponseWriter, *http.Request, error)

	// ResolutionErrorHandler is called when controller resolution fails.
	ResolutionErrorHandler func(http.ResponseWriter, *http.Request, error)
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
func WithPanicHandler(h func(http.ResponseWriter, *http.Request, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithScopeErrorHandler sets the error handler for scope retrieval failures.
func WithScopeErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ScopeErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for controller resolution failures.
func WithResolutionErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
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
		cfg.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
			logger.Error("panic in handler", requestFields(r, zap.Any("panic", v))...)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}

	if cfg.ScopeErrorHandler == nil {
		cfg.ScopeErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("failed to get scope from context", requestFields(r, zap.Error(err))...)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}

	if cfg.ResolutionErrorHandler == nil {
		cfg.ResolutionErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("failed to resolve controller", requestFields(r,
				zap.Stringer("type", keydi.TypeOf(err)),
				zap.Error(err))...)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}

	return cfg
}

// Handle wraps a controller method, resolving the controller under key from
// the scope attached to the request context.
//
// The method signature should be: func(T, http.ResponseWriter, *http.Request)
//
// Example:
//
//	r.Get("/users/{id}", keydichi.Handle("users", (*UserController).GetByID))
func Handle[T any](key keydi.Key, method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := newHandlerConfig(opts)

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(w, r, v)
				}
			}()
		}

		scope, err := keydi.FromContext(r.Context())
		if err != nil {
			cfg.ScopeErrorHandler(w, r, err)
			return
		}

		controller, err := keydi.Resolve[T](scope, key)
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		method(controller, w, r)
	}
}

// requestFields describes r for logging, including the matched route
// pattern when the request was routed by chi.
func requestFields(r *http.Request, fields ...zap.Field) []zap.Field {
	out := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}

	if rctx := chiv5.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			out = append(out, zap.String("route", pattern))
		}
	}

	return append(out, fields...)
}
