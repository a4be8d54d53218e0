package keydi

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scope is a disposable unit of work whose resolutions share one scope cache.
// Scoped values resolved through the same Scope are the same instance, and
// Disposable values in the scope cache are closed with the scope.
//
// In web applications, a scope is typically created for each HTTP request.
// A Scope is safe for concurrent use.
//
// Example:
//
//	scope, err := provider.CreateScope(ctx)
//	if err != nil {
//	    return err
//	}
//	defer scope.Close()
//
//	repo, err := keydi.Resolve[*Repository](scope, "repository")
type Scope interface {
	Disposable
	Resolver

	// ID returns the unique ID of this scope.
	ID() string

	// Context returns the context associated with this scope. FromContext
	// recovers the scope from it.
	Context() context.Context

	// Provider returns the provider the scope was created from.
	Provider() Provider

	// IsClosed reports whether Close has been called.
	IsClosed() bool
}

type scope struct {
	id       string
	ctx      context.Context
	provider *provider
	cache    *instanceCache

	stop   func() bool
	closed atomic.Bool
}

func newScope(p *provider, ctx context.Context) *scope {
	s := &scope{
		id:       uuid.NewString(),
		provider: p,
		cache:    newInstanceCache(),
	}

	s.ctx = contextWithScope(ctx, s)
	s.stop = context.AfterFunc(ctx, func() {
		if !s.closed.CompareAndSwap(false, true) {
			return
		}
		if err := s.dispose(); err != nil {
			p.logger.Error("scope close on context done failed",
				zap.String("scope", s.id),
				zap.Error(err))
		}
	})

	return s
}

func (s *scope) ID() string {
	return s.id
}

func (s *scope) Context() context.Context {
	return s.ctx
}

func (s *scope) Provider() Provider {
	return s.provider
}

func (s *scope) IsClosed() bool {
	return s.closed.Load()
}

// Resolve resolves key using this scope's cache.
func (s *scope) Resolve(key Key) (any, error) {
	if s.IsClosed() {
		return nil, ErrScopeClosed
	}

	if s.provider.isClosed() {
		return nil, ErrProviderClosed
	}

	return s.provider.resolve(key, s.cache, s)
}

// Close disposes the scope cache in reverse order of creation.
func (s *scope) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.stop()
	return s.dispose()
}

// dispose untracks the scope and closes its cache. The caller must have
// flipped closed.
func (s *scope) dispose() error {
	s.provider.untrack(s)

	if errs := s.cache.dispose(); len(errs) > 0 {
		return &DisposalError{Context: "scope " + s.id, Errors: errs}
	}

	return nil
}

// scopeContextKey is the key for storing the current scope in context.
type scopeContextKey struct{}

// contextWithScope returns a context with the current scope.
func contextWithScope(ctx context.Context, s *scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, s)
}

// FromContext gets the current scope from context.
func FromContext(ctx context.Context) (Scope, error) {
	s, ok := ctx.Value(scopeContextKey{}).(*scope)
	if !ok || s == nil {
		return nil, ErrScopeNotInContext
	}

	if s.IsClosed() {
		return nil, ErrScopeClosed
	}

	return s, nil
}
