package keydi

import (
	"errors"
	"sync/atomic"
)

// Strategy is the caching policy of one registration. Provide is called with
// the registration's key already on ctx's trail.
type Strategy interface {
	Lifetime() Lifetime
	Provide(ctx *Context) (any, error)
}

// singletonStrategy caches in the provider-wide cache.
type singletonStrategy struct {
	key     Key
	factory ParamFactory
	cache   *instanceCache
}

func (s *singletonStrategy) Lifetime() Lifetime { return Singleton }

func (s *singletonStrategy) Provide(ctx *Context) (any, error) {
	value, err := s.cache.getOrCreate(s.key, func() (any, error) {
		return ctx.invoke(s.key, s.factory, nil)
	})
	if errors.Is(err, errInFlight) {
		return nil, ctx.circular(s.key)
	}
	return value, err
}

// scopedStrategy caches in the walk's scope cache.
type scopedStrategy struct {
	key     Key
	factory ParamFactory
}

func (s *scopedStrategy) Lifetime() Lifetime { return Scoped }

func (s *scopedStrategy) Provide(ctx *Context) (any, error) {
	if singleton, ok := ctx.NearestSingleton(); ok {
		return nil, &ScopeViolationError{Singleton: singleton, Scoped: s.key}
	}

	value, err := ctx.cache.getOrCreate(s.key, func() (any, error) {
		return ctx.invoke(s.key, s.factory, nil)
	})
	if errors.Is(err, errInFlight) {
		return nil, ctx.circular(s.key)
	}
	return value, err
}

// transientStrategy never caches.
type transientStrategy struct {
	key     Key
	factory ParamFactory
}

func (s *transientStrategy) Lifetime() Lifetime { return Transient }

func (s *transientStrategy) Provide(ctx *Context) (any, error) {
	return ctx.invoke(s.key, s.factory, nil)
}

// parameterizedStrategy hands out handles; the counter numbers the
// instances its handles create.
type parameterizedStrategy struct {
	key     Key
	factory ParamFactory
	counter atomic.Uint64
}

func (s *parameterizedStrategy) Lifetime() Lifetime { return Parameterized }

func (s *parameterizedStrategy) Provide(ctx *Context) (any, error) {
	singleton, _ := ctx.NearestSingleton()

	return &Handle{
		strategy:  s,
		origin:    ctx,
		owner:     ctx.trail.Parent(),
		singleton: singleton,
	}, nil
}
