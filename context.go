package keydi

import (
	"errors"
	"runtime/debug"

	"github.com/junioryono/keydi/internal/trail"
)

// Context is the state of one resolution walk. A Context is created for
// every top-level Provider.Resolve or Scope.Resolve call and is handed to
// every factory in the walk; nested resolutions go through the same Context,
// so the trail, the nearest singleton and the scope cache are shared across
// the whole graph rooted at that call.
//
// A Context is not safe for concurrent use and must not be retained by a
// factory beyond its own execution; use Lazy for deferred resolution.
type Context struct {
	provider *provider
	cache    *instanceCache
	scope    *scope
	trail    *trail.Trail

	// binding is the registration whose factory is running.
	binding Key
}

var _ Resolver = (*Context)(nil)

func (p *provider) newContext(cache *instanceCache, s *scope) *Context {
	return &Context{
		provider: p,
		cache:    cache,
		scope:    s,
		trail:    trail.New(),
	}
}

// Resolve resolves key within this walk.
func (c *Context) Resolve(key Key) (any, error) {
	strategy, err := c.provider.strategyFor(key)
	if err != nil {
		return nil, err
	}

	return c.enter(key, strategy.Lifetime() == Singleton, func() (any, error) {
		return strategy.Provide(c)
	})
}

// Trail returns the keys currently under construction, outermost first.
func (c *Context) Trail() []Key {
	raw := c.trail.Keys()
	keys := make([]Key, len(raw))
	for i, k := range raw {
		keys[i] = Key(k)
	}
	return keys
}

// Depth returns the number of keys currently under construction. Inside a
// factory, a depth of 1 means the factory's key was requested directly.
func (c *Context) Depth() int {
	return c.trail.Len()
}

// NearestSingleton returns the innermost singleton currently under construction.
func (c *Context) NearestSingleton() (Key, bool) {
	k, ok := c.trail.NearestShared()
	return Key(k), ok
}

// ScopeID returns the ID of the explicit Scope this walk runs in, or the
// empty string for the throwaway scope of a Provider.Resolve call.
func (c *Context) ScopeID() string {
	if c.scope == nil {
		return ""
	}
	return c.scope.id
}

// Provider returns the provider this walk belongs to.
func (c *Context) Provider() Provider {
	return c.provider
}

// fork captures the walk's current position. Each call of the returned
// function starts a new walk on a copy of that position, sharing this walk's
// caches, so a resolution deferred past the factory still sees the keys and
// singletons that were under construction when fork was called.
func (c *Context) fork() func() *Context {
	seed := c.trail.Clone()
	return func() *Context {
		return &Context{
			provider: c.provider,
			cache:    c.cache,
			scope:    c.scope,
			trail:    seed.Clone(),
		}
	}
}

// enter runs fn with key on the trail. The key is left whether fn succeeds
// or fails, so sibling branches never observe each other's entries.
func (c *Context) enter(key Key, shared bool, fn func() (any, error)) (any, error) {
	parent := c.trail.Top()

	entry, ok := c.trail.Enter(string(key), shared)
	if !ok {
		return nil, c.circular(key)
	}
	defer c.trail.Leave(entry)

	if parent != nil {
		c.provider.recordEdge(Key(parent.Key), key)
	}

	return fn()
}

// circular builds the error for re-entering key. The key on top of the
// trail is the one whose factory asked for key again.
func (c *Context) circular(key Key) error {
	chain := c.Trail()

	var cause Key
	if len(chain) > 0 {
		cause = chain[len(chain)-1]
	}

	return &CircularDependencyError{Key: key, Cause: cause, Chain: chain}
}

// invoke calls factory, converting panics and foreign errors into taxonomy errors.
func (c *Context) invoke(key Key, factory ParamFactory, props any) (value any, err error) {
	outer := c.binding
	c.binding = key
	defer func() {
		c.binding = outer
		if r := recover(); r != nil {
			value = nil
			err = &FactoryPanicError{Key: key, Panic: r, Stack: debug.Stack()}
		}
	}()

	value, err = factory(c, props)
	if err != nil {
		return nil, wrapFactoryError(key, err)
	}

	return value, nil
}

// wrapFactoryError wraps err once. Errors that already carry a taxonomy
// error propagate unchanged.
func wrapFactoryError(key Key, err error) error {
	var te typedError
	if errors.As(err, &te) {
		return err
	}
	return &FactoryError{Key: key, Cause: err}
}
