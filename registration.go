package keydi

// Key uniquely identifies a registration within a Collection.
type Key string

// String returns the key as a string.
func (k Key) String() string {
	return string(k)
}

// Factory builds a service value. Dependencies are read lazily through ctx,
// so branches the factory never asks for are never constructed.
//
// Example:
//
//	func NewBob(ctx *keydi.Context) (any, error) {
//	    alice, err := keydi.Resolve[*Alice](ctx, "alice")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return &Bob{Alice: alice}, nil
//	}
type Factory func(ctx *Context) (any, error)

// ParamFactory builds a service value from caller-supplied props.
// It backs Parameterized registrations.
type ParamFactory func(ctx *Context, props any) (any, error)

// Registration is an immutable (key, lifetime, factory) binding.
type Registration struct {
	key      Key
	lifetime Lifetime
	factory  ParamFactory
}

// Key returns the registration key.
func (r Registration) Key() Key {
	return r.key
}

// Lifetime returns the registration lifetime.
func (r Registration) Lifetime() Lifetime {
	return r.lifetime
}

func newRegistration(key Key, lifetime Lifetime, factory ParamFactory) (Registration, error) {
	if key == "" {
		return Registration{}, ErrKeyEmpty
	}

	if !lifetime.IsValid() {
		return Registration{}, &LifetimeError{Value: int(lifetime)}
	}

	if factory == nil {
		return Registration{}, ErrFactoryNil
	}

	return Registration{key: key, lifetime: lifetime, factory: factory}, nil
}

// ignoreProps adapts a Factory to the ParamFactory shape.
func ignoreProps(f Factory) ParamFactory {
	if f == nil {
		return nil
	}
	return func(ctx *Context, _ any) (any, error) {
		return f(ctx)
	}
}

// newStrategy creates fresh lifetime state for r. Every Build calls this,
// so providers built from the same collection never share caches or counters.
func (r Registration) newStrategy(cache *instanceCache) Strategy {
	switch r.lifetime {
	case Singleton:
		return &singletonStrategy{key: r.key, factory: r.factory, cache: cache}
	case Scoped:
		return &scopedStrategy{key: r.key, factory: r.factory}
	case Transient:
		return &transientStrategy{key: r.key, factory: r.factory}
	case Parameterized:
		return &parameterizedStrategy{key: r.key, factory: r.factory}
	default:
		return nil
	}
}
