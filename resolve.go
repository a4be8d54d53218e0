package keydi

import (
	"fmt"
	"reflect"
	"sync"
)

// Resolve resolves key from r and asserts the value to T.
//
// Example:
//
//	logger, err := keydi.Resolve[*zap.Logger](provider, "logger")
//	if err != nil {
//	    return err
//	}
func Resolve[T any](r Resolver, key Key) (T, error) {
	var zero T
	if r == nil {
		return zero, ErrProviderNil
	}

	value, err := r.Resolve(key)
	if err != nil {
		return zero, err
	}

	return as[T](key, value, "resolved value")
}

// MustResolve resolves key or panics.
// Use this only when you're certain the binding exists and can be built.
func MustResolve[T any](r Resolver, key Key) T {
	value, err := Resolve[T](r, key)
	if err != nil {
		panic(fmt.Errorf("keydi: failed to resolve %q: %w", key, err))
	}
	return value
}

// Create builds a new instance from a Parameterized handle.
func Create[T any](h *Handle, props any) (T, error) {
	var zero T
	if h == nil {
		return zero, fmt.Errorf("keydi: nil handle")
	}

	value, err := h.Create(props)
	if err != nil {
		return zero, err
	}

	return as[T](h.Key(), value, "created value")
}

// Func adapts a typed constructor to a Factory.
//
// Example:
//
//	collection.AddScoped("repo", keydi.Func(func(ctx *keydi.Context) (*Repository, error) {
//	    db, err := keydi.Resolve[*sql.DB](ctx, "db")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewRepository(db), nil
//	}))
func Func[T any](fn func(ctx *Context) (T, error)) Factory {
	if fn == nil {
		return nil
	}
	return func(ctx *Context) (any, error) {
		return fn(ctx)
	}
}

// ParamFunc adapts a typed constructor with typed props to a ParamFactory.
// Props of the wrong type fail with *TypeMismatchError before fn runs.
func ParamFunc[P, T any](fn func(ctx *Context, props P) (T, error)) ParamFactory {
	if fn == nil {
		return nil
	}
	return func(ctx *Context, props any) (any, error) {
		p, err := as[P](ctx.binding, props, "props")
		if err != nil {
			return nil, err
		}
		return fn(ctx, p)
	}
}

// Value returns a Factory that always yields v.
func Value[T any](v T) Factory {
	return func(*Context) (any, error) {
		return v, nil
	}
}

// Lazy returns a getter that resolves key on its first call and memoizes the
// result, error included. A getter that is never called never resolves.
//
// When r is a *Context, the getter resolves from the position the walk had
// when Lazy was called, even if it runs after the factory returned: a getter
// made beneath a singleton cannot reach Scoped keys, a getter cannot resolve
// any key that was under construction at that point, and getters may be
// called from any goroutine.
//
// Example:
//
//	type Deps struct {
//	    Mailer func() (*Mailer, error)
//	    Store  func() (*Store, error)
//	}
//
//	deps := Deps{
//	    Mailer: keydi.Lazy[*Mailer](ctx, "mailer"),
//	    Store:  keydi.Lazy[*Store](ctx, "store"),
//	}
func Lazy[T any](r Resolver, key Key) func() (T, error) {
	if ctx, ok := r.(*Context); ok {
		walk := ctx.fork()
		return sync.OnceValues(func() (T, error) {
			if ctx.provider.isClosed() {
				var zero T
				return zero, ErrProviderClosed
			}
			return Resolve[T](walk(), key)
		})
	}

	return sync.OnceValues(func() (T, error) {
		return Resolve[T](r, key)
	})
}

// as asserts value to T. A nil value yields the zero T.
func as[T any](key Key, value any, context string) (T, error) {
	var zero T
	if value == nil {
		return zero, nil
	}

	typed, ok := value.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Key:      key,
			Expected: reflect.TypeFor[T](),
			Actual:   reflect.TypeOf(value),
			Context:  context,
		}
	}

	return typed, nil
}
