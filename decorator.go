package keydi

// Decorator wraps the strategy of one binding. It runs once per Build, on the
// provider's fresh strategy, so the returned Strategy may keep state.
type Decorator func(Strategy) Strategy

// Intercept returns a Decorator that routes every Provide through fn.
// fn decides whether and when to call next.Provide.
//
// Example:
//
//	collection.Decorate("clock", keydi.Intercept(func(ctx *keydi.Context, next keydi.Strategy) (any, error) {
//	    if ctx.Depth() > 1 {
//	        return fixedClock, nil
//	    }
//	    return next.Provide(ctx)
//	}))
func Intercept(fn func(ctx *Context, next Strategy) (any, error)) Decorator {
	return func(next Strategy) Strategy {
		return &interceptedStrategy{next: next, fn: fn}
	}
}

// interceptedStrategy keeps the lifetime of the strategy it wraps, so
// scope checks on the key are unchanged.
type interceptedStrategy struct {
	next Strategy
	fn   func(*Context, Strategy) (any, error)
}

func (s *interceptedStrategy) Lifetime() Lifetime { return s.next.Lifetime() }

func (s *interceptedStrategy) Provide(ctx *Context) (any, error) {
	return s.fn(ctx, s.next)
}
