package testutil

import (
	"github.com/junioryono/keydi"
)

// Keys used by the fixtures.
const (
	KeyAlice   keydi.Key = "alice"
	KeyBob     keydi.Key = "bob"
	KeyService keydi.Key = "service"
	KeySession keydi.Key = "session"
)

// AliceFactory builds a new Alice, counting calls on counter when non-nil.
func AliceFactory(counter *CallCounter) keydi.Factory {
	return keydi.Func(func(*keydi.Context) (*Alice, error) {
		if counter != nil {
			counter.Inc()
		}
		return &Alice{ID: NewTestService().ID}, nil
	})
}

// BobFactory builds a Bob around the Alice registered under KeyAlice.
func BobFactory(counter *CallCounter) keydi.Factory {
	return keydi.Func(func(ctx *keydi.Context) (*Bob, error) {
		if counter != nil {
			counter.Inc()
		}

		alice, err := keydi.Resolve[*Alice](ctx, KeyAlice)
		if err != nil {
			return nil, err
		}

		return &Bob{ID: NewTestService().ID, Alice: alice}, nil
	})
}

// ServiceFactory builds a new TestService.
func ServiceFactory(counter *CallCounter) keydi.Factory {
	return keydi.Func(func(*keydi.Context) (*TestService, error) {
		if counter != nil {
			counter.Inc()
		}
		return NewTestService(), nil
	})
}

// SessionFactory builds a Session for the user given as props, with the
// TestService registered under KeyService.
func SessionFactory() keydi.ParamFactory {
	return keydi.ParamFunc(func(ctx *keydi.Context, user string) (*Session, error) {
		svc, err := keydi.Resolve[*TestService](ctx, KeyService)
		if err != nil {
			return nil, err
		}
		return &Session{User: user, Service: svc}, nil
	})
}

// DependsOn returns a factory that resolves every key in deps in order and
// returns a fresh TestService.
func DependsOn(deps ...keydi.Key) keydi.Factory {
	return func(ctx *keydi.Context) (any, error) {
		for _, dep := range deps {
			if _, err := ctx.Resolve(dep); err != nil {
				return nil, err
			}
		}
		return NewTestService(), nil
	}
}

// Failing returns a factory that always fails with err.
func Failing(err error) keydi.Factory {
	return func(*keydi.Context) (any, error) {
		return nil, err
	}
}

// DisposableFactory returns a factory producing disposables that record
// into log.
func DisposableFactory(log *DisposalLog) keydi.Factory {
	return keydi.Func(func(*keydi.Context) (*TestDisposable, error) {
		return NewTestDisposable(log), nil
	})
}
