// Package digbridge moves values between a go.uber.org/dig container and
// keydi bindings, for code bases migrating from one to the other.
package digbridge

import (
	"errors"
	"fmt"

	"go.uber.org/dig"

	"github.com/junioryono/keydi"
)

// ErrContainerNil is returned when a nil dig container is passed.
var ErrContainerNil = errors.New("digbridge: dig container cannot be nil")

// Import registers key in c with a factory that invokes container for a T.
// The dig container constructs T on first use under its own rules; lifetime
// controls how keydi caches what it gets back.
//
// Example:
//
//	container := dig.New()
//	container.Provide(NewLegacyStore)
//
//	err := digbridge.Import[*LegacyStore](collection, container, "store", keydi.Singleton)
func Import[T any](c keydi.Collection, container *dig.Container, key keydi.Key, lifetime keydi.Lifetime) error {
	if container == nil {
		return ErrContainerNil
	}

	return c.Add(key, lifetime, keydi.Func(func(*keydi.Context) (T, error) {
		var value T
		if err := container.Invoke(func(v T) { value = v }); err != nil {
			return value, fmt.Errorf("invoke dig container: %w", dig.RootCause(err))
		}
		return value, nil
	}))
}

// Export provides T to container by resolving key from r each time dig
// constructs T. dig caches the result, so r is asked at most once per
// container.
func Export[T any](container *dig.Container, r keydi.Resolver, key keydi.Key) error {
	if container == nil {
		return ErrContainerNil
	}

	return container.Provide(func() (T, error) {
		return keydi.Resolve[T](r, key)
	})
}

// Module returns a keydi module that imports T under key.
func Module[T any](container *dig.Container, key keydi.Key, lifetime keydi.Lifetime) keydi.ModuleOption {
	return func(c keydi.Collection) error {
		return Import[T](c, container, key, lifetime)
	}
}
