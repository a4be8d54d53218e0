// Package keyditest helps unit test a single binding in isolation.
//
// Mock builds a provider in which the key under test is constructed by its
// real factory while every binding it depends on is replaced by a stub.
//
//	provider, err := keyditest.Mock(collection, keyditest.Stubs{
//	    "db":     fakeDB,
//	    "mailer": &fakeMailer{},
//	})
//	require.NoError(t, err)
//
//	svc, err := keydi.Resolve[*UserService](provider, "users")
package keyditest

import (
	"github.com/junioryono/keydi"
)

// Stubs maps keys to the values that stand in for them.
type Stubs map[keydi.Key]any

// Mock builds a provider from a copy of c in which a directly requested key
// is built for real and every key it reaches is served from stubs. A reached
// key without a stub fails with *keydi.ShouldBeMockedError. c is not modified.
func Mock(c keydi.Collection, stubs Stubs) (keydi.Provider, error) {
	return MockWithOptions(c, stubs, nil)
}

// MockWithOptions is Mock with custom provider options.
func MockWithOptions(c keydi.Collection, stubs Stubs, options *keydi.ProviderOptions) (keydi.Provider, error) {
	clone := c.Clone()

	for _, key := range clone.Keys() {
		if err := clone.Decorate(key, overlay(key, stubs)); err != nil {
			return nil, err
		}
	}

	return clone.BuildWithOptions(options)
}

func overlay(key keydi.Key, stubs Stubs) keydi.Decorator {
	return keydi.Intercept(func(ctx *keydi.Context, next keydi.Strategy) (any, error) {
		if ctx.Depth() == 1 {
			return next.Provide(ctx)
		}

		if stub, ok := stubs[key]; ok {
			return stub, nil
		}

		return nil, &keydi.ShouldBeMockedError{Key: key, Requester: ctx.Trail()[0]}
	})
}
