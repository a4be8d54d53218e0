package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/junioryono/keydi"
)

// CollectionBuilder provides a fluent interface for building test collections
type CollectionBuilder struct {
	t          *testing.T
	collection keydi.Collection
	options    *keydi.ProviderOptions
}

// NewCollectionBuilder creates a new CollectionBuilder
func NewCollectionBuilder(t *testing.T, opts ...keydi.CollectionOption) *CollectionBuilder {
	return &CollectionBuilder{
		t:          t,
		collection: keydi.NewCollection(opts...),
		options:    &keydi.ProviderOptions{},
	}
}

// With adds a binding to the collection
func (b *CollectionBuilder) With(key keydi.Key, lifetime keydi.Lifetime, factory keydi.Factory) *CollectionBuilder {
	b.t.Helper()
	require.NoError(b.t, b.collection.Add(key, lifetime, factory))
	return b
}

// WithSingleton adds a singleton binding to the collection
func (b *CollectionBuilder) WithSingleton(key keydi.Key, factory keydi.Factory) *CollectionBuilder {
	return b.With(key, keydi.Singleton, factory)
}

// WithScoped adds a scoped binding to the collection
func (b *CollectionBuilder) WithScoped(key keydi.Key, factory keydi.Factory) *CollectionBuilder {
	return b.With(key, keydi.Scoped, factory)
}

// WithTransient adds a transient binding to the collection
func (b *CollectionBuilder) WithTransient(key keydi.Key, factory keydi.Factory) *CollectionBuilder {
	return b.With(key, keydi.Transient, factory)
}

// WithParameterized adds a parameterized binding to the collection
func (b *CollectionBuilder) WithParameterized(key keydi.Key, factory keydi.ParamFactory) *CollectionBuilder {
	b.t.Helper()
	require.NoError(b.t, b.collection.AddParameterized(key, factory))
	return b
}

// WithDecorator adds a decorator to the collection
func (b *CollectionBuilder) WithDecorator(key keydi.Key, decorator keydi.Decorator) *CollectionBuilder {
	b.t.Helper()
	require.NoError(b.t, b.collection.Decorate(key, decorator))
	return b
}

// WithModule adds a module to the collection
func (b *CollectionBuilder) WithModule(module keydi.ModuleOption) *CollectionBuilder {
	b.t.Helper()
	require.NoError(b.t, b.collection.AddModules(module))
	return b
}

// WithOptions sets the provider options used by BuildProvider
func (b *CollectionBuilder) WithOptions(options *keydi.ProviderOptions) *CollectionBuilder {
	b.options = options
	return b
}

// Collection returns the built collection
func (b *CollectionBuilder) Collection() keydi.Collection {
	return b.collection
}

// BuildProvider builds a provider and closes it when the test ends
func (b *CollectionBuilder) BuildProvider() keydi.Provider {
	b.t.Helper()

	provider, err := b.collection.BuildWithOptions(b.options)
	require.NoError(b.t, err, "failed to build provider")

	b.t.Cleanup(func() {
		provider.Close()
	})

	return provider
}
