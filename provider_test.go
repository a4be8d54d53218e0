package keydi_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/junioryono/keydi"
	"github.com/junioryono/keydi/internal/testutil"
)

func TestProvider_Singleton(t *testing.T) {
	t.Run("stable within one provider", func(t *testing.T) {
		counter := &testutil.CallCounter{}
		provider := testutil.NewCollectionBuilder(t).
			WithSingleton(testutil.KeyService, testutil.ServiceFactory(counter)).
			BuildProvider()

		first := testutil.AssertResolvable[*testutil.TestService](t, provider, testutil.KeyService)
		second := testutil.AssertResolvable[*testutil.TestService](t, provider, testutil.KeyService)

		testutil.AssertSameInstance(t, first, second)
		assert.Equal(t, int64(1), counter.Count())
	})

	t.Run("distinct across providers built from one collection", func(t *testing.T) {
		collection := keydi.NewCollection()
		require.NoError(t, collection.AddSingleton(testutil.KeyService, testutil.ServiceFactory(nil)))

		p1, err := collection.Build()
		require.NoError(t, err)
		defer p1.Close()

		p2, err := collection.Build()
		require.NoError(t, err)
		defer p2.Close()

		s1 := testutil.AssertResolvable[*testutil.TestService](t, p1, testutil.KeyService)
		s2 := testutil.AssertResolvable[*testutil.TestService](t, p2, testutil.KeyService)

		testutil.AssertDifferentInstances(t, s1, s2)
		assert.NotEqual(t, p1.ID(), p2.ID())
	})

	t.Run("registrations after build do not leak into the provider", func(t *testing.T) {
		collection := keydi.NewCollection()
		require.NoError(t, collection.AddSingleton(testutil.KeyAlice, testutil.AliceFactory(nil)))

		provider, err := collection.Build()
		require.NoError(t, err)
		defer provider.Close()

		require.NoError(t, collection.AddSingleton(testutil.KeyBob, testutil.BobFactory(nil)))

		assert.True(t, provider.Contains(testutil.KeyAlice))
		assert.False(t, provider.Contains(testutil.KeyBob))
		testutil.AssertNotFound(t, provider, testutil.KeyBob)
	})

	t.Run("concurrent first access builds once", func(t *testing.T) {
		counter := &testutil.CallCounter{}
		provider := testutil.NewCollectionBuilder(t).
			WithSingleton(testutil.KeyService, keydi.Func(func(*keydi.Context) (*testutil.TestService, error) {
				counter.Inc()
				time.Sleep(5 * time.Millisecond)
				return testutil.NewTestService(), nil
			})).
			BuildProvider()

		const goroutines = 50
		results := make([]*testutil.TestService, goroutines)

		var wg sync.WaitGroup
		for i := range goroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()
				svc, err := keydi.Resolve[*testutil.TestService](provider, testutil.KeyService)
				assert.NoError(t, err)
				results[i] = svc
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), counter.Count())
		for _, svc := range results {
			testutil.AssertSameInstance(t, results[0], svc)
		}
	})

	t.Run("failed construction is retried", func(t *testing.T) {
		attempts := 0
		provider := testutil.NewCollectionBuilder(t).
			WithSingleton(testutil.KeyService, func(*keydi.Context) (any, error) {
				attempts++
				if attempts == 1 {
					return nil, testutil.ErrConstructor
				}
				return testutil.NewTestService(), nil
			}).
			BuildProvider()

		_, err := provider.Resolve(testutil.KeyService)
		require.ErrorIs(t, err, testutil.ErrConstructor)

		testutil.AssertResolvable[*testutil.TestService](t, provider, testutil.KeyService)
		assert.Equal(t, 2, attempts)
	})
}

func TestProvider_Scoped(t *testing.T) {
	t.Run("shared within one resolve call", func(t *testing.T) {
		provider := testutil.NewCollectionBuilder(t).
			WithScoped(testutil.KeyService, testutil.ServiceFactory(nil)).
			WithTransient("pair", func(ctx *keydi.Context) (any, error) {
				a, err := keydi.Resolve[*testutil.TestService](ctx, testutil.KeyService)
				if err != nil {
					return nil, err
				}
				b, err := keydi.Resolve[*testutil.TestService](ctx, testutil.KeyService)
				if err != nil {
					return nil, err
				}
				return [2]*testutil.TestService{a, b}, nil
			}).
			BuildProvider()

		pair := testutil.AssertResolvable[[2]*testutil.TestService](t, provider, "pair")
		testutil.AssertSameInstance(t, pair[0], pair[1])
	})

	t.Run("isolated across top-level resolve calls", func(t *testing.T) {
		provider := testutil.NewCollectionBuilder(t).
			WithScoped(testutil.KeyService, testutil.ServiceFactory(nil)).
			BuildProvider()

		first := testutil.AssertResolvable[*testutil.TestService](t, provider, testutil.KeyService)
		second := testutil.AssertResolvable[*testutil.TestService](t, provider, testutil.KeyService)

		testutil.AssertDifferentInstances(t, first, second)
	})
}

func TestProvider_Transient(t *testing.T) {
	provider := testutil.NewCollectionBuilder(t).
		WithTransient(testutil.KeyService, testutil.ServiceFactory(nil)).
		WithTransient("pair", func(ctx *keydi.Context) (any, error) {
			a, _ := keydi.Resolve[*testutil.TestService](ctx, testutil.KeyService)
			b, _ := keydi.Resolve[*testutil.TestService](ctx, testutil.KeyService)
			return [2]*testutil.TestService{a, b}, nil
		}).
		BuildProvider()

	pair := testutil.AssertResolvable[[2]*testutil.TestService](t, provider, "pair")
	testutil.AssertDifferentInstances(t, pair[0], pair[1])

	first := testutil.AssertResolvable[*testutil.TestService](t, provider, testutil.KeyService)
	second := testutil.AssertResolvable[*testutil.TestService](t, provider, testutil.KeyService)
	testutil.AssertDifferentInstances(t, first, second)
}

func TestProvider_CircularDependency(t *testing.T) {
	t.Run("two keys from either entry point", func(t *testing.T) {
		provider := testutil.NewCollectionBuilder(t).
			WithTransient("a", testutil.DependsOn("b")).
			WithTransient("b", testutil.DependsOn("a")).
			BuildProvider()

		_, err := provider.Resolve("a")
		cycle := testutil.AssertCircular(t, err, "a", "b")
		assert.Equal(t, keydi.Key("a"), cycle.Key)
		assert.Equal(t, keydi.Key("b"), cycle.Cause)
		assert.Equal(t, "a > b > a", cycle.Path())
		assert.True(t, keydi.IsCircular(err))
		assert.Equal(t, keydi.ErrorTypeCircular, keydi.TypeOf(err))

		_, err = provider.Resolve("b")
		testutil.AssertCircular(t, err, "b", "a")
	})

	t.Run("longer chain names the offending pair", func(t *testing.T) {
		provider := testutil.NewCollectionBuilder(t).
			WithTransient("root", testutil.DependsOn("a")).
			WithTransient("a", testutil.DependsOn("b")).
			WithScoped("b", testutil.DependsOn("c")).
			WithTransient("c", testutil.DependsOn("a")).
			BuildProvider()

		_, err := provider.Resolve("root")
		cycle := testutil.AssertCircular(t, err, "root", "a", "b", "c")
		assert.Equal(t, keydi.Key("a"), cycle.Key)
		assert.Equal(t, keydi.Key("c"), cycle.Cause)
		assert.Equal(t, "root > a > b > c > a", cycle.Path())
	})

	t.Run("self dependency", func(t *testing.T) {
		provider := testutil.NewCollectionBuilder(t).
			WithTransient("self", testutil.DependsOn("self")).
			BuildProvider()

		_, err := provider.Resolve("self")
		testutil.AssertCircular(t, err, "self")
	})

	t.Run("singleton cycle does not deadlock", func(t *testing.T) {
		provider := testutil.NewCollectionBuilder(t).
			WithSingleton("a", testutil.DependsOn("b")).
			WithSingleton("b", testutil.DependsOn("a")).
			BuildProvider()

		done := make(chan error, 1)
		go func() {
			_, err := provider.Resolve("a")
			done <- err
		}()

		select {
		case err := <-done:
			testutil.AssertCircular(t, err, "a", "b")
		case <-time.After(time.Second):
			t.Fatal("resolving a singleton cycle did not return")
		}
	})

	t.Run("singleton reaching itself through a captured provider", func(t *testing.T) {
		var provider keydi.Provider
		provider = testutil.NewCollectionBuilder(t).
			WithSingleton("a", func(*keydi.Context) (any, error) {
				return provider.Resolve("a")
			}).
			BuildProvider()

		err := resolveWithin(t, provider, "a")
		testutil.AssertCircular(t, err, "a")
	})

	t.Run("scoped key reaching itself through a captured scope", func(t *testing.T) {
		var scope keydi.Scope
		provider := testutil.NewCollectionBuilder(t).
			WithScoped("s", func(*keydi.Context) (any, error) {
				return scope.Resolve("s")
			}).
			BuildProvider()

		var err error
		scope, err = provider.CreateScope(t.Context())
		require.NoError(t, err)
		defer scope.Close()

		err = resolveWithin(t, scope, "s")
		testutil.AssertCircular(t, err, "s")
	})

	t.Run("escaped handle reaching a singleton under construction", func(t *testing.T) {
		var handle *keydi.Handle
		provider := testutil.NewCollectionBuilder(t).
			WithParameterized("h", func(ctx *keydi.Context, _ any) (any, error) {
				return ctx.Resolve("a")
			}).
			WithSingleton("a", func(*keydi.Context) (any, error) {
				return handle.Create(nil)
			}).
			BuildProvider()

		handle = testutil.AssertResolvable[*keydi.Handle](t, provider, "h")

		err := resolveWithin(t, provider, "a")
		cycle := testutil.AssertErrorType[*keydi.CircularDependencyError](t, err)
		assert.Equal(t, keydi.Key("a"), cycle.Key)
	})

	t.Run("trail is clean after a sibling failure", func(t *testing.T) {
		provider := testutil.NewCollectionBuilder(t).
			WithTransient("leaf", testutil.ServiceFactory(nil)).
			WithTransient("broken", testutil.Failing(testutil.ErrTest)).
			WithTransient("root", func(ctx *keydi.Context) (any, error) {
				_, err := ctx.Resolve("broken")
				require.Error(t, err)
				_, err = ctx.Resolve("leaf")
				require.NoError(t, err)
				assert.Equal(t, []keydi.Key{"root"}, ctx.Trail())
				return "ok", nil
			}).
			BuildProvider()

		testutil.AssertResolvable[string](t, provider, "root")
	})
}

// resolveWithin resolves key on another goroutine and fails the test if it
// does not return within a second.
func resolveWithin(t *testing.T, r keydi.Resolver, key keydi.Key) error {
	t.Helper()

	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve(key)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(time.Second):
		t.Fatalf("resolving %q did not return", key)
		return nil
	}
}

func TestProvider_ScopeViolation(t *testing.T) {
	t.Run("singleton depending on scoped", func(t *testing.T) {
		provider := testutil.NewCollectionBuilder(t).
			WithSingleton("cache", testutil.DependsOn("request")).
			WithScoped("request", testutil.ServiceFactory(nil)).
			BuildProvider()

		_, err := provider.Resolve("cache")
		testutil.AssertScopeViolation(t, err, "cache", "request")
		assert.True(t, keydi.IsScopeViolation(err))
		assert.Contains(t, err.Error(), `singleton "cache" depends on scoped "request"`)
	})

	t.Run("through a transient chain", func(t *testing.T) {
		provider := testutil.NewCollectionBuilder(t).
			WithSingleton("cache", testutil.DependsOn("helper")).
			WithTransient("helper", testutil.DependsOn("middle")).
			WithTransient("middle", testutil.DependsOn("request")).
			WithScoped("request", testutil.ServiceFactory(nil)).
			BuildProvider()

		_, err := provider.Resolve("cache")
		testutil.AssertScopeViolation(t, err, "cache", "request")
	})

	t.Run("innermost singleton is named", func(t *testing.T) {
		provider := testutil.NewCollectionBuilder(t).
			WithSingleton("outer", testutil.DependsOn("inner")).
			WithSingleton("inner", testutil.DependsOn("request")).
			WithScoped("request", testutil.ServiceFactory(nil)).
			BuildProvider()

		_, err := provider.Resolve("outer")
		testutil.AssertScopeViolation(t, err, "inner", "request")
	})

	t.Run("scoped may depend on singleton", func(t *testing.T) {
		provider := testutil.NewCollectionBuilder(t).
			WithSingleton(testutil.KeyAlice, testutil.AliceFactory(nil)).
			WithScoped(testutil.KeyBob, testutil.BobFactory(nil)).
			BuildProvider()

		b1 := testutil.AssertResolvable[*testutil.Bob](t, provider, testutil.KeyBob)
		b2 := testutil.AssertResolvable[*testutil.Bob](t, provider, testutil.KeyBob)

		testutil.AssertDifferentInstances(t, b1, b2)
		testutil.AssertSameInstance(t, b1.Alice, b2.Alice)
	})
}

func TestProvider_SingletonCapturesTransient(t *testing.T) {
	provider := testutil.NewCollectionBuilder(t).
		WithTransient(testutil.KeyAlice, testutil.AliceFactory(nil)).
		WithSingleton(testutil.KeyBob, testutil.BobFactory(nil)).
		BuildProvider()

	bob1 := testutil.AssertResolvable[*testutil.Bob](t, provider, testutil.KeyBob)
	bob2 := testutil.AssertResolvable[*testutil.Bob](t, provider, testutil.KeyBob)

	testutil.AssertSameInstance(t, bob1, bob2)
	testutil.AssertSameInstance(t, bob1.Alice, bob2.Alice)

	alice := testutil.AssertResolvable[*testutil.Alice](t, provider, testutil.KeyAlice)
	testutil.AssertDifferentInstances(t, bob1.Alice, alice)
}

func TestProvider_NotFound(t *testing.T) {
	provider := testutil.NewCollectionBuilder(t).
		WithSingleton("userService", testutil.ServiceFactory(nil)).
		WithTransient("needsMissing", testutil.DependsOn("missing")).
		BuildProvider()

	_, err := provider.Resolve("userservice")
	unknown := testutil.AssertErrorType[*keydi.UnknownKeyError](t, err)
	assert.Equal(t, keydi.Key("userservice"), unknown.Key)
	assert.Contains(t, err.Error(), "Did you mean")
	assert.Contains(t, err.Error(), "userService")

	_, err = provider.Resolve("needsMissing")
	unknown = testutil.AssertErrorType[*keydi.UnknownKeyError](t, err)
	assert.Equal(t, keydi.Key("missing"), unknown.Key)
}

func TestProvider_FactoryErrors(t *testing.T) {
	t.Run("returned error is wrapped once", func(t *testing.T) {
		provider := testutil.NewCollectionBuilder(t).
			WithTransient("broken", testutil.Failing(testutil.ErrConstructor)).
			WithTransient("parent", testutil.DependsOn("broken")).
			BuildProvider()

		_, err := provider.Resolve("parent")
		factoryErr := testutil.AssertErrorType[*keydi.FactoryError](t, err)
		assert.Equal(t, keydi.Key("broken"), factoryErr.Key)
		assert.ErrorIs(t, err, testutil.ErrConstructor)
		assert.Equal(t, keydi.ErrorTypeFactory, keydi.TypeOf(err))
	})

	t.Run("panic is recovered", func(t *testing.T) {
		provider := testutil.NewCollectionBuilder(t).
			WithTransient("panics", func(*keydi.Context) (any, error) {
				panic("boom")
			}).
			BuildProvider()

		_, err := provider.Resolve("panics")
		panicErr := testutil.AssertErrorType[*keydi.FactoryPanicError](t, err)
		assert.Equal(t, keydi.Key("panics"), panicErr.Key)
		assert.Equal(t, "boom", panicErr.Panic)
		assert.NotEmpty(t, panicErr.Stack)
	})

	t.Run("wrong resolved type", func(t *testing.T) {
		provider := testutil.NewCollectionBuilder(t).
			WithTransient(testutil.KeyService, keydi.Value("not a service")).
			BuildProvider()

		_, err := keydi.Resolve[*testutil.TestService](provider, testutil.KeyService)
		mismatch := testutil.AssertErrorType[*keydi.TypeMismatchError](t, err)
		assert.Equal(t, "resolved value", mismatch.Context)
		assert.Contains(t, err.Error(), "*testutil.TestService")
	})
}

func TestProvider_Hooks(t *testing.T) {
	var mu sync.Mutex
	var resolved []keydi.Key
	var failed []keydi.Key

	provider := testutil.NewCollectionBuilder(t).
		WithSingleton(testutil.KeyService, testutil.ServiceFactory(nil)).
		WithTransient("broken", testutil.Failing(testutil.ErrTest)).
		WithOptions(&keydi.ProviderOptions{
			OnResolved: func(key keydi.Key, d time.Duration) {
				mu.Lock()
				defer mu.Unlock()
				resolved = append(resolved, key)
				assert.GreaterOrEqual(t, d, time.Duration(0))
			},
			OnError: func(key keydi.Key, err error) {
				mu.Lock()
				defer mu.Unlock()
				failed = append(failed, key)
				assert.ErrorIs(t, err, testutil.ErrTest)
			},
		}).
		BuildProvider()

	_, err := provider.Resolve(testutil.KeyService)
	require.NoError(t, err)
	_, err = provider.Resolve("broken")
	require.Error(t, err)

	assert.Equal(t, []keydi.Key{testutil.KeyService}, resolved)
	assert.Equal(t, []keydi.Key{"broken"}, failed)
}

func TestProvider_Keys(t *testing.T) {
	provider := testutil.NewCollectionBuilder(t, keydi.WithSchema("c", "b", "a")).
		WithSingleton("b", testutil.ServiceFactory(nil)).
		WithTransient("a", testutil.ServiceFactory(nil)).
		BuildProvider()

	assert.Equal(t, []keydi.Key{"a", "b", "c"}, provider.Keys())
	assert.True(t, provider.Contains("a"))
	assert.False(t, provider.Contains("c"))

	_, err := provider.Resolve("c")
	testutil.AssertErrorType[*keydi.ExistenceError](t, err)
	assert.True(t, keydi.IsNotFound(err))
}

func TestProvider_WriteGraph(t *testing.T) {
	provider := testutil.NewCollectionBuilder(t).
		WithSingleton(testutil.KeyAlice, testutil.AliceFactory(nil)).
		WithScoped(testutil.KeyBob, testutil.BobFactory(nil)).
		BuildProvider()

	testutil.AssertResolvable[*testutil.Bob](t, provider, testutil.KeyBob)

	var dot bytes.Buffer
	require.NoError(t, provider.WriteGraph(&dot, keydi.GraphDOT))
	assert.Contains(t, dot.String(), "digraph")
	assert.Contains(t, dot.String(), `"bob" -> "alice"`)

	var text bytes.Buffer
	require.NoError(t, provider.WriteGraph(&text, keydi.GraphText))
	assert.Contains(t, text.String(), "alice")
	assert.Contains(t, text.String(), "bob")

	assert.Error(t, provider.WriteGraph(&text, keydi.GraphFormat(99)))
}

func TestProvider_Close(t *testing.T) {
	t.Run("disposes singletons in reverse creation order", func(t *testing.T) {
		log := &testutil.DisposalLog{}

		collection := keydi.NewCollection()
		require.NoError(t, collection.AddSingleton("first", testutil.DisposableFactory(log)))
		require.NoError(t, collection.AddSingleton("second", func(ctx *keydi.Context) (any, error) {
			if _, err := ctx.Resolve("first"); err != nil {
				return nil, err
			}
			return testutil.NewTestDisposable(log), nil
		}))

		provider, err := collection.Build()
		require.NoError(t, err)

		second := testutil.AssertResolvable[*testutil.TestDisposable](t, provider, "second")
		first := testutil.AssertResolvable[*testutil.TestDisposable](t, provider, "first")

		require.NoError(t, provider.Close())

		assert.True(t, first.IsDisposed())
		assert.True(t, second.IsDisposed())
		assert.Equal(t, []string{second.ID, first.ID}, log.IDs())
	})

	t.Run("closes open scopes first", func(t *testing.T) {
		log := &testutil.DisposalLog{}

		collection := keydi.NewCollection()
		require.NoError(t, collection.AddSingleton("singleton", testutil.DisposableFactory(log)))
		require.NoError(t, collection.AddScoped("scoped", testutil.DisposableFactory(log)))

		provider, err := collection.Build()
		require.NoError(t, err)

		scope, err := provider.CreateScope(t.Context())
		require.NoError(t, err)

		singleton := testutil.AssertResolvable[*testutil.TestDisposable](t, scope, "singleton")
		scoped := testutil.AssertResolvable[*testutil.TestDisposable](t, scope, "scoped")

		require.NoError(t, provider.Close())

		assert.True(t, scope.IsClosed())
		assert.Equal(t, []string{scoped.ID, singleton.ID}, log.IDs())
	})

	t.Run("aggregates disposal errors and logs them", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)

		collection := keydi.NewCollection()
		require.NoError(t, collection.AddSingleton("a", keydi.Value(testutil.NewTestDisposableWithError(nil, testutil.ErrDisposal))))
		require.NoError(t, collection.AddSingleton("b", keydi.Value(testutil.NewTestDisposable(nil))))

		provider, err := collection.BuildWithOptions(&keydi.ProviderOptions{Logger: zap.New(core)})
		require.NoError(t, err)

		_, err = provider.Resolve("a")
		require.NoError(t, err)
		_, err = provider.Resolve("b")
		require.NoError(t, err)

		err = provider.Close()
		disposal := testutil.AssertErrorType[*keydi.DisposalError](t, err)
		assert.Equal(t, "provider", disposal.Context)
		require.Len(t, disposal.Errors, 1)
		assert.ErrorIs(t, err, testutil.ErrDisposal)

		assert.Equal(t, 1, logs.FilterMessage("provider close failed").Len())
	})

	t.Run("second close is a no-op", func(t *testing.T) {
		provider := testutil.NewCollectionBuilder(t).
			WithSingleton(testutil.KeyService, testutil.ServiceFactory(nil)).
			BuildProvider()

		require.NoError(t, provider.Close())
		require.NoError(t, provider.Close())

		testutil.AssertProviderClosed(t, provider)
	})

	t.Run("scopes created during close are closed or refused", func(t *testing.T) {
		const n = 64

		for range 20 {
			provider := testutil.NewCollectionBuilder(t).
				WithScoped("scoped", testutil.ServiceFactory(nil)).
				BuildProvider()

			var (
				wg     sync.WaitGroup
				mu     sync.Mutex
				scopes []keydi.Scope
			)

			for range n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					scope, err := provider.CreateScope(context.Background())
					if err != nil {
						assert.ErrorIs(t, err, keydi.ErrProviderClosed)
						return
					}
					mu.Lock()
					scopes = append(scopes, scope)
					mu.Unlock()
				}()
			}

			require.NoError(t, provider.Close())
			wg.Wait()

			for _, scope := range scopes {
				assert.True(t, scope.IsClosed(), "scope %s outlived its provider", scope.ID())
			}
		}
	})
}

func TestProvider_ContextAccessors(t *testing.T) {
	var seen struct {
		depth     int
		trail     []keydi.Key
		singleton keydi.Key
		ok        bool
		scopeID   string
		provider  keydi.Provider
	}

	provider := testutil.NewCollectionBuilder(t).
		WithSingleton("outer", testutil.DependsOn("inner")).
		WithTransient("inner", func(ctx *keydi.Context) (any, error) {
			seen.depth = ctx.Depth()
			seen.trail = ctx.Trail()
			seen.singleton, seen.ok = ctx.NearestSingleton()
			seen.scopeID = ctx.ScopeID()
			seen.provider = ctx.Provider()
			return "inner", nil
		}).
		BuildProvider()

	_, err := provider.Resolve("outer")
	require.NoError(t, err)

	assert.Equal(t, 2, seen.depth)
	assert.Equal(t, []keydi.Key{"outer", "inner"}, seen.trail)
	assert.True(t, seen.ok)
	assert.Equal(t, keydi.Key("outer"), seen.singleton)
	assert.Empty(t, seen.scopeID)
	assert.Equal(t, provider.ID(), seen.provider.ID())
}

func TestProvider_ErrorsAreNotSwallowed(t *testing.T) {
	sentinel := errors.New("deep failure")

	provider := testutil.NewCollectionBuilder(t).
		WithTransient("l1", testutil.DependsOn("l2")).
		WithTransient("l2", testutil.DependsOn("l3")).
		WithTransient("l3", testutil.Failing(sentinel)).
		BuildProvider()

	_, err := provider.Resolve("l1")
	require.ErrorIs(t, err, sentinel)

	factoryErr := testutil.AssertErrorType[*keydi.FactoryError](t, err)
	assert.Equal(t, keydi.Key("l3"), factoryErr.Key)
}
