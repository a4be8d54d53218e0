// Package keydi provides a key-based dependency injection runtime.
//
// Bindings are registered in a Collection under explicit keys, each with a
// lifetime and a factory function. Building the collection yields an
// immutable Provider that constructs the object graph on demand, detecting
// missing bindings, circular dependencies and lifetime violations as it goes.
//
// # Basic Usage
//
//	collection := keydi.NewCollection()
//	collection.AddSingleton("config", keydi.Value(cfg))
//	collection.AddScoped("db", NewDatabase)
//	collection.AddTransient("handler", NewHandler)
//
//	provider, err := collection.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	handler, err := keydi.Resolve[*Handler](provider, "handler")
//
// # Factories
//
// A factory receives the *Context of the resolution in progress and pulls
// its dependencies from it. Dependencies are resolved only when asked for,
// so branches a factory never touches are never built:
//
//	func NewHandler(ctx *keydi.Context) (any, error) {
//	    db, err := keydi.Resolve[*Database](ctx, "db")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return &Handler{db: db}, nil
//	}
//
// keydi.Func adapts a typed constructor to the Factory shape.
//
// # Lifetimes
//
//   - Singleton: one instance per Provider
//   - Scoped: one instance per scope; a top-level Provider.Resolve call is
//     its own scope, and Provider.CreateScope makes a longer-lived one
//   - Transient: a new instance on every resolution
//   - Parameterized: resolves to a *Handle whose Create(props) builds a new,
//     independent instance on every call
//
// A Singleton must not depend on a Scoped binding, directly or through any
// chain of other bindings. Such a resolution fails with *ScopeViolationError.
// A Singleton may depend on a Transient: the instance it receives is captured
// for the lifetime of the provider.
//
// # Errors
//
// Every failure is one of a small set of typed errors: *DuplicateKeyError,
// *UnknownKeyError, *ExistenceError, *CircularDependencyError,
// *ScopeViolationError and *MultiError (from Validate). TypeOf classifies
// any error returned by the package.
//
//	if _, err := provider.Resolve("a"); keydi.IsCircular(err) {
//	    var cycle *keydi.CircularDependencyError
//	    errors.As(err, &cycle)
//	    fmt.Println(cycle.Path()) // a > b > a
//	}
//
// # Validation
//
// Provider.Validate resolves every declared key and reports every failure at
// once. Set ProviderOptions.ValidateOnBuild to fail the build instead.
// Validation is not a dry run: singletons are constructed.
//
// # Scopes
//
// Scopes isolate Scoped instances, typically one per HTTP request:
//
//	scope, err := provider.CreateScope(r.Context())
//	if err != nil {
//	    return err
//	}
//	defer scope.Close()
//
//	tx, err := keydi.Resolve[*Tx](scope, "tx")
//
// The chi and gin subpackages provide middleware that does this for you.
//
// # Disposal
//
// Instances implementing Disposable are closed in reverse order of creation
// when their scope or provider closes.
package keydi
