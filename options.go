package keydi

import (
	"time"

	"go.uber.org/zap"
)

// ProviderOptions configures a Provider built by Collection.BuildWithOptions.
type ProviderOptions struct {
	// ValidateOnBuild resolves every declared key during the build and fails
	// the build with the aggregated errors. Singletons are constructed as a
	// side effect.
	ValidateOnBuild bool

	// Logger receives build, validation and disposal events.
	// Defaults to a no-op logger.
	Logger *zap.Logger

	// OnResolved is called after every successful top-level resolution.
	OnResolved func(key Key, duration time.Duration)

	// OnError is called after every failed top-level resolution.
	OnError func(key Key, err error)
}

func (o *ProviderOptions) logger() *zap.Logger {
	if o == nil || o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// CollectionOption configures a Collection.
type CollectionOption func(*collection)

// WithSchema declares the keys the collection is expected to hold. With a
// schema, adding an undeclared key fails with UnknownKeyError, and a
// declared key that is never registered fails with ExistenceError.
//
// Example:
//
//	const (
//	    KeyLogger keydi.Key = "logger"
//	    KeyStore  keydi.Key = "store"
//	)
//
//	collection := keydi.NewCollection(keydi.WithSchema(KeyLogger, KeyStore))
func WithSchema(keys ...Key) CollectionOption {
	return func(c *collection) {
		if c.schema == nil {
			c.schema = make(map[Key]struct{}, len(keys))
		}
		for _, k := range keys {
			c.schema[k] = struct{}{}
		}
	}
}
