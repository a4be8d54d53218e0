package keydi

import (
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Collection is a mutable registry of key to (lifetime, factory) bindings.
// It is the blueprint from which Providers are built.
//
// Collection is safe for concurrent use. Providers built from it take a
// snapshot: later changes to the collection never reach a built provider.
//
// Example:
//
//	collection := keydi.NewCollection()
//	collection.AddSingleton("logger", NewLogger)
//	collection.AddScoped("db", NewDatabase)
//
//	provider, err := collection.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
type Collection interface {
	// Build creates a Provider from the registered bindings
	// using default options.
	Build() (Provider, error)

	// BuildWithOptions creates a Provider with custom options
	// for validation and behavior configuration.
	BuildWithOptions(options *ProviderOptions) (Provider, error)

	// AddModules applies one or more module configurations to the collection.
	AddModules(modules ...ModuleOption) error

	// Add registers factory under key. It fails with *DuplicateKeyError if
	// key is already registered.
	Add(key Key, lifetime Lifetime, factory Factory) error

	// AddSingleton registers a binding built once per provider.
	AddSingleton(key Key, factory Factory) error

	// AddScoped registers a binding built once per scope.
	AddScoped(key Key, factory Factory) error

	// AddTransient registers a binding built on every resolution.
	AddTransient(key Key, factory Factory) error

	// AddParameterized registers a binding that resolves to a *Handle.
	AddParameterized(key Key, factory ParamFactory) error

	// TryAdd is Add that reports false instead of failing on a duplicate key.
	TryAdd(key Key, lifetime Lifetime, factory Factory) (bool, error)

	// Replace removes any binding for key, then adds the new one.
	// Decorators registered for key are kept.
	Replace(key Key, lifetime Lifetime, factory Factory) error

	// Remove deletes the binding for key and its decorators.
	// It reports false if key was not registered.
	Remove(key Key) bool

	// Decorate wraps the strategy of key at build time. Decorators apply in
	// the order they were added.
	Decorate(key Key, decorator Decorator) error

	// Contains checks if key is registered.
	Contains(key Key) bool

	// Lookup returns the registration for key.
	Lookup(key Key) (Registration, bool)

	// Keys returns the registered keys in sorted order.
	Keys() []Key

	// Count returns the number of registered bindings.
	Count() int

	// Clone returns an independent copy with the same bindings,
	// decorators and schema.
	Clone() Collection
}

type collection struct {
	mu sync.RWMutex

	registrations map[Key]Registration

	// order is the insertion order of registrations
	order []Key

	decorators map[Key][]Decorator

	// schema is nil when no keys were declared
	schema map[Key]struct{}
}

// NewCollection creates a new empty Collection instance.
//
// Example:
//
//	collection := keydi.NewCollection()
//	collection.AddSingleton("logger", NewLogger)
//	provider, err := collection.Build()
func NewCollection(opts ...CollectionOption) Collection {
	c := &collection{
		registrations: make(map[Key]Registration),
		decorators:    make(map[Key][]Decorator),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Build creates a Provider from the registered bindings using default options.
func (c *collection) Build() (Provider, error) {
	return c.BuildWithOptions(nil)
}

// BuildWithOptions creates a Provider with custom options.
func (c *collection) BuildWithOptions(options *ProviderOptions) (Provider, error) {
	c.mu.RLock()
	registrations := make([]Registration, 0, len(c.order))
	for _, key := range c.order {
		registrations = append(registrations, c.registrations[key])
	}

	decorators := make(map[Key][]Decorator, len(c.decorators))
	for key, ds := range c.decorators {
		decorators[key] = slices.Clone(ds)
	}

	var schema map[Key]struct{}
	if c.schema != nil {
		schema = make(map[Key]struct{}, len(c.schema))
		for key := range c.schema {
			schema[key] = struct{}{}
		}
	}
	c.mu.RUnlock()

	p := newProvider(registrations, decorators, schema, options)

	if options != nil && options.ValidateOnBuild {
		if err := p.Validate(); err != nil {
			if closeErr := p.Close(); closeErr != nil {
				p.logger.Error("failed to close provider after validation failure", zap.Error(closeErr))
			}
			return nil, &BuildError{Phase: "validation", Cause: err}
		}
	}

	return p, nil
}

// AddModules applies one or more module configurations to the collection.
func (c *collection) AddModules(modules ...ModuleOption) error {
	for _, module := range modules {
		if module == nil {
			continue
		}

		if err := module(c); err != nil {
			return err
		}
	}

	return nil
}

func (c *collection) Add(key Key, lifetime Lifetime, factory Factory) error {
	reg, err := newRegistration(key, lifetime, ignoreProps(factory))
	if err != nil {
		return err
	}
	return c.add(reg)
}

func (c *collection) AddSingleton(key Key, factory Factory) error {
	return c.Add(key, Singleton, factory)
}

func (c *collection) AddScoped(key Key, factory Factory) error {
	return c.Add(key, Scoped, factory)
}

func (c *collection) AddTransient(key Key, factory Factory) error {
	return c.Add(key, Transient, factory)
}

func (c *collection) AddParameterized(key Key, factory ParamFactory) error {
	reg, err := newRegistration(key, Parameterized, factory)
	if err != nil {
		return err
	}
	return c.add(reg)
}

func (c *collection) TryAdd(key Key, lifetime Lifetime, factory Factory) (bool, error) {
	err := c.Add(key, lifetime, factory)
	if IsDuplicate(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *collection) Replace(key Key, lifetime Lifetime, factory Factory) error {
	reg, err := newRegistration(key, lifetime, ignoreProps(factory))
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkDeclared(key); err != nil {
		return err
	}

	if _, exists := c.registrations[key]; exists {
		c.order = slices.DeleteFunc(c.order, func(k Key) bool { return k == key })
	}

	c.registrations[key] = reg
	c.order = append(c.order, key)

	return nil
}

func (c *collection) Remove(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.registrations[key]; !exists {
		return false
	}

	delete(c.registrations, key)
	delete(c.decorators, key)
	c.order = slices.DeleteFunc(c.order, func(k Key) bool { return k == key })

	return true
}

func (c *collection) Decorate(key Key, decorator Decorator) error {
	if decorator == nil {
		return ErrDecoratorNil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.registrations[key]; !exists {
		if err := c.checkDeclared(key); err != nil {
			return err
		}
		return &ExistenceError{Key: key}
	}

	c.decorators[key] = append(c.decorators[key], decorator)
	return nil
}

func (c *collection) Contains(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.registrations[key]
	return ok
}

func (c *collection) Lookup(key Key) (Registration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reg, ok := c.registrations[key]
	return reg, ok
}

func (c *collection) Keys() []Key {
	c.mu.RLock()
	keys := slices.Clone(c.order)
	c.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

func (c *collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.registrations)
}

func (c *collection) Clone() Collection {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := &collection{
		registrations: make(map[Key]Registration, len(c.registrations)),
		order:         slices.Clone(c.order),
		decorators:    make(map[Key][]Decorator, len(c.decorators)),
	}

	for key, reg := range c.registrations {
		clone.registrations[key] = reg
	}
	for key, ds := range c.decorators {
		clone.decorators[key] = slices.Clone(ds)
	}
	if c.schema != nil {
		clone.schema = make(map[Key]struct{}, len(c.schema))
		for key := range c.schema {
			clone.schema[key] = struct{}{}
		}
	}

	return clone
}

func (c *collection) add(reg Registration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkDeclared(reg.key); err != nil {
		return err
	}

	if _, exists := c.registrations[reg.key]; exists {
		return &DuplicateKeyError{Key: reg.key}
	}

	c.registrations[reg.key] = reg
	c.order = append(c.order, reg.key)

	return nil
}

// checkDeclared must be called with c.mu held.
func (c *collection) checkDeclared(key Key) error {
	if c.schema == nil {
		return nil
	}

	if _, ok := c.schema[key]; ok {
		return nil
	}

	available := make([]Key, 0, len(c.schema))
	for k := range c.schema {
		available = append(available, k)
	}
	slices.Sort(available)

	return &UnknownKeyError{Key: key, Available: available}
}
