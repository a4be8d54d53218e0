package keydi

// ModuleOption represents a registration action within a module.
type ModuleOption func(Collection) error

// NewModule creates a new module with the given name and builders.
// Modules are a way to group related registrations together.
//
// Example:
//
//	var StorageModule = keydi.NewModule("storage",
//	    keydi.AddSingleton("db", NewDatabase),
//	    keydi.AddScoped("tx", NewTransaction),
//	)
//
//	var AppModule = keydi.NewModule("app",
//	    StorageModule,
//	    keydi.AddTransient("handler", NewHandler),
//	    keydi.AddParameterized("session", NewSession),
//	)
func NewModule(name string, builders ...ModuleOption) ModuleOption {
	return func(c Collection) error {
		for _, builder := range builders {
			if builder == nil {
				continue
			}

			if err := builder(c); err != nil {
				return &ModuleError{Module: name, Cause: err}
			}
		}

		return nil
	}
}

// AddSingleton creates a ModuleOption for adding a singleton binding.
func AddSingleton(key Key, factory Factory) ModuleOption {
	return func(c Collection) error {
		return c.AddSingleton(key, factory)
	}
}

// AddScoped creates a ModuleOption for adding a scoped binding.
func AddScoped(key Key, factory Factory) ModuleOption {
	return func(c Collection) error {
		return c.AddScoped(key, factory)
	}
}

// AddTransient creates a ModuleOption for adding a transient binding.
func AddTransient(key Key, factory Factory) ModuleOption {
	return func(c Collection) error {
		return c.AddTransient(key, factory)
	}
}

// AddParameterized creates a ModuleOption for adding a parameterized binding.
func AddParameterized(key Key, factory ParamFactory) ModuleOption {
	return func(c Collection) error {
		return c.AddParameterized(key, factory)
	}
}

// AddDecorator creates a ModuleOption that decorates key. The key must be
// registered by an earlier option.
func AddDecorator(key Key, decorator Decorator) ModuleOption {
	return func(c Collection) error {
		return c.Decorate(key, decorator)
	}
}
