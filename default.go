package keydi

import "sync"

var (
	defaultMu       sync.RWMutex
	defaultProvider Provider
)

// SetDefault installs p as the process-wide default provider. It can be set
// once; a second call fails with ErrDefaultProviderSet until ResetDefault.
//
// The default provider exists for entry points that cannot receive a
// provider explicitly. Prefer passing the provider.
func SetDefault(p Provider) error {
	if p == nil {
		return ErrProviderNil
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultProvider != nil {
		return ErrDefaultProviderSet
	}

	defaultProvider = p
	return nil
}

// Default returns the default provider, if one was set.
func Default() (Provider, bool) {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultProvider, defaultProvider != nil
}

// ResetDefault closes the default provider and clears it. It fails with
// ErrNoDefaultProvider when none is set.
func ResetDefault() error {
	defaultMu.Lock()
	p := defaultProvider
	defaultProvider = nil
	defaultMu.Unlock()

	if p == nil {
		return ErrNoDefaultProvider
	}

	return p.Close()
}
