package keydi

import (
	"fmt"

	"github.com/junioryono/keydi/internal/trail"
)

// Handle is what a Parameterized registration resolves to. Each call to
// Create builds a new, independent instance; the handle itself caches nothing.
//
// Example:
//
//	handle, err := keydi.Resolve[*keydi.Handle](provider, "session")
//	if err != nil {
//	    return err
//	}
//	session, err := keydi.Create[*Session](handle, SessionProps{User: "alice"})
type Handle struct {
	strategy *parameterizedStrategy

	// origin is the walk that produced the handle, and owner the frame that
	// requested it (nil when the handle was requested at top level).
	origin *Context
	owner  *trail.Entry

	// singleton is the nearest singleton under construction when the handle
	// was produced, if any.
	singleton Key
}

// Key returns the key of the Parameterized registration.
func (h *Handle) Key() Key {
	return h.strategy.key
}

// Create builds a new instance from props.
//
// When Create is called while the frame that requested the handle is still
// being constructed, the instance is built inside that unfinished walk and
// shares its scope. Otherwise the instance gets a scope of its own, so its
// Scoped dependencies are isolated from every other instance. In both cases
// an instance built beneath a singleton keeps that singleton's restriction
// on Scoped dependencies.
func (h *Handle) Create(props any) (any, error) {
	if h.owner != nil && !h.owner.Done() {
		return h.createReentrant(props)
	}
	return h.createEscaped(props)
}

// createReentrant builds inside the still-open walk. The constructor
// placeholder stays on the trail while the factory runs, so a factory that
// creates its own kind before returning fails as circular.
func (h *Handle) createReentrant(props any) (any, error) {
	ctx := h.origin
	return ctx.enter(h.constructorKey(), false, func() (any, error) {
		return ctx.invoke(h.strategy.key, h.strategy.factory, props)
	})
}

// createEscaped builds in a fresh walk with its own scope, tagged with a
// numbered instance key.
func (h *Handle) createEscaped(props any) (any, error) {
	p := h.origin.provider
	if p.isClosed() {
		return nil, ErrProviderClosed
	}

	ctx := p.newContext(newInstanceCache(), nil)
	instance := h.instanceKey(h.strategy.counter.Add(1))
	shared := h.singleton != ""

	return ctx.enter(h.constructorKey(), false, func() (any, error) {
		return ctx.enter(instance, shared, func() (any, error) {
			return ctx.invoke(h.strategy.key, h.strategy.factory, props)
		})
	})
}

func (h *Handle) constructorKey() Key {
	return h.strategy.key + "@constructor"
}

func (h *Handle) instanceKey(n uint64) Key {
	k := Key(fmt.Sprintf("%s#%d", h.strategy.key, n))
	if h.singleton != "" {
		k = h.singleton + "@" + k
	}
	return k
}
