package keydi

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
)

// errInFlight is returned by getOrCreate when the calling goroutine is
// already creating key, which would otherwise wait on itself forever.
var errInFlight = errors.New("keydi: instance is being created by this goroutine")

// instanceCache holds the values of one caching scope: the provider-wide
// singleton cache or one scope's cache. It is safe for concurrent use, and
// getOrCreate runs create at most once per key even under concurrent first
// access.
type instanceCache struct {
	mu        sync.RWMutex
	instances map[Key]any
	order     []Key
	building  map[Key]uint64
	group     singleflight.Group
}

// newInstanceCache creates a new instance cache.
func newInstanceCache() *instanceCache {
	return &instanceCache{
		instances: make(map[Key]any),
		building:  make(map[Key]uint64),
	}
}

// get retrieves an instance from the cache.
func (c *instanceCache) get(key Key) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	instance, ok := c.instances[key]
	return instance, ok
}

// set stores an instance in the cache.
func (c *instanceCache) set(key Key, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.instances[key]; !exists {
		c.order = append(c.order, key)
	}
	c.instances[key] = instance
}

// getOrCreate returns the cached value for key, creating it with create on
// a miss. A failed create leaves the slot empty.
//
// A goroutine that asks for key while its own create for key is still
// running gets errInFlight. This happens when a factory reaches itself
// through a captured Provider or Scope instead of through its Context.
func (c *instanceCache) getOrCreate(key Key, create func() (any, error)) (any, error) {
	if instance, ok := c.get(key); ok {
		return instance, nil
	}

	gid := goroutineID()
	if gid != 0 && c.builder(key) == gid {
		return nil, errInFlight
	}

	instance, err, _ := c.group.Do(string(key), func() (any, error) {
		if instance, ok := c.get(key); ok {
			return instance, nil
		}

		c.mu.Lock()
		c.building[key] = gid
		c.mu.Unlock()
		defer func() {
			c.mu.Lock()
			delete(c.building, key)
			c.mu.Unlock()
		}()

		instance, err := create()
		if err != nil {
			return nil, err
		}

		c.set(key, instance)
		return instance, nil
	})

	return instance, err
}

// builder returns the goroutine creating key, or 0.
func (c *instanceCache) builder(key Key) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.building[key]
}

// len returns the number of cached instances.
func (c *instanceCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.instances)
}

// dispose closes every Disposable instance in reverse creation order and
// empties the cache.
func (c *instanceCache) dispose() []error {
	c.mu.Lock()
	order := c.order
	instances := c.instances
	c.order = nil
	c.instances = make(map[Key]any)
	c.mu.Unlock()

	var errs error
	for i := len(order) - 1; i >= 0; i-- {
		d, ok := instances[order[i]].(Disposable)
		if !ok {
			continue
		}
		if err := d.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", order[i], err))
		}
	}

	return multierr.Errors(errs)
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the current goroutine's id from its stack header. It
// returns 0 when the header cannot be parsed.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	b := bytes.TrimPrefix(buf[:runtime.Stack(buf, false)], goroutinePrefix)
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(b[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
