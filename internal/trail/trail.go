// Package trail tracks the chain of keys currently under construction
// during a single resolution walk.
package trail

import "sync/atomic"

// Entry is one frame on the trail. An entry is done once it has been left,
// and stays done forever; handles use this to tell whether the frame that
// produced them is still on the stack.
type Entry struct {
	Key    string
	Shared bool

	done atomic.Bool
}

// Done reports whether the entry has been left.
func (e *Entry) Done() bool {
	return e.done.Load()
}

// Trail is an ordered set of keys with a stack of the shared (singleton)
// frames among them. A Trail is not safe for concurrent use.
type Trail struct {
	entries []*Entry
	lookup  map[string]*Entry
	shared  []*Entry
}

// New creates an empty trail.
func New() *Trail {
	return &Trail{
		entries: make([]*Entry, 0, 8),
		lookup:  make(map[string]*Entry),
	}
}

// Enter pushes key onto the trail. It returns false, and leaves the trail
// untouched, when key is already present.
func (t *Trail) Enter(key string, shared bool) (*Entry, bool) {
	if _, exists := t.lookup[key]; exists {
		return nil, false
	}

	e := &Entry{Key: key, Shared: shared}
	t.entries = append(t.entries, e)
	t.lookup[key] = e
	if shared {
		t.shared = append(t.shared, e)
	}

	return e, true
}

// Leave pops e from the trail. Entries must be left in reverse order of
// entering; leaving anything but the top entry is a no-op.
func (t *Trail) Leave(e *Entry) {
	n := len(t.entries)
	if e == nil || n == 0 || t.entries[n-1] != e {
		return
	}

	t.entries[n-1] = nil
	t.entries = t.entries[:n-1]
	delete(t.lookup, e.Key)

	if e.Shared {
		t.shared = t.shared[:len(t.shared)-1]
	}

	e.done.Store(true)
}

// Clone returns an independent trail holding the same entries. Entries are
// shared, so Done on a cloned entry follows the original frame; leaving
// entries entered on the clone never touches t.
func (t *Trail) Clone() *Trail {
	c := &Trail{
		entries: make([]*Entry, len(t.entries), len(t.entries)+8),
		lookup:  make(map[string]*Entry, len(t.lookup)),
		shared:  make([]*Entry, len(t.shared)),
	}
	copy(c.entries, t.entries)
	copy(c.shared, t.shared)
	for k, e := range t.lookup {
		c.lookup[k] = e
	}
	return c
}

// Contains reports whether key is currently on the trail.
func (t *Trail) Contains(key string) bool {
	_, ok := t.lookup[key]
	return ok
}

// Len returns the number of entries on the trail.
func (t *Trail) Len() int {
	return len(t.entries)
}

// Top returns the most recently entered entry, or nil.
func (t *Trail) Top() *Entry {
	if len(t.entries) == 0 {
		return nil
	}
	return t.entries[len(t.entries)-1]
}

// Parent returns the entry directly beneath the top, or nil.
func (t *Trail) Parent() *Entry {
	if len(t.entries) < 2 {
		return nil
	}
	return t.entries[len(t.entries)-2]
}

// NearestShared returns the key of the innermost shared entry.
func (t *Trail) NearestShared() (string, bool) {
	if len(t.shared) == 0 {
		return "", false
	}
	return t.shared[len(t.shared)-1].Key, true
}

// Keys returns a copy of the keys on the trail, outermost first.
func (t *Trail) Keys() []string {
	keys := make([]string, len(t.entries))
	for i, e := range t.entries {
		keys[i] = e.Key
	}
	return keys
}
