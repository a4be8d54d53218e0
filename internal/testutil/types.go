package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Common test errors
var (
	ErrTest            = errors.New("test error")
	ErrConstructor     = errors.New("constructor error")
	ErrDisposal        = errors.New("disposal error")
	ErrAlreadyDisposed = errors.New("already disposed")
)

// TestService is a basic test service
type TestService struct {
	ID   string
	Data string
}

// NewTestService creates a new test service with a unique ID
func NewTestService() *TestService {
	return &TestService{
		ID:   uuid.NewString(),
		Data: "test",
	}
}

// Alice has no dependencies.
type Alice struct {
	ID string
}

// Bob depends on Alice.
type Bob struct {
	ID    string
	Alice *Alice
}

// Session is built from props by a Parameterized binding.
type Session struct {
	User    string
	Service *TestService
}

// TestDisposable records its own disposal, and the disposal order when it
// shares a DisposalLog with other instances.
type TestDisposable struct {
	ID           string
	disposeError error
	log          *DisposalLog

	mu       sync.Mutex
	disposed bool
}

func NewTestDisposable(log *DisposalLog) *TestDisposable {
	return &TestDisposable{ID: uuid.NewString(), log: log}
}

func NewTestDisposableWithError(log *DisposalLog, err error) *TestDisposable {
	return &TestDisposable{ID: uuid.NewString(), log: log, disposeError: err}
}

func (s *TestDisposable) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrAlreadyDisposed
	}

	s.disposed = true
	if s.log != nil {
		s.log.record(s.ID)
	}
	return s.disposeError
}

func (s *TestDisposable) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// DisposalLog collects the IDs of disposed instances in order.
type DisposalLog struct {
	mu  sync.Mutex
	ids []string
}

func (l *DisposalLog) record(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = append(l.ids, id)
}

// IDs returns the disposed IDs in disposal order.
func (l *DisposalLog) IDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.ids))
	copy(out, l.ids)
	return out
}

// CallCounter counts factory invocations.
type CallCounter struct {
	n atomic.Int64
}

func (c *CallCounter) Inc() int64 {
	return c.n.Add(1)
}

func (c *CallCounter) Count() int64 {
	return c.n.Load()
}
