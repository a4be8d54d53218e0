package keydi

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/junioryono/keydi/internal/graph"
)

// Resolver resolves keys to values. Provider, Scope and Context implement it.
type Resolver interface {
	Resolve(key Key) (any, error)
}

// Provider is the immutable container built from a Collection.
type Provider interface {
	Disposable
	Resolver

	// ID returns the unique identifier for this provider instance.
	ID() string

	// Contains reports whether key is registered.
	Contains(key Key) bool

	// Keys returns every declared key in sorted order.
	Keys() []Key

	// Validate resolves every declared key and returns a *MultiError
	// holding every failure. It is not a dry run: singletons are built.
	Validate() error

	// CreateScope creates a scope whose resolutions share one scope cache.
	// The scope is closed when ctx is cancelled.
	CreateScope(ctx context.Context) (Scope, error)

	// WriteGraph writes the dependency edges observed so far.
	WriteGraph(w io.Writer, format GraphFormat) error
}

// GraphFormat selects the output of Provider.WriteGraph.
type GraphFormat int

const (
	// GraphDOT renders Graphviz DOT.
	GraphDOT GraphFormat = iota
	// GraphText renders a plain-text listing grouped by depth.
	GraphText
)

// provider is the concrete implementation of Provider.
type provider struct {
	id string

	// Bindings (immutable after build)
	strategies map[Key]Strategy
	schema     map[Key]struct{}
	declared   []Key

	singletons *instanceCache
	graph      *graph.DependencyGraph

	logger     *zap.Logger
	onResolved func(Key, time.Duration)
	onError    func(Key, error)

	scopes   map[*scope]struct{}
	scopesMu sync.Mutex

	closed atomic.Bool
}

func newProvider(registrations []Registration, decorators map[Key][]Decorator, schema map[Key]struct{}, options *ProviderOptions) *provider {
	p := &provider{
		id:         uuid.NewString(),
		strategies: make(map[Key]Strategy, len(registrations)),
		schema:     schema,
		singletons: newInstanceCache(),
		graph:      graph.NewDependencyGraph(),
		logger:     options.logger(),
		scopes:     make(map[*scope]struct{}),
	}

	if options != nil {
		p.onResolved = options.OnResolved
		p.onError = options.OnError
	}

	declared := make(map[Key]struct{}, len(registrations)+len(schema))
	for _, reg := range registrations {
		strategy := reg.newStrategy(p.singletons)
		for _, decorate := range decorators[reg.key] {
			strategy = decorate(strategy)
		}

		p.strategies[reg.key] = strategy
		p.graph.AddNode(graph.NodeKey(reg.key), reg.lifetime.String())
		declared[reg.key] = struct{}{}
	}
	for k := range schema {
		declared[k] = struct{}{}
	}

	p.declared = make([]Key, 0, len(declared))
	for k := range declared {
		p.declared = append(p.declared, k)
	}
	slices.Sort(p.declared)

	p.logger = p.logger.With(zap.String("provider", p.id))
	p.logger.Debug("provider built", zap.Int("bindings", len(p.strategies)))

	return p
}

// ID returns the unique identifier for the provider.
func (p *provider) ID() string {
	return p.id
}

// Resolve resolves key in a throwaway scope: Scoped values are shared within
// this call only. Scoped instances created this way are not tracked for
// disposal; use CreateScope when they hold resources.
func (p *provider) Resolve(key Key) (any, error) {
	if p.isClosed() {
		return nil, ErrProviderClosed
	}

	return p.resolve(key, newInstanceCache(), nil)
}

func (p *provider) resolve(key Key, cache *instanceCache, s *scope) (any, error) {
	start := time.Now()

	value, err := p.newContext(cache, s).Resolve(key)
	if err != nil {
		if p.onError != nil {
			p.onError(key, err)
		}
		return nil, err
	}

	if p.onResolved != nil {
		p.onResolved(key, time.Since(start))
	}

	return value, nil
}

// Contains reports whether key is registered.
func (p *provider) Contains(key Key) bool {
	_, ok := p.strategies[key]
	return ok
}

// Keys returns every declared key in sorted order.
func (p *provider) Keys() []Key {
	return slices.Clone(p.declared)
}

// Validate resolves every declared key, collecting every failure.
func (p *provider) Validate() error {
	if p.isClosed() {
		return ErrProviderClosed
	}

	var errs error
	for _, key := range p.declared {
		if _, err := p.resolve(key, newInstanceCache(), nil); err != nil {
			p.logger.Warn("validation failed",
				zap.String("key", string(key)),
				zap.Stringer("type", TypeOf(err)),
				zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}

	if errs == nil {
		return nil
	}

	return &MultiError{Errors: multierr.Errors(errs)}
}

// CreateScope creates a new scope.
func (p *provider) CreateScope(ctx context.Context) (Scope, error) {
	if p.isClosed() {
		return nil, ErrProviderClosed
	}

	if ctx == nil {
		ctx = context.Background()
	}

	// Close nils scopes under this lock. Holding it also keeps the scope's
	// context hook from untracking s before s is tracked.
	p.scopesMu.Lock()
	defer p.scopesMu.Unlock()

	if p.scopes == nil {
		return nil, ErrProviderClosed
	}

	s := newScope(p, ctx)
	p.scopes[s] = struct{}{}

	return s, nil
}

// WriteGraph writes the observed dependency graph.
func (p *provider) WriteGraph(w io.Writer, format GraphFormat) error {
	v := graph.NewVisualizer(p.graph)
	switch format {
	case GraphDOT:
		return v.WriteDOT(w)
	case GraphText:
		return v.WriteText(w)
	default:
		return fmt.Errorf("unknown graph format %d", format)
	}
}

// Close closes every open scope, then disposes singletons in reverse order
// of creation.
func (p *provider) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error

	p.scopesMu.Lock()
	scopes := make([]*scope, 0, len(p.scopes))
	for s := range p.scopes {
		scopes = append(scopes, s)
	}
	p.scopes = nil
	p.scopesMu.Unlock()

	for _, s := range scopes {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("scope %s: %w", s.id, err))
		}
	}

	errs = append(errs, p.singletons.dispose()...)

	if len(errs) > 0 {
		err := &DisposalError{Context: "provider", Errors: errs}
		p.logger.Error("provider close failed", zap.Error(err))
		return err
	}

	p.logger.Debug("provider closed")
	return nil
}

func (p *provider) isClosed() bool {
	return p.closed.Load()
}

// strategyFor finds the strategy for key.
func (p *provider) strategyFor(key Key) (Strategy, error) {
	if strategy, ok := p.strategies[key]; ok {
		return strategy, nil
	}

	if _, declared := p.schema[key]; declared {
		return nil, &ExistenceError{Key: key}
	}

	return nil, &UnknownKeyError{Key: key, Available: p.Keys()}
}

// recordEdge records that from resolved to. Synthetic keys are skipped.
func (p *provider) recordEdge(from, to Key) {
	if !p.Contains(from) || !p.Contains(to) {
		return
	}
	p.graph.AddEdge(graph.NodeKey(from), graph.NodeKey(to))
}

func (p *provider) untrack(s *scope) {
	p.scopesMu.Lock()
	defer p.scopesMu.Unlock()

	if p.scopes != nil {
		delete(p.scopes, s)
	}
}
