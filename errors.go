package keydi

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================

var (
	// Registration errors.
	ErrKeyEmpty     = errors.New("service key cannot be empty")
	ErrFactoryNil   = errors.New("factory cannot be nil")
	ErrDecoratorNil = errors.New("decorator cannot be nil")

	// Lifecycle errors.
	ErrProviderNil        = errors.New("service provider cannot be nil")
	ErrProviderClosed     = errors.New("service provider has been closed")
	ErrScopeClosed        = errors.New("scope has been closed")
	ErrScopeNotInContext  = errors.New("no scope found in context")
	ErrDefaultProviderSet = errors.New("default provider has already been set")
	ErrNoDefaultProvider  = errors.New("no default provider has been set")
)

var (
	_ error = (*LifetimeError)(nil)
	_ error = (*DuplicateKeyError)(nil)
	_ error = (*UnknownKeyError)(nil)
	_ error = (*ExistenceError)(nil)
	_ error = (*CircularDependencyError)(nil)
	_ error = (*ScopeViolationError)(nil)
	_ error = (*MultiError)(nil)
	_ error = (*FactoryError)(nil)
	_ error = (*FactoryPanicError)(nil)
	_ error = (*TypeMismatchError)(nil)
	_ error = (*ShouldBeMockedError)(nil)
	_ error = (*BuildError)(nil)
	_ error = (*ModuleError)(nil)
	_ error = (*DisposalError)(nil)
)

// ErrorType classifies the errors produced by resolution and registration.
// It is the stable contract collaborators switch on.
type ErrorType int

const (
	// ErrorTypeNone is returned by TypeOf for errors outside the taxonomy.
	ErrorTypeNone ErrorType = iota
	ErrorTypeDuplicate
	ErrorTypeUnknown
	ErrorTypeExistence
	ErrorTypeCircular
	ErrorTypeScopeViolation
	ErrorTypeMulti
	ErrorTypeShouldBeMocked
	ErrorTypeFactory
)

// String returns the string representation of the ErrorType.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeNone:
		return "none"
	case ErrorTypeDuplicate:
		return "duplicate"
	case ErrorTypeUnknown:
		return "unknown"
	case ErrorTypeExistence:
		return "existence"
	case ErrorTypeCircular:
		return "circular"
	case ErrorTypeScopeViolation:
		return "scope_violation"
	case ErrorTypeMulti:
		return "multi"
	case ErrorTypeShouldBeMocked:
		return "should_be_mocked"
	case ErrorTypeFactory:
		return "factory"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// typedError is implemented by every error in the taxonomy.
type typedError interface {
	error
	Type() ErrorType
}

// TypeOf returns the ErrorType of the first taxonomy error in err's chain.
func TypeOf(err error) ErrorType {
	var te typedError
	if errors.As(err, &te) {
		return te.Type()
	}
	return ErrorTypeNone
}

// IsNotFound reports whether err is caused by a missing registration.
func IsNotFound(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeUnknown, ErrorTypeExistence:
		return true
	}
	return false
}

// IsCircular reports whether err is caused by a circular dependency.
func IsCircular(err error) bool {
	var target *CircularDependencyError
	return errors.As(err, &target)
}

// IsScopeViolation reports whether err is caused by a singleton capturing a scoped service.
func IsScopeViolation(err error) bool {
	var target *ScopeViolationError
	return errors.As(err, &target)
}

// IsDuplicate reports whether err is caused by a duplicate registration.
func IsDuplicate(err error) bool {
	var target *DuplicateKeyError
	return errors.As(err, &target)
}

// ========================================
// Typed Errors for Rich Context
// ========================================

// LifetimeError indicates an invalid lifetime value.
type LifetimeError struct {
	Value any
}

func (e *LifetimeError) Error() string {
	return fmt.Sprintf("invalid service lifetime: %v", e.Value)
}

// DuplicateKeyError indicates a key was registered twice.
type DuplicateKeyError struct {
	Key Key
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("service %q already registered (use TryAdd if it may be added in multiple places, or Replace)", e.Key)
}

func (e *DuplicateKeyError) Type() ErrorType { return ErrorTypeDuplicate }

// UnknownKeyError indicates a key that has no slot in the collection.
type UnknownKeyError struct {
	Key Key

	// Available holds the registered keys, used for suggestions.
	Available []Key
}

func (e *UnknownKeyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "service not found: %q is not a known key", e.Key)

	if similar := findSimilarKeys(e.Key, e.Available); len(similar) > 0 {
		b.WriteString("\n\nDid you mean one of these?\n")
		for _, k := range similar {
			fmt.Fprintf(&b, "  • %s\n", k)
		}
	}

	return b.String()
}

func (e *UnknownKeyError) Type() ErrorType { return ErrorTypeUnknown }

// ExistenceError indicates a key declared in the schema that was never registered.
type ExistenceError struct {
	Key Key
}

func (e *ExistenceError) Error() string {
	return fmt.Sprintf("service %q is declared but was never registered", e.Key)
}

func (e *ExistenceError) Type() ErrorType { return ErrorTypeExistence }

// CircularDependencyError indicates a key was requested while it was
// already under construction.
type CircularDependencyError struct {
	// Key is the key that was re-entered.
	Key Key

	// Cause is the key whose factory requested Key again.
	Cause Key

	// Chain is the full trail at detection time, outermost first.
	Chain []Key
}

func (e *CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected: ")
	b.WriteString(e.Path())
	fmt.Fprintf(&b, "\n\n%q and %q depend on each other, no matter how long the chain between them is.\n", e.Key, e.Cause)
	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Resolve one side lazily from inside a method instead of the factory\n")
	b.WriteString("  • Use a Parameterized registration and call Create after construction\n")
	b.WriteString("  • Restructure to remove the circular relationship\n")
	return b.String()
}

// Path returns the chain rendered as "a > b > a".
func (e *CircularDependencyError) Path() string {
	parts := make([]string, 0, len(e.Chain)+1)
	for _, k := range e.Chain {
		parts = append(parts, string(k))
	}
	parts = append(parts, string(e.Key))
	return strings.Join(parts, " > ")
}

func (e *CircularDependencyError) Type() ErrorType { return ErrorTypeCircular }

// ScopeViolationError indicates a Scoped service was requested beneath a
// Singleton that is still being constructed.
type ScopeViolationError struct {
	Singleton Key
	Scoped    Key
}

func (e *ScopeViolationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "lifetime conflict: singleton %q depends on scoped %q\n\n", e.Singleton, e.Scoped)
	b.WriteString("Singleton services are created once and live for the provider lifetime.\n")
	b.WriteString("Scoped services are created per scope and may have different values in different scopes.\n")
	b.WriteString("A singleton depending on a scoped service would lock one scope's value in forever.\n\n")
	b.WriteString("To resolve this:\n")
	fmt.Fprintf(&b, "  • Change %s to Scoped or Transient lifetime\n", e.Singleton)
	fmt.Fprintf(&b, "  • Change %s to Singleton lifetime\n", e.Scoped)
	return b.String()
}

func (e *ScopeViolationError) Type() ErrorType { return ErrorTypeScopeViolation }

// MultiError aggregates the failures found by Provider.Validate.
type MultiError struct {
	Errors []error
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("dependency validation failed: %v", e.Errors[0])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "dependency validation failed with %d errors:", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "\n  %d. %v", i+1, err)
	}
	return b.String()
}

func (e *MultiError) Unwrap() []error {
	return e.Errors
}

func (e *MultiError) Type() ErrorType { return ErrorTypeMulti }

// FactoryError wraps an error returned by a registration's factory.
type FactoryError struct {
	Key   Key
	Cause error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("factory for %q failed: %v", e.Key, e.Cause)
}

func (e *FactoryError) Unwrap() error {
	return e.Cause
}

func (e *FactoryError) Type() ErrorType { return ErrorTypeFactory }

// FactoryPanicError indicates a factory panicked.
// It captures the panic value and stack trace for debugging.
type FactoryPanicError struct {
	Key   Key
	Panic any
	Stack []byte
}

func (e *FactoryPanicError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "factory for %q panicked: %v\n", e.Key, e.Panic)

	b.WriteString("\nFactories should be pure dependency wiring - avoid operations that can panic.\n")

	if len(e.Stack) > 0 {
		b.WriteString("\nStack trace:\n")
		b.Write(e.Stack)
	}

	return b.String()
}

func (e *FactoryPanicError) Type() ErrorType { return ErrorTypeFactory }

// TypeMismatchError indicates a resolved value or props had the wrong type.
type TypeMismatchError struct {
	Key      Key
	Expected reflect.Type
	Actual   reflect.Type
	Context  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s for %q: expected %s, got %s", e.Context, e.Key, formatType(e.Expected), formatType(e.Actual))
}

// ShouldBeMockedError indicates a dependency was reached in a mocked provider
// without a stub to stand in for it.
type ShouldBeMockedError struct {
	Key Key

	// Requester is the directly requested key whose graph reached Key.
	Requester Key
}

func (e *ShouldBeMockedError) Error() string {
	return fmt.Sprintf("%q was resolved as a dependency of %q, but no mock was set up for it", e.Key, e.Requester)
}

func (e *ShouldBeMockedError) Type() ErrorType { return ErrorTypeShouldBeMocked }

// BuildError wraps errors that occur while building a provider.
type BuildError struct {
	Phase string
	Cause error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build failed during %s phase: %v", e.Phase, e.Cause)
}

func (e *BuildError) Unwrap() error {
	return e.Cause
}

// ModuleError wraps an error returned while applying a module.
type ModuleError struct {
	Module string
	Cause  error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e *ModuleError) Unwrap() error {
	return e.Cause
}

// DisposalError aggregates disposal errors.
type DisposalError struct {
	Context string // "provider", "scope"
	Errors  []error
}

func (e *DisposalError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s disposal failed: %v", e.Context, e.Errors[0])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s disposal failed with %d errors:", e.Context, len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "\n  %d. %v", i+1, err)
	}
	return b.String()
}

func (e *DisposalError) Unwrap() []error {
	return e.Errors
}

// findSimilarKeys suggests registered keys that look like target.
func findSimilarKeys(target Key, available []Key) []Key {
	if target == "" || len(available) == 0 {
		return nil
	}

	lower := strings.ToLower(string(target))

	var similar []Key
	for _, k := range available {
		if k == target {
			continue
		}

		candidate := strings.ToLower(string(k))
		if candidate == lower ||
			strings.Contains(candidate, lower) ||
			strings.Contains(lower, candidate) {
			similar = append(similar, k)
		}
	}

	sort.Slice(similar, func(i, j int) bool { return similar[i] < similar[j] })
	if len(similar) > 5 {
		similar = similar[:5]
	}

	return similar
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
