package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/keydi"
)

// AssertResolvable checks if key can be resolved to a non-nil T
func AssertResolvable[T any](t *testing.T, r keydi.Resolver, key keydi.Key) T {
	t.Helper()
	value, err := keydi.Resolve[T](r, key)
	require.NoError(t, err, "failed to resolve %q", key)
	require.NotNil(t, value, "resolved %q is nil", key)
	return value
}

// AssertNotFound checks if resolving key fails with a missing-binding error
func AssertNotFound(t *testing.T, r keydi.Resolver, key keydi.Key) {
	t.Helper()
	_, err := r.Resolve(key)
	require.Error(t, err)
	assert.True(t, keydi.IsNotFound(err), "expected not found error, got: %v", err)
}

// AssertErrorType checks if an error is of a specific type
func AssertErrorType[T error](t *testing.T, err error, msgAndArgs ...any) T {
	t.Helper()
	var target T
	require.ErrorAs(t, err, &target, msgAndArgs...)
	return target
}

// AssertCircular checks that err is a circular dependency error whose chain
// is exactly chain.
func AssertCircular(t *testing.T, err error, chain ...keydi.Key) *keydi.CircularDependencyError {
	t.Helper()
	cycle := AssertErrorType[*keydi.CircularDependencyError](t, err)
	assert.Equal(t, chain, cycle.Chain)
	return cycle
}

// AssertScopeViolation checks that err is a scope violation naming both keys.
func AssertScopeViolation(t *testing.T, err error, singleton, scoped keydi.Key) {
	t.Helper()
	violation := AssertErrorType[*keydi.ScopeViolationError](t, err)
	assert.Equal(t, singleton, violation.Singleton)
	assert.Equal(t, scoped, violation.Scoped)
}

// AssertSameInstance verifies two values are the same instance
func AssertSameInstance(t *testing.T, expected, actual any, msgAndArgs ...any) {
	t.Helper()
	assert.Same(t, expected, actual, msgAndArgs...)
}

// AssertDifferentInstances verifies two values are different instances
func AssertDifferentInstances(t *testing.T, first, second any, msgAndArgs ...any) {
	t.Helper()
	assert.NotSame(t, first, second, msgAndArgs...)
}

// AssertProviderClosed checks if operations on a closed provider fail correctly
func AssertProviderClosed(t *testing.T, provider keydi.Provider) {
	t.Helper()

	_, err := provider.Resolve("any")
	assert.ErrorIs(t, err, keydi.ErrProviderClosed)

	_, err = provider.CreateScope(t.Context())
	assert.ErrorIs(t, err, keydi.ErrProviderClosed)

	assert.ErrorIs(t, provider.Validate(), keydi.ErrProviderClosed)
}
