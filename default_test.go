package keydi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/keydi"
	"github.com/junioryono/keydi/internal/testutil"
)

func TestDefaultProvider(t *testing.T) {
	t.Cleanup(func() { _ = keydi.ResetDefault() })

	_, ok := keydi.Default()
	require.False(t, ok)
	assert.ErrorIs(t, keydi.ResetDefault(), keydi.ErrNoDefaultProvider)
	assert.ErrorIs(t, keydi.SetDefault(nil), keydi.ErrProviderNil)

	collection := keydi.NewCollection()
	require.NoError(t, collection.AddSingleton(testutil.KeyService, testutil.ServiceFactory(nil)))

	first, err := collection.Build()
	require.NoError(t, err)
	second, err := collection.Build()
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, keydi.SetDefault(first))
	assert.ErrorIs(t, keydi.SetDefault(second), keydi.ErrDefaultProviderSet)

	p, ok := keydi.Default()
	require.True(t, ok)
	assert.Equal(t, first.ID(), p.ID())
	testutil.AssertResolvable[*testutil.TestService](t, p, testutil.KeyService)

	require.NoError(t, keydi.ResetDefault())
	testutil.AssertProviderClosed(t, first)

	_, ok = keydi.Default()
	assert.False(t, ok)

	require.NoError(t, keydi.SetDefault(second))
	require.NoError(t, keydi.ResetDefault())
}
