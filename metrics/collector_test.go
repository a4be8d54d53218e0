package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/keydi"
	"github.com/junioryono/keydi/metrics"
)

func instrumentedProvider(t *testing.T, collector *metrics.Collector, options *keydi.ProviderOptions) keydi.Provider {
	t.Helper()

	collection := keydi.NewCollection()
	require.NoError(t, collection.AddSingleton("ok", keydi.Value("value")))
	require.NoError(t, collection.AddTransient("cycle", func(ctx *keydi.Context) (any, error) {
		return ctx.Resolve("cycle")
	}))

	provider, err := collection.BuildWithOptions(collector.Instrument(options))
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })

	return provider
}

func TestCollector(t *testing.T) {
	t.Run("counts resolutions and errors", func(t *testing.T) {
		collector := metrics.NewCollector("app")
		provider := instrumentedProvider(t, collector, nil)

		for range 3 {
			_, err := provider.Resolve("ok")
			require.NoError(t, err)
		}
		_, err := provider.Resolve("cycle")
		require.Error(t, err)
		_, err = provider.Resolve("missing")
		require.Error(t, err)

		expected := `
# HELP app_keydi_resolutions_total Number of successful top-level resolutions.
# TYPE app_keydi_resolutions_total counter
app_keydi_resolutions_total{key="ok"} 3
# HELP app_keydi_resolution_errors_total Number of failed top-level resolutions by error type.
# TYPE app_keydi_resolution_errors_total counter
app_keydi_resolution_errors_total{key="cycle",type="circular"} 1
app_keydi_resolution_errors_total{key="missing",type="unknown"} 1
`
		require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected),
			"app_keydi_resolutions_total", "app_keydi_resolution_errors_total"))

		assert.Equal(t, 1, testutil.CollectAndCount(collector, "app_keydi_resolution_duration_seconds"))
		assert.Equal(t, 2, testutil.CollectAndCount(collector, "app_keydi_resolution_errors_total"))
	})

	t.Run("chains existing hooks", func(t *testing.T) {
		var resolved, failed int
		collector := metrics.NewCollector("app")
		provider := instrumentedProvider(t, collector, &keydi.ProviderOptions{
			OnResolved: func(keydi.Key, time.Duration) { resolved++ },
			OnError:    func(keydi.Key, error) { failed++ },
		})

		_, _ = provider.Resolve("ok")
		_, _ = provider.Resolve("cycle")

		assert.Equal(t, 1, resolved)
		assert.Equal(t, 1, failed)
	})

	t.Run("registers with a registry", func(t *testing.T) {
		registry := prometheus.NewPedanticRegistry()
		collector := metrics.NewCollector("app")
		require.NoError(t, registry.Register(collector))

		collector.ObserveResolved("direct", 10*time.Millisecond)
		collector.ObserveError("direct", &keydi.ExistenceError{Key: "direct"})

		families, err := registry.Gather()
		require.NoError(t, err)

		names := make([]string, 0, len(families))
		for _, f := range families {
			names = append(names, f.GetName())
		}
		assert.ElementsMatch(t, []string{
			"app_keydi_resolutions_total",
			"app_keydi_resolution_errors_total",
			"app_keydi_resolution_duration_seconds",
		}, names)
	})
}
