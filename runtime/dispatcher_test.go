package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/phlowdotdev/phlow/engine"
	"github.com/phlowdotdev/phlow/module"
	"github.com/phlowdotdev/phlow/value"
)

func echoPipelines(t *testing.T) engine.PipelineMap {
	t.Helper()
	doc := map[string]any{
		"steps": []any{
			map[string]any{"payload": "{{ main }}"},
		},
	}
	raw := value.FromNative(doc)
	pm, err := engine.Transform(raw)
	require.NoError(t, err)
	return pm
}

func TestDispatcherRunDispatchesConcurrently(t *testing.T) {
	pm := echoPipelines(t)
	bus := module.NewLocalBus()
	metrics := NewMetrics(prometheus.NewRegistry())
	d := New(pm, bus, 2, zaptest.NewLogger(t), metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	result, err := d.Dispatch(context.Background(), value.String("hello"))
	require.NoError(t, err)
	require.True(t, result.HasOutput)
	require.Equal(t, "hello", result.Output.Str())

	cancel()
	<-done
}

func TestRunOnceWithoutWorkerPool(t *testing.T) {
	pm := echoPipelines(t)
	bus := module.NewLocalBus()
	result, err := RunOnce(context.Background(), pm, bus, value.String("direct"), nil)
	require.NoError(t, err)
	require.Equal(t, "direct", result.Output.Str())
}

func TestSetPipelinesAffectsOnlyFutureDispatches(t *testing.T) {
	pm := echoPipelines(t)
	bus := module.NewLocalBus()
	d := New(pm, bus, 1, zaptest.NewLogger(t), NewMetrics(prometheus.NewRegistry()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	result, err := d.Dispatch(context.Background(), value.String("before"))
	require.NoError(t, err)
	require.Equal(t, "before", result.Output.Str())

	doc := map[string]any{
		"steps": []any{
			map[string]any{"payload": "reloaded"},
		},
	}
	raw := value.FromNative(doc)
	pm2, err := engine.Transform(raw)
	require.NoError(t, err)
	d.SetPipelines(pm2)

	result, err = d.Dispatch(context.Background(), value.String("after"))
	require.NoError(t, err)
	require.Equal(t, "reloaded", result.Output.Str())

	cancel()
	<-done
}

func TestDispatchTimesOutWhenNoWorkerIsRunning(t *testing.T) {
	pm := echoPipelines(t)
	bus := module.NewLocalBus()
	d := New(pm, bus, 1, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Dispatch(ctx, value.String("x"))
	require.Error(t, err)
}
