package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionsDefaults(t *testing.T) {
	o := NewOptions()
	require.Equal(t, 1, o.Workers)
	require.Equal(t, 31400, o.DebugPort)
}

func TestOptionsParseOverridesDefaults(t *testing.T) {
	o := NewOptions()
	o.Bind()
	err := o.Parse([]string{"--script", "flow.yaml", "--workers", "4", "--debug", "--nats", "nats://localhost:4222"})
	require.NoError(t, err)

	require.Equal(t, "flow.yaml", o.Script)
	require.Equal(t, 4, o.Workers)
	require.True(t, o.Debug)
	require.Equal(t, "nats://localhost:4222", o.NATSUrl)
}

func TestApplyEnvFillsDebugPortFromEnvWhenFlagUnset(t *testing.T) {
	t.Setenv("PHLOW_DEBUG_PORT", "9999")
	o := NewOptions()
	o.Bind()
	require.NoError(t, o.Parse(nil))
	o.ApplyEnv()
	require.Equal(t, 9999, o.DebugPort)
}
