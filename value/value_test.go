package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestObjectPreservesOrder(t *testing.T) {
	obj := NewObject()
	obj.Set("z", Int(1))
	obj.Set("a", Int(2))
	obj.Set("m", Int(3))

	require.Equal(t, []string{"z", "a", "m"}, obj.Keys())

	obj.Set("a", Int(20))
	require.Equal(t, []string{"z", "a", "m"}, obj.Keys())
	got, ok := obj.Get("a")
	require.True(t, ok)
	require.Equal(t, int64(20), got.Int())
}

func TestJSONRoundTripPreservesOrder(t *testing.T) {
	obj := NewObject()
	obj.Set("beta", String("b"))
	obj.Set("alpha", String("a"))
	v := FromObject(obj)

	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.Equal(t, `{"beta":"b","alpha":"a"}`, string(b))

	var round Value
	require.NoError(t, json.Unmarshal(b, &round))
	require.Equal(t, []string{"beta", "alpha"}, round.Obj().Keys())
}

func TestYAMLRoundTrip(t *testing.T) {
	doc := []byte("name: demo\nsteps:\n  - id: a\n    label: first\n  - id: b\n")

	var v Value
	require.NoError(t, yaml.Unmarshal(doc, &v))
	require.Equal(t, KindObject, v.Kind())

	name, ok := v.Obj().Get("name")
	require.True(t, ok)
	require.Equal(t, "demo", name.Str())

	steps, ok := v.Obj().Get("steps")
	require.True(t, ok)
	require.Equal(t, KindArray, steps.Kind())
	require.Len(t, steps.Arr(), 2)

	out, err := yaml.Marshal(v)
	require.NoError(t, err)
	require.Contains(t, string(out), "name: demo")
}

func TestTruthy(t *testing.T) {
	require.False(t, Null().Truthy())
	require.False(t, Bool(false).Truthy())
	require.True(t, Bool(true).Truthy())
	require.False(t, Int(0).Truthy())
	require.True(t, Int(1).Truthy())
	require.False(t, String("").Truthy())
	require.True(t, String("x").Truthy())
}

func TestGetPath(t *testing.T) {
	obj := NewObject()
	inner := NewObject()
	inner.Set("id", String("step-1"))
	obj.Set("steps", Array([]Value{FromObject(inner)}))
	v := FromObject(obj)

	got, ok := v.Get("steps.0.id")
	require.True(t, ok)
	require.Equal(t, "step-1", got.Str())

	_, ok = v.Get("steps.9.id")
	require.False(t, ok)
}

func TestCloneIsDeep(t *testing.T) {
	obj := NewObject()
	obj.Set("x", Int(1))
	v := FromObject(obj)
	clone := v.Clone()
	clone.Obj().Set("x", Int(2))

	orig, _ := v.Obj().Get("x")
	require.Equal(t, int64(1), orig.Int())
}
