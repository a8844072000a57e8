package preprocessor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/phlowdotdev/phlow/value"
)

func parseYAML(t *testing.T, src string) value.Value {
	t.Helper()
	var v value.Value
	require.NoError(t, yaml.Unmarshal([]byte(src), &v))
	return v
}

func TestModuleSugarRewrite(t *testing.T) {
	doc := parseYAML(t, `
steps:
  - log.info.hello:
      level: debug
`)
	out, err := Process(doc, t.TempDir())
	require.NoError(t, err)

	steps, ok := out.Obj().Get("steps")
	require.True(t, ok)
	step := steps.Arr()[0]

	use, ok := step.Obj().Get("use")
	require.True(t, ok)
	require.Equal(t, "log", use.Str())

	input, ok := step.Obj().Get("input")
	require.True(t, ok)
	action, _ := input.Obj().Get("action")
	require.Equal(t, "info", action.Str())
	args, _ := input.Obj().Get("args")
	require.Equal(t, "hello", args.Arr()[0].Str())
	level, _ := input.Obj().Get("level")
	require.Equal(t, "debug", level.Str())
}

func TestAutoWrapDetectsOperators(t *testing.T) {
	doc := parseYAML(t, `
steps:
  - payload: payload.amount > 100
`)
	out, err := Process(doc, t.TempDir())
	require.NoError(t, err)

	steps, _ := out.Obj().Get("steps")
	payload, _ := steps.Arr()[0].Obj().Get("payload")
	require.Equal(t, "{{ payload.amount > 100 }}", payload.Str())
}

func TestAutoWrapLeavesPlainStringsAlone(t *testing.T) {
	doc := parseYAML(t, `
steps:
  - payload: a plain literal
`)
	out, err := Process(doc, t.TempDir())
	require.NoError(t, err)
	steps, _ := out.Obj().Get("steps")
	payload, _ := steps.Arr()[0].Obj().Get("payload")
	require.Equal(t, "a plain literal", payload.Str())
}

func TestIncludeResolution(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "included.yaml"), []byte("foo: bar\n"), 0o644))

	doc := parseYAML(t, `
extra: "!include included.yaml"
`)
	out, err := Process(doc, dir)
	require.NoError(t, err)
	extra, ok := out.Obj().Get("extra")
	require.True(t, ok)
	require.Equal(t, value.KindObject, extra.Kind())
	foo, _ := extra.Obj().Get("foo")
	require.Equal(t, "bar", foo.Str())
}
