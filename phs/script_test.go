package phs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phlowdotdev/phlow/value"
)

func compileStr(t *testing.T, s string) *CompiledScript {
	t.Helper()
	cs, err := Compile(value.String(s))
	require.NoError(t, err)
	return cs
}

func TestRawExpressionPreservesType(t *testing.T) {
	cs := compileStr(t, "{{ payload.amount }}")
	env := map[string]interface{}{
		"payload": map[string]interface{}{"amount": int64(42)},
	}
	out, err := cs.Evaluate(env)
	require.NoError(t, err)
	require.Equal(t, value.KindInt, out.Kind())
	require.Equal(t, int64(42), out.Int())
}

func TestTemplateStringConcatenation(t *testing.T) {
	cs := compileStr(t, "hello {{ name }}!")
	out, err := cs.Evaluate(map[string]interface{}{"name": "world"})
	require.NoError(t, err)
	require.Equal(t, "hello world!", out.Str())
}

func TestBareStringPassesThrough(t *testing.T) {
	cs := compileStr(t, "just a literal")
	out, err := cs.Evaluate(nil)
	require.NoError(t, err)
	require.Equal(t, "just a literal", out.Str())
}

func TestBuiltinFunctions(t *testing.T) {
	cases := []struct {
		expr string
		want bool
	}{
		{`contains(input.s, "ell")`, true},
		{`starts_with(input.s, "he")`, true},
		{`ends_with(input.s, "o")`, true},
		{`regex_match(input.s, "^h.*o$")`, true},
	}
	for _, c := range cases {
		cs := compileStr(t, "{{ "+c.expr+" }}")
		out, err := cs.Evaluate(map[string]interface{}{"input": map[string]interface{}{"s": "hello"}})
		require.NoError(t, err)
		require.Equal(t, c.want, out.Bool())
	}
}

func TestSpreadObjectDesugar(t *testing.T) {
	cs := compileStr(t, `{{ {...base, extra: 1} }}`)
	out, err := cs.Evaluate(map[string]interface{}{
		"base": map[string]interface{}{"a": int64(1), "b": int64(2)},
	})
	require.NoError(t, err)
	require.Equal(t, value.KindObject, out.Kind())
	a, ok := out.Obj().Get("a")
	require.True(t, ok)
	require.Equal(t, int64(1), a.Int())
	extra, ok := out.Obj().Get("extra")
	require.True(t, ok)
	require.Equal(t, int64(1), extra.Int())
}

func TestSpreadArrayDesugar(t *testing.T) {
	cs := compileStr(t, `{{ [...items, "z"] }}`)
	out, err := cs.Evaluate(map[string]interface{}{
		"items": []interface{}{"x", "y"},
	})
	require.NoError(t, err)
	require.Equal(t, value.KindArray, out.Kind())
	require.Len(t, out.Arr(), 3)
	require.Equal(t, "z", out.Arr()[2].Str())
}

func TestNullBuiltins(t *testing.T) {
	cases := []struct {
		expr string
		env  map[string]interface{}
		want bool
	}{
		{`is_null(input.v)`, map[string]interface{}{"input": map[string]interface{}{"v": nil}}, true},
		{`is_null(input.v)`, map[string]interface{}{"input": map[string]interface{}{"v": "x"}}, false},
		{`is_not_null(input.v)`, map[string]interface{}{"input": map[string]interface{}{"v": "x"}}, true},
		{`is_empty(input.v)`, map[string]interface{}{"input": map[string]interface{}{"v": ""}}, true},
		{`is_empty(input.v)`, map[string]interface{}{"input": map[string]interface{}{"v": "x"}}, false},
		{`is_empty(input.v)`, map[string]interface{}{"input": map[string]interface{}{"v": []interface{}{}}}, true},
	}
	for _, c := range cases {
		cs := compileStr(t, "{{ "+c.expr+" }}")
		out, err := cs.Evaluate(c.env)
		require.NoError(t, err)
		require.Equal(t, c.want, out.Bool())
	}
}

func TestIffTernaryDesugarsToNativeTernary(t *testing.T) {
	cs := compileStr(t, `{{ iff input.amount > 10 ? "big" : "small" }}`)
	out, err := cs.Evaluate(map[string]interface{}{"input": map[string]interface{}{"amount": int64(42)}})
	require.NoError(t, err)
	require.Equal(t, "big", out.Str())

	out, err = cs.Evaluate(map[string]interface{}{"input": map[string]interface{}{"amount": int64(1)}})
	require.NoError(t, err)
	require.Equal(t, "small", out.Str())
}

func TestNestedObjectCompiles(t *testing.T) {
	obj := value.NewObject()
	obj.Set("greeting", value.String("hi {{ name }}"))
	obj.Set("count", value.String("{{ 1 + 1 }}"))
	cs, err := Compile(value.FromObject(obj))
	require.NoError(t, err)

	out, err := cs.Evaluate(map[string]interface{}{"name": "bob"})
	require.NoError(t, err)
	g, _ := out.Obj().Get("greeting")
	require.Equal(t, "hi bob", g.Str())
	c, _ := out.Obj().Get("count")
	require.Equal(t, int64(2), c.Int())
}
