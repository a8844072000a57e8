package module

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phlowdotdev/phlow/value"
)

func modulesDoc(t *testing.T, items ...map[string]any) value.Value {
	t.Helper()
	native := make([]any, 0, len(items))
	for _, it := range items {
		native = append(native, it)
	}
	return value.FromNative(native)
}

func TestParseDeclsDefaultsNameToModule(t *testing.T) {
	decls, err := ParseDecls(modulesDoc(t, map[string]any{"module": "http"}))
	require.NoError(t, err)
	require.Len(t, decls, 1)
	require.Equal(t, "http", decls[0].Module)
	require.Equal(t, "http", decls[0].Name)
}

func TestParseDeclsHonorsExplicitName(t *testing.T) {
	decls, err := ParseDecls(modulesDoc(t, map[string]any{"module": "http", "name": "api"}))
	require.NoError(t, err)
	require.Len(t, decls, 1)
	require.Equal(t, "api", decls[0].Name)
}

func TestParseDeclsReadsOptionalFields(t *testing.T) {
	decls, err := ParseDecls(modulesDoc(t, map[string]any{
		"module":     "log",
		"version":    "1.2.3",
		"repository": "https://example.test/log",
		"local_path": "/opt/phlow/log",
		"with":       map[string]any{"level": "debug"},
	}))
	require.NoError(t, err)
	require.Len(t, decls, 1)
	d := decls[0]
	require.Equal(t, "1.2.3", d.Version)
	require.Equal(t, "https://example.test/log", d.Repository)
	require.Equal(t, "/opt/phlow/log", d.LocalPath)
	require.Equal(t, value.KindObject, d.With.Kind())
}

func TestParseDeclsOnNonArrayReturnsEmpty(t *testing.T) {
	decls, err := ParseDecls(value.Null())
	require.NoError(t, err)
	require.Empty(t, decls)
}
