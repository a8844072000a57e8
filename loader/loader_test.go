package loader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLoadFromReaderDoesNotShiftStepsWhenMainAndModulesArePresent guards
// against engine.Transform seeing the whole document instead of just its
// steps field: a synthetic leading step would otherwise be injected from
// main/modules/name, shifting every real step's index by one.
func TestLoadFromReaderDoesNotShiftStepsWhenMainAndModulesArePresent(t *testing.T) {
	const doc = `
name: order-check
main:
  amount: 0
modules:
  - module: log
steps:
  - label: first
    payload: "{{ 1 }}"
  - label: second
    payload: "{{ 2 }}"
`
	got, err := LoadFromReader(strings.NewReader(doc), ".")
	require.NoError(t, err)

	entry := got.Pipelines[got.Pipelines.EntryID()]
	require.Len(t, entry.Steps, 2)
	require.Equal(t, "first", entry.Steps[0].Label)
	require.Equal(t, "second", entry.Steps[1].Label)
}

func TestLoadFromReaderReadsMainAndModules(t *testing.T) {
	const doc = `
main:
  region: us-east-1
modules:
  - module: http
    name: api
steps:
  - payload: "{{ 1 }}"
`
	got, err := LoadFromReader(strings.NewReader(doc), ".")
	require.NoError(t, err)

	region, ok := got.Main.Obj().Get("region")
	require.True(t, ok)
	require.Equal(t, "us-east-1", region.Str())

	require.Len(t, got.Modules.Arr(), 1)
	module, ok := got.Modules.Arr()[0].Obj().Get("module")
	require.True(t, ok)
	require.Equal(t, "http", module.Str())
}

func TestLoadFromReaderBareStepsDocumentStillWorks(t *testing.T) {
	const doc = `
steps:
  - payload: "{{ 1 }}"
`
	got, err := LoadFromReader(strings.NewReader(doc), ".")
	require.NoError(t, err)

	entry := got.Pipelines[got.Pipelines.EntryID()]
	require.Len(t, entry.Steps, 1)
}
