package engine

import (
	"context"

	"github.com/phlowdotdev/phlow/module"
	"github.com/phlowdotdev/phlow/value"
)

// moduleStub is a minimal module.Bus fake for step-worker tests that don't
// need a real channel/goroutine round trip.
type moduleStub struct {
	data value.Value
	err  error
}

func (m moduleStub) Register(name string, capacity int) (<-chan module.Package, error) {
	return nil, nil
}

func (m moduleStub) Names() []string { return nil }

func (m moduleStub) Execute(ctx context.Context, name string, input, payload value.Value) (value.Value, error) {
	if m.err != nil {
		return value.Value{}, m.err
	}
	return m.data, nil
}
