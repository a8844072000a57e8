package module

import (
	"context"
	"fmt"
	"sync"

	"github.com/phlowdotdev/phlow/value"
)

// LocalBus is the default in-process Bus: each registered module owns a
// bounded channel of Package requests (the spec's back-pressure contract —
// a full channel blocks the caller rather than growing unbounded), and each
// call gets its own buffered-1 reply channel so a slow module never blocks
// unrelated callers.
type LocalBus struct {
	mu      sync.RWMutex
	modules map[string]chan Package
}

// NewLocalBus returns an empty LocalBus.
func NewLocalBus() *LocalBus {
	return &LocalBus{modules: make(map[string]chan Package)}
}

// Register binds name to a new bounded channel of the given capacity.
func (b *LocalBus) Register(name string, capacity int) (<-chan Package, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.modules[name]; exists {
		return nil, fmt.Errorf("module: %q is already registered", name)
	}
	ch := make(chan Package, capacity)
	b.modules[name] = ch
	return ch, nil
}

// Names lists registered module names.
func (b *LocalBus) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.modules))
	for n := range b.modules {
		names = append(names, n)
	}
	return names
}

// Execute sends a request to name's channel and blocks until the module
// replies or ctx is done. Back-pressure happens at the channel send: if the
// module's bounded inbound channel is full, this call blocks (or the send
// select below returns ctx.Err() first if the caller gave up waiting).
func (b *LocalBus) Execute(ctx context.Context, name string, input, payload value.Value) (value.Value, error) {
	b.mu.RLock()
	ch, ok := b.modules[name]
	names := b.Names()
	b.mu.RUnlock()
	if !ok {
		return value.Value{}, &NotLoadedError{Name: name, Suggestions: fuzzyMatch(names, name)}
	}

	reply := make(chan Response, 1)
	pkg := Package{Module: name, Input: input, Payload: payload, Reply: reply}

	select {
	case ch <- pkg:
	case <-ctx.Done():
		return value.Value{}, ctx.Err()
	}

	select {
	case resp := <-reply:
		if resp.Error != nil {
			return value.Value{}, &ResponseError{Module: name, Msg: resp.Error.Error()}
		}
		return resp.Data, nil
	case <-ctx.Done():
		return value.Value{}, ctx.Err()
	}
}
