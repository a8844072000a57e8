// Package context holds phlow's execution context: the {main, input,
// payload, steps} value bundle threaded through every step and module call.
package context

import (
	"sync"

	"github.com/phlowdotdev/phlow/value"
)

// Context is phlow's per-run execution state. A module call with its own
// input runs against a value copy (Copy), so it cannot mutate its caller's
// view; sub-pipelines run against the same Context as their caller, so the
// steps they record stay visible to the caller's later steps. Only the
// scheduler driving a pipeline mutates Steps, via SetStep.
type Context struct {
	Main    value.Value
	Input   value.Value
	Payload value.Value
	Steps   map[string]value.Value

	mu sync.Mutex
}

// New builds a Context from a main configuration value and an initial
// input. Payload starts equal to Input; Steps starts empty.
func New(main, input value.Value) *Context {
	return &Context{
		Main:    main,
		Input:   input,
		Payload: input,
		Steps:   make(map[string]value.Value),
	}
}

// Copy returns an independent snapshot: Steps is shallow-copied (its
// key/value pairs are copied, the Values themselves are not deep-cloned
// since Value's scalar/array/object payloads are treated as immutable once
// produced), Main/Input/Payload are copied by value.
func (c *Context) Copy() *Context {
	c.mu.Lock()
	defer c.mu.Unlock()

	steps := make(map[string]value.Value, len(c.Steps))
	for k, v := range c.Steps {
		steps[k] = v
	}
	return &Context{
		Main:    c.Main,
		Input:   c.Input,
		Payload: c.Payload,
		Steps:   steps,
	}
}

// WithPayload returns a copy of c with Payload replaced.
func (c *Context) WithPayload(p value.Value) *Context {
	next := c.Copy()
	next.Payload = p
	return next
}

// SetStep records id's output in Steps. Only the scheduler driving the
// pipeline this Context belongs to should call this — it mutates c in
// place rather than copying, since step results accumulate across the
// pipeline's own execution, not across call boundaries.
func (c *Context) SetStep(id string, out value.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Steps[id] = out
}

// Env builds the flat variable environment phs/condition expressions run
// against: {main, input, payload, steps}.
func (c *Context) Env() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	steps := make(map[string]interface{}, len(c.Steps))
	for k, v := range c.Steps {
		steps[k] = v.Native()
	}
	return map[string]interface{}{
		"main":    c.Main.Native(),
		"input":   c.Input.Native(),
		"payload": c.Payload.Native(),
		"steps":   steps,
	}
}
