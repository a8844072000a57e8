// Package module implements phlow's module bus: the request/reply contract
// between a step worker and an out-of-process (or in-process fake) module
// collaborator.
package module

import (
	"context"
	"fmt"

	"github.com/phlowdotdev/phlow/value"
)

// Package is one request handed to a module: the evaluated input/payload
// pair plus a reply channel the module's handler writes a single Response
// to. Grounded on original_source/phlow-sdk/src/structs/modules.rs's
// ModuleData/ModuleResponse request shape.
type Package struct {
	Module  string
	Input   value.Value
	Payload value.Value
	Reply   chan Response
}

// Response is what a module hands back: either Data or Error, never both.
type Response struct {
	Data  value.Value
	Error error
}

// Descriptor is what a module registers with the bus: its name and the
// channel it wants requests delivered on.
type Descriptor struct {
	Name    string
	Inbound chan Package
}

// Bus is the registry + dispatch contract every module transport (local
// in-process, NATS-bridged, ...) implements.
type Bus interface {
	// Register binds name to a bounded inbound channel of the given
	// capacity and returns it for the module implementation to drain.
	Register(name string, capacity int) (<-chan Package, error)
	// Execute sends a request to name and blocks for its single reply.
	Execute(ctx context.Context, name string, input, payload value.Value) (value.Value, error)
	// Names lists the modules currently registered, for diagnostics.
	Names() []string
}

// NotLoadedError is returned when a step references a module name the bus
// has no registration for. Suggestions holds fuzzy "did you mean" matches.
type NotLoadedError struct {
	Name        string
	Suggestions []string
}

func (e *NotLoadedError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("module %q is not loaded", e.Name)
	}
	return fmt.Sprintf("module %q is not loaded (did you mean %q?)", e.Name, e.Suggestions[0])
}

// ResponseError wraps an error value a module itself returned (as opposed to
// a transport failure talking to it).
type ResponseError struct {
	Module string
	Msg    string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("module %q returned an error: %s", e.Module, e.Msg)
}
