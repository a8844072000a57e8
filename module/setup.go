package module

import "fmt"

// setupCapacity is the inbound channel capacity Setup registers each
// declared module with, matching LocalBus's back-pressure contract
// (module/local_bus.go) at a size generous enough for a stub handler loop
// to keep up without the caller routinely blocking.
const setupCapacity = 16

// Setup drives the §4.7 registration handshake for every declared module:
// register its inbound channel on bus, then spawn a handler goroutine to
// drain it — the Go equivalent of "spawn the module plug-in on its own
// thread ... await its setup_reply ... register the returning channel in
// the module bus" from original_source/phlow-runtime/src/runtime.rs.
//
// Concrete module implementations (S3, SQS, a real subprocess plug-in, ...)
// are out of scope (spec.md §1 Non-goals); the handler spawned here is a
// generic stub that echoes a module's input (falling back to its payload)
// back as the response, standing in for "a module plug-in whose internal
// initialization completed and is ready to serve requests" so a declared
// module is reachable rather than failing every call with NotLoadedError.
func Setup(bus Bus, decls []Decl) error {
	for _, d := range decls {
		if d.Name == "" {
			continue
		}
		inbound, err := bus.Register(d.Name, setupCapacity)
		if err != nil {
			return fmt.Errorf("module: register %q: %w", d.Name, err)
		}
		go runStub(d, inbound)
	}
	return nil
}

// runStub drains inbound until it is closed, answering every request with
// its input (or payload, if input is absent) echoed back unchanged.
func runStub(d Decl, inbound <-chan Package) {
	for pkg := range inbound {
		out := pkg.Payload
		if !pkg.Input.IsNull() {
			out = pkg.Input
		}
		pkg.Reply <- Response{Data: out}
	}
}
