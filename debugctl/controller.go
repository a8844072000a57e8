// Package debugctl implements phlow's step-by-step debugger: a controller
// that pauses pipeline execution before each step until a debug client
// releases it, plus a TCP line protocol for driving it. Grounded line for
// line on original_source/phlow-engine/src/debug.rs's DebugController.
package debugctl

import (
	"context"
	"sync"

	"github.com/phlowdotdev/phlow/value"
)

// Context is the {payload, main} pair captured alongside a Snapshot.
type Context struct {
	Payload value.Value
	Main    value.Value
}

// Snapshot is one paused-step observation: the context it ran with, the raw
// step definition, which pipeline it belongs to, and a Compiled value
// (engine.StepWorker.Execute fills it with the same raw step definition).
type Snapshot struct {
	Context  Context
	Step     value.Value
	Pipeline int
	Compiled value.Value
}

// ReleaseResult reports what a release request did.
type ReleaseResult int

const (
	// Released means a paused step was freed to run.
	Released ReleaseResult = iota
	// Awaiting means a step is mid-flight but nothing is currently paused
	// waiting on a release.
	Awaiting
	// NoStep means nothing is executing at all.
	NoStep
)

type state struct {
	current         *Snapshot
	history         []Snapshot
	executing       bool
	script          *value.Value
	releaseCurrent  bool
	releasePipeline *int
}

// Controller serializes access to the paused-step state and wakes blocked
// BeforeStep callers with a close-and-replace broadcast channel, Go's
// equivalent of tokio::sync::Notify.
type Controller struct {
	mu       sync.Mutex
	st       state
	notifyCh chan struct{}
}

// New returns an idle Controller.
func New() *Controller {
	return &Controller{notifyCh: make(chan struct{})}
}

// wake must be called with mu held; it releases every goroutine currently
// parked in BeforeStep's wait loop.
func (c *Controller) wake() {
	close(c.notifyCh)
	c.notifyCh = make(chan struct{})
}

// BeforeStep blocks the calling step worker until it is released, exactly
// mirroring DebugController::before_step's two-phase wait: first until this
// snapshot becomes "current" (or its pipeline is under an active ALL
// release), then until a release request actually frees it.
func (c *Controller) BeforeStep(ctx context.Context, snap Snapshot) error {
	for {
		c.mu.Lock()
		if c.st.releasePipeline != nil {
			if *c.st.releasePipeline == snap.Pipeline {
				c.st.executing = true
				c.st.history = append(c.st.history, snap)
				c.mu.Unlock()
				return nil
			}
			c.st.releasePipeline = nil
		}

		if c.st.current == nil {
			s := snap
			c.st.current = &s
			c.st.executing = false
			c.mu.Unlock()
			break
		}

		ch := c.notifyCh
		c.mu.Unlock()
		if err := wait(ctx, ch); err != nil {
			return err
		}
	}

	for {
		c.mu.Lock()
		var currentPipeline *int
		if c.st.current != nil {
			p := c.st.current.Pipeline
			currentPipeline = &p
		}
		shouldRelease := c.st.releaseCurrent ||
			(c.st.releasePipeline != nil && currentPipeline != nil && *c.st.releasePipeline == *currentPipeline)

		if shouldRelease {
			c.st.releaseCurrent = false
			if c.st.current != nil {
				c.st.history = append(c.st.history, *c.st.current)
				c.st.current = nil
			}
			c.st.executing = true
			c.wake()
			c.mu.Unlock()
			return nil
		}

		ch := c.notifyCh
		c.mu.Unlock()
		if err := wait(ctx, ch); err != nil {
			return err
		}
	}
}

func wait(ctx context.Context, ch chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CurrentSnapshot returns the step currently paused awaiting release, if any.
func (c *Controller) CurrentSnapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.current
}

// ShowSnapshot returns the paused step, or the most recently released step
// if one is mid-execution, or nil if the controller is fully idle.
func (c *Controller) ShowSnapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.current != nil {
		return c.st.current
	}
	if c.st.executing && len(c.st.history) > 0 {
		return &c.st.history[len(c.st.history)-1]
	}
	return nil
}

// SetScript records the whole compiled document, for a debug client to
// inspect with SHOW before any step has run.
func (c *Controller) SetScript(script value.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.script = &script
}

// ShowScript returns the script set by SetScript, if any.
func (c *Controller) ShowScript() *value.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.script
}

// History returns every snapshot released so far, oldest first.
func (c *Controller) History() []Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Snapshot, len(c.st.history))
	copy(out, c.st.history)
	return out
}

// ReleaseNext frees the currently paused step to run, and only that one.
func (c *Controller) ReleaseNext() ReleaseResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.current == nil {
		if c.st.executing {
			return Awaiting
		}
		return NoStep
	}
	c.st.releaseCurrent = true
	c.st.executing = true
	c.wake()
	return Released
}

// ReleasePipeline frees the currently paused step and every subsequent step
// in the same pipeline, until PauseRelease is called or the pipeline ends.
func (c *Controller) ReleasePipeline() ReleaseResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.current == nil {
		if c.st.executing {
			return Awaiting
		}
		return NoStep
	}
	pipeline := c.st.current.Pipeline
	c.st.releasePipeline = &pipeline
	c.st.releaseCurrent = true
	c.st.executing = true
	c.wake()
	return Released
}

// PauseRelease cancels an in-flight ReleasePipeline run, re-arming the
// breakpoint on the next step. Returns whether a release was actually
// active.
func (c *Controller) PauseRelease() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	wasActive := c.st.releasePipeline != nil
	c.st.releasePipeline = nil
	c.st.releaseCurrent = false
	return wasActive
}

// FinishStep marks the currently executing step as done.
func (c *Controller) FinishStep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.executing = false
}
