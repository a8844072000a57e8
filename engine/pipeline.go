package engine

import (
	"context"
	"fmt"

	phctx "github.com/phlowdotdev/phlow/context"
	"github.com/phlowdotdev/phlow/debugctl"
	"github.com/phlowdotdev/phlow/module"
	"github.com/phlowdotdev/phlow/value"
)

// Pipeline is an ordered list of steps.
type Pipeline struct {
	Steps []*StepWorker
}

// PipelineMap is the dense, int-keyed set of pipelines Transform produces.
// The document's own entry pipeline is always the highest-numbered entry
// (len-1).
type PipelineMap map[int]*Pipeline

// EntryID returns the id of the root pipeline in pm — the last one
// Transform appended.
func (pm PipelineMap) EntryID() int {
	max := -1
	for id := range pm {
		if id > max {
			max = id
		}
	}
	return max
}

// Result is the outcome of running a pipeline (or a whole document) to
// completion.
type Result struct {
	Output    value.Value
	HasOutput bool
	Stopped   bool
}

// BindBus wires bus into every step worker in pm that performs a module
// call, so Transform's output can be built once and reused against
// different bus instances (a real LocalBus/NATSBus in production, a stub
// bus in tests).
func (pm PipelineMap) BindBus(bus module.Bus) {
	for _, p := range pm {
		for _, sw := range p.Steps {
			sw.Bus = bus
		}
	}
}

// Run executes the document's entry pipeline from its first step. debug is
// nilable; when non-nil every step blocks on its BeforeStep gate (§4.8)
// before running.
func Run(ctx context.Context, pm PipelineMap, pctx *phctx.Context, debug *debugctl.Controller) (Result, error) {
	return RunFrom(ctx, pm, pm.EntryID(), 0, pctx, debug)
}

// RunFrom executes pipeline id starting at step index start. A step whose
// NextStep is Pipeline(subID) recurses into that sub-pipeline from its own
// start (0); when the sub-pipeline finishes without stopping, control
// returns here and this pipeline advances to the step after the one that
// branched — the recursive model spec.md §4.4 describes, as opposed to the
// older anyflow.rs prototype's iterative "current = id" loop. A GoTo{pipeline,
// step} is treated the same way but with an explicit starting step index,
// so a jump can resume mid-pipeline rather than only at a pipeline's start.
func RunFrom(ctx context.Context, pm PipelineMap, id, start int, pctx *phctx.Context, debug *debugctl.Controller) (Result, error) {
	p, ok := pm[id]
	if !ok {
		return Result{}, fmt.Errorf("engine: pipeline %d not found", id)
	}

	var last Result
	for i := start; i < len(p.Steps); i++ {
		step := p.Steps[i]
		out, err := step.Execute(ctx, pctx, debug)
		if err != nil {
			return Result{}, err
		}
		if out.HasOutput {
			pctx.Payload = out.Output
			pctx.SetStep(step.ID, out.Output)
			last = Result{Output: out.Output, HasOutput: true}
		}

		switch out.Next.Kind {
		case NextStepStop:
			last.Stopped = true
			return last, nil

		case NextStepPipeline:
			sub, err := RunFrom(ctx, pm, out.Next.PipelineID, 0, pctx, debug)
			if err != nil {
				return Result{}, err
			}
			if sub.HasOutput {
				last = Result{Output: sub.Output, HasOutput: true}
			}
			if sub.Stopped {
				last.Stopped = true
				return last, nil
			}

		case NextStepGoTo:
			sub, err := RunFrom(ctx, pm, out.Next.GoTo.Pipeline, out.Next.GoTo.Step, pctx, debug)
			if err != nil {
				return Result{}, err
			}
			if sub.HasOutput {
				last = Result{Output: sub.Output, HasOutput: true}
			}
			if sub.Stopped {
				last.Stopped = true
				return last, nil
			}

		case NextStepNext:
			// fall through to the loop's i++
		}
	}
	return last, nil
}
