package engine

import (
	"context"
	"fmt"

	condpkg "github.com/phlowdotdev/phlow/condition"
	phctx "github.com/phlowdotdev/phlow/context"
	"github.com/phlowdotdev/phlow/debugctl"
	"github.com/phlowdotdev/phlow/module"
	"github.com/phlowdotdev/phlow/phs"
	"github.com/phlowdotdev/phlow/value"
)

// NextStepKind tags what a StepOutput tells the pipeline scheduler to do
// next.
type NextStepKind int

const (
	// NextStepNext advances to the next step in the current pipeline.
	NextStepNext NextStepKind = iota
	// NextStepStop halts execution entirely (a return_case fired).
	NextStepStop
	// NextStepPipeline recurses into the sub-pipeline named by PipelineID.
	NextStepPipeline
	// NextStepGoTo jumps to an explicit {pipeline, step} location.
	NextStepGoTo
)

// StepReference names an explicit jump target for a goto.
type StepReference struct {
	Pipeline int
	Step     int
}

// NextStep is the step scheduler's instruction for what runs next.
type NextStep struct {
	Kind       NextStepKind
	PipelineID int
	GoTo       StepReference
}

// StepOutput is what StepWorker.Execute returns: where to go next, and the
// (possibly absent) output value to set as the pipeline's payload.
type StepOutput struct {
	Next      NextStep
	Output    value.Value
	HasOutput bool
}

// StepWorkerError reports a failure evaluating one of a step's expressions
// or invoking its module.
type StepWorkerError struct {
	Stage string // "condition", "payload", "input", "module", "return"
	Err   error
}

func (e *StepWorkerError) Error() string {
	return fmt.Sprintf("engine: step %s error: %s", e.Stage, e.Err)
}

func (e *StepWorkerError) Unwrap() error { return e.Err }

// StepWorker is one node of a pipeline: an optional module call, condition,
// payload/input/return expressions, and the then/else/goto wiring the
// transform pass resolved into integer pipeline ids. Grounded on
// original_source/phlow-engine/src/step_worker.rs::StepWorker.
type StepWorker struct {
	ID    string
	Label string

	ModuleRef string

	Condition *condpkg.Condition

	InputExpr   *phs.CompiledScript
	PayloadExpr *phs.CompiledScript
	ReturnExpr  *phs.CompiledScript

	ThenCase *int
	ElseCase *int
	GoTo     *StepReference

	Bus module.Bus

	// PipelineID is the id (in its PipelineMap) of the pipeline this step
	// belongs to, and Raw is the step's own pre-compile Value — both set by
	// rawToPipelineMap, purely so Execute can hand the debug controller a
	// Snapshot without threading extra parameters through RunFrom.
	PipelineID int
	Raw        value.Value
}

// StepWorkerFromValue parses one raw step Value (as produced by Transform)
// into a StepWorker.
func StepWorkerFromValue(raw value.Value) (*StepWorker, error) {
	sw := &StepWorker{Raw: raw}
	if raw.Kind() != value.KindObject {
		sw.ID = NewID()
		return sw, nil
	}
	obj := raw.Obj()

	if idV, ok := obj.Get("id"); ok {
		sw.ID = idV.Str()
	} else {
		sw.ID = NewID()
	}
	if labelV, ok := obj.Get("label"); ok {
		sw.Label = labelV.Str()
	}
	if useV, ok := obj.Get("use"); ok {
		sw.ModuleRef = useV.Str()
	}

	if condV, ok := obj.Get("condition"); ok && condV.Kind() == value.KindObject {
		c, err := conditionFromValue(condV)
		if err != nil {
			return nil, &StepWorkerError{Stage: "condition", Err: err}
		}
		sw.Condition = c
	} else if assertV, ok := obj.Get("assert"); ok {
		sw.Condition = condpkg.NewRaw(assertV.Str())
	}

	if payloadV, ok := obj.Get("payload"); ok {
		cs, err := phs.Compile(payloadV)
		if err != nil {
			return nil, &StepWorkerError{Stage: "payload", Err: err}
		}
		sw.PayloadExpr = cs
	}
	if inputV, ok := obj.Get("input"); ok {
		cs, err := phs.Compile(inputV)
		if err != nil {
			return nil, &StepWorkerError{Stage: "input", Err: err}
		}
		sw.InputExpr = cs
	}
	if returnV, ok := obj.Get("return"); ok {
		cs, err := phs.Compile(returnV)
		if err != nil {
			return nil, &StepWorkerError{Stage: "return", Err: err}
		}
		sw.ReturnExpr = cs
	}

	if thenV, ok := obj.Get("then"); ok && thenV.Kind() == value.KindInt {
		n := int(thenV.Int())
		sw.ThenCase = &n
	}
	if elseV, ok := obj.Get("else"); ok && elseV.Kind() == value.KindInt {
		n := int(elseV.Int())
		sw.ElseCase = &n
	}

	if toV, ok := obj.Get("to"); ok && toV.Kind() == value.KindObject {
		pv, okP := toV.Obj().Get("pipeline")
		sv, okS := toV.Obj().Get("step")
		if okP && okS {
			sw.GoTo = &StepReference{Pipeline: int(pv.Int()), Step: int(sv.Int())}
		}
	}

	return sw, nil
}

func conditionFromValue(v value.Value) (*condpkg.Condition, error) {
	obj := v.Obj()
	leftV, _ := obj.Get("left")
	rightV, _ := obj.Get("right")
	opV, _ := obj.Get("operator")
	return condpkg.New(scalarToExprText(leftV), condpkg.Operator(opV.Str()), scalarToExprText(rightV))
}

// scalarToExprText renders a condition's left/right field as expr-lang
// source text: strings pass through as bare identifiers/expressions (e.g.
// "payload.amount"), other scalars render as literals.
func scalarToExprText(v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		return v.Str()
	case value.KindInt:
		return fmt.Sprintf("%d", v.Int())
	case value.KindFloat:
		return fmt.Sprintf("%g", v.Float())
	case value.KindBool:
		return fmt.Sprintf("%t", v.Bool())
	default:
		return "null"
	}
}

// Execute runs the five-clause order grounded on
// original_source/phlow-engine/src/step_worker.rs::StepWorker::execute:
// return wins over everything; a module call's output becomes the default
// payload; a condition's then/else selects the next pipeline; a goto fires
// after the bare payload is evaluated; otherwise the bare payload advances
// to the next step. debug is nilable; when set, Execute blocks on
// debug.BeforeStep before running, the §4.8 single-step gate.
func (sw *StepWorker) Execute(ctx context.Context, pctx *phctx.Context, debug *debugctl.Controller) (StepOutput, error) {
	if debug != nil {
		snap := debugctl.Snapshot{
			Context: debugctl.Context{
				Payload: pctx.Payload,
				Main:    pctx.Main,
			},
			Step:     sw.Raw,
			Pipeline: sw.PipelineID,
			Compiled: sw.Raw,
		}
		if err := debug.BeforeStep(ctx, snap); err != nil {
			return StepOutput{}, err
		}
	}

	if sw.ReturnExpr != nil {
		out, err := sw.ReturnExpr.Evaluate(pctx.Env())
		if err != nil {
			return StepOutput{}, &StepWorkerError{Stage: "return", Err: err}
		}
		return StepOutput{Next: NextStep{Kind: NextStepStop}, Output: out, HasOutput: true}, nil
	}

	if sw.ModuleRef != "" {
		return sw.executeModule(ctx, pctx)
	}

	if sw.Condition != nil {
		ok, err := sw.Condition.Evaluate(pctx.Env())
		if err != nil {
			return StepOutput{}, &StepWorkerError{Stage: "condition", Err: err}
		}
		if ok {
			next := NextStep{Kind: NextStepNext}
			if sw.ThenCase != nil {
				next = NextStep{Kind: NextStepPipeline, PipelineID: *sw.ThenCase}
			}
			out, hasOut, err := sw.evaluatePayload(pctx)
			if err != nil {
				return StepOutput{}, err
			}
			return StepOutput{Next: next, Output: out, HasOutput: hasOut}, nil
		}
		next := NextStep{Kind: NextStepNext}
		if sw.ElseCase != nil {
			next = NextStep{Kind: NextStepPipeline, PipelineID: *sw.ElseCase}
		}
		return StepOutput{Next: next}, nil
	}

	out, hasOut, err := sw.evaluatePayload(pctx)
	if err != nil {
		return StepOutput{}, err
	}

	if sw.GoTo != nil {
		return StepOutput{Next: NextStep{Kind: NextStepGoTo, GoTo: *sw.GoTo}, Output: out, HasOutput: hasOut}, nil
	}
	return StepOutput{Next: NextStep{Kind: NextStepNext}, Output: out, HasOutput: hasOut}, nil
}

func (sw *StepWorker) evaluatePayload(pctx *phctx.Context) (value.Value, bool, error) {
	if sw.PayloadExpr == nil {
		return value.Value{}, false, nil
	}
	out, err := sw.PayloadExpr.Evaluate(pctx.Env())
	if err != nil {
		return value.Value{}, false, &StepWorkerError{Stage: "payload", Err: err}
	}
	return out, true, nil
}

func (sw *StepWorker) executeModule(ctx context.Context, pctx *phctx.Context) (StepOutput, error) {
	callCtx := pctx
	if sw.InputExpr != nil {
		in, err := sw.InputExpr.Evaluate(pctx.Env())
		if err != nil {
			return StepOutput{}, &StepWorkerError{Stage: "input", Err: err}
		}
		callCtx = pctx.Copy()
		callCtx.Input = in
	}

	data, err := sw.Bus.Execute(ctx, sw.ModuleRef, callCtx.Input, callCtx.Payload)
	if err != nil {
		return StepOutput{}, &StepWorkerError{Stage: "module", Err: err}
	}

	callCtx = callCtx.Copy()
	callCtx.Payload = data

	out, hasOut, err := sw.evaluatePayload(callCtx)
	if err != nil {
		return StepOutput{}, err
	}
	if !hasOut {
		out, hasOut = data, true
	}
	return StepOutput{Next: NextStep{Kind: NextStepNext}, Output: out, HasOutput: hasOut}, nil
}
