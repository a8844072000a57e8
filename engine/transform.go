package engine

import "github.com/phlowdotdev/phlow/value"

// Transform hoists a raw pipeline document's nested then/else subtrees into
// a flat PipelineMap, grounded line-for-line on
// original_source/phlow-engine/src/transform.rs (process_raw_steps /
// value_to_structs). Every then/else object or array the walk encounters is
// post-order appended to the returned map as its own entry; the document's
// own entry pipeline is always the last one appended (index len-1).
func Transform(root value.Value) (PipelineMap, error) {
	var rawMap []value.Value
	processRawSteps(root, &rawMap)
	return rawToPipelineMap(rawMap)
}

// processRawSteps walks input (either the root pipeline object or a
// then/else subtree, which may itself be an object or an array of step
// objects), hoisting nested then/else values into map and returning the
// integer index at which input's own flattened step list was appended.
func processRawSteps(input value.Value, mapOut *[]value.Value) value.Value {
	switch input.Kind() {
	case value.KindObject:
		obj := input.Obj()
		newPipeline := value.NewObject()
		for _, k := range obj.Keys() {
			if k == "steps" {
				continue
			}
			v, _ := obj.Get(k)
			newPipeline.Set(k, v)
		}
		if thenV, ok := obj.Get("then"); ok {
			newPipeline.Set("then", processRawSteps(thenV, mapOut))
		}
		if elseV, ok := obj.Get("else"); ok {
			newPipeline.Set("else", processRawSteps(elseV, mapOut))
		}

		var newSteps []value.Value
		if newPipeline.Len() > 0 {
			newSteps = append(newSteps, value.FromObject(newPipeline))
		}

		if stepsV, ok := obj.Get("steps"); ok && stepsV.Kind() == value.KindArray {
			newSteps = append(newSteps, hoistStepList(stepsV.Arr(), mapOut)...)
		}

		*mapOut = append(*mapOut, value.Array(newSteps))
		return value.Int(int64(len(*mapOut) - 1))

	case value.KindArray:
		newSteps := hoistStepList(input.Arr(), mapOut)
		*mapOut = append(*mapOut, value.Array(newSteps))
		return value.Int(int64(len(*mapOut) - 1))

	default:
		return value.Null()
	}
}

func hoistStepList(steps []value.Value, mapOut *[]value.Value) []value.Value {
	out := make([]value.Value, 0, len(steps))
	for _, step := range steps {
		if step.Kind() != value.KindObject {
			continue
		}
		src := step.Obj()
		newStep := src.Clone()
		if thenV, ok := src.Get("then"); ok {
			newStep.Set("then", processRawSteps(thenV, mapOut))
		}
		if elseV, ok := src.Get("else"); ok {
			newStep.Set("else", processRawSteps(elseV, mapOut))
		}
		out = append(out, value.FromObject(newStep))
	}
	return out
}

// rawToPipelineMap converts the flat []value.Value produced by
// processRawSteps into typed Pipelines of StepWorkers.
func rawToPipelineMap(rawMap []value.Value) (PipelineMap, error) {
	pipelines := make(PipelineMap, len(rawMap))
	for id, steps := range rawMap {
		if steps.Kind() != value.KindArray {
			continue
		}
		p := &Pipeline{}
		for _, raw := range steps.Arr() {
			sw, err := StepWorkerFromValue(raw)
			if err != nil {
				return nil, err
			}
			sw.PipelineID = id
			p.Steps = append(p.Steps, sw)
		}
		pipelines[id] = p
	}
	return pipelines, nil
}
