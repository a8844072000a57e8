package preprocessor

import (
	"strings"

	"github.com/phlowdotdev/phlow/value"
)

// rewriteSugar expands "module_name.action.arg1.arg2: {k: v}" step keys into
// {use: module_name, input: {action, args, k: v}}, grounded on
// original_source/phlow-runtime/src/preprocessor.rs's module-call sugar.
// A step is only a sugar candidate if it is a single-key object whose key
// contains a dot and is not itself one of phlow's reserved step fields.
func rewriteSugar(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindObject:
		obj := v.Obj()
		if sugar, ok := asModuleSugar(obj); ok {
			return rewriteSugar(sugar)
		}
		out := value.NewObject()
		for _, k := range obj.Keys() {
			fv, _ := obj.Get(k)
			out.Set(k, rewriteSugar(fv))
		}
		return value.FromObject(out)
	case value.KindArray:
		items := make([]value.Value, len(v.Arr()))
		for i, e := range v.Arr() {
			items[i] = rewriteSugar(e)
		}
		return value.Array(items)
	default:
		return v
	}
}

var reservedStepFields = map[string]bool{
	"id": true, "label": true, "use": true, "condition": true, "assert": true,
	"payload": true, "input": true, "then": true, "else": true, "return": true,
	"to": true, "steps": true, "modules": true, "name": true,
}

func asModuleSugar(obj *value.Object) (value.Value, bool) {
	if obj.Len() != 1 {
		return value.Value{}, false
	}
	key := obj.Keys()[0]
	if reservedStepFields[key] || !strings.Contains(key, ".") {
		return value.Value{}, false
	}
	parts := strings.Split(key, ".")
	moduleName := parts[0]
	action := ""
	var args []string
	if len(parts) > 1 {
		action = parts[1]
		args = parts[2:]
	}

	with, _ := obj.Get(key)
	input := value.NewObject()
	if action != "" {
		input.Set("action", value.String(action))
	}
	if len(args) > 0 {
		argVals := make([]value.Value, len(args))
		for i, a := range args {
			argVals[i] = value.String(a)
		}
		input.Set("args", value.Array(argVals))
	}
	if with.Kind() == value.KindObject {
		for _, k := range with.Obj().Keys() {
			fv, _ := with.Obj().Get(k)
			input.Set(k, fv)
		}
	}

	out := value.NewObject()
	out.Set("use", value.String(moduleName))
	out.Set("input", value.FromObject(input))
	return value.FromObject(out), true
}
