package phs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/vm"

	"github.com/phlowdotdev/phlow/value"
)

const sentinelPrefix = "\x00phs:"

// Evaluate runs cs against env (a flat variable environment, typically
// {"main":..., "input":..., "payload":..., "steps":...}) and returns the
// resulting Value tree with every placeholder resolved.
func (cs *CompiledScript) Evaluate(env map[string]interface{}) (value.Value, error) {
	return cs.evalValue(cs.shape, env)
}

func (cs *CompiledScript) evalValue(v value.Value, env map[string]interface{}) (value.Value, error) {
	switch v.Kind() {
	case value.KindString:
		if kind, idx, ok := parseSentinel(v.Str()); ok {
			switch kind {
			case "raw":
				return cs.evalRaw(idx, env)
			case "tmpl":
				return cs.evalTemplate(idx, env)
			}
		}
		return v, nil
	case value.KindArray:
		items := make([]value.Value, len(v.Arr()))
		for i, e := range v.Arr() {
			out, err := cs.evalValue(e, env)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = out
		}
		return value.Array(items), nil
	case value.KindObject:
		obj := value.NewObject()
		src := v.Obj()
		for _, k := range src.Keys() {
			fv, _ := src.Get(k)
			out, err := cs.evalValue(fv, env)
			if err != nil {
				return value.Value{}, err
			}
			obj.Set(k, out)
		}
		return value.FromObject(obj), nil
	default:
		return v, nil
	}
}

func parseSentinel(s string) (kind string, idx int, ok bool) {
	if !strings.HasPrefix(s, sentinelPrefix) || !strings.HasSuffix(s, "\x00") {
		return "", 0, false
	}
	body := s[len(sentinelPrefix) : len(s)-1]
	parts := strings.SplitN(body, ":", 2)
	if len(parts) != 2 {
		return "", 0, false
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, false
	}
	return parts[0], n, true
}

func (cs *CompiledScript) evalRaw(placeholder int, env map[string]interface{}) (value.Value, error) {
	parts := cs.templates[placeholder]
	if len(parts) != 1 || !parts[0].isExpr {
		return value.Value{}, fmt.Errorf("phs: malformed raw placeholder %d", placeholder)
	}
	result, err := cs.runProgram(parts[0].progIdx, env)
	if err != nil {
		return value.Value{}, err
	}
	return value.FromNative(result), nil
}

func (cs *CompiledScript) evalTemplate(placeholder int, env map[string]interface{}) (value.Value, error) {
	parts := cs.templates[placeholder]
	var sb strings.Builder
	for _, p := range parts {
		if !p.isExpr {
			sb.WriteString(p.literal)
			continue
		}
		result, err := cs.runProgram(p.progIdx, env)
		if err != nil {
			return value.Value{}, err
		}
		sb.WriteString(stringify(result))
	}
	return value.String(sb.String()), nil
}

func (cs *CompiledScript) runProgram(idx int, env map[string]interface{}) (interface{}, error) {
	prog, ok := cs.programs[idx]
	if !ok {
		return nil, fmt.Errorf("phs: missing compiled program %d", idx)
	}
	result, err := vm.Run(prog, env)
	if err != nil {
		return nil, &ScriptError{Err: err}
	}
	return result, nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
