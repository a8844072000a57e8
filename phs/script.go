// Package phs ("phlow script") is the embedded expression sandbox: it
// compiles a phlow.Value template containing {{ expr }} placeholders into a
// CompiledScript, and evaluates compiled programs against a variable
// environment at runtime.
package phs

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/phlowdotdev/phlow/value"
)

// CompiledScript is a template value with scalar string leaves replaced by
// integer placeholders, plus the compiled programs those placeholders refer
// to. Re-evaluating a CompiledScript against a new environment recompiles
// nothing — it only runs cached *vm.Program values.
type CompiledScript struct {
	shape     value.Value
	programs  map[int]*vm.Program
	templates map[int][]templatePart
}

// templatePart is either a literal string fragment or an index referring
// into programs (for "prefix {{ a }} mid {{ b }} suffix" strings).
type templatePart struct {
	literal string
	progIdx int
	isExpr  bool
}

// ScriptError reports a failure compiling or evaluating a script expression.
type ScriptError struct {
	Expr string
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("phs: %q: %s", e.Expr, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// Compile walks tmpl and produces a CompiledScript. Scalar strings are
// scanned for {{ }} placeholders; everything else (objects, arrays, other
// scalar kinds) is preserved verbatim in the shape and re-assembled at
// Evaluate time.
func Compile(tmpl value.Value) (*CompiledScript, error) {
	cs := &CompiledScript{
		programs:  make(map[int]*vm.Program),
		templates: make(map[int][]templatePart),
	}
	shape, err := cs.compileValue(tmpl)
	if err != nil {
		return nil, err
	}
	cs.shape = shape
	return cs, nil
}

// compileValue recursively compiles tmpl, replacing every templated string
// leaf with a placeholder integer keyed into cs.templates.
func (cs *CompiledScript) compileValue(v value.Value) (value.Value, error) {
	switch v.Kind() {
	case value.KindString:
		return cs.compileString(v.Str())
	case value.KindArray:
		items := make([]value.Value, len(v.Arr()))
		for i, e := range v.Arr() {
			out, err := cs.compileValue(e)
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
			out, err := cs.compileValue(fv)
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

const (
	openDelim = "{{"
	closeDelim = "}}"
)

// compileString scans s for {{ expr }} placeholders. A string that is
// exactly one placeholder ("{{ a.b }}", no surrounding text) compiles to a
// pass-through expression result (keeps its native type). A string with
// literal text around or between placeholders compiles to a template: each
// placeholder's result is stringified and concatenated with the literal
// parts.
func (cs *CompiledScript) compileString(s string) (value.Value, error) {
	parts, exprCount, err := splitTemplate(s)
	if err != nil {
		return value.Value{}, err
	}
	if exprCount == 0 {
		return value.String(s), nil
	}

	placeholder := len(cs.templates)
	compiled := make([]templatePart, 0, len(parts))
	for _, p := range parts {
		if !p.isExpr {
			compiled = append(compiled, p)
			continue
		}
		prog, err := compileExpr(p.literal)
		if err != nil {
			return value.Value{}, err
		}
		idx := len(cs.programs)
		cs.programs[idx] = prog
		compiled = append(compiled, templatePart{isExpr: true, progIdx: idx})
	}
	cs.templates[placeholder] = compiled

	if len(compiled) == 1 && compiled[0].isExpr {
		return value.String(fmt.Sprintf("\x00phs:raw:%d\x00", placeholder)), nil
	}
	return value.String(fmt.Sprintf("\x00phs:tmpl:%d\x00", placeholder)), nil
}

func compileExpr(src string) (*vm.Program, error) {
	desugared, err := desugarSpread(src)
	if err != nil {
		return nil, &ScriptError{Expr: src, Err: err}
	}
	prog, err := expr.Compile(desugared, expr.AllowUndefinedVariables(), Builtins()...)
	if err != nil {
		return nil, &ScriptError{Expr: src, Err: err}
	}
	return prog, nil
}

// splitTemplate breaks s into literal and {{ expr }} parts.
func splitTemplate(s string) ([]templatePart, int, error) {
	var parts []templatePart
	exprCount := 0
	rest := s
	for {
		i := strings.Index(rest, openDelim)
		if i < 0 {
			if rest != "" {
				parts = append(parts, templatePart{literal: rest})
			}
			break
		}
		if i > 0 {
			parts = append(parts, templatePart{literal: rest[:i]})
		}
		rest = rest[i+len(openDelim):]
		j := strings.Index(rest, closeDelim)
		if j < 0 {
			return nil, 0, fmt.Errorf("phs: unterminated %q in %q", openDelim, s)
		}
		inner := strings.TrimSpace(rest[:j])
		parts = append(parts, templatePart{literal: inner, isExpr: true})
		exprCount++
		rest = rest[j+len(closeDelim):]
	}
	return parts, exprCount, nil
}
