// Package preprocessor resolves !include/!import tags, auto-wraps bare
// expression-looking strings, and rewrites module-call sugar before a
// document reaches Transform. Grounded on
// original_source/phlow-runtime/src/preprocessor.rs and the teacher's
// runner/decl.go include-merge idiom.
package preprocessor

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/phlowdotdev/phlow/value"
)

// Process resolves includes relative to baseDir, auto-wraps bare
// expression-shaped strings, and rewrites module-call sugar, returning the
// document ready for Transform.
func Process(doc value.Value, baseDir string) (value.Value, error) {
	doc, err := resolveIncludes(doc, baseDir)
	if err != nil {
		return value.Value{}, err
	}
	doc = rewriteSugar(doc)
	doc = autoWrap(doc)
	return doc, nil
}

// includeTagRe matches a scalar string of the form "!include path" or
// "!import path" — phlow authors write these as plain string values since
// value.Value has no native YAML-tag concept once decoded.
var includeTagRe = regexp.MustCompile(`^!(include|import)\s+(\S+)$`)

func resolveIncludes(v value.Value, baseDir string) (value.Value, error) {
	switch v.Kind() {
	case value.KindString:
		m := includeTagRe.FindStringSubmatch(v.Str())
		if m == nil {
			return v, nil
		}
		return loadInclude(filepath.Join(baseDir, m[2]))
	case value.KindArray:
		items := make([]value.Value, len(v.Arr()))
		for i, e := range v.Arr() {
			out, err := resolveIncludes(e, baseDir)
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
			out, err := resolveIncludes(fv, baseDir)
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

func loadInclude(path string) (value.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return value.Value{}, fmt.Errorf("preprocessor: include %q: %w", path, err)
	}
	var v value.Value
	if err := yaml.Unmarshal(data, &v); err != nil {
		return value.Value{}, fmt.Errorf("preprocessor: parse include %q: %w", path, err)
	}
	return resolveIncludes(v, filepath.Dir(path))
}

// reservedKeywords and operatorTokens drive the auto-wrap heuristic: a bare
// string step value is treated as though tagged with an expression (phs
// compiles it as code, not a template literal) if it starts with one of
// these keywords or contains one of these operator tokens outside quotes.
var reservedKeywords = []string{"if ", "iff ", "not ", "in "}
var operatorTokens = []string{"==", "!=", "<=", ">=", "&&", "||"}

func looksLikeExpression(s string) bool {
	trimmed := strings.TrimSpace(s)
	for _, kw := range reservedKeywords {
		if strings.HasPrefix(trimmed, kw) {
			return true
		}
	}
	for _, op := range operatorTokens {
		if strings.Contains(s, op) {
			return true
		}
	}
	return containsBareComparison(s)
}

// containsBareComparison detects an un-quoted "<" or ">" comparison token,
// skipping characters inside single or double quotes so a literal string
// like "a > b" written as a quoted value isn't misdetected.
func containsBareComparison(s string) bool {
	inStr := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr != 0 {
			if c == inStr {
				inStr = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			inStr = c
		case '<', '>':
			return true
		}
	}
	return false
}

// autoWrap rewrites step-level "payload"/"input"/"return" string fields
// that look like expressions into {{ }} templates, so a script author can
// write `payload: payload.amount > 0` instead of `payload: "{{ payload.amount > 0 }}"`.
func autoWrap(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindObject:
		obj := value.NewObject()
		src := v.Obj()
		for _, k := range src.Keys() {
			fv, _ := src.Get(k)
			if isExpressionField(k) && fv.Kind() == value.KindString && !alreadyTemplated(fv.Str()) && looksLikeExpression(fv.Str()) {
				obj.Set(k, value.String("{{ "+fv.Str()+" }}"))
				continue
			}
			obj.Set(k, autoWrap(fv))
		}
		return value.FromObject(obj)
	case value.KindArray:
		items := make([]value.Value, len(v.Arr()))
		for i, e := range v.Arr() {
			items[i] = autoWrap(e)
		}
		return value.Array(items)
	default:
		return v
	}
}

func isExpressionField(key string) bool {
	switch key {
	case "payload", "input", "return", "assert":
		return true
	default:
		return false
	}
}

func alreadyTemplated(s string) bool {
	return strings.Contains(s, "{{") && strings.Contains(s, "}}")
}
