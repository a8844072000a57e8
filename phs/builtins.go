package phs

import (
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
)

// Builtins returns the expr-lang options registering phlow's builtin
// function set, grounded on original_source/phs/src/functions.rs: string
// predicates, a regex helper backing the regex/not_regex condition
// operators, and a shallow map merge used by spread desugaring.
func Builtins() []expr.Option {
	return []expr.Option{
		expr.Function("contains", func(params ...interface{}) (interface{}, error) {
			return strings.Contains(toStr(params[0]), toStr(params[1])), nil
		}),
		expr.Function("starts_with", func(params ...interface{}) (interface{}, error) {
			return strings.HasPrefix(toStr(params[0]), toStr(params[1])), nil
		}),
		expr.Function("ends_with", func(params ...interface{}) (interface{}, error) {
			return strings.HasSuffix(toStr(params[0]), toStr(params[1])), nil
		}),
		expr.Function("regex_match", func(params ...interface{}) (interface{}, error) {
			re, err := regexp.Compile(toStr(params[1]))
			if err != nil {
				return nil, err
			}
			return re.MatchString(toStr(params[0])), nil
		}),
		expr.Function("slice", func(params ...interface{}) (interface{}, error) {
			return sliceValue(params[0], params[1:]...)
		}),
		expr.Function("replace", func(params ...interface{}) (interface{}, error) {
			return strings.ReplaceAll(toStr(params[0]), toStr(params[1]), toStr(params[2])), nil
		}),
		expr.Function("merge", func(params ...interface{}) (interface{}, error) {
			return mergeMaps(params...), nil
		}),
		expr.Function("concat", func(params ...interface{}) (interface{}, error) {
			return concatArrays(params...), nil
		}),
		expr.Function("is_null", func(params ...interface{}) (interface{}, error) {
			return isNull(params[0]), nil
		}),
		expr.Function("is_not_null", func(params ...interface{}) (interface{}, error) {
			return !isNull(params[0]), nil
		}),
		expr.Function("is_empty", func(params ...interface{}) (interface{}, error) {
			return isEmpty(params[0]), nil
		}),
	}
}

// isNull reports whether v is expr-lang's representation of a phlow null,
// which is a literal nil. Grounded on
// original_source/phs/src/functions.rs's is_null/is_not_null.
func isNull(v interface{}) bool {
	return v == nil
}

// isEmpty reports whether v is null or an empty string/array/map, matching
// original_source/phs/src/functions.rs's is_empty ("empty string, empty
// array, empty object, or null all count as empty").
func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	default:
		return false
	}
}

// concatArrays flattens []interface{} arguments into one slice, in order.
// Backs array-spread desugaring ([...a, x] -> concat(a, [x])).
func concatArrays(arrs ...interface{}) []interface{} {
	var out []interface{}
	for _, a := range arrs {
		switch t := a.(type) {
		case []interface{}:
			out = append(out, t...)
		default:
			out = append(out, a)
		}
	}
	return out
}

func toStr(v interface{}) string {
	s, _ := v.(string)
	return s
}

func sliceValue(v interface{}, bounds ...interface{}) (interface{}, error) {
	switch t := v.(type) {
	case string:
		start, end := resolveBounds(len(t), bounds)
		return t[start:end], nil
	case []interface{}:
		start, end := resolveBounds(len(t), bounds)
		return t[start:end], nil
	default:
		return v, nil
	}
}

func resolveBounds(length int, bounds []interface{}) (int, int) {
	start, end := 0, length
	if len(bounds) > 0 {
		if n, ok := toInt(bounds[0]); ok {
			start = clamp(n, length)
		}
	}
	if len(bounds) > 1 {
		if n, ok := toInt(bounds[1]); ok {
			end = clamp(n, length)
		}
	}
	if end < start {
		end = start
	}
	return start, end
}

func clamp(n, length int) int {
	if n < 0 {
		n = length + n
	}
	if n < 0 {
		return 0
	}
	if n > length {
		return length
	}
	return n
}

func toInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}

// mergeMaps shallow-merges any number of map[string]interface{} arguments,
// later arguments winning on key collision. Backs both the merge() builtin
// and object-spread desugaring.
func mergeMaps(maps ...interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		mm, ok := m.(map[string]interface{})
		if !ok {
			continue
		}
		for k, v := range mm {
			out[k] = v
		}
	}
	return out
}
