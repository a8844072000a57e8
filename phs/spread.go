package phs

import "strings"

// desugarSpread rewrites object/array literals containing a "...expr"
// spread entry into merge(...)/concat(...) calls, since expr-lang has no
// native spread operator (original_source/phs/src/variable.rs handles
// spread at the v8 layer; here it's a compile-time textual rewrite instead
// of a VM feature). Every brace/bracket pair in src is rewritten; nested
// literals are rewritten first so outer rewriting sees plain calls.
func desugarSpread(src string) (string, error) {
	return rewriteBrackets(desugarIff(src))
}

// desugarIff strips phlow's leading "iff" keyword from a ternary
// expression, mapping `iff cond ? a : b` onto expr-lang's native
// `cond ? a : b` syntax, which has no iff keyword of its own. Grounded on
// original_source/phs/src/functions.rs's register_custom_syntax(["iff",
// "$expr$", "?", "$expr$", ":", "$expr$"], ...), which implements iff as a
// literal keyword rather than a plain alias for "?:".
func desugarIff(src string) string {
	trimmed := strings.TrimSpace(src)
	if rest, ok := strings.CutPrefix(trimmed, "iff "); ok {
		return rest
	}
	return src
}

func rewriteBrackets(src string) (string, error) {
	var sb strings.Builder
	i := 0
	for i < len(src) {
		c := src[i]
		switch c {
		case '{':
			end, err := matchBracket(src, i, '{', '}')
			if err != nil {
				return "", err
			}
			inner, err := rewriteBrackets(src[i+1 : end])
			if err != nil {
				return "", err
			}
			sb.WriteString(rewriteObjectLiteral(inner))
			i = end + 1
		case '[':
			end, err := matchBracket(src, i, '[', ']')
			if err != nil {
				return "", err
			}
			inner, err := rewriteBrackets(src[i+1 : end])
			if err != nil {
				return "", err
			}
			sb.WriteString(rewriteArrayLiteral(inner))
			i = end + 1
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), nil
}

func matchBracket(src string, start int, open, close byte) (int, error) {
	depth := 0
	inStr := byte(0)
	for i := start; i < len(src); i++ {
		c := src[i]
		if inStr != 0 {
			if c == inStr && src[i-1] != '\\' {
				inStr = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			inStr = c
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, errUnbalanced
}

var errUnbalanced = &ScriptError{Expr: "", Err: unbalancedErr{}}

type unbalancedErr struct{}

func (unbalancedErr) Error() string { return "unbalanced bracket in expression" }

// rewriteObjectLiteral turns "...a, k: v" into a merge() call when a spread
// entry is present; returns the original "{...}" text otherwise.
func rewriteObjectLiteral(inner string) string {
	if !strings.Contains(inner, "...") {
		return "{" + inner + "}"
	}
	parts := splitTopLevelCommas(inner)
	var mergeArgs []string
	var plain []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "...") {
			if len(plain) > 0 {
				mergeArgs = append(mergeArgs, "{"+strings.Join(plain, ", ")+"}")
				plain = nil
			}
			mergeArgs = append(mergeArgs, strings.TrimPrefix(p, "..."))
			continue
		}
		plain = append(plain, p)
	}
	if len(plain) > 0 {
		mergeArgs = append(mergeArgs, "{"+strings.Join(plain, ", ")+"}")
	}
	return "merge(" + strings.Join(mergeArgs, ", ") + ")"
}

// rewriteArrayLiteral turns "...a, x" into a concat() call when a spread
// entry is present; returns the original "[...]" text otherwise.
func rewriteArrayLiteral(inner string) string {
	if !strings.Contains(inner, "...") {
		return "[" + inner + "]"
	}
	parts := splitTopLevelCommas(inner)
	var concatArgs []string
	var plain []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "...") {
			if len(plain) > 0 {
				concatArgs = append(concatArgs, "["+strings.Join(plain, ", ")+"]")
				plain = nil
			}
			concatArgs = append(concatArgs, strings.TrimPrefix(p, "..."))
			continue
		}
		plain = append(plain, p)
	}
	if len(plain) > 0 {
		concatArgs = append(concatArgs, "["+strings.Join(plain, ", ")+"]")
	}
	return "concat(" + strings.Join(concatArgs, ", ") + ")"
}

func splitTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	inStr := byte(0)
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr != 0 {
			if c == inStr && s[i-1] != '\\' {
				inStr = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			inStr = c
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	if last < len(s) {
		parts = append(parts, s[last:])
	} else if len(s) == 0 {
		return nil
	}
	return parts
}
