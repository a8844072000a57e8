// Package condition implements phlow's condition expression: a left/right
// pair joined by one of a fixed set of operators, assembled into an
// expr-lang expression string and evaluated through phs.
package condition

import (
	"fmt"

	"github.com/phlowdotdev/phlow/phs"
	"github.com/phlowdotdev/phlow/value"
)

// Operator names one of the binary comparisons a Condition can express,
// grounded on original_source/v8/src/condition.rs's Operator enum.
type Operator string

const (
	OperatorOr                 Operator = "or"
	OperatorAnd                Operator = "and"
	OperatorEqual              Operator = "equal"
	OperatorNotEqual           Operator = "not_equal"
	OperatorGreaterThan        Operator = "greater_than"
	OperatorLessThan           Operator = "less_than"
	OperatorGreaterThanOrEqual Operator = "greater_than_or_equal"
	OperatorLessThanOrEqual    Operator = "less_than_or_equal"
	OperatorContains           Operator = "contains"
	OperatorNotContains        Operator = "not_contains"
	OperatorStartsWith         Operator = "starts_with"
	OperatorEndsWith           Operator = "ends_with"
	OperatorRegex              Operator = "regex"
	OperatorNotRegex           Operator = "not_regex"
)

// Error reports an invalid condition definition.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return "condition: " + e.Msg }

// Condition is a left/operator/right triple, compiled lazily into an
// expr-lang expression on first Evaluate.
type Condition struct {
	Left     string
	Right    string
	Operator Operator

	compiled *phs.CompiledScript
}

// NewRaw builds a Condition from an "assert"-style pre-built expression string
// instead of a left/operator/right triple, for conditions authored directly
// as a raw predicate (spec.md §3's "raw assert predicate" form).
func NewRaw(expr string) *Condition {
	return &Condition{Left: expr, Operator: "", Right: ""}
}

// New builds a Condition from a left/operator/right triple.
func New(left string, operator Operator, right string) (*Condition, error) {
	if _, err := assemble(left, operator, right); err != nil {
		return nil, err
	}
	return &Condition{Left: left, Operator: operator, Right: right}, nil
}

// assemble renders the operator form into a single expr-lang expression
// string, one-to-one with original_source/v8/src/condition.rs::Condition::new.
func assemble(left string, op Operator, right string) (string, error) {
	switch op {
	case OperatorOr:
		return fmt.Sprintf("(%s) || (%s)", left, right), nil
	case OperatorAnd:
		return fmt.Sprintf("(%s) && (%s)", left, right), nil
	case OperatorEqual:
		return fmt.Sprintf("(%s) == (%s)", left, right), nil
	case OperatorNotEqual:
		return fmt.Sprintf("(%s) != (%s)", left, right), nil
	case OperatorGreaterThan:
		return fmt.Sprintf("(%s) > (%s)", left, right), nil
	case OperatorLessThan:
		return fmt.Sprintf("(%s) < (%s)", left, right), nil
	case OperatorGreaterThanOrEqual:
		return fmt.Sprintf("(%s) >= (%s)", left, right), nil
	case OperatorLessThanOrEqual:
		return fmt.Sprintf("(%s) <= (%s)", left, right), nil
	case OperatorContains:
		return fmt.Sprintf("((%s) in (%s))", left, right), nil
	case OperatorNotContains:
		return fmt.Sprintf("!((%s) in (%s))", left, right), nil
	case OperatorStartsWith:
		return fmt.Sprintf("starts_with(%s, %s)", left, right), nil
	case OperatorEndsWith:
		return fmt.Sprintf("ends_with(%s, %s)", left, right), nil
	case OperatorRegex:
		// expr-lang has no "search" infix; phs's regex_match builtin takes
		// (subject, pattern) — mapped from the Rust dialect's "search" token.
		return fmt.Sprintf("regex_match(%s, %s)", left, right), nil
	case OperatorNotRegex:
		return fmt.Sprintf("!regex_match(%s, %s)", left, right), nil
	case "":
		return left, nil
	default:
		return "", &Error{Msg: fmt.Sprintf("invalid operator %q", op)}
	}
}

// Evaluate compiles (on first call) and runs the condition against env,
// requiring the result to be boolean.
func (c *Condition) Evaluate(env map[string]interface{}) (bool, error) {
	if c.compiled == nil {
		src, err := assemble(c.Left, c.Operator, c.Right)
		if err != nil {
			return false, err
		}
		cs, err := phs.Compile(value.String("{{ " + src + " }}"))
		if err != nil {
			return false, err
		}
		c.compiled = cs
	}
	out, err := c.compiled.Evaluate(env)
	if err != nil {
		return false, err
	}
	if out.Kind() != value.KindBool {
		return false, &Error{Msg: fmt.Sprintf("condition did not evaluate to a boolean (got %s)", out.Kind())}
	}
	return out.Bool(), nil
}
