package condition

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOperators(t *testing.T) {
	env := map[string]interface{}{
		"payload": map[string]interface{}{"amount": int64(500), "name": "alice"},
	}

	cases := []struct {
		name  string
		left  string
		op    Operator
		right string
		want  bool
	}{
		{"equal true", "payload.amount", OperatorEqual, "500", true},
		{"equal false", "payload.amount", OperatorEqual, "10", false},
		{"greater_than", "payload.amount", OperatorGreaterThan, "100", true},
		{"less_than_or_equal", "payload.amount", OperatorLessThanOrEqual, "500", true},
		{"contains", `"ali"`, OperatorContains, "payload.name", true},
		{"starts_with", "payload.name", OperatorStartsWith, `"al"`, true},
		{"ends_with", "payload.name", OperatorEndsWith, `"ce"`, true},
		{"regex", "payload.name", OperatorRegex, `"^a.*e$"`, true},
		{"not_regex", "payload.name", OperatorNotRegex, `"^z"`, true},
		{"and", "payload.amount > 0", OperatorAnd, "payload.amount < 1000", true},
		{"or", "payload.amount > 10000", OperatorOr, "payload.amount < 1000", true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cond, err := New(c.left, c.op, c.right)
			require.NoError(t, err)
			got, err := cond.Evaluate(env)
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}
}

func TestRawAssertPredicate(t *testing.T) {
	cond := NewRaw("payload.amount >= 500")
	got, err := cond.Evaluate(map[string]interface{}{
		"payload": map[string]interface{}{"amount": int64(500)},
	})
	require.NoError(t, err)
	require.True(t, got)
}

func TestInvalidOperator(t *testing.T) {
	_, err := New("a", Operator("bogus"), "b")
	require.Error(t, err)
}

func TestNonBooleanResultErrors(t *testing.T) {
	cond := NewRaw("payload.amount")
	_, err := cond.Evaluate(map[string]interface{}{
		"payload": map[string]interface{}{"amount": int64(5)},
	})
	require.Error(t, err)
}
