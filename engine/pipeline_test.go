package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	phctx "github.com/phlowdotdev/phlow/context"
	"github.com/phlowdotdev/phlow/value"
)

func runLoanDoc(t *testing.T, requested, preApproved, score float64) value.Value {
	t.Helper()
	doc := parseJSONValue(t, loanApprovalDoc)
	pm, err := Transform(doc)
	require.NoError(t, err)

	mainObj := value.NewObject()
	mainObj.Set("requested", value.Float(requested))
	mainObj.Set("pre_approved", value.Float(preApproved))
	mainObj.Set("score", value.Float(score))

	pctx := phctx.New(value.FromObject(mainObj), value.Null())
	result, err := Run(context.Background(), pm, pctx, nil)
	require.NoError(t, err)
	require.True(t, result.Stopped || result.HasOutput)
	return result.Output
}

func TestPipelineRunThenBranch(t *testing.T) {
	// requested < pre_approved takes the then branch: payload = requested.
	out := runLoanDoc(t, 100, 200, 0.9)
	require.Equal(t, 100.0, out.Float())
}

func TestPipelineRunElseBranchHighScoreApproved(t *testing.T) {
	// requested >= pre_approved, score > 0.5: total = requested*0.3+pre_approved.
	// total(500*0.3+100=250) < requested(500) -> else returns steps.approved.total.
	out := runLoanDoc(t, 500, 100, 0.9)
	require.Equal(t, 250.0, out.Float())
}

func TestPipelineRunElseBranchTotalExceedsRequested(t *testing.T) {
	// requested(100) is not less than pre_approved(100), so the outer else
	// branch runs; total(100*0.3+100=130) > requested(100) -> inner then
	// returns main.requested.
	out := runLoanDoc(t, 100, 100, 0.9)
	require.Equal(t, 100.0, out.Float())
}
