package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	condpkg "github.com/phlowdotdev/phlow/condition"
	phctx "github.com/phlowdotdev/phlow/context"
	"github.com/phlowdotdev/phlow/phs"
	"github.com/phlowdotdev/phlow/value"
)

func mustCompile(t *testing.T, tmpl value.Value) *phs.CompiledScript {
	t.Helper()
	cs, err := phs.Compile(tmpl)
	require.NoError(t, err)
	return cs
}

func TestStepExecuteBarePayload(t *testing.T) {
	sw := &StepWorker{ID: "s1", PayloadExpr: mustCompile(t, value.String("{{ 10 }}"))}
	out, err := sw.Execute(context.Background(), phctx.New(value.Null(), value.Null()), nil)
	require.NoError(t, err)
	require.Equal(t, NextStepNext, out.Next.Kind)
	require.Equal(t, int64(10), out.Output.Int())
}

func TestStepExecuteWithConditionNoBranch(t *testing.T) {
	cond, err := condpkg.New("10", condpkg.OperatorNotEqual, "20")
	require.NoError(t, err)
	sw := &StepWorker{ID: "s1", Condition: cond, PayloadExpr: mustCompile(t, value.String("{{ 10 }}"))}

	out, err := sw.Execute(context.Background(), phctx.New(value.Null(), value.Null()), nil)
	require.NoError(t, err)
	require.Equal(t, NextStepNext, out.Next.Kind)
	require.Equal(t, int64(10), out.Output.Int())
}

func TestStepExecuteWithConditionThenCase(t *testing.T) {
	cond, err := condpkg.New("10", condpkg.OperatorNotEqual, "20")
	require.NoError(t, err)
	thenID := 0
	sw := &StepWorker{ID: "s1", Condition: cond, PayloadExpr: mustCompile(t, value.String("{{ 10 }}")), ThenCase: &thenID}

	out, err := sw.Execute(context.Background(), phctx.New(value.Null(), value.Null()), nil)
	require.NoError(t, err)
	require.Equal(t, NextStepPipeline, out.Next.Kind)
	require.Equal(t, 0, out.Next.PipelineID)
	require.Equal(t, int64(10), out.Output.Int())
}

func TestStepExecuteWithConditionElseCase(t *testing.T) {
	cond, err := condpkg.New("10", condpkg.OperatorEqual, "20")
	require.NoError(t, err)
	elseID := 1
	sw := &StepWorker{ID: "s1", Condition: cond, PayloadExpr: mustCompile(t, value.String("{{ 10 }}")), ElseCase: &elseID}

	out, err := sw.Execute(context.Background(), phctx.New(value.Null(), value.Null()), nil)
	require.NoError(t, err)
	require.Equal(t, NextStepPipeline, out.Next.Kind)
	require.Equal(t, 1, out.Next.PipelineID)
	require.False(t, out.HasOutput, "payload is not evaluated on the else-no-then path")
}

func TestStepExecuteWithReturnCase(t *testing.T) {
	sw := &StepWorker{ID: "s1", ReturnExpr: mustCompile(t, value.String("{{ 10 }}"))}
	out, err := sw.Execute(context.Background(), phctx.New(value.Null(), value.Null()), nil)
	require.NoError(t, err)
	require.Equal(t, NextStepStop, out.Next.Kind)
	require.Equal(t, int64(10), out.Output.Int())
}

func TestStepExecuteReturnWinsOverPayload(t *testing.T) {
	sw := &StepWorker{
		ID:          "s1",
		PayloadExpr: mustCompile(t, value.String("{{ 10 }}")),
		ReturnExpr:  mustCompile(t, value.String("{{ 20 }}")),
	}
	out, err := sw.Execute(context.Background(), phctx.New(value.Null(), value.Null()), nil)
	require.NoError(t, err)
	require.Equal(t, NextStepStop, out.Next.Kind)
	require.Equal(t, int64(20), out.Output.Int())
}

func TestStepExecuteReturnWinsOverCondition(t *testing.T) {
	cond, err := condpkg.New("10", condpkg.OperatorEqual, "20")
	require.NoError(t, err)
	sw := &StepWorker{ID: "s1", Condition: cond, ReturnExpr: mustCompile(t, value.String("{{ 10 }}"))}

	out, err := sw.Execute(context.Background(), phctx.New(value.Null(), value.Null()), nil)
	require.NoError(t, err)
	require.Equal(t, NextStepStop, out.Next.Kind)
	require.Equal(t, int64(10), out.Output.Int())
}

func TestStepExecuteModuleOutputIsDefaultPayload(t *testing.T) {
	sw := &StepWorker{ID: "s1", ModuleRef: "echo", Bus: moduleStub{data: value.String("from-module")}}
	out, err := sw.Execute(context.Background(), phctx.New(value.Null(), value.Null()), nil)
	require.NoError(t, err)
	require.Equal(t, NextStepNext, out.Next.Kind)
	require.Equal(t, "from-module", out.Output.Str())
}

func TestStepExecuteModuleExplicitPayloadOverridesOutput(t *testing.T) {
	sw := &StepWorker{
		ID:          "s1",
		ModuleRef:   "echo",
		Bus:         moduleStub{data: value.String("from-module")},
		PayloadExpr: mustCompile(t, value.String("overridden")),
	}
	out, err := sw.Execute(context.Background(), phctx.New(value.Null(), value.Null()), nil)
	require.NoError(t, err)
	require.Equal(t, "overridden", out.Output.Str())
}
