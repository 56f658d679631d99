package desugar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiralir/spiral/internal/doc"
	"github.com/spiralir/spiral/internal/typesys"
)

// TestDesugar_EmitsLambdaAndBodyNodes tests that a single AIRDef produces
// its two synthetic nodes and that AirDefs is cleared.
func TestDesugar_EmitsLambdaAndBodyNodes(t *testing.T) {
	input := &doc.Document{
		Version: "1.0.0",
		AirDefs: []doc.AIRDef{
			{NS: "math", Name: "double", Params: []string{"x"}, Result: typesys.Int(),
				Body: doc.Call{NS: "core", Name: "add", Args: []doc.Arg{doc.ArgID("x"), doc.ArgID("x")}}},
		},
		Nodes: []doc.Node{
			{ID: "n1", Expr: doc.AirRef{NS: "math", Name: "double", Args: []string{"five"}}},
		},
		Result: "n1",
	}

	out, err := Desugar(input)
	require.NoError(t, err)
	assert.Empty(t, out.AirDefs)

	idx := out.Index()
	body, ok := idx["__airdef_math_double_body"]
	require.True(t, ok, "expected synthetic body node")
	assert.Equal(t, doc.KindCall, body.Expr.ExprKind())

	lam, ok := idx["__airdef_math_double"]
	require.True(t, ok, "expected synthetic lambda node")
	lambda, ok := lam.Expr.(doc.Lambda)
	require.True(t, ok)
	assert.Equal(t, doc.NodeID("__airdef_math_double_body"), lambda.Body)
	require.Len(t, lambda.Params, 1)
	assert.Equal(t, "x", lambda.Params[0].Name)
}

// TestDesugar_RewritesAirRefToCallExpr tests that a node referencing an
// AIRDef is rewritten into a callExpr against the synthetic lambda.
func TestDesugar_RewritesAirRefToCallExpr(t *testing.T) {
	input := &doc.Document{
		Version: "1.0.0",
		AirDefs: []doc.AIRDef{
			{NS: "math", Name: "double", Params: []string{"x"}, Result: typesys.Int(),
				Body: doc.Var{Name: "x"}},
		},
		Nodes: []doc.Node{
			{ID: "n1", Expr: doc.AirRef{NS: "math", Name: "double", Args: []string{"five"}}},
		},
		Result: "n1",
	}

	out, err := Desugar(input)
	require.NoError(t, err)

	idx := out.Index()
	n1 := idx["n1"]
	call, ok := n1.Expr.(doc.CallExpr)
	require.True(t, ok, "expected n1 to be rewritten into a callExpr")
	assert.Equal(t, doc.ArgID("__airdef_math_double"), call.Fn)
	require.Len(t, call.Args, 1)
	assert.Equal(t, doc.ArgID("five"), call.Args[0])
}

// TestDesugar_RewritesNestedAirRef tests that an airRef nested inside an
// If's branches is rewritten too, not just top-level node expressions.
func TestDesugar_RewritesNestedAirRef(t *testing.T) {
	input := &doc.Document{
		Version: "1.0.0",
		AirDefs: []doc.AIRDef{
			{NS: "math", Name: "inc", Params: []string{"x"}, Result: typesys.Int(), Body: doc.Var{Name: "x"}},
		},
		Nodes: []doc.Node{
			{ID: "n1", Expr: doc.If{
				Cond: doc.ArgID("cond"),
				Then: doc.ArgExpr(doc.AirRef{NS: "math", Name: "inc", Args: []string{"a"}}),
				Else: doc.ArgID("a"),
			}},
		},
		Result: "n1",
	}

	out, err := Desugar(input)
	require.NoError(t, err)

	n1 := out.Index()["n1"]
	ifExpr := n1.Expr.(doc.If)
	require.True(t, ifExpr.Then.IsInline())
	call, ok := ifExpr.Then.Inline.(doc.CallExpr)
	require.True(t, ok)
	assert.Equal(t, doc.ArgID("__airdef_math_inc"), call.Fn)
}

// TestDesugar_UnknownAirRefIsLeftForResolver tests that an airRef to a
// definition that doesn't exist is left untouched rather than failing
// here; the type checker and evaluator report UnknownDefinition for it.
func TestDesugar_UnknownAirRefIsLeftForResolver(t *testing.T) {
	input := &doc.Document{
		Version: "1.0.0",
		Nodes: []doc.Node{
			{ID: "n1", Expr: doc.AirRef{NS: "ghost", Name: "nothing", Args: nil}},
		},
		Result: "n1",
	}

	out, err := Desugar(input)
	require.NoError(t, err)
	assert.Equal(t, doc.KindAirRef, out.Index()["n1"].Expr.ExprKind())
}

// TestDesugar_DuplicateParamRejected tests that an AIRDef declaring the
// same parameter name twice is rejected before any node is rewritten.
func TestDesugar_DuplicateParamRejected(t *testing.T) {
	input := &doc.Document{
		Version: "1.0.0",
		AirDefs: []doc.AIRDef{
			{NS: "math", Name: "bad", Params: []string{"x", "x"}, Result: typesys.Int(), Body: doc.Var{Name: "x"}},
		},
	}
	_, err := Desugar(input)
	assert.Error(t, err)
}
