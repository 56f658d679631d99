package typecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiralir/spiral/internal/doc"
	"github.com/spiralir/spiral/internal/registry"
	"github.com/spiralir/spiral/internal/typesys"
)

func coreRegistry() *registry.Registry {
	r := registry.New()
	registry.RegisterCore(r)
	return r
}

// TestCheckProgram_SimpleCall tests that a call node's type resolves to
// the operator's declared return type.
func TestCheckProgram_SimpleCall(t *testing.T) {
	d := &doc.Document{
		Nodes: []doc.Node{
			{ID: "a", Expr: doc.Lit{Type: typesys.Int(), Value: []byte("1")}},
			{ID: "b", Expr: doc.Lit{Type: typesys.Int(), Value: []byte("2")}},
			{ID: "sum", Expr: doc.Call{NS: "core", Name: "add", Args: []doc.Arg{doc.ArgID("a"), doc.ArgID("b")}}},
		},
		Result: "sum",
	}
	res, err := CheckProgram(d, coreRegistry(), doc.NewDefs(nil))
	require.NoError(t, err)
	assert.Equal(t, typesys.Int(), res.ResultType)
}

// TestCheckProgram_UnknownOperator tests that an unregistered operator
// fails with UnknownOperator.
func TestCheckProgram_UnknownOperator(t *testing.T) {
	d := &doc.Document{
		Nodes: []doc.Node{
			{ID: "x", Expr: doc.Call{NS: "core", Name: "nope", Args: nil}},
		},
		Result: "x",
	}
	_, err := CheckProgram(d, coreRegistry(), doc.NewDefs(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UnknownOperator")
}

// TestCheckProgram_ArityMismatch tests that a call with the wrong number
// of arguments fails with ArityError.
func TestCheckProgram_ArityMismatch(t *testing.T) {
	d := &doc.Document{
		Nodes: []doc.Node{
			{ID: "a", Expr: doc.Lit{Type: typesys.Int(), Value: []byte("1")}},
			{ID: "x", Expr: doc.Call{NS: "core", Name: "add", Args: []doc.Arg{doc.ArgID("a")}}},
		},
		Result: "x",
	}
	_, err := CheckProgram(d, coreRegistry(), doc.NewDefs(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ArityError")
}

// TestCheckProgram_IfBranchMismatch tests that differing then/else types
// against the declared if-type fail with a type mismatch.
func TestCheckProgram_IfBranchMismatch(t *testing.T) {
	boolT := typesys.Bool()
	intT := typesys.Int()
	d := &doc.Document{
		Nodes: []doc.Node{
			{ID: "cond", Expr: doc.Lit{Type: typesys.Bool(), Value: []byte("true")}},
			{ID: "thenN", Expr: doc.Lit{Type: typesys.Int(), Value: []byte("1")}},
			{ID: "elseN", Expr: doc.Lit{Type: typesys.Bool(), Value: []byte("true")}},
			{ID: "x", Expr: doc.If{Cond: doc.ArgID("cond"), Then: doc.ArgID("thenN"), Else: doc.ArgID("elseN"), Type: &intT}},
		},
		Result: "x",
	}
	_, err := CheckProgram(d, coreRegistry(), doc.NewDefs(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TypeError")
	_ = boolT
}

// TestCheckProgram_LambdaAndCallExpr tests a lambda node applied via
// callExpr returns the declared return type.
func TestCheckProgram_LambdaAndCallExpr(t *testing.T) {
	d := &doc.Document{
		Nodes: []doc.Node{
			{ID: "body", Expr: doc.Var{Name: "x"}},
			{ID: "id", Expr: doc.Lambda{
				Params: []doc.LambdaParam{{Name: "x", Type: typesys.Int()}},
				Body:   "body",
				Type:   typesys.Fn([]typesys.T{typesys.Int()}, typesys.Int()),
			}},
			{ID: "five", Expr: doc.Lit{Type: typesys.Int(), Value: []byte("5")}},
			{ID: "result", Expr: doc.CallExpr{Fn: doc.ArgID("id"), Args: []doc.Arg{doc.ArgID("five")}}},
		},
		Result: "result",
	}
	res, err := CheckProgram(d, coreRegistry(), doc.NewDefs(nil))
	require.NoError(t, err)
	assert.Equal(t, typesys.Int(), res.ResultType)
}

// TestCheckProgram_AirRefUsesDef tests that an airRef node resolves to
// its AIRDef's declared result type.
func TestCheckProgram_AirRefUsesDef(t *testing.T) {
	defs := doc.NewDefs([]doc.AIRDef{
		{NS: "math", Name: "double", Params: []string{"x"}, Result: typesys.Int(), Body: doc.Var{Name: "x"}},
	})
	d := &doc.Document{
		Nodes: []doc.Node{
			{ID: "five", Expr: doc.Lit{Type: typesys.Int(), Value: []byte("5")}},
			{ID: "result", Expr: doc.AirRef{NS: "math", Name: "double", Args: []string{"five"}}},
		},
		Result: "result",
	}
	res, err := CheckProgram(d, coreRegistry(), defs)
	require.NoError(t, err)
	assert.Equal(t, typesys.Int(), res.ResultType)
}
