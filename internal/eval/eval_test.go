package eval

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiralir/spiral/internal/doc"
	"github.com/spiralir/spiral/internal/registry"
	"github.com/spiralir/spiral/internal/typesys"
	"github.com/spiralir/spiral/internal/value"
)

func coreRegistry() *registry.Registry {
	r := registry.New()
	registry.RegisterCore(r)
	return r
}

func intLit(n int64) doc.Expr {
	raw, _ := json.Marshal(n)
	return doc.Lit{Type: typesys.Int(), Value: raw}
}

func boolLit(b bool) doc.Expr {
	raw, _ := json.Marshal(b)
	return doc.Lit{Type: typesys.Bool(), Value: raw}
}

// TestEvaluateProgram_ArithmeticAIR tests spec scenario 1: a=3, b=4,
// sum=call(core:add,[a,b]), result sum, evaluates to int(7).
func TestEvaluateProgram_ArithmeticAIR(t *testing.T) {
	d := &doc.Document{
		Nodes: []doc.Node{
			{ID: "a", Expr: intLit(3)},
			{ID: "b", Expr: intLit(4)},
			{ID: "sum", Expr: doc.Call{NS: "core", Name: "add", Args: []doc.Arg{doc.ArgID("a"), doc.ArgID("b")}}},
		},
		Result: "sum",
	}
	result := New(d, coreRegistry(), doc.NewDefs(nil)).EvaluateProgram()
	require.False(t, value.IsError(result), "unexpected error: %+v", result)
	assert.Equal(t, value.Int(7), result)
}

// TestEvaluateProgram_IdentityLambdaCIR tests spec scenario 2.
func TestEvaluateProgram_IdentityLambdaCIR(t *testing.T) {
	d := &doc.Document{
		Nodes: []doc.Node{
			{ID: "body", Expr: intLit(42)},
			{ID: "id", Expr: doc.Lambda{
				Params: []doc.LambdaParam{{Name: "x", Type: typesys.Int()}},
				Body:   "body",
				Type:   typesys.Fn([]typesys.T{typesys.Int()}, typesys.Int()),
			}},
			{ID: "arg", Expr: intLit(10)},
			{ID: "r", Expr: doc.CallExpr{Fn: doc.ArgID("id"), Args: []doc.Arg{doc.ArgID("arg")}}},
		},
		Result: "r",
	}
	result := New(d, coreRegistry(), doc.NewDefs(nil)).EvaluateProgram()
	require.False(t, value.IsError(result))
	assert.Equal(t, value.Int(42), result)
}

// TestEvaluateProgram_FactorialViaFix tests spec scenario 3: fact(5) ==
// int(120), fact(0) == int(1).
func TestEvaluateProgram_FactorialViaFix(t *testing.T) {
	// innerBody: if n==0 then 1 else core:mul(n, callExpr(self, [core:sub(n,1)]))
	buildDoc := func(arg int64) *doc.Document {
		return &doc.Document{
			Nodes: []doc.Node{
				{ID: "nMinus1", Expr: doc.Call{NS: "core", Name: "sub", Args: []doc.Arg{doc.ArgID("n"), doc.ArgID("one")}}},
				{ID: "one", Expr: intLit(1)},
				{ID: "zero", Expr: intLit(0)},
				{ID: "isZero", Expr: doc.Call{NS: "core", Name: "eq", Args: []doc.Arg{doc.ArgID("n"), doc.ArgID("zero")}}},
				{ID: "recurse", Expr: doc.CallExpr{Fn: doc.ArgID("self"), Args: []doc.Arg{doc.ArgID("nMinus1")}}},
				{ID: "mulResult", Expr: doc.Call{NS: "core", Name: "mul", Args: []doc.Arg{doc.ArgID("n"), doc.ArgID("recurse")}}},
				{ID: "innerBody", Expr: doc.If{Cond: doc.ArgID("isZero"), Then: doc.ArgID("one"), Else: doc.ArgID("mulResult")}},
				{ID: "inner", Expr: doc.Lambda{
					Params: []doc.LambdaParam{{Name: "n", Type: typesys.Int()}},
					Body:   "innerBody",
					Type:   typesys.Fn([]typesys.T{typesys.Int()}, typesys.Int()),
				}},
				{ID: "outer", Expr: doc.Lambda{
					Params: []doc.LambdaParam{{Name: "self", Type: typesys.Fn([]typesys.T{typesys.Int()}, typesys.Int())}},
					Body:   "inner",
					Type: typesys.Fn(
						[]typesys.T{typesys.Fn([]typesys.T{typesys.Int()}, typesys.Int())},
						typesys.Fn([]typesys.T{typesys.Int()}, typesys.Int()),
					),
				}},
				{ID: "fact", Expr: doc.Fix{Fn: "outer", Type: typesys.Fn([]typesys.T{typesys.Int()}, typesys.Int())}},
				{ID: "arg", Expr: intLit(arg)},
				{ID: "result", Expr: doc.CallExpr{Fn: doc.ArgID("fact"), Args: []doc.Arg{doc.ArgID("arg")}}},
			},
			Result: "result",
		}
	}

	r5 := New(buildDoc(5), coreRegistry(), doc.NewDefs(nil)).EvaluateProgram()
	require.False(t, value.IsError(r5), "unexpected error: %+v", r5)
	assert.Equal(t, value.Int(120), r5)

	r0 := New(buildDoc(0), coreRegistry(), doc.NewDefs(nil)).EvaluateProgram()
	require.False(t, value.IsError(r0), "unexpected error: %+v", r0)
	assert.Equal(t, value.Int(1), r0)
}

// TestBoolAlgebra_DeMorgan tests the De Morgan laws over core:and/or/not.
func TestBoolAlgebra_DeMorgan(t *testing.T) {
	ev := New(&doc.Document{}, coreRegistry(), doc.NewDefs(nil))
	for _, a := range []bool{true, false} {
		for _, b := range []bool{true, false} {
			notAndAB := ev.Evaluate(notOf(andOf(boolLit(a), boolLit(b))))
			orNotAnotB := ev.Evaluate(orOf(notOf(boolLit(a)), notOf(boolLit(b))))
			assert.Equal(t, orNotAnotB, notAndAB)

			notOrAB := ev.Evaluate(notOf(orOf(boolLit(a), boolLit(b))))
			andNotAnotB := ev.Evaluate(andOf(notOf(boolLit(a)), notOf(boolLit(b))))
			assert.Equal(t, andNotAnotB, notOrAB)
		}
	}
}

// TestBoolAlgebra_IdentityAndAnnihilation tests and/or identity laws.
func TestBoolAlgebra_IdentityAndAnnihilation(t *testing.T) {
	ev := New(&doc.Document{}, coreRegistry(), doc.NewDefs(nil))
	for _, x := range []bool{true, false} {
		assert.Equal(t, value.Bool(x), ev.Evaluate(andOf(boolLit(x), boolLit(true))))
		assert.Equal(t, value.Bool(x), ev.Evaluate(orOf(boolLit(x), boolLit(false))))
		assert.Equal(t, value.Bool(false), ev.Evaluate(andOf(boolLit(x), boolLit(false))))
		assert.Equal(t, value.Bool(true), ev.Evaluate(orOf(boolLit(x), boolLit(true))))
	}
}

// TestBoolAlgebra_DoubleNegation tests not(not(x)) == x.
func TestBoolAlgebra_DoubleNegation(t *testing.T) {
	ev := New(&doc.Document{}, coreRegistry(), doc.NewDefs(nil))
	for _, x := range []bool{true, false} {
		assert.Equal(t, value.Bool(x), ev.Evaluate(notOf(notOf(boolLit(x)))))
	}
}

// TestBoolAlgebra_Xor tests xor's commutativity and identity laws.
func TestBoolAlgebra_Xor(t *testing.T) {
	ev := New(&doc.Document{}, coreRegistry(), doc.NewDefs(nil))
	for _, x := range []bool{true, false} {
		assert.Equal(t, value.Bool(x), ev.Evaluate(xorOf(boolLit(x), boolLit(false))))
		assert.Equal(t, ev.Evaluate(notOf(boolLit(x))), ev.Evaluate(xorOf(boolLit(x), boolLit(true))))
		assert.Equal(t, value.Bool(false), ev.Evaluate(xorOf(boolLit(x), boolLit(x))))
		for _, y := range []bool{true, false} {
			assert.Equal(t, ev.Evaluate(xorOf(boolLit(x), boolLit(y))), ev.Evaluate(xorOf(boolLit(y), boolLit(x))))
		}
	}
}

// TestErrorPropagation tests that any error argument to a pure operator
// yields that error unchanged (spec.md §8).
func TestErrorPropagation(t *testing.T) {
	ev := New(&doc.Document{}, coreRegistry(), doc.NewDefs(nil))
	failing := doc.Call{NS: "core", Name: "div", Args: []doc.Arg{doc.ArgExpr(intLit(1)), doc.ArgExpr(intLit(0))}}
	errVal := ev.Evaluate(failing)
	require.True(t, value.IsError(errVal))

	wrapped := doc.Call{NS: "core", Name: "add", Args: []doc.Arg{doc.ArgExpr(failing), doc.ArgExpr(intLit(1))}}
	result := ev.Evaluate(wrapped)
	require.True(t, value.IsError(result))
	assert.Equal(t, errVal, result)
}

func andOf(a, b doc.Expr) doc.Expr {
	return doc.Call{NS: "core", Name: "and", Args: []doc.Arg{doc.ArgExpr(a), doc.ArgExpr(b)}}
}
func orOf(a, b doc.Expr) doc.Expr {
	return doc.Call{NS: "core", Name: "or", Args: []doc.Arg{doc.ArgExpr(a), doc.ArgExpr(b)}}
}
func notOf(a doc.Expr) doc.Expr {
	return doc.Call{NS: "core", Name: "not", Args: []doc.Arg{doc.ArgExpr(a)}}
}
func xorOf(a, b doc.Expr) doc.Expr {
	return doc.Call{NS: "core", Name: "xor", Args: []doc.Arg{doc.ArgExpr(a), doc.ArgExpr(b)}}
}
