// Package eval implements the SPIRAL desugared evaluator (spec.md §4.7,
// component G): a tree-walking interpreter over (desugared or raw) AIR/CIR
// documents, with eager if/let, closures, a fix self-applying combinator,
// and a step budget enforcing termination of pure programs.
package eval

import (
	"encoding/json"

	"github.com/spiralir/spiral/internal/doc"
	"github.com/spiralir/spiral/internal/env"
	"github.com/spiralir/spiral/internal/registry"
	"github.com/spiralir/spiral/internal/typesys"
	"github.com/spiralir/spiral/internal/value"
)

const defaultStepBudget = 1_000_000

// Evaluator holds the state of one evaluation session: the document being
// interpreted, the operator registry, the AIRDef table, and a step
// counter shared across every expression it evaluates.
type Evaluator struct {
	Doc  *doc.Document
	Reg  *registry.Registry
	Defs doc.Defs

	index      doc.NodeMap
	steps      int64
	stepBudget int64
}

// New builds an evaluator for d. The step budget defaults to 10^6 (spec.md
// §4.7); override via WithStepBudget.
func New(d *doc.Document, reg *registry.Registry, defs doc.Defs) *Evaluator {
	return &Evaluator{
		Doc:        d,
		Reg:        reg,
		Defs:       defs,
		index:      d.Index(),
		stepBudget: defaultStepBudget,
	}
}

func (ev *Evaluator) WithStepBudget(n int64) *Evaluator {
	ev.stepBudget = n
	return ev
}

// EvaluateProgram evaluates the document's result node in an empty
// environment. Every failure mode — unbound identifiers, arity mismatch,
// non-termination, async-in-sync-evaluator — surfaces as an error value,
// never a Go error (spec.md §7: "a failing evaluation returns an error
// value").
func (ev *Evaluator) EvaluateProgram() value.V {
	return ev.evalNode(ev.Doc.Result, nil)
}

// Evaluate runs a single expression outside of any document/program
// context. An unresolved `ref` throws in that bare-evaluator sense by
// returning an UnboundIdentifier error value (spec.md §4.7).
func (ev *Evaluator) Evaluate(e doc.Expr) value.V {
	return ev.evalExpr(e, nil)
}

func (ev *Evaluator) tick() *value.V {
	ev.steps++
	if ev.steps > ev.stepBudget {
		v := value.Err("NonTermination", "evaluator step budget exceeded", nil)
		return &v
	}
	return nil
}

func (ev *Evaluator) evalNode(id doc.NodeID, ns *value.Env) value.V {
	if over := ev.tick(); over != nil {
		return *over
	}
	n, ok := ev.index[id]
	if !ok {
		return value.Err("ValidationError", "unknown node \""+string(id)+"\"", nil)
	}
	if n.IsRef() {
		return value.Err("ValidationError", "node \""+string(id)+"\" is an unresolved $ref", nil)
	}
	return ev.evalExpr(n.Expr, ns)
}

// evalArg resolves an Arg: inline expressions evaluate directly; string
// ids resolve against the lexical env first (bound names — lambda
// params, let bindings), falling back to the referenced document node
// (spec.md §4.7 Call: "string -> evaluate the referenced node").
func (ev *Evaluator) evalArg(a doc.Arg, ns *value.Env) value.V {
	if a.IsInline() {
		return ev.evalExpr(a.Inline, ns)
	}
	if v, ok := env.Lookup(ns, a.ID); ok {
		return v
	}
	return ev.evalNode(doc.NodeID(a.ID), ns)
}

func (ev *Evaluator) evalExpr(e doc.Expr, ns *value.Env) value.V {
	if over := ev.tick(); over != nil {
		return *over
	}
	switch v := e.(type) {
	case doc.Lit:
		return evalLit(v.Type, v.Value)

	case doc.Ref:
		if val, ok := env.Lookup(ns, v.ID); ok {
			return val
		}
		return value.Err("UnboundIdentifier", "unbound ref \""+v.ID+"\"", nil)

	case doc.Var:
		if val, ok := env.Lookup(ns, v.Name); ok {
			return val
		}
		return value.Err("UnboundIdentifier", "unbound var \""+v.Name+"\"", nil)

	case doc.Call:
		return ev.evalCall(v, ns)

	case doc.If:
		cond := ev.evalArg(v.Cond, ns)
		if value.IsError(cond) {
			return cond
		}
		if cond.Kind != value.KindBool {
			return value.Err("TypeError", "if.cond must be bool", nil)
		}
		if cond.Bool {
			return ev.evalArg(v.Then, ns)
		}
		return ev.evalArg(v.Else, ns)

	case doc.Let:
		val := ev.evalArg(v.Value, ns)
		if value.IsError(val) {
			return val
		}
		return ev.evalArg(v.Body, env.Extend(ns, v.Name, val))

	case doc.AirRef:
		return ev.evalAirRef(v, ns)

	case doc.Predicate:
		val := ev.evalArg(v.Value, ns)
		if value.IsError(val) {
			return val
		}
		return ev.Reg.Invoke("predicate", v.Name, val)

	case doc.Lambda:
		return value.ClosureValue(&value.Closure{Params: v.Params, Body: v.Body, Env: ns})

	case doc.CallExpr:
		return ev.evalCallExpr(v, ns)

	case doc.Fix:
		return ev.evalFix(v, ns)

	case doc.Do:
		return ev.evalSequence(v.Exprs, ns)

	// EIR
	case doc.Seq:
		return ev.evalSequence(v.Exprs, ns)

	case doc.Assign, doc.While, doc.For, doc.Iter, doc.Effect, doc.RefCellExpr, doc.Deref, doc.Try:
		// EIR mutation/effect forms require an EIR-capable interpreter with
		// a mutable-binding store; the pure desugared evaluator only
		// covers AIR/CIR (spec.md §4.7 is scoped to the desugared/pure
		// evaluator; lowering to LIR is how EIR programs actually run).
		return value.Err("DomainError", "EIR expressions require lowering to LIR before execution", nil)

	// Async
	case doc.Par, doc.Spawn, doc.Await, doc.ChannelExpr, doc.Send, doc.Recv, doc.Select, doc.Race:
		return value.Err("DomainError", "Async expressions require AsyncEvaluator", nil)

	default:
		return value.Err("ValidationError", "unhandled expression kind in evaluator", nil)
	}
}

func (ev *Evaluator) evalSequence(exprs []doc.Arg, ns *value.Env) value.V {
	result := value.Void()
	for _, a := range exprs {
		result = ev.evalArg(a, ns)
		if value.IsError(result) {
			return result
		}
	}
	return result
}

func (ev *Evaluator) evalCall(v doc.Call, ns *value.Env) value.V {
	args := make([]value.V, len(v.Args))
	for i, a := range v.Args {
		args[i] = ev.evalArg(a, ns)
	}
	if errv, found := value.FirstError(args...); found {
		return errv
	}
	return ev.Reg.Invoke(v.NS, v.Name, args...)
}

func (ev *Evaluator) evalAirRef(v doc.AirRef, ns *value.Env) value.V {
	def, ok := ev.Defs.Lookup(v.NS, v.Name)
	if !ok {
		return value.Err("UnknownDefinition", "unknown definition "+v.NS+":"+v.Name, nil)
	}
	if len(v.Args) != len(def.Params) {
		return value.Err("ArityError", "airdef "+v.NS+":"+v.Name+" expects the declared argument count", nil)
	}
	args := make([]value.V, len(v.Args))
	for i, a := range v.Args {
		args[i] = ev.evalNode(doc.NodeID(a), ns)
	}
	if errv, found := value.FirstError(args...); found {
		return errv
	}
	defEnv := env.Empty[value.V]()
	for i, p := range def.Params {
		defEnv = env.Extend(defEnv, p, args[i])
	}
	return ev.evalExpr(def.Body, defEnv)
}

// apply invokes a closure value with already-evaluated args (both the
// ordinary doc-backed kind and fix's native kind).
func (ev *Evaluator) apply(fn value.V, args []value.V) value.V {
	if over := ev.tick(); over != nil {
		return *over
	}
	if fn.Kind != value.KindClosure {
		return value.Err("TypeError", "attempted to call a non-closure value", nil)
	}
	c := fn.Closure
	if c.Native != nil {
		return c.Native(args)
	}
	if len(args) > len(c.Params) {
		return value.Err("ArityError", "closure supplied too many arguments", nil)
	}
	callEnv := c.Env
	for i, p := range c.Params {
		if i < len(args) {
			callEnv = env.Extend(callEnv, p.Name, args[i])
			continue
		}
		if !p.Optional {
			return value.Err("ArityError", "closure missing required argument \""+p.Name+"\"", nil)
		}
		if p.Default != nil {
			callEnv = env.Extend(callEnv, p.Name, ev.evalExpr(p.Default, c.Env))
		} else {
			callEnv = env.Extend(callEnv, p.Name, value.None())
		}
	}
	return ev.evalNode(c.Body, callEnv)
}

func (ev *Evaluator) evalCallExpr(v doc.CallExpr, ns *value.Env) value.V {
	fnVal := ev.evalArg(v.Fn, ns)
	if value.IsError(fnVal) {
		return fnVal
	}
	if fnVal.Kind != value.KindClosure {
		return value.Err("TypeError", "callExpr.fn did not evaluate to a closure", nil)
	}
	args := make([]value.V, len(v.Args))
	for i, a := range v.Args {
		args[i] = ev.evalArg(a, ns)
	}
	if errv, found := value.FirstError(args...); found {
		return errv
	}
	return ev.apply(fnVal, args)
}

func (ev *Evaluator) evalFix(v doc.Fix, ns *value.Env) value.V {
	fnVal := ev.evalNode(doc.NodeID(v.Fn), ns)
	if value.IsError(fnVal) {
		return fnVal
	}
	if fnVal.Kind != value.KindClosure {
		return value.Err("TypeError", "fix.fn did not evaluate to a closure", nil)
	}
	var g value.V
	g = value.NativeClosureValue(func(args []value.V) value.V {
		inner := ev.apply(fnVal, []value.V{g})
		if value.IsError(inner) {
			return inner
		}
		return ev.apply(inner, args)
	})
	return g
}

// evalLit converts a literal's declared type + raw JSON payload into a
// runtime value, recursing into compound literals (spec.md §4.7).
func evalLit(t typesys.T, raw json.RawMessage) value.V {
	switch t.Kind {
	case typesys.KindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return value.Err("TypeError", "invalid bool literal", nil)
		}
		return value.Bool(b)
	case typesys.KindInt:
		var i int64
		if err := json.Unmarshal(raw, &i); err != nil {
			return value.Err("TypeError", "invalid int literal", nil)
		}
		return value.Int(i)
	case typesys.KindFloat:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return value.Err("TypeError", "invalid float literal", nil)
		}
		return value.Float(f)
	case typesys.KindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return value.Err("TypeError", "invalid string literal", nil)
		}
		return value.Str(s)
	case typesys.KindVoid:
		return value.Void()
	case typesys.KindList:
		var raws []json.RawMessage
		if err := json.Unmarshal(raw, &raws); err != nil {
			return value.Err("TypeError", "list literal value is not an array", nil)
		}
		items := make([]value.V, len(raws))
		for i, r := range raws {
			items[i] = evalLit(*t.Of, r)
			if value.IsError(items[i]) {
				return items[i]
			}
		}
		return value.List(items)
	case typesys.KindSet:
		var raws []json.RawMessage
		if err := json.Unmarshal(raw, &raws); err != nil {
			return value.Err("TypeError", "set literal value is not an array", nil)
		}
		s := value.NewSet()
		for _, r := range raws {
			item := evalLit(*t.Of, r)
			if value.IsError(item) {
				return item
			}
			s = s.Add(item)
		}
		return value.V{Kind: value.KindSet, Set: s}
	case typesys.KindMap:
		var entries []struct {
			Key   json.RawMessage `json:"key"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &entries); err != nil {
			return value.Err("TypeError", "map literal value is not an array of {key,value}", nil)
		}
		m := value.NewMap()
		for _, e := range entries {
			k := evalLit(*t.Key, e.Key)
			if value.IsError(k) {
				return k
			}
			val := evalLit(*t.Value, e.Value)
			if value.IsError(val) {
				return val
			}
			m = m.Set(k, val)
		}
		return value.V{Kind: value.KindMap, Map: m}
	case typesys.KindOption:
		if string(raw) == "null" {
			return value.None()
		}
		inner := evalLit(*t.Of, raw)
		if value.IsError(inner) {
			return inner
		}
		return value.Some(inner)
	case typesys.KindOpaque:
		var payload any
		if err := json.Unmarshal(raw, &payload); err != nil {
			return value.Err("TypeError", "invalid opaque literal payload", nil)
		}
		return value.Opaque(t.Name, payload)
	default:
		return value.Err("DomainError", "type "+t.String()+" has no literal form", nil)
	}
}
