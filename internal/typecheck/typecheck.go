// Package typecheck implements the SPIRAL layered type checker (spec.md
// §4.5, component E): a dependency-order-free pass over a document's node
// graph, dispatching per expression kind, with an EIR extension for
// mutation typing.
package typecheck

import (
	"github.com/spiralir/spiral/internal/doc"
	"github.com/spiralir/spiral/internal/env"
	"github.com/spiralir/spiral/internal/registry"
	"github.com/spiralir/spiral/internal/resolver"
	"github.com/spiralir/spiral/internal/spiralerr"
	"github.com/spiralir/spiral/internal/typesys"
)

// TypeEnv is the lexical (name -> T) environment threaded through
// lambda/let bodies, distinct from the document-wide NodeTypes map.
type TypeEnv = env.Env[typesys.T]

// Result is the output of CheckProgram (spec.md §4.5 contract).
type Result struct {
	NodeTypes  map[doc.NodeID]typesys.T
	ResultType typesys.T
}

type checker struct {
	doc          *doc.Document
	reg          *registry.Registry
	defs         doc.Defs
	index        doc.NodeMap
	boundNodes   map[doc.NodeID]bool
	paramNames   map[string]bool
	nodeTypes    map[doc.NodeID]typesys.T
	mutableTypes map[string]typesys.T
}

// CheckProgram type-checks every node in d and returns the inferred type
// of every node plus the declared result node's type.
func CheckProgram(d *doc.Document, reg *registry.Registry, defs doc.Defs) (*Result, error) {
	c := &checker{
		doc:          d,
		reg:          reg,
		defs:         defs,
		index:        d.Index(),
		boundNodes:   make(map[doc.NodeID]bool),
		paramNames:   make(map[string]bool),
		nodeTypes:    make(map[doc.NodeID]typesys.T),
		mutableTypes: make(map[string]typesys.T),
	}
	for _, n := range d.Nodes {
		if lam, ok := n.Expr.(doc.Lambda); ok {
			c.boundNodes[lam.Body] = true
			for _, p := range lam.Params {
				c.paramNames[p.Name] = true
			}
		}
	}

	for _, n := range d.Nodes {
		if c.boundNodes[n.ID] {
			continue // computed when its owning lambda is checked
		}
		if _, err := c.checkNode(n.ID, nil); err != nil {
			return nil, err
		}
	}

	resultType, ok := c.nodeTypes[d.Result]
	if !ok {
		return nil, spiralerr.Newf(spiralerr.ValidationError, "result node %q was never type-checked", d.Result).
			WithPath(string(d.Result))
	}
	return &Result{NodeTypes: c.nodeTypes, ResultType: resultType}, nil
}

func (c *checker) checkNode(id doc.NodeID, ns *TypeEnv) (typesys.T, error) {
	if t, ok := c.nodeTypes[id]; ok {
		return t, nil
	}
	n, ok := c.index[id]
	if !ok {
		return typesys.T{}, spiralerr.Newf(spiralerr.ValidationError, "unknown node %q", id).WithPath(string(id))
	}
	if n.IsRef() {
		return typesys.T{}, spiralerr.Newf(spiralerr.ValidationError,
			"node %q is a $ref; resolve it before type-checking", id).WithPath(string(id))
	}
	if n.IsBlock() {
		return typesys.T{}, spiralerr.Newf(spiralerr.ValidationError,
			"node %q is an LIR block; the layered checker only runs pre-lowering", id).WithPath(string(id))
	}
	t, err := c.checkExpr(n.Expr, ns)
	if err != nil {
		return typesys.T{}, err
	}
	c.nodeTypes[id] = t
	return t, nil
}

// checkArg type-checks an Arg: inline expressions recurse directly;
// string-id args are checked against the lexical env first (bound
// names), then the global node-types map (spec.md §4.5: "string argument
// references are type-checked against node_types[arg] if present").
func (c *checker) checkArg(a doc.Arg, ns *TypeEnv) (typesys.T, bool, error) {
	if a.IsInline() {
		t, err := c.checkExpr(a.Inline, ns)
		return t, true, err
	}
	if t, ok := env.Lookup(ns, a.ID); ok {
		return t, true, nil
	}
	id := doc.NodeID(a.ID)
	if t, ok := c.nodeTypes[id]; ok {
		return t, true, nil
	}
	if _, ok := c.index[id]; ok {
		t, err := c.checkNode(id, ns)
		return t, true, err
	}
	return typesys.T{}, false, nil
}

func (c *checker) checkExpr(e doc.Expr, ns *TypeEnv) (typesys.T, error) {
	switch v := e.(type) {
	case doc.Lit:
		return v.Type, nil

	case doc.Var:
		if t, ok := env.Lookup(ns, v.Name); ok {
			return t, nil
		}
		return typesys.DefaultInt(), nil

	case doc.Ref:
		return c.checkRefTarget(v.ID)

	case doc.Call:
		return c.checkCall(v, ns)

	case doc.If:
		return c.checkIf(v, ns)

	case doc.Let:
		valT, _, err := c.checkArg(v.Value, ns)
		if err != nil {
			return typesys.T{}, err
		}
		ns2 := env.Extend(ns, v.Name, valT)
		bodyT, _, err := c.checkArg(v.Body, ns2)
		return bodyT, err

	case doc.AirRef:
		return c.checkAirRef(v)

	case doc.Predicate:
		if _, _, err := c.checkArg(v.Value, ns); err != nil {
			return typesys.T{}, err
		}
		return typesys.Bool(), nil

	case doc.Lambda:
		return c.checkLambda(v, ns)

	case doc.CallExpr:
		return c.checkCallExpr(v, ns)

	case doc.Fix:
		return c.checkFix(v)

	case doc.Do:
		last := typesys.Void()
		for _, a := range v.Exprs {
			t, _, err := c.checkArg(a, ns)
			if err != nil {
				return typesys.T{}, err
			}
			last = t
		}
		return last, nil

	// EIR
	case doc.Seq:
		last := typesys.Void()
		for _, a := range v.Exprs {
			t, _, err := c.checkArg(a, ns)
			if err != nil {
				return typesys.T{}, err
			}
			last = t
		}
		return last, nil

	case doc.Assign:
		valT, _, err := c.checkArg(v.Value, ns)
		if err != nil {
			return typesys.T{}, err
		}
		c.mutableTypes[v.Target] = valT
		return typesys.Void(), nil

	case doc.While:
		if _, _, err := c.checkArg(v.Cond, ns); err != nil {
			return typesys.T{}, err
		}
		if _, _, err := c.checkArg(v.Body, ns); err != nil {
			return typesys.T{}, err
		}
		return typesys.Void(), nil

	case doc.For:
		initT, _, err := c.checkArg(v.Init, ns)
		if err != nil {
			return typesys.T{}, err
		}
		c.mutableTypes[v.Var] = initT
		if _, _, err := c.checkArg(v.Cond, ns); err != nil {
			return typesys.T{}, err
		}
		if _, _, err := c.checkArg(v.Update, ns); err != nil {
			return typesys.T{}, err
		}
		if _, _, err := c.checkArg(v.Body, ns); err != nil {
			return typesys.T{}, err
		}
		return typesys.Void(), nil

	case doc.Iter:
		iterT, ok, err := c.checkArg(v.Iter, ns)
		if err != nil {
			return typesys.T{}, err
		}
		elemT := typesys.DefaultInt()
		if ok && iterT.Kind == typesys.KindList && iterT.Of != nil {
			elemT = *iterT.Of
		}
		c.mutableTypes[v.Var] = elemT
		if _, _, err := c.checkArg(v.Body, ns); err != nil {
			return typesys.T{}, err
		}
		return typesys.Void(), nil

	case doc.Effect:
		for _, a := range v.Args {
			if _, _, err := c.checkArg(a, ns); err != nil {
				return typesys.T{}, err
			}
		}
		// Effect ops have no declared signature registry in this
		// distillation; richer typing lives with runtime semantics
		// (consistent with the async kinds below).
		return typesys.Void(), nil

	case doc.RefCellExpr:
		t, ok := c.mutableTypes[v.Target]
		if !ok {
			t = typesys.DefaultInt()
		}
		return typesys.Ref(t), nil

	case doc.Deref:
		t, ok := c.mutableTypes[v.Target]
		if !ok {
			t = typesys.DefaultInt()
		}
		return t, nil

	case doc.Try:
		tryT, _, err := c.checkArg(v.TryBody, ns)
		if err != nil {
			return typesys.T{}, err
		}
		ns2 := env.Extend(ns, v.CatchParam, tryT)
		catchT, _, err := c.checkArg(v.CatchBody, ns2)
		if err != nil {
			return typesys.T{}, err
		}
		if typesys.Equal(tryT, catchT) {
			return tryT, nil
		}
		return typesys.DefaultInt(), nil

	// Async
	case doc.Par, doc.Spawn, doc.Await, doc.ChannelExpr, doc.Send, doc.Recv, doc.Select, doc.Race:
		return typesys.Void(), nil

	default:
		return typesys.T{}, spiralerr.Newf(spiralerr.ValidationError, "unhandled expression kind %q", e.ExprKind())
	}
}

func (c *checker) checkRefTarget(id string) (typesys.T, error) {
	nid := doc.NodeID(id)
	if t, ok := c.nodeTypes[nid]; ok {
		return t, nil
	}
	if c.paramNames[id] || c.boundNodes[nid] {
		return typesys.DefaultInt(), nil
	}
	return typesys.T{}, spiralerr.Newf(spiralerr.ValidationError, "ref to unresolvable node %q", id).WithPath(id)
}

func (c *checker) checkCall(v doc.Call, ns *TypeEnv) (typesys.T, error) {
	op, ok := c.reg.Lookup(v.NS, v.Name)
	if !ok {
		return typesys.T{}, spiralerr.Newf(spiralerr.UnknownOperator,
			"%s", resolver.FormatUnknown("operator", v.NS+":"+v.Name, c.reg.Names())).WithPath(v.NS + ":" + v.Name)
	}
	if len(v.Args) != len(op.Params) {
		return typesys.T{}, spiralerr.Newf(spiralerr.ArityError,
			"operator %s:%s expects %d argument(s), got %d", v.NS, v.Name, len(op.Params), len(v.Args))
	}
	for i, a := range v.Args {
		t, ok, err := c.checkArg(a, ns)
		if err != nil {
			return typesys.T{}, err
		}
		if ok && !typesys.Equal(t, op.Params[i]) {
			return typesys.T{}, spiralerr.TypeMismatch(v.NS+":"+v.Name, op.Params[i].String(), t.String())
		}
	}
	return op.Returns, nil
}

func (c *checker) checkIf(v doc.If, ns *TypeEnv) (typesys.T, error) {
	if condT, ok, err := c.checkArg(v.Cond, ns); err != nil {
		return typesys.T{}, err
	} else if ok && condT.Kind != typesys.KindBool {
		return typesys.T{}, spiralerr.TypeMismatch("if.cond", "bool", condT.String())
	}
	declared := typesys.DefaultInt()
	if v.Type != nil {
		declared = *v.Type
	}
	if thenT, ok, err := c.checkArg(v.Then, ns); err != nil {
		return typesys.T{}, err
	} else if ok && !typesys.Equal(thenT, declared) {
		return typesys.T{}, spiralerr.TypeMismatch("if.then", declared.String(), thenT.String())
	}
	if elseT, ok, err := c.checkArg(v.Else, ns); err != nil {
		return typesys.T{}, err
	} else if ok && !typesys.Equal(elseT, declared) {
		return typesys.T{}, spiralerr.TypeMismatch("if.else", declared.String(), elseT.String())
	}
	return declared, nil
}

func (c *checker) checkAirRef(v doc.AirRef) (typesys.T, error) {
	def, ok := c.defs.Lookup(v.NS, v.Name)
	if !ok {
		known := make([]string, 0, len(c.defs))
		for k := range c.defs {
			known = append(known, k.NS+":"+k.Name)
		}
		return typesys.T{}, spiralerr.Newf(spiralerr.UnknownDefinition,
			"%s", resolver.FormatUnknown("definition", v.NS+":"+v.Name, known)).WithPath(v.NS + ":" + v.Name)
	}
	if len(v.Args) != len(def.Params) {
		return typesys.T{}, spiralerr.Newf(spiralerr.ArityError,
			"airdef %s:%s expects %d argument(s), got %d", v.NS, v.Name, len(def.Params), len(v.Args))
	}
	for _, argID := range v.Args {
		if _, ok := c.nodeTypes[doc.NodeID(argID)]; !ok {
			return typesys.T{}, spiralerr.Newf(spiralerr.ValidationError,
				"airRef argument %q is not a known, type-checked node", argID).WithPath(argID)
		}
	}
	return def.Result, nil
}

func (c *checker) checkLambda(v doc.Lambda, ns *TypeEnv) (typesys.T, error) {
	if v.Type.Kind != typesys.KindFn {
		return typesys.T{}, spiralerr.Newf(spiralerr.TypeError, "lambda's declared type must be fn, got %s", v.Type.String())
	}
	bodyNS := ns
	for _, p := range v.Params {
		bodyNS = env.Extend(bodyNS, p.Name, p.Type)
	}
	bodyT, err := c.checkNode(v.Body, bodyNS)
	if err != nil {
		return typesys.T{}, err
	}
	if v.Type.Returns != nil && !typesys.Equal(bodyT, *v.Type.Returns) {
		return typesys.T{}, spiralerr.TypeMismatch("lambda.body", v.Type.Returns.String(), bodyT.String())
	}
	return v.Type, nil
}

func (c *checker) checkCallExpr(v doc.CallExpr, ns *TypeEnv) (typesys.T, error) {
	var fnT typesys.T
	var haveFnT bool
	if v.Fn.IsID() {
		if t, ok := env.Lookup(ns, v.Fn.ID); ok {
			fnT, haveFnT = t, true
		} else if t, ok := c.nodeTypes[doc.NodeID(v.Fn.ID)]; ok {
			fnT, haveFnT = t, true
		} else if _, ok := c.index[doc.NodeID(v.Fn.ID)]; ok {
			t, err := c.checkNode(doc.NodeID(v.Fn.ID), ns)
			if err != nil {
				return typesys.T{}, err
			}
			fnT, haveFnT = t, true
		}
	} else {
		t, err := c.checkExpr(v.Fn.Inline, ns)
		if err != nil {
			return typesys.T{}, err
		}
		fnT, haveFnT = t, true
	}
	if !haveFnT {
		return typesys.T{}, spiralerr.Newf(spiralerr.ValidationError, "callExpr.fn %q could not be resolved", v.Fn.ID)
	}
	if fnT.Kind != typesys.KindFn {
		return typesys.T{}, spiralerr.Newf(spiralerr.TypeError, "callExpr.fn must be fn, got %s", fnT.String())
	}
	if len(v.Args) > len(fnT.Params) {
		return typesys.T{}, spiralerr.Newf(spiralerr.ArityError,
			"callExpr supplies %d argument(s) against a %d-parameter fn (currying past declared arity is not allowed)",
			len(v.Args), len(fnT.Params))
	}
	for i, a := range v.Args {
		t, ok, err := c.checkArg(a, ns)
		if err != nil {
			return typesys.T{}, err
		}
		if ok && !typesys.Equal(t, fnT.Params[i]) {
			return typesys.T{}, spiralerr.TypeMismatch("callExpr.arg", fnT.Params[i].String(), t.String())
		}
	}
	if len(v.Args) < len(fnT.Params) {
		return typesys.Fn(fnT.Params[len(v.Args):], *fnT.Returns), nil
	}
	return *fnT.Returns, nil
}

func (c *checker) checkFix(v doc.Fix) (typesys.T, error) {
	fnT, ok := c.nodeTypes[doc.NodeID(v.Fn)]
	if !ok {
		if n, okIdx := c.index[doc.NodeID(v.Fn)]; okIdx {
			t, err := c.checkNode(n.ID, nil)
			if err != nil {
				return typesys.T{}, err
			}
			fnT = t
		} else {
			return typesys.T{}, spiralerr.Newf(spiralerr.ValidationError, "fix.fn %q could not be resolved", v.Fn)
		}
	}
	if fnT.Kind != typesys.KindFn || len(fnT.Params) != 1 || fnT.Returns == nil || !typesys.Equal(fnT.Params[0], *fnT.Returns) {
		return typesys.T{}, spiralerr.Newf(spiralerr.TypeError, "fix.fn must be fn([T], T), got %s", fnT.String())
	}
	if !typesys.Equal(v.Type, *fnT.Returns) {
		return typesys.T{}, spiralerr.TypeMismatch("fix", fnT.Returns.String(), v.Type.String())
	}
	return v.Type, nil
}
