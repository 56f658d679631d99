// Package desugar implements the SPIRAL desugaring pass (spec.md §4.4,
// component D): it rewrites every AIRDef into a synthetic lambda node plus
// a synthetic body node, rewrites every airRef expression that calls it
// into a callExpr against that lambda, and clears the document's AirDefs.
// Downstream layers (the checker, the evaluator) only ever see the
// desugared CIR-shaped document; they have no notion of AIRDef at all.
package desugar

import (
	"fmt"

	"github.com/spiralir/spiral/internal/doc"
	"github.com/spiralir/spiral/internal/spiralerr"
	"github.com/spiralir/spiral/internal/typesys"
)

// bodyNodeID and lambdaNodeID name the synthetic nodes generated for an
// AIRDef. The double-underscore prefix keeps them out of the way of any
// user-authored identifier that passes doc.IdentifierPattern (which also
// allows leading underscores, so these still validate as node ids).
func bodyNodeID(ns, name string) doc.NodeID {
	return doc.NodeID(fmt.Sprintf("__airdef_%s_%s_body", ns, name))
}

func lambdaNodeID(ns, name string) doc.NodeID {
	return doc.NodeID(fmt.Sprintf("__airdef_%s_%s", ns, name))
}

// Desugar returns a new document with every AIRDef compiled away: each
// becomes a body node holding its Expr plus a lambda node closing over it,
// and every airRef{ns,name,args} in the original node set is rewritten to
// callExpr{fn: <lambda-id>, args}. The returned document's AirDefs is
// always empty.
func Desugar(d *doc.Document) (*doc.Document, error) {
	lambdaIDs := make(map[doc.DefKey]doc.NodeID, len(d.AirDefs))
	for _, def := range d.AirDefs {
		lambdaIDs[doc.DefKey{NS: def.NS, Name: def.Name}] = lambdaNodeID(def.NS, def.Name)
	}

	rewrite := func(e doc.Expr) doc.Expr {
		ref, ok := e.(doc.AirRef)
		if !ok {
			return e
		}
		id, ok := lambdaIDs[doc.DefKey{NS: ref.NS, Name: ref.Name}]
		if !ok {
			// Left as-is; the type checker and the evaluator report
			// UnknownDefinition when they reach this reference.
			return e
		}
		args := make([]doc.Arg, len(ref.Args))
		for i, a := range ref.Args {
			args[i] = doc.ArgID(a)
		}
		return doc.CallExpr{Fn: doc.ArgID(string(id)), Args: args}
	}

	var synthetic []doc.Node
	for _, def := range d.AirDefs {
		if err := validateParamArity(def); err != nil {
			return nil, err
		}
		bodyID := bodyNodeID(def.NS, def.Name)
		lamID := lambdaNodeID(def.NS, def.Name)

		// The AIRDef's own body may itself contain airRefs to sibling
		// definitions; rewrite them too. Self or mutual airRef references
		// are not rejected here, and resolver.CheckAIRRecursionBan only
		// inspects $ref nodes, so it does not reject them either.
		bodyExpr := doc.Rewrite(def.Body, rewrite)

		params := make([]doc.LambdaParam, len(def.Params))
		paramTypes := make([]typesys.T, len(def.Params))
		for i, p := range def.Params {
			params[i] = doc.LambdaParam{Name: p, Type: typesys.Int()}
			paramTypes[i] = typesys.Int()
		}

		synthetic = append(synthetic,
			doc.Node{ID: bodyID, Expr: bodyExpr},
			doc.Node{ID: lamID, Expr: doc.Lambda{
				Params: params,
				Body:   bodyID,
				Type:   typesys.Fn(paramTypes, def.Result),
			}},
		)
	}

	rewrittenNodes := make([]doc.Node, len(d.Nodes))
	for i, n := range d.Nodes {
		out := n
		if n.Expr != nil {
			out.Expr = doc.Rewrite(n.Expr, rewrite)
		}
		rewrittenNodes[i] = out
	}

	out := &doc.Document{
		Version:      d.Version,
		Capabilities: d.Capabilities,
		FunctionSigs: d.FunctionSigs,
		AirDefs:      nil,
		Nodes:        append(synthetic, rewrittenNodes...),
		Result:       d.Result,
	}
	return out, nil
}

func validateParamArity(def doc.AIRDef) error {
	seen := make(map[string]bool, len(def.Params))
	for _, p := range def.Params {
		if seen[p] {
			return spiralerr.Newf(spiralerr.ValidationError,
				"airdef %s:%s declares duplicate parameter %q", def.NS, def.Name, p)
		}
		seen[p] = true
	}
	return nil
}
