package doc

import "github.com/spiralir/spiral/internal/spiralerr"

// Layer identifies which of the four SPIRAL tiers a document is checked
// against (spec.md §1, §3 invariant iii).
type Layer string

const (
	LayerAIR Layer = "AIR"
	LayerCIR Layer = "CIR"
	LayerEIR Layer = "EIR"
	LayerLIR Layer = "LIR"
)

// admissible reports whether kind may appear in a document of the given
// layer (spec.md §3 invariant iii: "AIR rejects every CIR/EIR/async kind;
// CIR rejects every EIR/async kind; LIR expression nodes use the CIR
// expression set").
func admissible(layer Layer, kind ExprKind) bool {
	switch layer {
	case LayerAIR:
		return AirKinds[kind]
	case LayerCIR, LayerLIR:
		return AirKinds[kind] || CirOnlyKinds[kind]
	case LayerEIR:
		return true // EIR (with or without async capability) admits everything
	default:
		return false
	}
}

// ValidateLayer walks every expression node in the document (recursively,
// through inline Args) and fails if any expression kind is inadmissible
// for layer. Async kinds additionally require the "async" capability when
// layer is EIR.
func ValidateLayer(d *Document, layer Layer, hasAsync bool) error {
	var err error
	check := func(e Expr) {
		if err != nil {
			return
		}
		kind := e.ExprKind()
		if !admissible(layer, kind) {
			err = spiralerr.Newf(spiralerr.ValidationError,
				"expression kind %q is not admissible in layer %s", kind, layer)
			return
		}
		if layer == LayerEIR && AsyncKinds[kind] && !hasAsync {
			err = spiralerr.Newf(spiralerr.ValidationError,
				"expression kind %q requires the \"async\" capability", kind)
		}
	}
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if n.Expr == nil {
			continue
		}
		Walk(n.Expr, check)
		if err != nil {
			return err
		}
	}
	return nil
}
