package resolver

import (
	"github.com/spiralir/spiral/internal/doc"
	"github.com/spiralir/spiral/internal/spiralerr"
)

// CheckAIRRecursionBan scans an AIR-layer document for any $ref node.
// AIR forbids recursion entirely (spec.md §3 invariant, §4.6): a $ref
// anywhere in an AIR document is rejected outright rather than only when
// it participates in a cycle, since any local $ref could be used to
// smuggle in a self-referencing definition.
func CheckAIRRecursionBan(d *doc.Document) error {
	for _, n := range d.Nodes {
		if n.IsRef() {
			return spiralerr.Newf(spiralerr.RecursiveRefInAIR,
				"AIR document may not contain $ref nodes (found %q -> %q)", n.ID, n.Ref).
				WithPath(string(n.ID))
		}
	}
	return nil
}
