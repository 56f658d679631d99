package doc

import (
	"regexp"

	"github.com/spiralir/spiral/internal/spiralerr"
	"github.com/spiralir/spiral/internal/typesys"
)

// IdentifierPattern is the syntax required of node ids and reference
// identifiers (spec.md §6).
var IdentifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SemverPattern validates the document's version field (spec.md §6).
var SemverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z-.]+)?$`)

// AIRDef is a reusable AIR-layer definition, pre-desugaring (spec.md §3).
type AIRDef struct {
	NS     string
	Name   string
	Params []string
	Result typesys.T
	Body   Expr // AIR-layer expression only
}

// DefKey identifies an AIRDef by its (namespace, name) pair.
type DefKey struct {
	NS   string
	Name string
}

// Defs is the (ns,name) -> AIRDef registry (spec.md §4.3).
type Defs map[DefKey]*AIRDef

func NewDefs(defs []AIRDef) Defs {
	m := make(Defs, len(defs))
	for i := range defs {
		d := defs[i]
		m[DefKey{NS: d.NS, Name: d.Name}] = &d
	}
	return m
}

func (d Defs) Lookup(ns, name string) (*AIRDef, bool) {
	def, ok := d[DefKey{NS: ns, Name: name}]
	return def, ok
}

// Document is the top-level SPIRAL IR document (spec.md §3, §6).
type Document struct {
	Version       string
	Capabilities  []string
	FunctionSigs  map[string]typesys.T
	AirDefs       []AIRDef
	Nodes         []Node
	Result        NodeID
}

// HasCapability reports whether the document advertises the named
// capability (e.g. "async", "effects") per spec.md §6.
func (d *Document) HasCapability(name string) bool {
	for _, c := range d.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

// Defs builds the definitions registry for this document.
func (d *Document) Defs() Defs {
	return NewDefs(d.AirDefs)
}

// NodeMap indexes nodes by id for O(1) lookup.
type NodeMap map[NodeID]*Node

// Index builds a NodeMap over the document's top-level nodes.
func (d *Document) Index() NodeMap {
	m := make(NodeMap, len(d.Nodes))
	for i := range d.Nodes {
		m[d.Nodes[i].ID] = &d.Nodes[i]
	}
	return m
}

// CheckIdentifiers validates that every node id matches IdentifierPattern
// and that ids are unique within the document (spec.md §3 invariant i,
// §6 identifier syntax).
func (d *Document) CheckIdentifiers() error {
	seen := make(map[NodeID]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if !IdentifierPattern.MatchString(string(n.ID)) {
			return spiralerr.Newf(spiralerr.ValidationError, "invalid node id %q", n.ID).WithPath(string(n.ID))
		}
		if seen[n.ID] {
			return spiralerr.Newf(spiralerr.ValidationError, "duplicate node id %q", n.ID).WithPath(string(n.ID))
		}
		seen[n.ID] = true
	}
	return nil
}

// CheckVersion validates the semver version field (spec.md §6).
func (d *Document) CheckVersion() error {
	if !SemverPattern.MatchString(d.Version) {
		return spiralerr.Newf(spiralerr.ValidationError, "invalid version %q: must be semver", d.Version)
	}
	return nil
}
