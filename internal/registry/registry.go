// Package registry implements the SPIRAL operator registry (spec.md §4.2,
// component B): a namespaced mapping "{ns}:{name}" -> Operator. This is the
// one piece of the core that borders an external collaborator — real
// arithmetic/domain operator implementations are out of scope — so this
// package only owns lookup/registration plumbing plus a minimal "core"
// namespace sufficient for the checker/evaluator law tests in spec.md §8.
package registry

import (
	"sync"

	"github.com/spiralir/spiral/internal/typesys"
	"github.com/spiralir/spiral/internal/value"
)

// Operator is a namespaced, pure (or impure-but-total) function with a
// declared signature (spec.md §4.2).
type Operator struct {
	NS      string
	Name    string
	Params  []typesys.T
	Returns typesys.T
	Pure    bool
	Fn      func(args ...value.V) value.V
}

// Key returns the "{ns}:{name}" lookup key.
func (o Operator) Key() string { return o.NS + ":" + o.Name }

// Registry is a concurrency-safe operator table, modeled on the teacher's
// node.Registry (Register/GetByID/ListAll), generalized from node
// executors to pure operator implementations.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Operator
}

func New() *Registry {
	return &Registry{ops: make(map[string]Operator)}
}

// Register adds or replaces an operator under its (ns,name) key.
func (r *Registry) Register(op Operator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[op.Key()] = op
}

// Lookup returns the operator for ns:name, if registered.
func (r *Registry) Lookup(ns, name string) (Operator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[ns+":"+name]
	return op, ok
}

// Names returns every registered "{ns}:{name}" key, for diagnostics
// (e.g. the resolver's Levenshtein "did you mean" suggestions).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.ops))
	for k := range r.ops {
		out = append(out, k)
	}
	return out
}

// Invoke resolves ns:name, arity-checks, propagates any error argument,
// and calls the operator's Fn. It never panics: unknown operators and
// arity mismatches are returned as value.V errors (spec.md §4.2, §7).
func (r *Registry) Invoke(ns, name string, args ...value.V) value.V {
	op, ok := r.Lookup(ns, name)
	if !ok {
		return value.Err("UnknownOperator", "unknown operator "+ns+":"+name, nil)
	}
	if len(args) != len(op.Params) {
		return value.Err("ArityError", "operator "+op.Key()+" expects the declared argument count", nil)
	}
	if errv, found := value.FirstError(args...); found {
		return errv
	}
	return op.Fn(args...)
}
