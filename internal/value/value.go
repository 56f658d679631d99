// Package value implements the SPIRAL runtime value model (spec.md §3,
// component A): a closed sum of ~15 variants with structural equality,
// content-addressed hashing, and a propagating error variant.
package value

import (
	"fmt"
	"sort"

	"github.com/spiralir/spiral/internal/doc"
	"github.com/spiralir/spiral/internal/env"
	"github.com/spiralir/spiral/internal/typesys"
)

type Kind string

const (
	KindBool    Kind = "bool"
	KindInt     Kind = "int"
	KindFloat   Kind = "float"
	KindString  Kind = "string"
	KindVoid    Kind = "void"
	KindList    Kind = "list"
	KindSet     Kind = "set"
	KindMap     Kind = "map"
	KindOption  Kind = "option"
	KindOpaque  Kind = "opaque"
	KindClosure Kind = "closure"
	KindRefCell Kind = "refCell"
	KindFuture  Kind = "future"
	KindChannel Kind = "channel"
	KindTask    Kind = "task"
	KindError   Kind = "error"
)

// FutureStatus is the lifecycle state of a future value (spec.md §3).
type FutureStatus string

const (
	FuturePending FutureStatus = "pending"
	FutureReady   FutureStatus = "ready"
	FutureError   FutureStatus = "error"
)

// Env is the value environment: name -> V, persistent and immutable
// (spec.md §4.3, component C). It is a concrete instantiation of the
// generic env.Env so closures can capture it by value without import cycles.
type Env = env.Env[V]

// Closure captures a lambda at creation time (spec.md §3). Native, when
// set, is an evaluator-internal escape hatch used only to implement `fix`
// (§4.7): Go has no way to write a circular value literal, so the
// self-applying fixed-point closure is built as a native Go function
// closing over its own variable instead of a Body/Env pair. A Native
// closure is never produced by document evaluation directly and is never
// serialized; Hash/Equal treat it as opaque by identity of the pointer.
type Closure struct {
	Params []doc.LambdaParam
	Body   doc.NodeID
	Env    *Env

	Native func(args []V) V
}

// Future is the runtime state of an async computation.
type Future struct {
	TaskID string
	Status FutureStatus
	Value  *V
}

// ChannelRef is a handle to a channel living in the async runtime's
// ChannelStore; the value itself carries only identity + kind.
type ChannelRef struct {
	ID   string
	Kind typesys.ChannelKind
}

// TaskRef is a handle to a scheduled task.
type TaskRef struct {
	ID      string
	Returns typesys.T
}

// ErrorValue is the propagating error payload (spec.md §3, §7).
type ErrorValue struct {
	Code    string
	Message string
	Meta    map[string]V
}

// V is the closed runtime value sum type.
type V struct {
	Kind Kind

	Bool   bool
	Int    int64
	Float  float64
	Str    string
	List   []V
	Set    *Set
	Map    *Map
	Option *V // nil means "none"

	OpaqueName    string
	OpaquePayload any

	Closure *Closure
	RefCell string // ref-cell identity (resolved against async.RefCellStore)
	Future  *Future
	Channel *ChannelRef
	Task    *TaskRef
	Error   *ErrorValue
}

func Bool(b bool) V   { return V{Kind: KindBool, Bool: b} }
func Int(i int64) V   { return V{Kind: KindInt, Int: i} }
func Float(f float64) V { return V{Kind: KindFloat, Float: f} }
func Str(s string) V  { return V{Kind: KindString, Str: s} }
func Void() V         { return V{Kind: KindVoid} }
func List(items []V) V { return V{Kind: KindList, List: items} }

func Option(v *V) V { return V{Kind: KindOption, Option: v} }
func None() V       { return V{Kind: KindOption, Option: nil} }
func Some(v V) V    { return V{Kind: KindOption, Option: &v} }

func Opaque(name string, payload any) V {
	return V{Kind: KindOpaque, OpaqueName: name, OpaquePayload: payload}
}

func ClosureValue(c *Closure) V { return V{Kind: KindClosure, Closure: c} }

// NativeClosureValue wraps a Go function as a closure value, for the
// evaluator's `fix` self-application (see Closure.Native).
func NativeClosureValue(fn func(args []V) V) V {
	return V{Kind: KindClosure, Closure: &Closure{Native: fn}}
}
func RefCell(id string) V       { return V{Kind: KindRefCell, RefCell: id} }

func FutureValue(taskID string, status FutureStatus, val *V) V {
	return V{Kind: KindFuture, Future: &Future{TaskID: taskID, Status: status, Value: val}}
}

func ChannelValue(id string, kind typesys.ChannelKind) V {
	return V{Kind: KindChannel, Channel: &ChannelRef{ID: id, Kind: kind}}
}

func TaskValue(id string, returns typesys.T) V {
	return V{Kind: KindTask, Task: &TaskRef{ID: id, Returns: returns}}
}

func Err(code, message string, meta map[string]V) V {
	return V{Kind: KindError, Error: &ErrorValue{Code: code, Message: message, Meta: meta}}
}

// IsError reports whether v is a propagating error value (spec.md §4.1).
func IsError(v V) bool { return v.Kind == KindError }

// FirstError returns the first error among vs, if any — the standard
// left-to-right propagation rule pure operators and the evaluator apply.
func FirstError(vs ...V) (V, bool) {
	for _, v := range vs {
		if IsError(v) {
			return v, true
		}
	}
	return V{}, false
}

// Equal is structural equality over runtime values, used by set/map
// membership tests and the evaluator's law tests.
func Equal(a, b V) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindBool:
		return a.Bool == b.Bool
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	case KindString:
		return a.Str == b.Str
	case KindVoid:
		return true
	case KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case KindOption:
		if (a.Option == nil) != (b.Option == nil) {
			return false
		}
		if a.Option == nil {
			return true
		}
		return Equal(*a.Option, *b.Option)
	case KindOpaque:
		return a.OpaqueName == b.OpaqueName && fmt.Sprint(a.OpaquePayload) == fmt.Sprint(b.OpaquePayload)
	case KindSet:
		return a.Set.equal(b.Set)
	case KindMap:
		return a.Map.equal(b.Map)
	case KindRefCell:
		return a.RefCell == b.RefCell
	case KindChannel:
		return a.Channel.ID == b.Channel.ID
	case KindTask:
		return a.Task.ID == b.Task.ID
	case KindError:
		return a.Error.Code == b.Error.Code && a.Error.Message == b.Error.Message
	case KindClosure:
		return a.Closure == b.Closure
	default:
		return false
	}
}

// TypeOf reports the (best-effort) static type of a primitive runtime
// value; used by diagnostics and by the evaluator when it needs to embed
// a value back into a typed position (e.g. list literal element checks).
func TypeOf(v V) typesys.T {
	switch v.Kind {
	case KindBool:
		return typesys.Bool()
	case KindInt:
		return typesys.Int()
	case KindFloat:
		return typesys.Float()
	case KindString:
		return typesys.Str()
	default:
		return typesys.Void()
	}
}

// Set is a hash-set of values keyed by Hash(v).
type Set struct {
	items map[string]V
}

func NewSet() *Set { return &Set{items: make(map[string]V)} }

func (s *Set) Add(v V) *Set {
	n := s.clone()
	n.items[Hash(v)] = v
	return n
}

func (s *Set) Contains(v V) bool {
	if s == nil {
		return false
	}
	_, ok := s.items[Hash(v)]
	return ok
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

func (s *Set) Items() []V {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.items[k])
	}
	return out
}

func (s *Set) clone() *Set {
	n := &Set{items: make(map[string]V, len(s.items)+1)}
	for k, v := range s.items {
		n.items[k] = v
	}
	return n
}

func (s *Set) equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for k := range s.items {
		if _, ok := o.items[k]; !ok {
			return false
		}
	}
	return true
}

// Map is a hash-map keyed by Hash(key); iteration order is deterministic
// (sorted by hash) so that evaluation and display are reproducible.
type Map struct {
	entries map[string]mapEntry
}

type mapEntry struct {
	Key   V
	Value V
}

func NewMap() *Map { return &Map{entries: make(map[string]mapEntry)} }

func (m *Map) Set(key, val V) *Map {
	n := m.clone()
	n.entries[Hash(key)] = mapEntry{Key: key, Value: val}
	return n
}

func (m *Map) Get(key V) (V, bool) {
	if m == nil {
		return V{}, false
	}
	e, ok := m.entries[Hash(key)]
	return e.Value, ok
}

func (m *Map) Delete(key V) *Map {
	n := m.clone()
	delete(n.entries, Hash(key))
	return n
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

func (m *Map) Keys() []V {
	if m == nil {
		return nil
	}
	hs := make([]string, 0, len(m.entries))
	for h := range m.entries {
		hs = append(hs, h)
	}
	sort.Strings(hs)
	out := make([]V, 0, len(hs))
	for _, h := range hs {
		out = append(out, m.entries[h].Key)
	}
	return out
}

func (m *Map) Entries() [](struct {
	Key   V
	Value V
}) {
	if m == nil {
		return nil
	}
	hs := make([]string, 0, len(m.entries))
	for h := range m.entries {
		hs = append(hs, h)
	}
	sort.Strings(hs)
	out := make([]struct {
		Key   V
		Value V
	}, 0, len(hs))
	for _, h := range hs {
		e := m.entries[h]
		out = append(out, struct {
			Key   V
			Value V
		}{Key: e.Key, Value: e.Value})
	}
	return out
}

func (m *Map) clone() *Map {
	n := &Map{entries: make(map[string]mapEntry, len(m.entries)+1)}
	for k, v := range m.entries {
		n.entries[k] = v
	}
	return n
}

func (m *Map) equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}
	for k, e := range m.entries {
		oe, ok := o.entries[k]
		if !ok || !Equal(e.Value, oe.Value) {
			return false
		}
	}
	return true
}
