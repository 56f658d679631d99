// Package typesys implements the SPIRAL type model (spec.md §3, component A):
// a closed 16-variant sum type with structural equality and no subtyping.
package typesys

import (
	"fmt"
	"strings"
)

// Kind discriminates the 16 type variants.
type Kind string

const (
	KindBool    Kind = "bool"
	KindInt     Kind = "int"
	KindFloat   Kind = "float"
	KindString  Kind = "string"
	KindVoid    Kind = "void"
	KindList    Kind = "list"
	KindSet     Kind = "set"
	KindOption  Kind = "option"
	KindRef     Kind = "ref"
	KindFuture  Kind = "future"
	KindChannel Kind = "channel"
	KindTask    Kind = "task"
	KindMap     Kind = "map"
	KindOpaque  Kind = "opaque"
	KindFn      Kind = "fn"
	KindAsync   Kind = "async"
)

// ChannelKind distinguishes buffered from rendezvous channels at the type level.
type ChannelKind string

const (
	ChannelBuffered   ChannelKind = "buffered"
	ChannelRendezvous ChannelKind = "rendezvous"
)

// T is the closed sum type of SPIRAL types. Only the fields relevant to Kind
// are meaningful; the rest are zero. Prefer the constructors below over
// building T literals directly.
type T struct {
	Kind Kind

	// list<T> / set<T> / option<T> / ref<T> / future<T> / task<T> / channel{of}
	Of *T

	// channel{kind, of}
	ChannelKind ChannelKind

	// map<K,V>
	Key   *T
	Value *T

	// opaque{name}
	Name string

	// fn{params, returns} / async{params, returns:future<T>}
	Params         []T
	Returns        *T
	OptionalParams []bool
}

func Bool() T   { return T{Kind: KindBool} }
func Int() T    { return T{Kind: KindInt} }
func Float() T  { return T{Kind: KindFloat} }
func Str() T    { return T{Kind: KindString} }
func Void() T   { return T{Kind: KindVoid} }

func List(of T) T   { return T{Kind: KindList, Of: &of} }
func Set(of T) T    { return T{Kind: KindSet, Of: &of} }
func Option(of T) T { return T{Kind: KindOption, Of: &of} }
func Ref(of T) T    { return T{Kind: KindRef, Of: &of} }
func Future(of T) T { return T{Kind: KindFuture, Of: &of} }
func Task(of T) T   { return T{Kind: KindTask, Of: &of} }

func Channel(kind ChannelKind, of T) T {
	return T{Kind: KindChannel, ChannelKind: kind, Of: &of}
}

func Map(key, value T) T {
	return T{Kind: KindMap, Key: &key, Value: &value}
}

func Opaque(name string) T {
	return T{Kind: KindOpaque, Name: name}
}

func Fn(params []T, returns T, optional ...[]bool) T {
	t := T{Kind: KindFn, Params: params, Returns: &returns}
	if len(optional) > 0 {
		t.OptionalParams = optional[0]
	}
	return t
}

func Async(params []T, returns T) T {
	future := Future(returns)
	return T{Kind: KindAsync, Params: params, Returns: &future}
}

// Equal implements structural equality (spec.md §4.1: type_equal).
// fn compares params pointwise and return; map compares key+value;
// opaque compares by name; channel compares kind and element.
func Equal(a, b T) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindBool, KindInt, KindFloat, KindString, KindVoid:
		return true
	case KindList, KindSet, KindOption, KindRef, KindFuture, KindTask:
		return optEqual(a.Of, b.Of)
	case KindChannel:
		return a.ChannelKind == b.ChannelKind && optEqual(a.Of, b.Of)
	case KindMap:
		return optEqual(a.Key, b.Key) && optEqual(a.Value, b.Value)
	case KindOpaque:
		return a.Name == b.Name
	case KindFn, KindAsync:
		if len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return optEqual(a.Returns, b.Returns)
	default:
		return false
	}
}

func optEqual(a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return Equal(*a, *b)
}

// String renders a type in a compact, human-readable form used by
// diagnostics (spec.md §4.6's "expected"/"actual" formatted forms).
func (t T) String() string {
	switch t.Kind {
	case KindBool, KindInt, KindFloat, KindString, KindVoid:
		return string(t.Kind)
	case KindList:
		return fmt.Sprintf("list<%s>", t.Of.String())
	case KindSet:
		return fmt.Sprintf("set<%s>", t.Of.String())
	case KindOption:
		return fmt.Sprintf("option<%s>", t.Of.String())
	case KindRef:
		return fmt.Sprintf("ref<%s>", t.Of.String())
	case KindFuture:
		return fmt.Sprintf("future<%s>", t.Of.String())
	case KindTask:
		return fmt.Sprintf("task<%s>", t.Of.String())
	case KindChannel:
		return fmt.Sprintf("channel{%s,of:%s}", t.ChannelKind, t.Of.String())
	case KindMap:
		return fmt.Sprintf("map<%s,%s>", t.Key.String(), t.Value.String())
	case KindOpaque:
		return fmt.Sprintf("opaque{%s}", t.Name)
	case KindFn:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("fn([%s], %s)", strings.Join(parts, ", "), t.Returns.String())
	case KindAsync:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("async([%s], %s)", strings.Join(parts, ", "), t.Returns.String())
	default:
		return "?"
	}
}

// DefaultInt returns the checker's default type for unbound/undeclared slots
// ("unbound defaults to int", spec.md §4.5).
func DefaultInt() T { return Int() }
