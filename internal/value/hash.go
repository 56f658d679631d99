package value

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Hash produces hashValue(v): a deterministic string used as the key for
// set/map membership (spec.md §4.1). Values are first reduced to a
// canonical, kind-tagged structure and encoded with msgpack, then
// digested with SHA-256. The canonical structure holds no Go maps: set
// and map payloads are lists of element hashes taken in the collections'
// sorted order, so Go's randomized map iteration never leaks into the
// digest. Encoding different primitive kinds
// always differs because the kind tag is part of the canonical structure,
// so e.g. hashValue(int 1) != hashValue(bool true).
func Hash(v V) string {
	canon := canonicalize(v)
	bytes, err := msgpack.Marshal(canon)
	if err != nil {
		// Encoding a canonical, finite structure never fails in practice;
		// fall back to a fmt-based digest rather than panicking.
		bytes = []byte(fallbackString(canon))
	}
	sum := sha256.Sum256(bytes)
	return hex.EncodeToString(sum[:])
}

// canonical is the msgpack-friendly shape every V reduces to before
// hashing: a [kind, payload] pair (encoded as a msgpack array) so
// structurally distinct kinds never collide.
type canonical struct {
	_msgpack struct{} `msgpack:",as_array"`
	Kind     string
	Payload  any
}

func canonicalize(v V) canonical {
	switch v.Kind {
	case KindBool:
		return canonical{Kind: "bool", Payload: v.Bool}
	case KindInt:
		return canonical{Kind: "int", Payload: v.Int}
	case KindFloat:
		f := v.Float
		if f == 0 {
			// Normalize -0.0 to 0.0: Go's == (and Equal) already treat
			// them as the same value, so their hashes must agree too.
			f = 0
		}
		return canonical{Kind: "float", Payload: f}
	case KindString:
		return canonical{Kind: "string", Payload: v.Str}
	case KindVoid:
		return canonical{Kind: "void", Payload: nil}
	case KindList:
		items := make([]canonical, len(v.List))
		for i, e := range v.List {
			items[i] = canonicalize(e)
		}
		return canonical{Kind: "list", Payload: items}
	case KindOption:
		if v.Option == nil {
			return canonical{Kind: "option", Payload: nil}
		}
		inner := canonicalize(*v.Option)
		return canonical{Kind: "option", Payload: inner}
	case KindSet:
		hashes := make([]string, 0, v.Set.Len())
		for _, item := range v.Set.Items() {
			hashes = append(hashes, Hash(item))
		}
		return canonical{Kind: "set", Payload: hashes}
	case KindMap:
		pairs := make([][2]string, 0, v.Map.Len())
		for _, e := range v.Map.Entries() {
			pairs = append(pairs, [2]string{Hash(e.Key), Hash(e.Value)})
		}
		return canonical{Kind: "map", Payload: pairs}
	case KindOpaque:
		return canonical{Kind: "opaque:" + v.OpaqueName, Payload: fallbackString(v.OpaquePayload)}
	case KindRefCell:
		return canonical{Kind: "refCell", Payload: v.RefCell}
	case KindChannel:
		return canonical{Kind: "channel", Payload: v.Channel.ID}
	case KindTask:
		return canonical{Kind: "task", Payload: v.Task.ID}
	case KindFuture:
		return canonical{Kind: "future", Payload: v.Future.TaskID}
	case KindError:
		return canonical{Kind: "error", Payload: v.Error.Code + ":" + v.Error.Message}
	case KindClosure:
		// closures are reference-identity only: two closures hash equal
		// only if they are the exact same captured lambda body, or (for
		// fix's native self-applying closures) the exact same Go value.
		if v.Closure.Native != nil {
			return canonical{Kind: "closure:native", Payload: fmt.Sprintf("%p", v.Closure)}
		}
		return canonical{Kind: "closure", Payload: string(v.Closure.Body)}
	default:
		return canonical{Kind: "unknown", Payload: nil}
	}
}

func fallbackString(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%#v", v)
}
