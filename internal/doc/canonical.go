package doc

import (
	"bytes"
	"encoding/json"
	"sort"
)

// canonicalKeyOrder is the key priority list from spec.md §6: objects are
// serialized with these keys first (in this order), then any remaining
// keys alphabetically; an object containing "$ref" always emits it first.
var canonicalKeyOrder = []string{
	"$schema", "$id", "$ref", "$defs", "title", "description", "type",
	"const", "enum", "default", "properties", "patternProperties",
	"additionalProperties", "required", "items", "additionalItems",
	"contains", "minItems", "maxItems", "uniqueItems", "oneOf", "anyOf",
	"allOf", "not", "if", "then", "else", "discriminator", "minimum",
	"maximum", "exclusiveMinimum", "exclusiveMaximum", "multipleOf",
	"minLength", "maxLength", "pattern", "format",
}

var keyRank = func() map[string]int {
	m := make(map[string]int, len(canonicalKeyOrder))
	for i, k := range canonicalKeyOrder {
		m[k] = i
	}
	return m
}()

// CanonicalBytes re-serializes arbitrary JSON bytes with object keys
// ordered per spec.md §6's canonical priority list, recursively. This is
// the tool-facing "bit-stable across language ecosystems" serializer; it
// is applied on top of (not instead of) the typed Document codec above.
func CanonicalBytes(raw []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Canonical serializes v (a Document or any JSON-able value) through the
// canonical key-ordering pass.
func Canonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return CanonicalBytes(raw)
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			ri, oki := keyRank[keys[i]]
			rj, okj := keyRank[keys[j]]
			switch {
			case keys[i] == "$ref" && keys[j] != "$ref":
				return true
			case keys[j] == "$ref" && keys[i] != "$ref":
				return false
			case oki && okj:
				return ri < rj
			case oki && !okj:
				return true
			case !oki && okj:
				return false
			default:
				return keys[i] < keys[j]
			}
		})
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, e := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}
