// Package resolver implements the SPIRAL reference resolver (spec.md §4.6,
// component F): RFC 6901 JSON Pointer navigation over a document, external
// URI loading with cycle/depth guards, the AIR recursion ban, and
// Levenshtein-based "did you mean" diagnostics.
package resolver

import (
	"strconv"
	"strings"

	"github.com/spiralir/spiral/internal/spiralerr"
)

// ParsePointer splits an RFC 6901 JSON Pointer into its unescaped
// reference tokens. The empty pointer "" denotes the whole document.
func ParsePointer(ptr string) ([]string, error) {
	if ptr == "" {
		return nil, nil
	}
	if !strings.HasPrefix(ptr, "/") {
		return nil, spiralerr.Newf(spiralerr.ValidationError, "invalid JSON pointer %q: must start with \"/\"", ptr)
	}
	parts := strings.Split(ptr[1:], "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		p = strings.ReplaceAll(p, "~0", "~")
		parts[i] = p
	}
	return parts, nil
}

// Navigate walks root per RFC 6901, following ptr token by token. Object
// lookups fail if the key is absent; array indices must be non-negative
// and in bounds; navigating into a primitive at a non-terminal segment is
// an error.
func Navigate(root any, ptr string) (any, error) {
	tokens, err := ParsePointer(ptr)
	if err != nil {
		return nil, err
	}
	cur := root
	for i, tok := range tokens {
		next, err := step(cur, tok, ptr, i)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// NavigateWithParent is Navigate but additionally returns the parent
// container and the final key/index token, for mutation-adjacent uses
// (spec.md §4.6).
func NavigateWithParent(root any, ptr string) (parent any, key string, value any, err error) {
	tokens, perr := ParsePointer(ptr)
	if perr != nil {
		return nil, "", nil, perr
	}
	if len(tokens) == 0 {
		return nil, "", root, nil
	}
	cur := root
	for i, tok := range tokens[:len(tokens)-1] {
		next, serr := step(cur, tok, ptr, i)
		if serr != nil {
			return nil, "", nil, serr
		}
		cur = next
	}
	last := tokens[len(tokens)-1]
	v, serr := step(cur, last, ptr, len(tokens)-1)
	if serr != nil {
		return nil, "", nil, serr
	}
	return cur, last, v, nil
}

func step(cur any, tok string, ptr string, depth int) (any, error) {
	switch v := cur.(type) {
	case map[string]any:
		next, ok := v[tok]
		if !ok {
			return nil, spiralerr.Newf(spiralerr.ValidationError, "JSON pointer %q: no key %q", ptr, tok).WithPath(ptr)
		}
		return next, nil
	case []any:
		idx, err := strconv.Atoi(tok)
		if err != nil || idx < 0 {
			return nil, spiralerr.Newf(spiralerr.ValidationError, "JSON pointer %q: invalid array index %q", ptr, tok).WithPath(ptr)
		}
		if idx >= len(v) {
			return nil, spiralerr.Newf(spiralerr.ValidationError, "JSON pointer %q: array index %d out of bounds (len %d)", ptr, idx, len(v)).WithPath(ptr)
		}
		return v[idx], nil
	default:
		return nil, spiralerr.Newf(spiralerr.ValidationError,
			"JSON pointer %q: cannot navigate into a primitive at segment %d (%q)", ptr, depth, tok).WithPath(ptr)
	}
}
