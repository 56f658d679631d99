package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiralir/spiral/internal/doc"
)

// TestNavigate_ObjectAndArray tests plain key and index navigation.
func TestNavigate_ObjectAndArray(t *testing.T) {
	root := map[string]any{
		"nodes": []any{
			map[string]any{"id": "n0"},
			map[string]any{"id": "n1"},
		},
	}
	v, err := Navigate(root, "/nodes/1/id")
	require.NoError(t, err)
	assert.Equal(t, "n1", v)
}

// TestNavigate_EscapedTokens tests ~0/~1 unescaping per RFC 6901.
func TestNavigate_EscapedTokens(t *testing.T) {
	root := map[string]any{"a/b": map[string]any{"c~d": 7.0}}
	v, err := Navigate(root, "/a~1b/c~0d")
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
}

// TestNavigate_OutOfBounds tests that an out-of-range array index errors.
func TestNavigate_OutOfBounds(t *testing.T) {
	root := map[string]any{"xs": []any{1.0}}
	_, err := Navigate(root, "/xs/5")
	assert.Error(t, err)
}

// TestNavigate_IntoPrimitiveFails tests that navigating past a leaf value
// (a non-terminal segment hitting a primitive) is an error.
func TestNavigate_IntoPrimitiveFails(t *testing.T) {
	root := map[string]any{"leaf": 1.0}
	_, err := Navigate(root, "/leaf/nope")
	assert.Error(t, err)
}

// TestLoader_LocalFragmentNavigatesCallerRoot tests that "#/…" refs
// resolve against the caller-supplied in-memory root, never the cache.
func TestLoader_LocalFragmentNavigatesCallerRoot(t *testing.T) {
	l := NewLoader()
	root := map[string]any{"nodes": []any{map[string]any{"id": "n0"}}}
	v, err := l.Resolve(root, "#/nodes/0/id", nil)
	require.NoError(t, err)
	assert.Equal(t, "n0", v)
}

// TestLoader_DetectsCircularChain tests that a repeated URI in the chain
// is rejected as CircularReference rather than looping forever.
func TestLoader_DetectsCircularChain(t *testing.T) {
	l := NewLoader()
	_, err := l.Resolve(nil, "file:///a.json", []string{"file:///a.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CircularReference")
}

// TestLoader_DetectsMaxDepth tests that a chain at least as long as the
// default max depth is rejected before any fetch is attempted.
func TestLoader_DetectsMaxDepth(t *testing.T) {
	l := NewLoader()
	chain := make([]string, defaultMaxDepth)
	for i := range chain {
		chain[i] = "file:///unique-" + string(rune('a'+i)) + ".json"
	}
	_, err := l.Resolve(nil, "file:///z.json", chain)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxDepthExceeded")
}

// TestCheckAIRRecursionBan tests that any $ref node in an AIR document is
// rejected regardless of whether it forms a cycle.
func TestCheckAIRRecursionBan(t *testing.T) {
	d := &doc.Document{
		Nodes: []doc.Node{
			{ID: "n0", Ref: "#/nodes/1"},
			{ID: "n1", Expr: doc.Lit{}},
		},
	}
	err := CheckAIRRecursionBan(d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RECURSIVE_REF_IN_AIR")
}

// TestSuggest_FindsClosestName tests the Levenshtein-based "did you mean"
// hint used by unknown-operator/definition diagnostics.
func TestSuggest_FindsClosestName(t *testing.T) {
	best, ok := Suggest("core:ad", []string{"core:add", "core:sub", "math:double"})
	require.True(t, ok)
	assert.Equal(t, "core:add", best)
}
