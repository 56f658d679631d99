package resolver

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestFormatter_PlainWriterIsUncolored tests that a non-terminal writer
// (here, a bytes.Buffer) never gets ANSI escapes.
func TestFormatter_PlainWriterIsUncolored(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)
	out := f.FormatUnknownDiagnostic("operator", "core:adn", []string{"core:add"})
	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, `unknown operator "core:adn"`)
	assert.Contains(t, out, `did you mean "core:add"?`)
}

// TestFormatter_PrintUnknownWritesLine tests PrintUnknown appends a
// trailing newline via the wrapped writer.
func TestFormatter_PrintUnknownWritesLine(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)
	f.PrintUnknown("airDef", "math:fact", []string{"math:factorial"})
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.Contains(t, buf.String(), `unknown airDef "math:fact"`)
}

// TestFormatter_NoSuggestionOmitsHint tests that an unrelated candidate
// list produces no "did you mean" clause.
func TestFormatter_NoSuggestionOmitsHint(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)
	out := f.FormatUnknownDiagnostic("operator", "zzzzzzzzzz", []string{"core:add"})
	assert.NotContains(t, out, "did you mean")
}
