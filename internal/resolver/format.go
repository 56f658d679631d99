package resolver

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// ANSI codes used by Formatter. Kept narrow (red for the offending key,
// yellow for a suggestion) rather than a full palette, matching the
// teacher's ConsoleLogger's plain-text-first, sparingly-decorated style.
const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

// Formatter renders human-readable validation diagnostics (spec.md §4.6),
// colorizing them when writing to a real terminal. It generalizes the
// teacher's ConsoleLogger (writer-configurable console output, verbose
// toggle) from workflow-execution log lines to resolver "unknown
// operator/definition" diagnostics.
type Formatter struct {
	writer io.Writer
	color  bool
}

// NewFormatter builds a Formatter writing to w. Color is enabled only
// when w is an *os.File attached to a real terminal (go-isatty), and the
// file is wrapped with go-colorable so the ANSI escapes this package
// emits render correctly on Windows consoles as well as Unix ttys.
// Writing to a pipe, a file, or any other io.Writer stays plain text.
func NewFormatter(w io.Writer) *Formatter {
	f := &Formatter{writer: w}
	if file, ok := w.(*os.File); ok {
		if isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd()) {
			f.color = true
			f.writer = colorable.NewColorable(file)
		}
	}
	return f
}

// NewStdoutFormatter is the common case: a Formatter over os.Stdout.
func NewStdoutFormatter() *Formatter {
	return NewFormatter(os.Stdout)
}

func (f *Formatter) paint(code, s string) string {
	if !f.color {
		return s
	}
	return code + s + ansiReset
}

// FormatUnknownDiagnostic renders the same diagnostic as FormatUnknown,
// with the offending key painted red and a "did you mean" suggestion (if
// any) painted yellow when color is enabled.
func (f *Formatter) FormatUnknownDiagnostic(kind, key string, known []string) string {
	head := fmt.Sprintf("unknown %s %s", kind, f.paint(ansiRed, fmt.Sprintf("%q", key)))
	if best, ok := Suggest(key, known); ok {
		head += " " + f.paint(ansiYellow, fmt.Sprintf("(did you mean %q?)", best))
	}
	return head
}

// PrintUnknown writes a formatted "unknown operator/definition" diagnostic
// followed by a newline.
func (f *Formatter) PrintUnknown(kind, key string, known []string) {
	fmt.Fprintln(f.writer, f.FormatUnknownDiagnostic(kind, key, known))
}
