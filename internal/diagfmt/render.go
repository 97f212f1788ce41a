// Package diagfmt renders diagnostics for the terminal.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"cinder/internal/diag"
	"cinder/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan, color.Bold)
	posColor  = color.New(color.Bold)
)

// Options controls rendering.
type Options struct {
	// Color forces styling on or off; the CLI resolves "auto"
	// before calling here.
	Color bool
}

// Render writes every diagnostic in the bag with its source snippet.
func Render(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts Options) {
	if bag == nil {
		return
	}
	restore := color.NoColor
	color.NoColor = !opts.Color
	defer func() { color.NoColor = restore }()

	for _, d := range bag.Items() {
		renderOne(w, d, fs)
	}
}

func renderOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet) {
	file := fs.Get(d.Primary.File)
	if file == nil {
		fmt.Fprintf(w, "%s %s: %s\n", severityLabel(d.Severity), d.Code, d.Message)
		return
	}

	line, col := file.Position(d.Primary.Start)
	fmt.Fprintf(w, "%s: %s %s: %s\n",
		posColor.Sprintf("%s:%d:%d", file.Path, line, col),
		severityLabel(d.Severity), d.Code, d.Message)

	renderSnippet(w, file, d.Primary)

	for _, n := range d.Notes {
		nf := fs.Get(n.Span.File)
		if nf == nil {
			continue
		}
		nline, ncol := nf.Position(n.Span.Start)
		fmt.Fprintf(w, "  note: %s: %s\n",
			posColor.Sprintf("%s:%d:%d", nf.Path, nline, ncol), n.Msg)
	}
}

// renderSnippet prints the offending line with a caret run underneath.
// Column math is display-width aware so the carets line up under wide
// runes and tabs.
func renderSnippet(w io.Writer, file *source.File, span source.Span) {
	line, col := file.Position(span.Start)
	text := file.Line(line)
	if text == "" {
		return
	}

	fmt.Fprintf(w, "  %4d | %s\n", line, expandTabs(text))

	prefix := expandTabs(text[:min(col-1, len(text))])
	pad := runewidth.StringWidth(prefix)

	length := int(span.Len())
	if col-1+length > len(text) {
		length = len(text) - (col - 1)
	}
	if length < 1 {
		length = 1
	}
	marked := text[min(col-1, len(text)):min(col-1+length, len(text))]
	carets := runewidth.StringWidth(expandTabs(marked))
	if carets < 1 {
		carets = 1
	}

	fmt.Fprintf(w, "       | %s%s\n",
		strings.Repeat(" ", pad), errColor.Sprint(strings.Repeat("^", carets)))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

func severityLabel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return errColor.Sprint("error")
	case diag.SevWarning:
		return warnColor.Sprint("warning")
	default:
		return infoColor.Sprint("info")
	}
}
