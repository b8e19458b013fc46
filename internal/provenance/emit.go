package provenance

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// EmitMessage writes message attributed to r.
//
// For file content the message is prefixed with path:line:col and, when
// echo is set, followed by the source line with ^ markers under r. The chain
// of origins is then walked: an included file reports where it was
// included ("included here", or "used here" for module files), a macro
// expansion reports the call site, the definition and the expanded text.
// Without a valid range only the message is written.
func (a *AllSources) EmitMessage(w io.Writer, r *Range, message string, echo bool) {
	if r == nil || !a.IsValidRange(*r) {
		fmt.Fprintln(w, message)
		return
	}
	o, _ := a.MapToOrigin(r.Start())
	switch o.Kind {
	case KindInclusion:
		f := o.File
		pos := f.FindOffsetLineAndColumn(o.Covers.MemberOffset(r.Start()))
		fmt.Fprintf(w, "%s:%d:%d: %s\n", a.DisplayPath(f), pos.Line, pos.Col, message)
		if echo {
			line := f.GetLine(pos.Line)
			col := min(int(pos.Col-1), len(line))
			carets := 1
			if r.Size() > 1 && o.Covers.Contains(r.Last()) {
				end := f.FindOffsetLineAndColumn(o.Covers.MemberOffset(r.Last()))
				if end.Line == pos.Line && int(end.Col) <= len(line) {
					carets = max(1, runewidth.StringWidth(line[col:end.Col]))
				}
			}
			fmt.Fprintf(w, "  %s\n  %s%s\n", line, padding(line[:col]), strings.Repeat("^", carets))
		}
		if a.IsValidRange(o.Replaces) {
			note := "included here"
			if o.IsModule {
				note = "used here"
			}
			a.EmitMessage(w, &o.Replaces, note, echo)
		}

	case KindMacro:
		a.EmitMessage(w, &o.Replaces, message, echo)
		a.EmitMessage(w, &o.Definition, "in a macro defined here", echo)
		if echo {
			n := o.Covers.MemberOffset(r.Start())
			fmt.Fprintf(w, "that expanded to:\n  %s\n  %s^\n", o.Expansion, padding(o.Expansion[:n]))
		}

	case KindCompilerInsertion:
		if a.IsValidRange(o.Replaces) {
			a.EmitMessage(w, &o.Replaces, message, echo)
			return
		}
		fmt.Fprintln(w, message)
	}
}

// padding returns blanks as wide as prefix on a terminal, keeping tabs.
func padding(prefix string) string {
	var sb strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return sb.String()
}
