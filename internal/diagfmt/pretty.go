package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"fortsrc/internal/diag"
	"fortsrc/internal/provenance"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	noteColor    = color.New(color.FgBlue)
)

func paint(c *color.Color, enabled bool, s string) string {
	cc := *c
	if enabled {
		cc.EnableColor()
	} else {
		cc.DisableColor()
	}
	return cc.Sprint(s)
}

func severityLabel(sev diag.Severity, enabled bool) string {
	c := infoColor
	switch sev {
	case diag.SevError:
		c = errorColor
	case diag.SevWarning:
		c = warningColor
	}
	return paint(c, enabled, sev.Label())
}

// Visible reports whether Pretty would print d under opts.
func Visible(d *diag.Diagnostic, all *provenance.AllSources, opts PrettyOpts) bool {
	if !opts.SuppressModuleWarnings || d.Severity >= diag.SevError || d.Primary.Empty() {
		return true
	}
	return !all.IsInModuleFile(d.Primary.Start())
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
//
//	<path>:<line>:<col>: <sev>[<CODE>]: <Message>
//
// затем строку исходника с ^^^ под диапазоном (Echo) и цепочку
// "included here" / макросов, затем Notes в том же формате.
// Диагностика без диапазона печатается одной строкой.
func Pretty(w io.Writer, bag *diag.Bag, all *provenance.AllSources, opts PrettyOpts) {
	printed := 0
	for _, d := range bag.Items() {
		if opts.Max > 0 && printed >= opts.Max {
			break
		}
		if !Visible(&d, all, opts) {
			continue
		}
		printed++

		msg := fmt.Sprintf("%s[%s]: %s", severityLabel(d.Severity, opts.Color), d.Code.ID(), d.Message)
		emit(w, all, d.Primary, msg, opts.Echo)

		if !opts.ShowNotes {
			continue
		}
		for _, note := range d.Notes {
			emit(w, all, note.Range, paint(noteColor, opts.Color, "note")+": "+note.Msg, opts.Echo)
		}
	}
}

func emit(w io.Writer, all *provenance.AllSources, r provenance.Range, msg string, echo bool) {
	if r.Empty() {
		all.EmitMessage(w, nil, msg, echo)
		return
	}
	all.EmitMessage(w, &r, msg, echo)
}
