package diagfmt

import (
	"encoding/json"
	"io"

	"fortsrc/internal/diag"
	"fortsrc/internal/provenance"
)

// LocationJSON представляет местоположение для JSON.
// Synthetic: диапазон не ведёт ни в один файл (текст компилятора).
type LocationJSON struct {
	Provenance string `json:"provenance"`
	File       string `json:"file,omitempty"`
	Line       uint32 `json:"line,omitempty"`
	Col        uint32 `json:"col,omitempty"`
	Synthetic  bool   `json:"synthetic,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// ChainJSON is one step from a location towards the top-level file.
type ChainJSON struct {
	Kind     string       `json:"kind"` // included, used, macro
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string        `json:"severity"`
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
	Chain    []ChainJSON   `json:"chain,omitempty"`
	Notes    []NoteJSON    `json:"notes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

// makeLocation создаёт LocationJSON из диапазона провенанса
func makeLocation(r provenance.Range, all *provenance.AllSources) LocationJSON {
	loc := LocationJSON{Provenance: r.String()}
	f, off, ok := all.GetSourceFile(r.Start())
	if !ok {
		loc.Synthetic = true
		return loc
	}
	pos := f.FindOffsetLineAndColumn(off)
	loc.File = all.DisplayPath(f)
	loc.Line = pos.Line
	loc.Col = pos.Col
	return loc
}

// makeChain walks from r through the include lines and macro calls that
// produced it.
func makeChain(r provenance.Range, all *provenance.AllSources) []ChainJSON {
	var chain []ChainJSON
	for all.IsValidRange(r) {
		o, _ := all.MapToOrigin(r.Start())
		if !all.IsValidRange(o.Replaces) {
			break
		}
		switch o.Kind {
		case provenance.KindInclusion:
			kind := "included"
			if o.IsModule {
				kind = "used"
			}
			chain = append(chain, ChainJSON{Kind: kind, Location: makeLocation(o.Replaces, all)})
		case provenance.KindMacro:
			chain = append(chain, ChainJSON{Kind: "macro", Location: makeLocation(o.Replaces, all)})
		}
		r = o.Replaces
	}
	return chain
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, all *provenance.AllSources, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}
	diagnostics := make([]DiagnosticJSON, 0, maxItems)

	for i := range maxItems {
		d := items[i]

		diagJSON := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
		}
		if all.IsValidRange(d.Primary) {
			loc := makeLocation(d.Primary, all)
			diagJSON.Location = &loc
			if opts.IncludeChain {
				diagJSON.Chain = makeChain(d.Primary, all)
			}
		}

		if opts.IncludeNotes && len(d.Notes) > 0 {
			diagJSON.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				diagJSON.Notes[j] = NoteJSON{
					Message:  note.Msg,
					Location: makeLocation(note.Range, all),
				}
			}
		}

		diagnostics = append(diagnostics, diagJSON)
	}

	return DiagnosticsOutput{
		Diagnostics: diagnostics,
		Count:       len(diagnostics),
	}
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, bag *diag.Bag, all *provenance.AllSources, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(bag, all, opts))
}
