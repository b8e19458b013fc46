package diag

import (
	"fortsrc/internal/provenance"
)

type Note struct {
	Range provenance.Range
	Msg   string
}

// Diagnostic is attributed to a provenance range rather than to a file
// position, so it stays exact through includes and macro expansion. An
// empty Primary means "no location".
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  provenance.Range
	Notes    []Note
}

func New(sev Severity, code Code, primary provenance.Range, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
		Notes:    nil,
	}
}

func NewError(code Code, primary provenance.Range, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(r provenance.Range, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Range: r, Msg: msg})
	return d
}
