package diag

import (
	"testing"

	"fortsrc/internal/provenance"
	"fortsrc/internal/source"
)

func TestFormatShortDiagnostics(t *testing.T) {
	all := provenance.NewAllSources(nil)
	main := all.AddIncludedFile(all.Adopt(source.NewVirtualFile("./src/main.f90", "a\n#include \"x.h\"\n")), provenance.Range{}, false)
	inc := all.AddIncludedFile(all.Adopt(source.NewVirtualFile("src/x.h", "bad\n")), provenance.NewRange(main.Start()+2, 14), false)

	diags := []Diagnostic{
		NewError(PreMissingInclude, provenance.NewRange(main.Start()+2, 14), "cannot find\nx.h").
			WithNote(inc, "note line"),
		New(SevWarning, PreMacroRedefined, provenance.Single(inc.Start()+1), "another"),
		NewError(IOLoadFileError, provenance.Range{}, "no location"),
	}

	expected := "error IO4001 no location\n" +
		"error PRE1001 src/main.f90:2:1 cannot find x.h\n" +
		"note PRE1001 src/x.h:1:1 note line\n" +
		"warning PRE1006 src/x.h:1:2 another"

	if got := FormatShortDiagnostics(diags, all, true); got != expected {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
	if got := FormatShortDiagnostics(nil, all, true); got != "" {
		t.Fatalf("empty input rendered %q", got)
	}
}
