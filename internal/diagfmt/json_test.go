package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"fortsrc/internal/diag"
	"fortsrc/internal/provenance"
	"fortsrc/internal/source"
)

func TestJSONIncludeChain(t *testing.T) {
	fx := newIncludeFixture()
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.PreMalformedDefine, provenance.Single(fx.inc.Start()+4), "boom").
		WithNote(provenance.Single(fx.main.Start()), "top"))
	bag.Add(diag.New(diag.SevInfo, diag.PreInfo, provenance.Range{}, "nowhere"))

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, bag, fx.all, JSONOpts{IncludeNotes: true, IncludeChain: true}))

	var got DiagnosticsOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	incStart := fx.inc.Start() + 4
	want := DiagnosticsOutput{
		Count: 2,
		Diagnostics: []DiagnosticJSON{
			{
				Severity: "ERROR",
				Code:     "PRE1005",
				Message:  "boom",
				Location: &LocationJSON{Provenance: provenance.Single(incStart).String(), File: "inc.h", Line: 1, Col: 5},
				Chain: []ChainJSON{
					{Kind: "included", Location: LocationJSON{Provenance: provenance.NewRange(fx.main.Start()+10, 17).String(), File: "main.f90", Line: 2, Col: 1}},
				},
				Notes: []NoteJSON{
					{Message: "top", Location: LocationJSON{Provenance: provenance.Single(fx.main.Start()).String(), File: "main.f90", Line: 1, Col: 1}},
				},
			},
			{Severity: "INFO", Code: "PRE1000", Message: "nowhere"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("JSON mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONMacroChainAndSynthetic(t *testing.T) {
	all := provenance.NewAllSources(nil)
	main := all.AddIncludedFile(all.Adopt(source.NewVirtualFile("main.f90", "#define N 10\nx = N\n")), provenance.Range{}, false)
	m := all.AddMacroCall(provenance.NewRange(main.Start(), 12), provenance.Single(main.Start()+17), "10")
	ins := all.AddCompilerInsertion("(synthetic)")

	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.PreMalformedDefine, m, "in macro"))
	bag.Add(diag.NewError(diag.PreMalformedDefine, ins, "synthetic"))

	out := BuildDiagnosticsOutput(bag, all, JSONOpts{IncludeChain: true, Max: 5})
	require.Equal(t, 2, out.Count)

	first := out.Diagnostics[0]
	require.NotNil(t, first.Location)
	require.Equal(t, "main.f90", first.Location.File)
	require.Equal(t, uint32(2), first.Location.Line)
	require.Equal(t, uint32(5), first.Location.Col)
	require.Len(t, first.Chain, 1)
	require.Equal(t, "macro", first.Chain[0].Kind)

	second := out.Diagnostics[1]
	require.NotNil(t, second.Location)
	require.True(t, second.Location.Synthetic)
	require.Empty(t, second.Chain)

	require.Equal(t, 1, BuildDiagnosticsOutput(bag, all, JSONOpts{Max: 1}).Count)
}
