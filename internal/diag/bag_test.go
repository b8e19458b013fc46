package diag

import (
	"testing"

	"fortsrc/internal/provenance"
)

func rng(start, size uint64) provenance.Range {
	return provenance.NewRange(provenance.Provenance(start), size)
}

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	if !b.Add(NewError(PreMissingInclude, rng(1, 1), "a")) {
		t.Fatal("first Add rejected")
	}
	b.Add(NewError(PreMissingInclude, rng(2, 1), "b"))
	if b.Add(NewError(PreMissingInclude, rng(3, 1), "c")) {
		t.Fatal("Add past the limit accepted")
	}
	if b.Len() != 2 || b.Cap() != 2 {
		t.Fatalf("Len/Cap = %d/%d, want 2/2", b.Len(), b.Cap())
	}

	// отрицательный лимит
	if NewBag(-5).Add(Diagnostic{}) {
		t.Fatal("empty bag accepted a diagnostic")
	}
}

func TestBagSeverityQueries(t *testing.T) {
	b := NewBag(10)
	b.Add(New(SevInfo, PreInfo, rng(1, 1), "info"))
	if b.HasErrors() || b.HasWarnings() {
		t.Fatal("info only bag reports errors or warnings")
	}
	b.Add(New(SevWarning, PreMacroRedefined, rng(1, 1), "warn"))
	if b.HasErrors() || !b.HasWarnings() {
		t.Fatal("warning not detected")
	}
	b.Add(NewError(PreIncludeCycle, rng(1, 1), "err"))
	if !b.HasErrors() {
		t.Fatal("error not detected")
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(10)
	b.Add(New(SevWarning, PreMacroRedefined, rng(20, 2), "late"))
	b.Add(NewError(PreMissingInclude, rng(5, 3), "early error"))
	b.Add(New(SevWarning, PreUndefUnknown, rng(5, 3), "early warning"))
	b.Add(NewError(PreMissingInclude, rng(5, 3), "early error again"))
	b.Add(NewError(PreMissingInclude, rng(5, 1), "shorter"))

	b.Sort()
	want := []string{"shorter", "early error", "early error again", "early warning", "late"}
	for i, d := range b.Items() {
		if d.Message != want[i] {
			t.Fatalf("item %d = %q, want %q", i, d.Message, want[i])
		}
	}

	b.Dedup()
	if b.Len() != 4 {
		t.Fatalf("after Dedup Len = %d, want 4", b.Len())
	}
}

func TestBagMergeAndFilter(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(PreMissingInclude, rng(1, 1), "a"))
	other := NewBag(5)
	other.Add(New(SevWarning, PreMacroRedefined, rng(2, 1), "b"))
	other.Add(New(SevInfo, PreInfo, rng(3, 1), "c"))

	a.Merge(other)
	if a.Len() != 3 {
		t.Fatalf("Merge: Len = %d, want 3", a.Len())
	}

	a.Filter(func(d Diagnostic) bool { return d.Severity >= SevWarning })
	if a.Len() != 2 {
		t.Fatalf("Filter: Len = %d, want 2", a.Len())
	}
}

func TestReportBuilderAndDedup(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})

	b := ReportError(r, PreIncludeCycle, rng(10, 4), "cycle").WithNote(rng(2, 3), "first included here")
	b.Emit()
	b.Emit() // повторный Emit ничего не делает
	ReportError(r, PreIncludeCycle, rng(10, 4), "cycle").Emit()
	ReportWarning(r, PreIncludeCycle, rng(10, 4), "cycle").Emit()
	ReportInfo(r, PreInfo, rng(1, 1), "info").Emit()

	if bag.Len() != 3 {
		t.Fatalf("bag has %d diagnostics, want 3", bag.Len())
	}
	first := bag.Items()[0]
	if len(first.Notes) != 1 || first.Notes[0].Msg != "first included here" {
		t.Fatalf("note lost: %+v", first.Notes)
	}

	var nilBuilder *ReportBuilder
	nilBuilder.WithNote(rng(1, 1), "x").Emit()
	if got := nilBuilder.Diagnostic(); got.Message != "" {
		t.Fatalf("nil builder produced %+v", got)
	}
}

func TestCodeStrings(t *testing.T) {
	tests := []struct {
		code Code
		id   string
	}{
		{PreMissingInclude, "PRE1001"},
		{IOLoadFileError, "IO4001"},
		{UnknownCode, "E0000"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.id {
			t.Errorf("%d.ID() = %q, want %q", tt.code, got, tt.id)
		}
	}
	if got := PreIncludeCycle.String(); got != "[PRE1002]: file includes itself" {
		t.Errorf("String() = %q", got)
	}
	if got := Code(1999).Title(); got != "Unknown error" {
		t.Errorf("Title() of unknown code = %q", got)
	}
	if SevWarning.String() != "WARNING" {
		t.Errorf("SevWarning = %q", SevWarning.String())
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"error", SevError, false},
		{"WARNING", SevWarning, false},
		{"Info", SevInfo, false},
		{"fatal", SevInfo, true},
		{"", SevInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSeverity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if SevError.Label() != "error" || Severity(9).Label() != "info" {
		t.Errorf("unexpected labels %q %q", SevError.Label(), Severity(9).Label())
	}
}
