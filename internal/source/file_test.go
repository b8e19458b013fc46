package source

import (
	"os"
	"path/filepath"
	"testing"
)

// TestNewFileLineIdx проверяет правильность построения LineIdx
func TestNewFileLineIdx(t *testing.T) {
	file := NewVirtualFile("a.f90", "a\nb\n")

	expected := []uint32{1, 3} // позиции символов \n
	if len(file.LineIdx) != len(expected) {
		t.Fatalf("Expected LineIdx length %d, got %d", len(expected), len(file.LineIdx))
	}
	for i, val := range expected {
		if file.LineIdx[i] != val {
			t.Errorf("Expected LineIdx[%d] = %d, got %d", i, val, file.LineIdx[i])
		}
	}
	if file.Flags&FileVirtual == 0 {
		t.Error("Expected FileVirtual flag to be set")
	}
	if file.Flags&FileAddedNewline != 0 {
		t.Error("Did not expect FileAddedNewline for terminated content")
	}
}

func TestNewFileAppendsNewline(t *testing.T) {
	raw := []byte("end program")
	file := NewFile("p.f90", raw, 0)
	if string(file.Content) != "end program\n" {
		t.Fatalf("Expected newline to be appended, got %q", string(file.Content))
	}
	if string(raw) != "end program" {
		t.Fatalf("caller buffer was modified: %q", string(raw))
	}
	if file.Flags&FileAddedNewline == 0 {
		t.Error("Expected FileAddedNewline flag to be set")
	}
}

// TestEdgeCases проверяет граничные случаи
func TestEdgeCases(t *testing.T) {
	empty := NewVirtualFile("empty.f90", "")
	if len(empty.LineIdx) != 0 || empty.LineCount() != 0 {
		t.Errorf("Expected empty LineIdx for empty file, got %v", empty.LineIdx)
	}
	if got := empty.FindOffsetLineAndColumn(0); got != (LineCol{Line: 1, Col: 1}) {
		t.Errorf("Expected 1:1 for empty file, got %+v", got)
	}

	only := NewVirtualFile("only_newline.f90", "\n")
	if len(only.LineIdx) != 1 || only.LineIdx[0] != 0 {
		t.Errorf("Expected LineIdx [0] for file with only newline, got %v", only.LineIdx)
	}
}

func TestFindOffsetLineAndColumn(t *testing.T) {
	file := NewVirtualFile("x.f90", "program p\n  x = 1\nend\n")
	tests := []struct {
		offset uint64
		want   LineCol
	}{
		{0, LineCol{1, 1}},
		{9, LineCol{1, 10}}, // сам '\n' принадлежит первой строке
		{10, LineCol{2, 1}},
		{12, LineCol{2, 3}},
		{18, LineCol{3, 1}},
		{1000, LineCol{4, 1}},
	}
	for _, tt := range tests {
		if got := file.FindOffsetLineAndColumn(tt.offset); got != tt.want {
			t.Errorf("offset %d: expected %+v, got %+v", tt.offset, tt.want, got)
		}
	}
}

func TestLineStartOffsetAndGetLine(t *testing.T) {
	file := NewVirtualFile("x.f90", "program p\n  x = 1\nend\n")

	if off, ok := file.LineStartOffset(2); !ok || off != 10 {
		t.Fatalf("expected line 2 at 10, got %d (%v)", off, ok)
	}
	if _, ok := file.LineStartOffset(4); ok {
		t.Fatal("line past the final newline must not exist")
	}
	if got := file.GetLine(2); got != "  x = 1" {
		t.Errorf("unexpected line 2: %q", got)
	}
	if got := file.GetLine(0); got != "" {
		t.Errorf("line 0 should be empty, got %q", got)
	}
	if off, ok := file.Offset(LineCol{Line: 2, Col: 3}); !ok || off != 12 {
		t.Errorf("expected offset 12 for 2:3, got %d (%v)", off, ok)
	}
	if _, ok := file.Offset(LineCol{Line: 2, Col: 20}); ok {
		t.Error("column past end of line must be rejected")
	}
}

// TestCRLFNormalization проверяет нормализацию CRLF
func TestCRLFNormalization(t *testing.T) {
	original := []byte("a\r\nb\r\n")
	normalized, changed := normalizeCRLF(original)
	if !changed {
		t.Error("Expected CRLF normalization to be detected")
	}
	if string(normalized) != "a\nb\n" {
		t.Errorf("Expected normalized content %q, got %q", "a\nb\n", string(normalized))
	}
	if len(normalized) != len(original)-2 {
		t.Errorf("Expected length %d, got %d", len(original)-2, len(normalized))
	}

	lone := []byte("a\rb")
	if out, changed := normalizeCRLF(lone); changed || string(out) != "a\rb" {
		t.Errorf("lone CR must be preserved, got %q", string(out))
	}
}

// TestBOMRemoval проверяет удаление BOM
func TestBOMRemoval(t *testing.T) {
	bomContent := []byte{0xEF, 0xBB, 0xBF, 'x', '\n'}
	withoutBOM, hadBOM := removeBOM(bomContent)
	if !hadBOM {
		t.Error("Expected BOM to be detected")
	}
	if string(withoutBOM) != "x\n" {
		t.Errorf("Expected content without BOM %q, got %q", "x\n", string(withoutBOM))
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.f90")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa\r\nb"), 0o644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}

	file, err := Load(OS{}, path, UTF8)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(file.Content) != "a\nb\n" {
		t.Errorf("Expected file content 'a\\nb\\n', got %q", string(file.Content))
	}
	want := FileHadBOM | FileNormalizedCRLF | FileAddedNewline
	if file.Flags&want != want {
		t.Errorf("Expected flags %b, got %b", want, file.Flags)
	}
	if file.Path != normalizePath(path) {
		t.Errorf("Expected path %q, got %q", normalizePath(path), file.Path)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(OS{}, filepath.Join(t.TempDir(), "missing.f90"), UTF8)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRelativePathOutsideBaseFallsBackToAbsolute(t *testing.T) {
	tmp := t.TempDir()
	baseDir := filepath.Join(tmp, "base")
	target := filepath.Join(tmp, "other", "file.f90")

	got, err := RelativePath(target, baseDir)
	if err != nil {
		t.Fatalf("RelativePath returned error: %v", err)
	}
	if want := normalizePath(target); got != want {
		t.Fatalf("expected absolute fallback %q, got %q", want, got)
	}
}

func TestRelativePathInsideBaseStaysRelative(t *testing.T) {
	tmp := t.TempDir()
	baseDir := filepath.Join(tmp, "base")
	target := filepath.Join(baseDir, "nested", "file.f90")

	got, err := RelativePath(target, baseDir)
	if err != nil {
		t.Fatalf("RelativePath returned error: %v", err)
	}
	if want := normalizePath(filepath.Join("nested", "file.f90")); got != want {
		t.Fatalf("expected relative path %q, got %q", want, got)
	}
}

func TestFormatPath(t *testing.T) {
	tmp := t.TempDir()
	long := filepath.Join(tmp, "a-directory-name-long-enough", "to-trip-auto", "deep.f90")
	tests := []struct {
		name, path, mode, base, want string
	}{
		{"as is", "src/main.f90", PathAsIs, "", "src/main.f90"},
		{"basename", "src/main.f90", PathBasename, "", "main.f90"},
		{"relative", filepath.Join(tmp, "src", "main.f90"), PathRelative, tmp, "src/main.f90"},
		{"absolute", filepath.Join(tmp, "x.f90"), PathAbsolute, "", normalizePath(filepath.Join(tmp, "x.f90"))},
		{"auto short", "src/main.f90", PathAuto, "", "src/main.f90"},
		{"auto long", long, PathAuto, "", "deep.f90"},
		{"stdin", StdinPath, PathAbsolute, "", StdinPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &File{Path: tt.path}
			if got := f.FormatPath(tt.mode, tt.base); got != tt.want {
				t.Fatalf("FormatPath(%q, %q) = %q, want %q", tt.mode, tt.base, got, tt.want)
			}
		})
	}
}

func TestParsePathMode(t *testing.T) {
	for in, want := range map[string]string{"": PathAsIs, "Basename": PathBasename, " auto ": PathAuto} {
		got, err := ParsePathMode(in)
		if err != nil || got != want {
			t.Fatalf("ParsePathMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParsePathMode("short"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
