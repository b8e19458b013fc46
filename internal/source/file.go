package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
)

// NewFile builds a File from already decoded UTF-8 bytes.
//
// Content that does not end with a newline gets one appended so that every
// line, including the last, is terminated. The hash is computed over the
// final content.
func NewFile(path string, content []byte, flags FileFlags) *File {
	if len(content) > 0 && content[len(content)-1] != '\n' {
		content = append(content[:len(content):len(content)], '\n')
		flags |= FileAddedNewline
	}
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("source: file %s too large: %w", path, err))
	}
	return &File{
		Path:    normalizePath(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	}
}

// NewVirtualFile adds a file from memory with the FileVirtual flag.
func NewVirtualFile(name, text string) *File {
	return NewFile(name, []byte(text), FileVirtual)
}

// Bytes returns the size of the content in bytes.
func (f *File) Bytes() uint64 {
	if f == nil {
		return 0
	}
	return uint64(len(f.Content))
}

// LineCount returns the number of lines in the file.
func (f *File) LineCount() int {
	if f == nil || len(f.Content) == 0 {
		return 0
	}
	return len(f.LineIdx)
}

// FindOffsetLineAndColumn converts a byte offset into a 1-based line/column.
// Offsets past the end are clamped to the end of the content.
func (f *File) FindOffsetLineAndColumn(offset uint64) LineCol {
	if offset > f.Bytes() {
		offset = f.Bytes()
	}
	off, err := safecast.Conv[uint32](offset)
	if err != nil {
		panic(fmt.Errorf("source: offset overflow: %w", err))
	}
	return toLineCol(f.LineIdx, off)
}

// LineStartOffset returns the byte offset of the first character of a 1-based line.
func (f *File) LineStartOffset(lineNum uint32) (uint64, bool) {
	switch {
	case lineNum == 0:
		return 0, false
	case lineNum == 1:
		return 0, len(f.Content) > 0
	case int(lineNum-2) < len(f.LineIdx):
		start := uint64(f.LineIdx[lineNum-2]) + 1
		return start, start < f.Bytes()
	}
	return 0, false
}

// Offset converts a 1-based line and column back into a byte offset.
func (f *File) Offset(pos LineCol) (uint64, bool) {
	start, ok := f.LineStartOffset(pos.Line)
	if !ok || pos.Col == 0 {
		return 0, false
	}
	off := start + uint64(pos.Col-1)
	if int(pos.Line-1) < len(f.LineIdx) && off > uint64(f.LineIdx[pos.Line-1]) {
		return 0, false
	}
	return off, off < f.Bytes()
}

// GetLine возвращает строку с заданным номером (1-based) без завершающего '\n'.
// Если строка не существует, возвращает пустую строку.
func (f *File) GetLine(lineNum uint32) string {
	start, ok := f.LineStartOffset(lineNum)
	if !ok {
		return ""
	}
	end := f.Bytes()
	if int(lineNum-1) < len(f.LineIdx) {
		end = uint64(f.LineIdx[lineNum-1])
	}
	return string(f.Content[start:end])
}

// Path display modes accepted by FormatPath. PathAsIs leaves paths as they
// were opened.
const (
	PathAsIs     = ""
	PathAbsolute = "absolute"
	PathRelative = "relative"
	PathBasename = "basename"
	PathAuto     = "auto"
)

// ParsePathMode validates a flag or manifest value for FormatPath.
func ParsePathMode(s string) (string, error) {
	switch mode := strings.ToLower(strings.TrimSpace(s)); mode {
	case PathAsIs, PathAbsolute, PathRelative, PathBasename, PathAuto:
		return mode, nil
	}
	return PathAsIs, fmt.Errorf("invalid path mode: %q (expected: absolute|relative|basename|auto)", s)
}

// FormatPath форматирует путь к файлу в зависимости от режима.
// mode: "absolute", "relative", "basename", "auto"; stdin is never rewritten.
func (f *File) FormatPath(mode, baseDir string) string {
	if f.Path == StdinPath {
		return f.Path
	}
	switch mode {
	case "absolute":
		if abs, err := AbsolutePath(f.Path); err == nil {
			return abs
		}
		return f.Path

	case "relative":
		if baseDir == "" {
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		if rel, err := RelativePath(f.Path, baseDir); err == nil {
			return rel
		}
		return f.Path

	case "basename":
		return BaseName(f.Path)

	case "auto":
		if len(f.Path) < 40 || !filepath.IsAbs(f.Path) {
			return f.Path
		}
		return BaseName(f.Path)

	default:
		return f.Path
	}
}
