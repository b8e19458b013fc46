package source

type (
	// FileFlags encodes metadata about a loaded source file.
	FileFlags uint8 // метаданные
)

const (
	// FileVirtual indicates the file was added from memory (test, generated text).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска
	FileHadBOM
	FileNormalizedCRLF
	// FileAddedNewline marks content that did not end in '\n' and got one appended.
	FileAddedNewline
	FileStdin
)

// File is a loaded source file. Its content is immutable once constructed and
// is owned by whoever registered it (normally provenance.AllSources).
type File struct {
	Path     string
	Content  []byte
	LineIdx  []uint32 // offsets of every '\n'
	Hash     [32]byte
	Flags    FileFlags
	Encoding Encoding
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, in bytes
}
