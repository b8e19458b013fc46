package source

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ErrNotExist is returned by openers when a path does not name a file.
var ErrNotExist = fs.ErrNotExist

// Opener is the file-system collaborator: it returns the raw bytes stored
// under a path. Everything above it only ever sees *File values.
//
// A missing file must be reported as an error wrapping ErrNotExist, which
// search-path lookup relies on.
type Opener interface {
	Open(path string) ([]byte, error)
}

// OS reads files from the host file system.
type OS struct{}

// Open implements Opener.
func (OS) Open(path string) ([]byte, error) {
	// #nosec G304 -- path is provided by the caller
	return os.ReadFile(path)
}

// FS wraps an fs.FS to give it an Opener interface.
type FS struct {
	fs.FS

	// If not nil, paths are passed to this function before being forwarded
	// to FS.
	PathMapper func(string) string
}

// Open implements Opener.
func (o *FS) Open(path string) ([]byte, error) {
	if o.PathMapper != nil {
		path = o.PathMapper(path)
	}
	return fs.ReadFile(o.FS, filepath.ToSlash(path))
}

// Map is an in-memory Opener keyed by normalised path.
type Map map[string]string

// NewMap creates an empty Map.
func NewMap() Map { return make(Map) }

// Add stores text under path.
func (m Map) Add(path, text string) Map {
	m[normalizePath(path)] = text
	return m
}

// Paths returns the stored paths in sorted order.
func (m Map) Paths() []string {
	out := make([]string, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Open implements Opener.
func (m Map) Open(path string) ([]byte, error) {
	text, ok := m[normalizePath(path)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return []byte(text), nil
}

// Openers tries each Opener in sequence until one does not return ErrNotExist.
type Openers []Opener

// Open implements Opener.
func (o Openers) Open(path string) ([]byte, error) {
	for _, opener := range o {
		data, err := opener.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return data, err
	}
	return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
}

// Load reads path through o, decodes it from enc, strips a UTF-8 BOM and
// normalises CRLF line endings.
func Load(o Opener, path string, enc Encoding) (*File, error) {
	raw, err := o.Open(path)
	if err != nil {
		return nil, err
	}
	f, err := build(path, raw, enc, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// StdinPath is the path reported for text read from standard input.
const StdinPath = "standard input"

// Read loads a file from r, for example piped standard input.
func Read(r io.Reader, enc Encoding) (*File, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", StdinPath, err)
	}
	return build(StdinPath, raw, enc, FileStdin)
}

func build(path string, raw []byte, enc Encoding, flags FileFlags) (*File, error) {
	content, err := enc.Decode(raw)
	if err != nil {
		return nil, err
	}
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	f := NewFile(path, content, flags)
	f.Encoding = enc
	return f, nil
}
