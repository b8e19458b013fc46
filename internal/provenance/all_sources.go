package provenance

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"path/filepath"
	"sort"
	"strconv"

	"fortsrc/internal/source"
	"fortsrc/internal/trace"
)

// AllSources is the origin registry: the single owner of the provenance
// space for one compilation, shared by reference by every later phase.
//
// It is mutable while scanning (Open, Add*) and read-only after Seal.
// Nothing is synchronised; concurrent readers are fine once sealed.
type AllSources struct {
	// Elements are in ascending & contiguous order of Covers.
	origins    []Origin
	rng        Range
	insertions map[byte]Provenance
	files      []*source.File
	searchPath []string
	encoding   source.Encoding
	opener     source.Opener
	tracer     trace.Tracer
	sealed     bool
	// Display only: how paths appear in messages and diagnostics.
	pathMode string
	pathBase string
}

// NewAllSources creates an empty registry reading files through opener
// (source.OS when nil).
func NewAllSources(opener source.Opener) *AllSources {
	if opener == nil {
		opener = source.OS{}
	}
	a := &AllSources{
		rng:        NewRange(1, 1),
		insertions: make(map[byte]Provenance),
		opener:     opener,
		tracer:     trace.Nop,
	}
	// Provenance 1 is a placeholder so that 0 stays reserved as "unset".
	a.origins = append(a.origins, Origin{
		Kind:   KindCompilerInsertion,
		Covers: a.rng,
		Text:   "?",
	})
	return a
}

// SetTracer routes registration events to t.
func (a *AllSources) SetTracer(t trace.Tracer) *AllSources {
	if t == nil {
		t = trace.Nop
	}
	a.tracer = t
	return a
}

// Encoding returns the encoding used by Open.
func (a *AllSources) Encoding() source.Encoding { return a.encoding }

// SetEncoding sets the encoding used by subsequent Open calls.
func (a *AllSources) SetEncoding(e source.Encoding) *AllSources {
	a.encoding = e
	return a
}

// SetPathMode selects how DisplayPath renders file paths (see
// source.FormatPath). Relative paths are taken against baseDir, or the
// working directory when it is empty.
func (a *AllSources) SetPathMode(mode, baseDir string) *AllSources {
	a.pathMode = mode
	a.pathBase = baseDir
	return a
}

// DisplayPath is f's path as messages should show it.
func (a *AllSources) DisplayPath(f *source.File) string {
	return f.FormatPath(a.pathMode, a.pathBase)
}

// Size is the total extent of the provenance space, placeholder included.
func (a *AllSources) Size() uint64 { return a.rng.Size() }

// Range returns the whole registered provenance space.
func (a *AllSources) Range() Range { return a.rng }

// IsValid reports whether p has been allocated.
func (a *AllSources) IsValid(p Provenance) bool { return a.rng.Contains(p) }

// IsValidRange reports whether r is non-empty and fully allocated.
func (a *AllSources) IsValidRange(r Range) bool {
	return r.Size() > 0 && a.rng.ContainsRange(r)
}

// Seal ends the registration phase. Any later Add* or Open panics.
func (a *AllSources) Seal() { a.sealed = true }

// Sealed reports whether Seal was called.
func (a *AllSources) Sealed() bool { return a.sealed }

func (a *AllSources) checkMutable(op string) {
	if a.sealed {
		panic(fmt.Sprintf("provenance: %s after Seal", op))
	}
}

// PushSearchPathDirectory adds dir to the include search path. The most
// recently pushed directory is searched first.
func (a *AllSources) PushSearchPathDirectory(dir string) {
	a.searchPath = append(a.searchPath, dir)
}

// PopSearchPathDirectory removes and returns the most recently pushed directory.
func (a *AllSources) PopSearchPathDirectory() string {
	if len(a.searchPath) == 0 {
		panic("provenance: PopSearchPathDirectory on empty search path")
	}
	dir := a.searchPath[len(a.searchPath)-1]
	a.searchPath = a.searchPath[:len(a.searchPath)-1]
	return dir
}

// SearchPath returns the search path in lookup order.
func (a *AllSources) SearchPath() []string {
	out := make([]string, 0, len(a.searchPath))
	for i := len(a.searchPath) - 1; i >= 0; i-- {
		out = append(out, a.searchPath[i])
	}
	return out
}

// Open locates path on the search path, loads it and takes ownership of
// the result. No provenance is allocated until AddIncludedFile.
//
// A file that exists nowhere yields an error wrapping fs.ErrNotExist.
func (a *AllSources) Open(path string) (*source.File, error) {
	a.checkMutable("Open")
	if !filepath.IsAbs(path) {
		for _, dir := range a.SearchPath() {
			f, err := source.Load(a.opener, filepath.Join(dir, path), a.encoding)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, err
			}
			return a.own(f), nil
		}
	}
	f, err := source.Load(a.opener, path, a.encoding)
	if err != nil {
		return nil, err
	}
	return a.own(f), nil
}

// ReadStandardInput loads piped input as a file named "standard input".
func (a *AllSources) ReadStandardInput(r io.Reader) (*source.File, error) {
	a.checkMutable("ReadStandardInput")
	f, err := source.Read(r, a.encoding)
	if err != nil {
		return nil, err
	}
	return a.own(f), nil
}

// Adopt takes ownership of an already built file, e.g. a virtual one.
func (a *AllSources) Adopt(f *source.File) *source.File {
	a.checkMutable("Adopt")
	return a.own(f)
}

func (a *AllSources) own(f *source.File) *source.File {
	a.files = append(a.files, f)
	return f
}

// Files returns every file owned by the registry, in load order.
func (a *AllSources) Files() []*source.File { return a.files }

// AddIncludedFile allocates provenance for the whole content of f.
// replaces is the invoking text (the include line), empty for a file named
// on the command line.
func (a *AllSources) AddIncludedFile(f *source.File, replaces Range, isModule bool) Range {
	a.checkMutable("AddIncludedFile")
	if f == nil {
		panic("provenance: AddIncludedFile of nil file")
	}
	a.checkAntecedent("replaced", replaces)
	return a.appendOrigin(Origin{
		Kind:     KindInclusion,
		Replaces: replaces,
		File:     f,
		IsModule: isModule,
	}, f.Bytes())
}

// AddMacroCall allocates provenance for the text of one macro expansion.
// def is the macro's definition text and use is the call being replaced.
func (a *AllSources) AddMacroCall(def, use Range, expansion string) Range {
	a.checkMutable("AddMacroCall")
	a.checkAntecedent("definition", def)
	a.checkAntecedent("use", use)
	return a.appendOrigin(Origin{
		Kind:       KindMacro,
		Replaces:   use,
		Definition: def,
		Expansion:  expansion,
	}, uint64(len(expansion)))
}

// AddCompilerInsertion allocates provenance for synthetic text.
// Single bytes are shared: every insertion of the same byte gets the same
// provenance and the registry does not grow.
func (a *AllSources) AddCompilerInsertion(text string) Range {
	if len(text) == 1 {
		if p, ok := a.insertions[text[0]]; ok {
			return Single(p)
		}
	}
	a.checkMutable("AddCompilerInsertion")
	covers := a.appendOrigin(Origin{
		Kind: KindCompilerInsertion,
		Text: text,
	}, uint64(len(text)))
	if len(text) == 1 {
		a.insertions[text[0]] = covers.Start()
	}
	return covers
}

// CompilerInsertionProvenance returns the shared provenance of a single
// synthetic byte such as padding blanks.
func (a *AllSources) CompilerInsertionProvenance(ch byte) Provenance {
	return a.AddCompilerInsertion(string([]byte{ch})).Start()
}

func (a *AllSources) checkAntecedent(what string, r Range) {
	if !r.Empty() && !a.rng.ContainsRange(r) {
		panic(fmt.Sprintf("provenance: %s range %v outside %v", what, r, a.rng))
	}
}

func (a *AllSources) appendOrigin(o Origin, size uint64) Range {
	o.Covers = NewRange(a.rng.End(), size)
	if !a.origins[len(a.origins)-1].Covers.ImmediatelyPrecedes(o.Covers) ||
		!a.rng.AnnexIfPredecessor(o.Covers) {
		panic(fmt.Sprintf("provenance: origin %v does not follow %v", o.Covers, a.rng))
	}
	a.origins = append(a.origins, o)
	if !a.tracer.Enabled() {
		return o.Covers
	}
	trace.Point(a.tracer, trace.ScopeOrigin, "origin:"+o.Kind.String(), o.Describe(),
		"covers", o.Covers.String(),
		"replaces", o.Replaces.String(),
		"origins", strconv.Itoa(len(a.origins)))
	return o.Covers
}

// MapToOrigin finds the origin whose Covers contains p.
func (a *AllSources) MapToOrigin(p Provenance) (*Origin, bool) {
	if !a.rng.Contains(p) {
		return nil, false
	}
	i := sort.Search(len(a.origins), func(i int) bool {
		return a.origins[i].Covers.Start() > p
	}) - 1
	if i < 0 || !a.origins[i].Covers.Contains(p) {
		return nil, false
	}
	return &a.origins[i], true
}

// Origins iterates over all origins in provenance order.
func (a *AllSources) Origins() iter.Seq[*Origin] {
	return func(yield func(*Origin) bool) {
		for i := range a.origins {
			if !yield(&a.origins[i]) {
				return
			}
		}
	}
}

// At returns the original byte at p. Macro and insertion text is indexed
// directly; it is not resolved through Replaces.
func (a *AllSources) At(p Provenance) (byte, bool) {
	o, ok := a.MapToOrigin(p)
	if !ok {
		return 0, false
	}
	return o.At(o.Covers.MemberOffset(p)), true
}

// resolveInclusion follows Replaces until it reaches an inclusion and
// returns it with the corresponding provenance inside it.
func (a *AllSources) resolveInclusion(p Provenance) (*Origin, Provenance, bool) {
	for {
		o, ok := a.MapToOrigin(p)
		if !ok {
			return nil, 0, false
		}
		switch o.Kind {
		case KindInclusion:
			return o, p, true
		case KindMacro, KindCompilerInsertion:
			if o.Replaces.Empty() {
				return nil, 0, false
			}
			// Replaces always precedes Covers, so this terminates.
			p = o.mapReplaced(p)
		default:
			panic(fmt.Sprintf("provenance: origin with unknown kind %d", o.Kind))
		}
	}
}

// GetSourceFile resolves p to the file it ultimately comes from and the
// byte offset inside that file. Macro expansions resolve to their call site.
// Pure synthetic text yields false.
func (a *AllSources) GetSourceFile(p Provenance) (*source.File, uint64, bool) {
	o, at, ok := a.resolveInclusion(p)
	if !ok {
		return nil, 0, false
	}
	return o.File, o.Covers.MemberOffset(at), true
}

// GetPath returns the path of the file p resolves to, "" when none (__FILE__).
func (a *AllSources) GetPath(p Provenance) string {
	f, _, ok := a.GetSourceFile(p)
	if !ok {
		return ""
	}
	return f.Path
}

// GetLineNumber returns the 1-based line p resolves to, 0 when none (__LINE__).
func (a *AllSources) GetLineNumber(p Provenance) int {
	pos, ok := a.GetPosition(p)
	if !ok {
		return 0
	}
	return int(pos.Line)
}

// GetPosition returns the line and column p resolves to.
func (a *AllSources) GetPosition(p Provenance) (source.LineCol, bool) {
	f, off, ok := a.GetSourceFile(p)
	if !ok {
		return source.LineCol{}, false
	}
	return f.FindOffsetLineAndColumn(off), true
}

// IsInModuleFile reports whether p resolves into a module interface file.
func (a *AllSources) IsInModuleFile(p Provenance) bool {
	o, _, ok := a.resolveInclusion(p)
	return ok && o.IsModule
}

// IntersectionWithSourceFiles clips r to its leading part that is backed
// by file content, skipping macro and insertion origins at its start.
func (a *AllSources) IntersectionWithSourceFiles(r Range) Range {
	for !r.Empty() {
		o, ok := a.MapToOrigin(r.Start())
		if !ok {
			return Range{}
		}
		if o.Kind == KindInclusion {
			return r.Intersection(o.Covers)
		}
		r = r.Suffix(o.Covers.End().Sub(r.Start()))
	}
	return Range{}
}

// FileRanges returns the Covers of every inclusion of f. A file included
// twice occupies two distinct ranges.
func (a *AllSources) FileRanges(f *source.File) []Range {
	var out []Range
	for i := range a.origins {
		if o := &a.origins[i]; o.Kind == KindInclusion && o.File == f {
			out = append(out, o.Covers)
		}
	}
	return out
}

// Dump writes every origin for debugging.
func (a *AllSources) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "AllSources range %v, %d origins\n", a.rng, len(a.origins)); err != nil {
		return err
	}
	for i := range a.origins {
		o := &a.origins[i]
		line := fmt.Sprintf("   %v %s", o.Covers, o.Describe())
		if !o.Replaces.Empty() {
			line += fmt.Sprintf(" replaces %v", o.Replaces)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
