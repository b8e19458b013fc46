package provenance

import (
	"fmt"

	"fortsrc/internal/source"
)

// Kind tags the variant held by an Origin.
type Kind uint8

const (
	// KindInclusion is the content of a loaded file.
	KindInclusion Kind = iota + 1
	// KindMacro is the text produced by one macro expansion.
	KindMacro
	// KindCompilerInsertion is synthetic text with no file behind it.
	KindCompilerInsertion
)

func (k Kind) String() string {
	switch k {
	case KindInclusion:
		return "include"
	case KindMacro:
		return "macro"
	case KindCompilerInsertion:
		return "insertion"
	}
	return "unknown"
}

// Origin is one registered unit of original content.
//
// Covers is where the content lives in provenance space. Replaces, for
// inclusions and macros, is the text in the invoking context that the
// content stands in for (the include line, the macro call); it is empty for
// top-level files and plain insertions.
type Origin struct {
	Kind     Kind
	Covers   Range
	Replaces Range

	// KindInclusion
	File     *source.File
	IsModule bool // compiler-generated module interface file

	// KindMacro
	Definition Range
	Expansion  string

	// KindCompilerInsertion
	Text string
}

// At returns the byte at displacement n of the origin's content.
func (o *Origin) At(n uint64) byte {
	switch o.Kind {
	case KindInclusion:
		return o.File.Content[n]
	case KindMacro:
		return o.Expansion[n]
	case KindCompilerInsertion:
		return o.Text[n]
	}
	panic(fmt.Sprintf("provenance: origin with unknown kind %d", o.Kind))
}

// Describe is a one-line summary used by dumps and traces.
func (o *Origin) Describe() string {
	switch o.Kind {
	case KindInclusion:
		kind := "file"
		if o.IsModule {
			kind = "module"
		}
		return fmt.Sprintf("%s %s", kind, o.File.Path)
	case KindMacro:
		return fmt.Sprintf("macro %v -> %q", o.Definition, o.Expansion)
	case KindCompilerInsertion:
		return fmt.Sprintf("insertion %q", o.Text)
	}
	return "unknown origin"
}

// mapReplaced maps a position inside Covers proportionally onto Replaces.
func (o *Origin) mapReplaced(at Provenance) Provenance {
	n := o.Covers.MemberOffset(at)
	if o.Covers.Size() > 0 && o.Replaces.Size() != o.Covers.Size() {
		n = n * o.Replaces.Size() / o.Covers.Size()
	}
	if n >= o.Replaces.Size() {
		n = o.Replaces.Size() - 1
	}
	return o.Replaces.OffsetMember(n)
}
