package driver

import (
	"io"

	"fortsrc/internal/cooked"
	"fortsrc/internal/diag"
	"fortsrc/internal/provenance"
	"fortsrc/internal/source"
)

// DefaultMaxIncludeDepth bounds include nesting when Options leaves it zero.
const DefaultMaxIncludeDepth = 50

// StdinName is the path argument that makes Cook read Options.Stdin.
const StdinName = "-"

type Options struct {
	// IncludeDirs are searched, in order, after the directory of the
	// including file.
	IncludeDirs     []string
	MaxIncludeDepth int
	MaxDiagnostics  int
	// Defines are predefined object-like macros (NAME -> text). Their
	// definition is a compiler insertion.
	Defines map[string]string
	// Stdin is read when the path is StdinName.
	Stdin io.Reader
	// Seal ends registration on the AllSources once cooking succeeded.
	Seal bool
}

func (o Options) maxIncludeDepth() int {
	if o.MaxIncludeDepth <= 0 {
		return DefaultMaxIncludeDepth
	}
	return o.MaxIncludeDepth
}

func (o Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return 100
	}
	return o.MaxDiagnostics
}

// Result is a frozen cooked stream and what was found while building it.
type Result struct {
	Cooked *cooked.Source
	Bag    *diag.Bag
	Root   *source.File
	// RootRange is the provenance of the root file's content.
	RootRange provenance.Range
	// Includes counts successfully included files; Expansions counts
	// macro calls.
	Includes   int
	Expansions int
}

// All returns the registry the result's provenance refers to.
func (r *Result) All() *provenance.AllSources { return r.Cooked.AllSources() }
