package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"fortsrc/internal/cooked"
	"fortsrc/internal/diag"
	"fortsrc/internal/provenance"
	"fortsrc/internal/source"
	"fortsrc/internal/trace"
)

// Cook scans the file at path (StdinName for Options.Stdin) into a frozen
// cooked stream. Problems in the sources are reported in Result.Bag; an
// error is returned only when the root file cannot be read or ctx ends.
func Cook(ctx context.Context, all *provenance.AllSources, path string, opts Options) (*Result, error) {
	tracer := trace.FromContext(ctx)
	all.SetTracer(tracer)
	span := trace.Begin(tracer, trace.ScopeDriver, "cook", trace.CurrentSpan(ctx))
	span.WithExtra("path", path)
	ctx = trace.WithSpan(ctx, span)

	var (
		root *source.File
		err  error
	)
	if path == StdinName {
		in := opts.Stdin
		if in == nil {
			in = os.Stdin
		}
		root, err = all.ReadStandardInput(in)
	} else {
		root, err = all.Open(path)
	}
	if err != nil {
		span.End("open failed")
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	bag := diag.NewBag(opts.maxDiagnostics())
	s := &scanner{
		ctx:    ctx,
		all:    all,
		cs:     cooked.New(all),
		rep:    diag.NewDedupReporter(diag.BagReporter{Bag: bag}),
		opts:   opts,
		macros: make(map[string]macro),
		tracer: tracer,
	}
	s.predefine(opts.Defines)

	for i := len(opts.IncludeDirs) - 1; i >= 0; i-- {
		all.PushSearchPathDirectory(opts.IncludeDirs[i])
	}
	defer func() {
		for range opts.IncludeDirs {
			all.PopSearchPathDirectory()
		}
	}()

	rootRange := all.AddIncludedFile(root, provenance.Range{}, false)
	if err := s.scanFile(root, rootRange, 0); err != nil {
		span.End("cancelled")
		return nil, err
	}

	s.cs.Marshal()
	if opts.Seal {
		all.Seal()
	}
	bag.Sort()

	span.WithExtra("bytes", strconv.FormatUint(s.cs.Len(), 10))
	span.End(fmt.Sprintf("includes=%d expansions=%d diagnostics=%d", s.includes, s.expansions, bag.Len()))
	return &Result{
		Cooked:     s.cs,
		Bag:        bag,
		Root:       root,
		RootRange:  rootRange,
		Includes:   s.includes,
		Expansions: s.expansions,
	}, nil
}

type macro struct {
	def  provenance.Range
	text string
}

type scanner struct {
	ctx    context.Context
	all    *provenance.AllSources
	cs     *cooked.Source
	rep    diag.Reporter
	opts   Options
	tracer trace.Tracer

	macros map[string]macro
	active []string // paths of the files being scanned, outermost first

	// continuing is set after a line that ended with '&'; the next
	// non-blank line is joined to it.
	continuing  bool
	continuedAt provenance.Range // the '&' of the continued line

	includes   int
	expansions int
}

func (s *scanner) predefine(defines map[string]string) {
	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		text := defines[name]
		def := s.all.AddCompilerInsertion("#define " + name + " " + text)
		s.macros[name] = macro{def: def, text: text}
	}
}

func (s *scanner) scanFile(f *source.File, covers provenance.Range, depth int) error {
	span := trace.Begin(s.tracer, trace.ScopePass, "scan_file", trace.CurrentSpan(s.ctx))
	span.WithExtra("file", f.Path)
	defer span.End(fmt.Sprintf("lines=%d", f.LineCount()))

	s.active = append(s.active, f.Path)
	s.all.PushSearchPathDirectory(filepath.Dir(f.Path))
	defer func() {
		s.all.PopSearchPathDirectory()
		s.active = s.active[:len(s.active)-1]
	}()

	var start uint64
	for _, nl := range f.LineIdx {
		if err := s.ctx.Err(); err != nil {
			return err
		}
		end := uint64(nl)
		line := lineRef{
			text:    string(f.Content[start:end]),
			covers:  provenance.NewRange(covers.Start().Add(int64(start)), end-start),
			newline: covers.Start().Add(int64(end)),
		}
		if err := s.scanLine(line, depth); err != nil {
			return err
		}
		start = end + 1
	}

	if s.continuing && depth == 0 {
		diag.ReportWarning(s.rep, diag.PreDanglingContinue, s.continuedAt,
			"continuation line expected after '&' at end of file").Emit()
		s.continuing = false
		s.cs.PutByteAt('\n', s.all.CompilerInsertionProvenance('\n'))
	}
	return nil
}

// lineRef is one source line without its newline.
type lineRef struct {
	text    string
	covers  provenance.Range
	newline provenance.Provenance
}

func (l lineRef) rangeOf(from, to int) provenance.Range {
	return provenance.NewRange(l.covers.Start().Add(int64(from)), uint64(to-from))
}

// scanLine only fails when the context is done.
func (s *scanner) scanLine(l lineRef, depth int) error {
	trimmed := strings.TrimLeft(l.text, " \t")
	switch {
	case strings.HasPrefix(trimmed, "#"):
		return s.directive(l, trimmed, depth)
	case !s.continuing:
		if name, ok, found := parseIncludeLine(trimmed); found {
			return s.include(l, name, ok, depth)
		}
	}
	s.copyLine(l)
	return nil
}

func (s *scanner) directive(l lineRef, trimmed string, depth int) error {
	body := strings.TrimLeft(trimmed[1:], " \t")
	word, rest := splitWord(body)
	switch word {
	case "include":
		name, ok := parseQuoted(strings.TrimSpace(rest))
		return s.include(l, name, ok, depth)
	case "define":
		name, text := splitWord(strings.TrimLeft(rest, " \t"))
		if !isIdentifier(name) {
			diag.ReportError(s.rep, diag.PreMalformedDefine, l.covers, "#define requires a macro name").Emit()
			return nil
		}
		text = strings.TrimSpace(text)
		if old, ok := s.macros[name]; ok && old.text != text {
			diag.ReportWarning(s.rep, diag.PreMacroRedefined, l.covers,
				fmt.Sprintf("macro '%s' redefined", name)).
				WithNote(old.def, "previous definition").
				Emit()
		}
		s.macros[name] = macro{def: l.covers, text: text}
	case "undef":
		name, _ := splitWord(strings.TrimLeft(rest, " \t"))
		if _, ok := s.macros[name]; !ok {
			diag.ReportWarning(s.rep, diag.PreUndefUnknown, l.covers,
				fmt.Sprintf("'%s' is not defined", name)).Emit()
			return nil
		}
		delete(s.macros, name)
	case "":
		// null directive
	default:
		diag.ReportWarning(s.rep, diag.PreUnknownDirective, l.covers,
			fmt.Sprintf("unknown directive '#%s'", word)).Emit()
	}
	return nil
}

func (s *scanner) include(l lineRef, name string, ok bool, depth int) error {
	if !ok {
		diag.ReportError(s.rep, diag.PreMalformedInclude, l.covers, "include requires a quoted file name").Emit()
		return nil
	}
	if depth+1 > s.opts.maxIncludeDepth() {
		diag.ReportError(s.rep, diag.PreIncludeDepth, l.covers,
			fmt.Sprintf("including '%s' exceeds the maximum nesting depth of %d", name, s.opts.maxIncludeDepth())).Emit()
		return nil
	}
	f, err := s.all.Open(name)
	switch {
	case errors.Is(err, source.ErrNotExist):
		diag.ReportError(s.rep, diag.PreMissingInclude, l.covers,
			fmt.Sprintf("cannot find include file '%s'", name)).Emit()
		return nil
	case err != nil:
		diag.ReportError(s.rep, diag.IOLoadFileError, l.covers,
			fmt.Sprintf("cannot read include file '%s': %v", name, err)).Emit()
		return nil
	}
	if slices.Contains(s.active, f.Path) {
		diag.ReportError(s.rep, diag.PreIncludeCycle, l.covers,
			fmt.Sprintf("'%s' includes itself", f.Path)).Emit()
		return nil
	}

	isModule := strings.EqualFold(filepath.Ext(f.Path), ".mod")
	covers := s.all.AddIncludedFile(f, l.covers, isModule)
	s.includes++
	return s.scanFile(f, covers, depth+1)
}

// copyLine writes one ordinary line. Output is speculative: a blank line is
// removed again, trailing blanks are dropped, and a trailing '&' is removed
// together with the blanks around it so the next line can be joined.
func (s *scanner) copyLine(l lineRef) {
	text := l.text
	i := 0
	var written uint64
	if s.continuing {
		i = skipBlanks(text, 0)
		if i < len(text) && text[i] == '&' {
			i = skipBlanks(text, i+1)
		}
		if i < len(text) && text[i] != '!' {
			s.cs.PutByteAt(' ', s.all.CompilerInsertionProvenance(' '))
			written++
		}
	}

	var (
		run          = i // text[run:i] is not written yet
		lastNonBlank uint64
		beforeAmp    uint64 // lastNonBlank before the trailing '&'
		ampIdx       int
		amp          bool
		quote        byte
	)
	flush := func(to int) {
		if run < to {
			s.cs.PutAt([]byte(text[run:to]), l.rangeOf(run, to))
			written += uint64(to - run)
		}
		run = to
	}
	// pos is the written count once text[:at] is flushed.
	pos := func(at int) uint64 { return written + uint64(at-run) }

	for i < len(text) {
		ch := text[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
			lastNonBlank = pos(i + 1)
			i++
		case ch == '!':
			flush(i)
			run, i = len(text), len(text)
		case isIdentStart(ch):
			j := i + 1
			for j < len(text) && isIdentChar(text[j]) {
				j++
			}
			if m, ok := s.macros[text[i:j]]; ok {
				flush(i)
				written += s.expand(text[i:j], m, l.rangeOf(i, j))
				run = j
				if strings.TrimSpace(m.text) != "" {
					lastNonBlank = written
				}
			} else {
				lastNonBlank = pos(j)
			}
			amp = false
			i = j
		case ch == ' ' || ch == '\t':
			i++
		default:
			if ch == '\'' || ch == '"' {
				quote = ch
			}
			amp = ch == '&'
			if amp {
				beforeAmp, ampIdx = lastNonBlank, i
			}
			lastNonBlank = pos(i + 1)
			i++
		}
	}
	flush(len(text))

	switch {
	case lastNonBlank == 0:
		// blank or comment-only line
		s.cs.RemoveLastBytes(written)
	case amp:
		// the '&' and the blanks around it
		s.cs.RemoveLastBytes(written - beforeAmp)
		s.continuing = true
		s.continuedAt = l.rangeOf(ampIdx, ampIdx+1)
	default:
		s.cs.RemoveLastBytes(written - lastNonBlank)
		s.continuing = false
		s.cs.PutByteAt('\n', l.newline)
	}
}

// expand registers one macro call and writes its expansion, returning the
// number of bytes written.
func (s *scanner) expand(name string, m macro, use provenance.Range) uint64 {
	r := s.all.AddMacroCall(m.def, use, m.text)
	s.expansions++
	trace.Point(s.tracer, trace.ScopeChunk, "expand", name, "covers", r.String(), "use", use.String())
	if m.text == "" {
		return 0
	}
	s.cs.PutAt([]byte(m.text), r)
	return uint64(len(m.text))
}
