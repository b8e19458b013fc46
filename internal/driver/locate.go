package driver

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"fortsrc/internal/cooked"
	"fortsrc/internal/provenance"
	"fortsrc/internal/source"
	"fortsrc/internal/trace"
)

// Location is where one cooked offset came from.
type Location struct {
	Offset     uint64
	Provenance provenance.Provenance
	Path       string
	Line       uint32
	Column     uint32
	// Synthetic is set for compiler-inserted text, which has no file.
	Synthetic bool
}

func (l Location) String() string {
	if l.Synthetic {
		return fmt.Sprintf("%d: %v <compiler>", l.Offset, l.Provenance)
	}
	return fmt.Sprintf("%d: %v %s:%d:%d", l.Offset, l.Provenance, l.Path, l.Line, l.Column)
}

// Locate resolves cooked offsets to file positions using up to limit
// goroutines (GOMAXPROCS when limit <= 0). cs must be frozen and its
// registry must no longer change.
func Locate(ctx context.Context, cs *cooked.Source, offsets []uint64, limit int) ([]Location, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "locate", trace.CurrentSpan(ctx))
	defer span.End(fmt.Sprintf("offsets=%d", len(offsets)))

	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	all := cs.AllSources()
	results := make([]Location, len(offsets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, off := range offsets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			loc, err := locate(cs, all, off)
			if err != nil {
				return err
			}
			// индексы уникальны, мьютекс не нужен
			results[i] = loc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func locate(cs *cooked.Source, all *provenance.AllSources, off uint64) (Location, error) {
	r, ok := cs.Map(off)
	if !ok {
		return Location{}, fmt.Errorf("offset %d is outside the cooked text (%d bytes)", off, cs.BufferedBytes())
	}
	loc := Location{Offset: off, Provenance: r.Start()}
	f, fileOff, ok := all.GetSourceFile(r.Start())
	if !ok {
		loc.Synthetic = true
		return loc, nil
	}
	pos := f.FindOffsetLineAndColumn(fileOff)
	loc.Path = all.DisplayPath(f)
	loc.Line = pos.Line
	loc.Column = pos.Col
	return loc, nil
}

// Find returns the cooked offset of the character at line:col of the file
// at path, the editor's "go to" direction. A file included several times
// yields its first occurrence that made it into the cooked text.
func Find(cs *cooked.Source, path string, line, col uint32) (uint64, bool) {
	all := cs.AllSources()
	path = filepath.ToSlash(filepath.Clean(path))
	for _, f := range all.Files() {
		if f.Path != path {
			continue
		}
		off, ok := f.Offset(source.LineCol{Line: line, Col: col})
		if !ok {
			return 0, false
		}
		for _, r := range all.FileRanges(f) {
			p := r.Start().Add(int64(off))
			if cb, ok := cs.GetCharBlock(provenance.Single(p)); ok {
				return cb.Begin, true
			}
		}
	}
	return 0, false
}
