package provenance

import (
	"fmt"
	"io"
	"slices"

	"github.com/tidwall/btree"
)

// RangeMap maps provenance ranges back to offsets of a contiguous stream;
// it is a partial inversion of OffsetMap, used to go from a range selected
// in an editor to the cooked text.
//
// The association is multi-valued: ranges may overlap each other and one
// range may be stored with several offsets, as happens when a file is
// included twice. Every offset is kept; Map answers with the smallest.
// The zero value is ready to use.
type RangeMap struct {
	// Keyed by range start; each key holds the distinct sizes stored there.
	tree    btree.Map[Provenance, []rangeEntry]
	maxSize uint64
	count   int
}

type rangeEntry struct {
	size    uint64
	offsets []uint64 // ascending, no duplicates
}

// Empty reports whether nothing was stored.
func (m *RangeMap) Empty() bool { return m.count == 0 }

// Len returns the number of stored (range, offset) pairs.
func (m *RangeMap) Len() int { return m.count }

// Put associates r with offset. Putting the same pair twice is a no-op.
func (m *RangeMap) Put(r Range, offset uint64) {
	if r.Empty() {
		return
	}
	entries, _ := m.tree.Get(r.Start())
	for i := range entries {
		if entries[i].size != r.Size() {
			continue
		}
		at, dup := slices.BinarySearch(entries[i].offsets, offset)
		if dup {
			return
		}
		entries[i].offsets = slices.Insert(entries[i].offsets, at, offset)
		m.tree.Set(r.Start(), entries)
		m.count++
		return
	}
	m.tree.Set(r.Start(), append(entries, rangeEntry{size: r.Size(), offsets: []uint64{offset}}))
	m.maxSize = max(m.maxSize, r.Size())
	m.count++
}

// Map returns the offset corresponding to the start of q.
//
// Stored ranges that contain q win, smallest resulting offset first.
// Failing that, the smallest offset of a stored range that merely
// overlaps q is returned. Ranges that do not collide with q are never
// considered.
func (m *RangeMap) Map(q Range) (uint64, bool) {
	if q.Empty() || m.count == 0 {
		return 0, false
	}

	var (
		best      uint64
		found     bool
		contained bool
	)

	// Walk backwards from the last start before q's end. Once a start is
	// so far left that even the longest stored range cannot reach q, stop.
	it := m.tree.Iter()
	var ok bool
	if it.Seek(q.End()) {
		ok = it.Prev()
	} else {
		ok = it.Last()
	}
	for ; ok; ok = it.Prev() {
		start := it.Key()
		if uint64(start)+m.maxSize <= uint64(q.Start()) {
			break
		}
		for _, e := range it.Value() {
			that := NewRange(start, e.size)
			if !that.Intersects(q) {
				continue
			}
			first := e.offsets[0]
			if that.ContainsRange(q) {
				off := first + that.MemberOffset(q.Start())
				if !contained || off < best {
					best, found, contained = off, true, true
				}
				continue
			}
			if contained {
				continue
			}
			off := first
			if q.Start() > start {
				off += q.Start().Sub(start)
			}
			if !found || off < best {
				best, found = off, true
			}
		}
	}
	return best, found
}

// Dump writes the stored associations for debugging.
func (m *RangeMap) Dump(w io.Writer) error {
	var err error
	m.tree.Scan(func(start Provenance, entries []rangeEntry) bool {
		for _, e := range entries {
			for _, off := range e.offsets {
				if _, err = fmt.Fprintf(w, "   %v -> %d\n", NewRange(start, e.size), off); err != nil {
					return false
				}
			}
		}
		return true
	})
	return err
}
