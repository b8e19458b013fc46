package provenance

import (
	"fmt"
	"io"
	"sort"
)

// Mapping is one run of OffsetMap: Range.Size() consecutive offsets starting
// at Start map to consecutive provenances starting at Range.Start().
type Mapping struct {
	Start uint64
	Range Range
}

// OffsetMap maps 0-based offsets in a contiguous stream to provenance.
// Lookup is O(log #runs of contiguous provenance).
//
// The zero value is an empty map ready to use.
type OffsetMap struct {
	// Ascending, distinct Start values; each run begins where the previous
	// one ends. Ranges are disjoint but not necessarily adjacent.
	entries []Mapping
}

// SizeInBytes returns the number of mapped offsets.
func (m *OffsetMap) SizeInBytes() uint64 {
	if len(m.entries) == 0 {
		return 0
	}
	last := m.entries[len(m.entries)-1]
	return last.Start + last.Range.Size()
}

// Len returns the number of runs.
func (m *OffsetMap) Len() int { return len(m.entries) }

// Entries returns a copy of the runs.
func (m *OffsetMap) Entries() []Mapping {
	out := make([]Mapping, len(m.entries))
	copy(out, m.entries)
	return out
}

// Clear empties the map.
func (m *OffsetMap) Clear() { m.entries = m.entries[:0] }

// Put maps the next r.Size() offsets to r. When r continues the previous
// run's provenance the run is extended instead of adding a new one.
func (m *OffsetMap) Put(r Range) {
	if r.Empty() {
		return
	}
	if n := len(m.entries); n > 0 {
		last := &m.entries[n-1]
		if last.Range.AnnexIfPredecessor(r) {
			return
		}
		m.entries = append(m.entries, Mapping{Start: last.Start + last.Range.Size(), Range: r})
		return
	}
	m.entries = append(m.entries, Mapping{Start: 0, Range: r})
}

// PutMap appends all runs of that, rebased after the current end.
func (m *OffsetMap) PutMap(that *OffsetMap) {
	for _, e := range that.entries {
		m.Put(e.Range)
	}
}

// Map returns the provenance of offset at together with the rest of its run,
// i.e. the suffix of the run's range beginning at at.
// Offsets at or past SizeInBytes are a contract violation.
func (m *OffsetMap) Map(at uint64) Range {
	if at >= m.SizeInBytes() {
		panic(fmt.Sprintf("provenance: offset %d beyond mapped size %d", at, m.SizeInBytes()))
	}
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].Start > at
	}) - 1
	e := m.entries[i]
	return e.Range.Suffix(at - e.Start)
}

// RemoveLastBytes discards the mappings of the final n offsets, splitting
// the last surviving run when needed.
func (m *OffsetMap) RemoveLastBytes(n uint64) {
	if n > m.SizeInBytes() {
		panic(fmt.Sprintf("provenance: cannot remove %d of %d mapped bytes", n, m.SizeInBytes()))
	}
	for n > 0 {
		last := &m.entries[len(m.entries)-1]
		chunk := last.Range.Size()
		if n < chunk {
			last.Range = last.Range.Prefix(chunk - n)
			return
		}
		n -= chunk
		m.entries = m.entries[:len(m.entries)-1]
	}
}

// Invert builds the partial inverse of m restricted to file-backed
// provenance; macro expansions and compiler insertions are skipped.
func (m *OffsetMap) Invert(all *AllSources) *RangeMap {
	result := &RangeMap{}
	for _, e := range m.entries {
		r := e.Range
		for !r.Empty() {
			src := all.IntersectionWithSourceFiles(r)
			if src.Empty() {
				break
			}
			result.Put(src, e.Start+src.Start().Sub(e.Range.Start()))
			after := src.End()
			if !r.Contains(after) {
				break
			}
			r = r.Suffix(after.Sub(r.Start()))
		}
	}
	return result
}

// Dump writes the runs for debugging.
func (m *OffsetMap) Dump(w io.Writer) error {
	for _, e := range m.entries {
		if _, err := fmt.Fprintf(w, "   [%d..%d] -> %v\n",
			e.Start, e.Start+e.Range.Size()-1, e.Range); err != nil {
			return err
		}
	}
	return nil
}
