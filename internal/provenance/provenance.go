package provenance

import (
	"fmt"
	"math"
)

// Provenance is a position in the virtual provenance space.
// The zero value is invalid.
type Provenance uint64

// IsSet reports whether p is not the zero value.
func (p Provenance) IsSet() bool { return p != 0 }

// Add returns p displaced by n. A result below 1 is a contract violation.
func (p Provenance) Add(n int64) Provenance {
	if n < 0 {
		if uint64(-n) >= uint64(p) {
			panic(fmt.Sprintf("provenance: %d%+d underflows", p, n))
		}
		return p - Provenance(-n)
	}
	if uint64(n) > math.MaxUint64-uint64(p) {
		panic(fmt.Sprintf("provenance: %d%+d overflows", p, n))
	}
	return p + Provenance(n)
}

// Sub returns the distance from that to p; that must not follow p.
func (p Provenance) Sub(that Provenance) uint64 {
	if that > p {
		panic(fmt.Sprintf("provenance: %d - %d is negative", p, that))
	}
	return uint64(p - that)
}

func (p Provenance) String() string {
	return fmt.Sprintf("@%d", uint64(p))
}

// Range is the half-open interval [Start, Start+Size) of provenance.
// The zero value is the empty range.
type Range struct {
	start Provenance
	size  uint64
}

// NewRange constructs [start, start+size).
func NewRange(start Provenance, size uint64) Range {
	if size > math.MaxUint64-uint64(start) {
		panic(fmt.Sprintf("provenance: range %d+%d overflows", start, size))
	}
	return Range{start: start, size: size}
}

// Single is the one-byte range at p.
func Single(p Provenance) Range { return Range{start: p, size: 1} }

func (r Range) Start() Provenance { return r.start }
func (r Range) Size() uint64      { return r.size }
func (r Range) Empty() bool       { return r.size == 0 }

// End returns the first provenance past the range (NextAfter).
func (r Range) End() Provenance { return r.start + Provenance(r.size) }

// Last returns the final provenance inside a non-empty range.
func (r Range) Last() Provenance {
	if r.size == 0 {
		panic("provenance: Last of empty range")
	}
	return r.End() - 1
}

// Contains reports whether p lies inside r.
func (r Range) Contains(p Provenance) bool {
	return p >= r.start && uint64(p-r.start) < r.size
}

// ContainsRange reports whether that lies entirely inside r.
// An empty range is contained when its start is inside r or at its end.
func (r Range) ContainsRange(that Range) bool {
	return that.start >= r.start && that.End() <= r.End()
}

// Intersects reports whether r and that share at least one position.
func (r Range) Intersects(that Range) bool {
	return !r.Empty() && !that.Empty() && r.start < that.End() && that.start < r.End()
}

// Intersection returns the overlap of r and that, empty when disjoint.
func (r Range) Intersection(that Range) Range {
	start := max(r.start, that.start)
	end := min(r.End(), that.End())
	if start >= end {
		return Range{}
	}
	return Range{start: start, size: uint64(end - start)}
}

// Cover returns the smallest range containing both r and that.
func (r Range) Cover(that Range) Range {
	if r.Empty() {
		return that
	}
	if that.Empty() {
		return r
	}
	start := min(r.start, that.start)
	end := max(r.End(), that.End())
	return Range{start: start, size: uint64(end - start)}
}

// MemberOffset returns the displacement of p from the start of r.
func (r Range) MemberOffset(p Provenance) uint64 {
	if !r.Contains(p) {
		panic(fmt.Sprintf("provenance: %v not in %v", p, r))
	}
	return uint64(p - r.start)
}

// OffsetMember returns the provenance at displacement n within r.
func (r Range) OffsetMember(n uint64) Provenance {
	if n >= r.size {
		panic(fmt.Sprintf("provenance: offset %d outside %v", n, r))
	}
	return r.start + Provenance(n)
}

// Prefix returns the first n positions of r (all of r when n is larger).
func (r Range) Prefix(n uint64) Range {
	return Range{start: r.start, size: min(n, r.size)}
}

// Suffix returns r without its first n positions (empty when n is larger).
func (r Range) Suffix(n uint64) Range {
	if n >= r.size {
		return Range{start: r.End(), size: 0}
	}
	return Range{start: r.start + Provenance(n), size: r.size - n}
}

// ImmediatelyPrecedes reports whether that starts exactly where r ends.
func (r Range) ImmediatelyPrecedes(that Range) bool {
	return r.End() == that.start
}

// AnnexIfPredecessor grows r to absorb that when that immediately follows.
func (r *Range) AnnexIfPredecessor(that Range) bool {
	if !r.ImmediatelyPrecedes(that) {
		return false
	}
	r.size += that.size
	return true
}

func (r Range) String() string {
	if r.size == 0 {
		return fmt.Sprintf("[%d,+0)", uint64(r.start))
	}
	return fmt.Sprintf("[%d..%d]", uint64(r.start), uint64(r.Last()))
}
