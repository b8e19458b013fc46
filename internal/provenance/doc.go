// Package provenance attributes every byte the frontend ever processes to
// its origin.
//
// Provenances are offsets into an unmaterialised concatenation of the
// contents of every source file, include file, macro expansion and compiler
// insertion registered during one compilation. AllSources owns that virtual
// space: it is a flat slice of origins sorted by the range they cover, so a
// Provenance is mapped to its origin in O(log #origins) and nested origins
// are resolved by following each origin's replaced range back into the same
// slice.
//
// OffsetMap maps offsets of a contiguous cooked stream to provenance ranges;
// RangeMap is its partial inverse, used to go from an original source range
// back to the cooked stream.
//
// Offset 0 is never a valid Provenance. AllSources reserves provenance 1 for
// a one-byte placeholder so the first registered file starts at 2.
package provenance
