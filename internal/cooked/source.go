// Package cooked holds the preprocessed character stream that the parser
// tokenizes, together with the mapping from each of its bytes back to
// provenance.
//
// A Source is built by one scanning pass (Put*), frozen once with Marshal
// and only read afterwards. After Marshal it may be shared by concurrent
// readers.
package cooked

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"fortio.org/safecast"

	"fortsrc/internal/provenance"
)

// EndOfSource is the compiler insertion mapped one byte past the frozen text,
// so that an end offset still has a provenance.
const EndOfSource = "(after end of source)"

// CharBlock is a view [Begin, End) into the frozen text.
type CharBlock struct {
	Begin uint64
	End   uint64
}

// Len returns the number of bytes in the block.
func (cb CharBlock) Len() uint64 {
	if cb.End < cb.Begin {
		return 0
	}
	return cb.End - cb.Begin
}

func (cb CharBlock) Empty() bool { return cb.Len() == 0 }

func (cb CharBlock) String() string { return fmt.Sprintf("<%d,%d>", cb.Begin, cb.End) }

type state uint8

const (
	stateBuilding state = iota
	stateFrozen
	stateAcquired
)

// Source is the cooked character stream.
type Source struct {
	all   *provenance.AllSources
	state state

	buffer bytes.Buffer // while building
	data   string       // after Marshal
	size   uint64       // len(data), kept after AcquireData

	forward provenance.OffsetMap

	invertOnce sync.Once
	inverse    *provenance.RangeMap
}

// New creates an empty Source whose provenance is interpreted by all.
func New(all *provenance.AllSources) *Source {
	if all == nil {
		panic("cooked: nil AllSources")
	}
	return &Source{all: all}
}

// AllSources returns the registry the stream's provenance refers to.
func (s *Source) AllSources() *provenance.AllSources { return s.all }

// Frozen reports whether Marshal was called.
func (s *Source) Frozen() bool { return s.state != stateBuilding }

func (s *Source) checkBuilding(op string) {
	if s.state != stateBuilding {
		panic(fmt.Sprintf("cooked: %s after Marshal", op))
	}
}

func (s *Source) offset() uint64 {
	n, err := safecast.Conv[uint64](s.buffer.Len())
	if err != nil {
		panic(fmt.Errorf("cooked: buffer length overflow: %w", err))
	}
	return n
}

// Put appends raw bytes without provenance and returns the offset of the
// first one in the eventual frozen text. The caller owes a matching
// PutProvenance before Marshal.
func (s *Source) Put(b []byte) uint64 {
	s.checkBuilding("Put")
	at := s.offset()
	s.buffer.Write(b)
	return at
}

// PutString is Put for a string.
func (s *Source) PutString(str string) uint64 {
	s.checkBuilding("PutString")
	at := s.offset()
	s.buffer.WriteString(str)
	return at
}

// PutByte is Put for one byte.
func (s *Source) PutByte(ch byte) uint64 {
	s.checkBuilding("PutByte")
	at := s.offset()
	s.buffer.WriteByte(ch)
	return at
}

// PutByteAt appends one byte that came from provenance p.
func (s *Source) PutByteAt(ch byte, p provenance.Provenance) uint64 {
	s.checkBuilding("PutByteAt")
	s.forward.Put(provenance.Single(p))
	at := s.offset()
	s.buffer.WriteByte(ch)
	return at
}

// PutAt appends b, whose bytes came from r. len(b) must equal r.Size().
func (s *Source) PutAt(b []byte, r provenance.Range) uint64 {
	s.checkBuilding("PutAt")
	if uint64(len(b)) != r.Size() {
		panic(fmt.Sprintf("cooked: PutAt of %d bytes with range %v", len(b), r))
	}
	s.forward.Put(r)
	at := s.offset()
	s.buffer.Write(b)
	return at
}

// PutProvenance records the provenance of bytes put without one.
func (s *Source) PutProvenance(r provenance.Range) {
	s.checkBuilding("PutProvenance")
	s.forward.Put(r)
}

// PutProvenanceMap appends every run of m after the current mapped end.
func (s *Source) PutProvenanceMap(m *provenance.OffsetMap) {
	s.checkBuilding("PutProvenanceMap")
	s.forward.PutMap(m)
}

// RemoveLastBytes rolls back speculative output: the final n bytes of the
// buffer and the final n mapped offsets are discarded. Both must hold at
// least n bytes.
func (s *Source) RemoveLastBytes(n uint64) {
	s.checkBuilding("RemoveLastBytes")
	if n > s.offset() {
		panic(fmt.Sprintf("cooked: cannot remove %d of %d buffered bytes", n, s.offset()))
	}
	s.buffer.Truncate(int(s.offset() - n))
	s.forward.RemoveLastBytes(n)
}

// BufferedBytes returns the number of bytes put so far.
func (s *Source) BufferedBytes() uint64 {
	if s.state == stateBuilding {
		return s.offset()
	}
	return s.size
}

// Marshal freezes the stream. Every buffered byte must have a provenance.
func (s *Source) Marshal() {
	s.checkBuilding("Marshal")
	if got, want := s.forward.SizeInBytes(), s.offset(); got != want {
		panic(fmt.Sprintf("cooked: %d bytes mapped to provenance but %d bytes buffered", got, want))
	}
	s.forward.Put(s.all.AddCompilerInsertion(EndOfSource))
	s.data = s.buffer.String()
	s.size = uint64(len(s.data))
	s.buffer = bytes.Buffer{}
	s.state = stateFrozen
}

func (s *Source) checkReadable(op string) {
	switch s.state {
	case stateBuilding:
		panic(fmt.Sprintf("cooked: %s before Marshal", op))
	case stateAcquired:
		panic(fmt.Sprintf("cooked: %s after AcquireData", op))
	}
}

// Data returns the frozen text.
func (s *Source) Data() string {
	s.checkReadable("Data")
	return s.data
}

// AcquireData hands the frozen text over to the caller. Byte level queries
// on s report invalid afterwards; provenance queries keep working.
func (s *Source) AcquireData() string {
	s.checkReadable("AcquireData")
	data := s.data
	s.data = ""
	s.state = stateAcquired
	return data
}

// Acquired reports whether AcquireData was called.
func (s *Source) Acquired() bool { return s.state == stateAcquired }

// Len returns the length of the frozen text.
func (s *Source) Len() uint64 {
	s.checkReadable("Len")
	return uint64(len(s.data))
}

// Block returns the view [begin, end), clamped to the text.
func (s *Source) Block(begin, end uint64) CharBlock {
	n := uint64(len(s.data))
	begin, end = min(begin, n), min(end, n)
	return CharBlock{Begin: begin, End: max(begin, end)}
}

// Text returns the bytes of cb.
func (s *Source) Text(cb CharBlock) string {
	if !s.IsValidBlock(cb) {
		return ""
	}
	return s.data[cb.Begin:cb.End]
}

// IsValidOffset reports whether off points into the frozen text or just
// past its end.
func (s *Source) IsValidOffset(off uint64) bool {
	return s.state == stateFrozen && len(s.data) > 0 && off <= uint64(len(s.data))
}

// IsValidBlock reports whether cb is a non-empty view into the frozen text.
// Unlike a single offset, a block may not reach past the last byte.
func (s *Source) IsValidBlock(cb CharBlock) bool {
	return !cb.Empty() && s.state == stateFrozen && cb.End <= uint64(len(s.data))
}

// IsValidRange reports whether r lies inside the registry's provenance.
func (s *Source) IsValidRange(r provenance.Range) bool { return s.all.IsValidRange(r) }

// Map returns the provenance of offset off and the rest of its run.
// off may equal the text length, yielding EndOfSource.
func (s *Source) Map(off uint64) (provenance.Range, bool) {
	if s.state == stateBuilding || off > s.size {
		return provenance.Range{}, false
	}
	return s.forward.Map(off), true
}

// GetProvenanceRange returns the provenance spanning cb, from its first
// byte to its last.
func (s *Source) GetProvenanceRange(cb CharBlock) (provenance.Range, bool) {
	if s.state == stateBuilding || cb.Empty() || cb.End > s.size {
		return provenance.Range{}, false
	}
	first, ok := s.Map(cb.Begin)
	if !ok {
		return provenance.Range{}, false
	}
	last, ok := s.Map(cb.End - 1)
	if !ok {
		return provenance.Range{}, false
	}
	if last.Start() < first.Start() {
		return provenance.Single(first.Start()), true
	}
	return provenance.NewRange(first.Start(), last.Start().Sub(first.Start())+1), true
}

// Inverse returns the provenance to offset index, building it on first use.
func (s *Source) Inverse() *provenance.RangeMap {
	if s.state == stateBuilding {
		panic("cooked: inverse index requested before Marshal")
	}
	s.invertOnce.Do(func() {
		s.inverse = s.forward.Invert(s.all)
	})
	return s.inverse
}

// GetCharBlock returns the view of the frozen text that r was cooked into.
// Text produced by macros or the compiler itself cannot be found this way.
func (s *Source) GetCharBlock(r provenance.Range) (CharBlock, bool) {
	if s.state != stateFrozen || r.Empty() {
		return CharBlock{}, false
	}
	off, ok := s.Inverse().Map(r)
	if !ok {
		return CharBlock{}, false
	}
	cb := s.Block(off, off+r.Size())
	if cb.Empty() {
		return CharBlock{}, false
	}
	return cb, true
}

// Dump writes the registry, the text and both indices for debugging.
func (s *Source) Dump(w io.Writer) error {
	if err := s.all.Dump(w); err != nil {
		return err
	}
	text := s.data
	switch s.state {
	case stateBuilding:
		text = s.buffer.String()
	case stateAcquired:
		text = "<acquired>"
	}
	if _, err := fmt.Fprintf(w, "cooked text:\n%s\nforward index:\n", text); err != nil {
		return err
	}
	if err := s.forward.Dump(w); err != nil {
		return err
	}
	if s.state == stateBuilding {
		return nil
	}
	if _, err := fmt.Fprintln(w, "inverse index:"); err != nil {
		return err
	}
	return s.Inverse().Dump(w)
}
