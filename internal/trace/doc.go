// Package trace provides structured event tracing for fortsrc.
//
// Every phase that touches provenance (file registration, macro expansion,
// cooked-source assembly, marshaling, index inversion) can emit events
// through a Tracer carried in a context.Context. It is the logging layer of
// the tool: nothing else writes free-form log lines.
//
// # Usage
//
//	fortsrc cook --trace=- --trace-level=detail main.f90
//
// # Tracers
//
//   - Nop: zero-overhead no-op tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer, dumped on failure
//   - MultiTracer: combines multiple tracers
//
// # Levels and scopes
//
// A level selects which scopes are emitted:
//
//   - LevelPhase: ScopeDriver and ScopePass (scan, marshal, invert)
//   - LevelDetail: additionally ScopeOrigin (one event per registered origin)
//   - LevelDebug: additionally ScopeChunk (speculative output, rollbacks)
//
// LevelError keeps only ScopeDriver events, typically in the ring buffer
// that the CLI dumps when a command fails.
package trace
