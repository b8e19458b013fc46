// Package diag defines the diagnostic model used by the preprocessing driver
// and the CLI.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary – the provenance.Range the finding is about. Because it is a
//     provenance range and not a file offset, a problem inside an included
//     file or a macro expansion can later be reported together with the
//     include chain or the macro call that produced it.
//   - Notes – optional secondary ranges/messages for additional context.
//
// # Emitting diagnostics
//
// Producers use a diag.Reporter to decouple emission from storage, either
// calling Report directly or building a record with ReportBuilder
// (ReportError/ReportWarning/ReportInfo, WithNote, Emit). BagReporter
// aggregates diagnostics into a Bag, which supports sorting, deduplication,
// filtering and a size limit. DedupReporter drops exact repeats.
//
// Package diag does not resolve locations or format output itself, apart
// from the single-line FormatShortDiagnostics; rendering with source echo
// lives in internal/diagfmt.
package diag
