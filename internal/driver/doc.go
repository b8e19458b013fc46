// Package driver is the reference scanner of fortsrc: it reads free-form
// Fortran, resolves include lines and object-like #define macros, and writes
// the result into a cooked.Source with every byte tagged by provenance.
//
// Included files are registered with the include line they replace, macro
// expansions with their call site, continuation joins with a
// compiler-inserted blank. Output for a line is written speculatively and
// rolled back with RemoveLastBytes when the line turns out to be blank or
// continued. Locate and Find answer location queries on the result.
package driver
