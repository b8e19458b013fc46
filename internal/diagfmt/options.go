package diagfmt

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Echo      bool // печатать строку исходника с ^ под диапазоном
	ShowNotes bool
	// SuppressModuleWarnings drops warnings and infos whose primary range
	// resolves into a module interface file.
	SuppressModuleWarnings bool
	Max                    int // обрезка вывода, не Bag
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludeNotes bool
	IncludeChain bool // include/macro chain of the primary range
	Max          int
}
