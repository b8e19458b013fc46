package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fortsrc/internal/version"
)

// newRootCmd builds the command tree with fresh flag state. finish stops
// the profilers and flushes the tracer; it must run after Execute, whether
// or not it failed.
func newRootCmd() (root *cobra.Command, finish func()) {
	var cleanups []func()
	finish = func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		cleanups = nil
	}

	root = &cobra.Command{
		Use:   "fortsrc",
		Short: "Fortran source provenance toolkit",
		Long: `fortsrc prepares Fortran source (includes, macros, continuation lines)
and maps every byte of the result back to the file, include or macro it came from`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			stopProfiling, err := setupProfiling(cmd)
			if err != nil {
				return err
			}
			cleanups = append(cleanups, stopProfiling)
			stopTracing, err := setupTracing(cmd)
			if err != nil {
				return err
			}
			cleanups = append(cleanups, stopTracing)
			return nil
		},
	}
	// Устанавливаем версию для автоматического флага --version
	root.Version = version.Version

	root.AddCommand(newCookCmd())
	root.AddCommand(newLocateCmd())
	root.AddCommand(newFindCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newVersionCmd())

	// Глобальные флаги
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	root.PersistentFlags().Bool("timings", false, "show timing information")
	root.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to keep")
	root.PersistentFlags().StringArrayP("include", "I", nil, "add a directory to the include search path")
	root.PersistentFlags().StringArrayP("define", "D", nil, "predefine a macro (NAME or NAME=text)")
	root.PersistentFlags().String("encoding", "utf-8", "source encoding (utf-8|latin-1|shift-jis|euc-jp)")
	root.PersistentFlags().String("path-mode", "", "how file paths are shown (absolute|relative|basename|auto)")

	root.PersistentFlags().String("trace", "", "write trace events to file (- for stderr)")
	root.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	root.PersistentFlags().String("trace-mode", "ring", "trace storage (stream|ring|both)")
	root.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the ring tracer")

	root.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	root.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
	root.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")
	return root, finish
}

// main executes the root command and exits with status 1 on error.
func main() {
	root, finish := newRootCmd()
	err := root.Execute()
	finish()
	if err != nil {
		// Diagnostics already said what went wrong.
		if !errors.Is(err, errHasErrors) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color flag against the terminal state of stderr.
func useColor(colorFlag string) bool {
	return colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stderr))
}
