package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"fortsrc/internal/diag"
	"fortsrc/internal/diagfmt"
	"fortsrc/internal/driver"
)

// errHasErrors makes the process exit non-zero after diagnostics were printed.
var errHasErrors = errors.New("errors reported")

func newCookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cook [flags] <file|->",
		Short: "Print the prepared source and its diagnostics",
		Long: `Cook expands includes and macros, drops comments and joins continuation
lines. The result goes to stdout, diagnostics to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: runCook,
	}
	cmd.Flags().String("format", "pretty", "diagnostics format (pretty|short|json)")
	cmd.Flags().Bool("echo", false, "echo the offending source line under each diagnostic")
	cmd.Flags().Bool("with-notes", false, "include notes")
	cmd.Flags().Bool("no-text", false, "do not print the cooked text")
	cmd.Flags().String("min-severity", "", "hide diagnostics below this severity (info|warning|error)")
	return cmd
}

func runCook(cmd *cobra.Command, args []string) error {
	input := args[0]
	s, err := loadSettings(cmd, input)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	switch format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, short or json)", format)
	}
	echo, err := cmd.Flags().GetBool("echo")
	if err != nil {
		return fmt.Errorf("failed to get echo flag: %w", err)
	}
	if cmd.Flags().Changed("echo") {
		s.echo = echo
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	noText, err := cmd.Flags().GetBool("no-text")
	if err != nil {
		return fmt.Errorf("failed to get no-text flag: %w", err)
	}
	minSeverity, err := cmd.Flags().GetString("min-severity")
	if err != nil {
		return fmt.Errorf("failed to get min-severity flag: %w", err)
	}
	if minSeverity != "" {
		if s.minSeverity, err = diag.ParseSeverity(minSeverity); err != nil {
			return err
		}
	}

	res, err := cookInput(cmd, s, input)
	if err != nil {
		return err
	}
	defer printTimings(cmd, s)
	if !noText {
		if _, err := io.WriteString(cmd.OutOrStdout(), res.Cooked.Data()); err != nil {
			return err
		}
	}
	if err := printDiagnostics(cmd.ErrOrStderr(), res, s, format, withNotes); err != nil {
		return err
	}
	if res.Bag.HasErrors() {
		return errHasErrors
	}
	return nil
}

func printDiagnostics(w io.Writer, res *driver.Result, s settings, format string, withNotes bool) error {
	bag := res.Bag
	if s.minSeverity > diag.SevInfo {
		bag.Filter(func(d diag.Diagnostic) bool { return d.Severity >= s.minSeverity })
	}
	switch format {
	case "json":
		return diagfmt.JSON(w, bag, res.All(), diagfmt.JSONOpts{
			IncludeNotes: withNotes,
			IncludeChain: true,
			Max:          s.maxDiagnostics,
		})
	case "short":
		text := diag.FormatShortDiagnostics(bag.Items(), res.All(), withNotes)
		if text == "" {
			return nil
		}
		_, err := fmt.Fprintln(w, text)
		return err
	default:
		diagfmt.Pretty(w, bag, res.All(), diagfmt.PrettyOpts{
			Color:                  s.color,
			Echo:                   s.echo,
			ShowNotes:              withNotes,
			SuppressModuleWarnings: s.suppressModuleWarnings,
			Max:                    s.maxDiagnostics,
		})
		return nil
	}
}
