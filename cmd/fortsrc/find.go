package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fortsrc/internal/driver"
)

var errNotFound = errors.New("position not in cooked text")

func newFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <file|-> <path:line:col>...",
		Short: "Map file positions to cooked offsets",
		Long: `Find cooks the input and prints the cooked offset of each given source
position. Lines and columns are 1-based. Positions removed while cooking
(comments, directives, continuation markers) are reported as not found.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runFind,
	}
}

func runFind(cmd *cobra.Command, args []string) error {
	input := args[0]
	s, err := loadSettings(cmd, input)
	if err != nil {
		return err
	}
	type target struct {
		path      string
		line, col uint32
	}
	targets := make([]target, 0, len(args)-1)
	for _, arg := range args[1:] {
		path, line, col, err := parsePosition(arg)
		if err != nil {
			return err
		}
		targets = append(targets, target{path, line, col})
	}

	res, err := cookInput(cmd, s, input)
	if err != nil {
		return err
	}

	defer printTimings(cmd, s)
	out := cmd.OutOrStdout()
	missing := 0
	for _, t := range targets {
		off, ok := driver.Find(res.Cooked, t.path, t.line, t.col)
		if !ok {
			fmt.Fprintf(out, "%s:%d:%d: not found\n", t.path, t.line, t.col)
			missing++
			continue
		}
		fmt.Fprintf(out, "%s:%d:%d: %d %q\n", t.path, t.line, t.col, off, res.Cooked.Data()[off:off+1])
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d: %w", missing, len(targets), errNotFound)
	}
	return nil
}

// parsePosition splits path:line:col from the right so that paths may
// contain colons.
func parsePosition(s string) (path string, line, col uint32, err error) {
	rest, colStr, ok := cutLast(s, ":")
	if !ok {
		return "", 0, 0, fmt.Errorf("invalid position %q: want path:line:col", s)
	}
	path, lineStr, ok := cutLast(rest, ":")
	if !ok || path == "" {
		return "", 0, 0, fmt.Errorf("invalid position %q: want path:line:col", s)
	}
	l, err := strconv.ParseUint(lineStr, 10, 32)
	if err != nil || l == 0 {
		return "", 0, 0, fmt.Errorf("invalid line in %q", s)
	}
	c, err := strconv.ParseUint(colStr, 10, 32)
	if err != nil || c == 0 {
		return "", 0, 0, fmt.Errorf("invalid column in %q", s)
	}
	return path, uint32(l), uint32(c), nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}
