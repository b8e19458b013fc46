package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fortsrc/internal/driver"
)

func newLocateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate [flags] <file|-> [offset...]",
		Short: "Map cooked offsets back to file positions",
		Long: `Locate cooks the input and prints, for each offset into the cooked text,
the provenance and file:line:col it came from. Without offsets every byte
is located.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runLocate,
	}
	cmd.Flags().Int("jobs", 0, "resolve with up to N goroutines (0 = GOMAXPROCS)")
	return cmd
}

func runLocate(cmd *cobra.Command, args []string) error {
	input := args[0]
	s, err := loadSettings(cmd, input)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}

	offsets := make([]uint64, 0, len(args)-1)
	for _, arg := range args[1:] {
		off, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid offset %q: %w", arg, err)
		}
		offsets = append(offsets, off)
	}

	res, err := cookInput(cmd, s, input)
	if err != nil {
		return err
	}
	if len(offsets) == 0 {
		for off := range res.Cooked.Len() {
			offsets = append(offsets, off)
		}
	}

	end := s.timer.Begin("locate")
	locs, err := driver.Locate(cmd.Context(), res.Cooked, offsets, jobs)
	if err != nil {
		end("failed")
		return err
	}
	end(fmt.Sprintf("offsets=%d jobs=%d", len(offsets), jobs))
	defer printTimings(cmd, s)

	out := cmd.OutOrStdout()
	text := res.Cooked.Data()
	for _, loc := range locs {
		// The offset one past the text is valid: it maps to end of source.
		if loc.Offset >= uint64(len(text)) {
			fmt.Fprintf(out, "%s <end>\n", loc)
			continue
		}
		fmt.Fprintf(out, "%s %q\n", loc, text[loc.Offset:loc.Offset+1])
	}
	return nil
}
