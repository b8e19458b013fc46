package main

import (
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file|->",
		Short: "Dump the origin registry, cooked text and both indices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := cookInput(cmd, s, args[0])
			if err != nil {
				return err
			}
			defer printTimings(cmd, s)
			return res.Cooked.Dump(cmd.OutOrStdout())
		},
	}
}
