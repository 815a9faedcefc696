package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rdv.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "All software has versions. This is rdv's:")
			fmt.Fprintln(cmd.OutOrStdout(), "rdv v"+Version)
		},
	}
}
