package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	monkeytools "github.com/inf-monkeys/monkey-tools-text"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of monkeytools",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "monkeytools version %s\n", strings.TrimSpace(monkeytools.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
