package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/qret"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of qret",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "qret version %s\n", strings.TrimSpace(qret.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
