package main

import (
	"os"

	"github.com/cottand/narrow/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "narrow [subcommand]",
	Short:        "narrow computes the type of variables on each branch of a condition",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.CheckCmd)
	rootCmd.AddCommand(cmd.EvalCmd)
}
