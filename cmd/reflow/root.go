package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reflow",
	Short: "Reflow CLI runs demo pipelines and inspection tooling.",
	Long: `Reflow CLI can perform common tasks related to developing ` +
		`applications with the Reflow pipeline. It currently provides a ` +
		`demo pipeline runner with optional monitoring and trace recording.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
