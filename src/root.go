package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "soulwrite",
		Short:         "Write tag edits, renames and moves back to a music library",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Configuration file path")

	rootCmd.AddCommand(newServeCommand(&configPath))
	rootCmd.AddCommand(newPreviewCommand(&configPath))
	rootCmd.AddCommand(newFormatsCommand())

	return rootCmd
}
