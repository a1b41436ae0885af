package main

import (
	"fmt"

	"github.com/contre95/soulwrite/src/features/naming"
	"github.com/spf13/cobra"
)

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the rename and directory formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			renames := make([][]string, 0)
			for _, f := range naming.RenameFormats() {
				renames = append(renames, []string{string(f), naming.RenameLabel(f)})
			}
			dirs := make([][]string, 0)
			for _, f := range naming.DirectoryFormats() {
				dirs = append(dirs, []string{string(f), naming.DirectoryLabel(f)})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Rename formats")
			fmt.Fprintln(out, renderTable([]string{"Format", "Example"}, renames))
			fmt.Fprintln(out, "Directory formats")
			fmt.Fprintln(out, renderTable([]string{"Format", "Example"}, dirs))
			return nil
		},
	}
}
