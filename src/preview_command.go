package main

import (
	"fmt"
	"path/filepath"

	"github.com/contre95/soulwrite/src/features/config"
	"github.com/contre95/soulwrite/src/features/naming"
	"github.com/contre95/soulwrite/src/features/organizing"
	"github.com/contre95/soulwrite/src/infra/files"
	"github.com/contre95/soulwrite/src/infra/tag"
	"github.com/contre95/soulwrite/src/music"
	"github.com/spf13/cobra"
)

func newPreviewCommand(configPath *string) *cobra.Command {
	var dirFlag, renameFlag string

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show where a file would be renamed or moved to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgManager, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg := cfgManager.Get()

			if dirFlag == "" {
				dirFlag = cfg.Naming.DirectoryFormat
			}
			if renameFlag == "" {
				renameFlag = cfg.Naming.RenameFormat
			}
			dir, err := naming.ParseDirectoryFormat(dirFlag)
			if err != nil {
				return err
			}
			rename, err := naming.ParseRenameFormat(renameFlag)
			if err != nil {
				return err
			}

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			fields, err := tag.NewTagReader().ReadFileTags(cmd.Context(), path)
			if err != nil {
				return err
			}
			track := music.NewTrack("", path, fields)

			catalog := naming.NewCatalog(naming.Options{Asciify: cfg.Naming.Asciify})
			engine := organizing.NewEngine(files.NewFileSystem(), catalog, nil, organizing.Options{
				LibraryRoot:     cfg.LibraryPath,
				DirectoryFormat: dir,
			})

			rows := [][]string{}
			for _, o := range catalog.AllRenames(track) {
				rows = append(rows, []string{"rename", o.Format, o.Value})
			}
			for _, o := range catalog.AllDirectoryFormats(track) {
				rows = append(rows, []string{"directory", o.Format, o.Value})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Kind", "Format", "Result"}, rows))
			fmt.Fprintf(out, "Final path (%s, %s): %s\n", dir, rename, engine.PreviewFinalPath(track, dir, rename))
			return nil
		},
	}

	cmd.Flags().StringVar(&dirFlag, "dir", "", "Directory format (defaults to the configured one)")
	cmd.Flags().StringVar(&renameFlag, "rename", "", "Rename format (defaults to the configured one)")
	return cmd
}
