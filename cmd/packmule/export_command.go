package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"packmule/internal/catalog"
	"packmule/internal/config"
	"packmule/internal/fileutil"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <pack> <directory>",
		Short: "Copy a processed pack's archive to a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			record, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					return fmt.Errorf("pack %q has not been processed; send its sticker to the bot first", args[0])
				}
				return fmt.Errorf("look up pack: %w", err)
			}
			if _, err := os.Stat(record.ArchivePath); err != nil {
				return fmt.Errorf("archive %s is missing; re-send the sticker to rebuild it", record.ArchivePath)
			}

			targetDir, err := config.ExpandPath(args[1])
			if err != nil {
				return fmt.Errorf("resolve target directory: %w", err)
			}
			if err := os.MkdirAll(targetDir, 0o755); err != nil {
				return fmt.Errorf("create target directory: %w", err)
			}

			target := filepath.Join(targetDir, filepath.Base(record.ArchivePath))
			if err := fileutil.CopyFile(record.ArchivePath, target); err != nil {
				return fmt.Errorf("copy archive: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", record.Name, target)
			return nil
		},
	}
}
