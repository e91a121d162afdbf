package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"packmule/internal/catalog"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List processed sticker packs",
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

			records, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list catalog: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No packs processed yet")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, r := range records {
				link := r.Link
				if link == "" {
					link = "-"
				}
				rows = append(rows, []string{
					r.Name,
					r.Title,
					strconv.Itoa(r.StickerCount),
					strconv.Itoa(r.TimesProcessed),
					r.LastProcessed.Local().Format("2006-01-02 15:04"),
					link,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Pack", "Title", "Stickers", "Runs", "Last Processed", "Link"},
				rows))
			return nil
		},
	}
}
