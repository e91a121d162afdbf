package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"packmule/internal/linkcache"
	"packmule/internal/logging"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Republish link cache utilities",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached republish links",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(ctx)
			if err != nil {
				return err
			}

			entries := cache.List()
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Link cache is empty")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Pack, e.Link})
			}
			fmt.Fprintln(out, renderTable([]string{"Pack", "Link"}, rows))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached republish links",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(ctx)
			if err != nil {
				return err
			}

			count := cache.Count()
			if err := cache.Clear(); err != nil {
				return fmt.Errorf("clear link cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached link(s)\n", count)
			return nil
		},
	}
}

func openCache(ctx *commandContext) (*linkcache.Cache, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return linkcache.NewCache(cfg.LinkCache.Path, logging.NewNop()), nil
}
