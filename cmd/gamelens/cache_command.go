package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gamelens/internal/apicache"
	"gamelens/internal/config"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the response cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show response cache usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(store *apicache.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, stats)
				}
				printCacheStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
}

func printCacheStats(out io.Writer, stats apicache.Stats) {
	fmt.Fprintf(out, "Path:    %s\n", stats.Path)
	fmt.Fprintf(out, "Entries: %d (%d expired)\n", stats.Entries, stats.Expired)
	fmt.Fprintf(out, "Size:    %s\n", humanBytes(stats.Bytes))
	if len(stats.Sources) == 0 {
		fmt.Fprintln(out, "Cached sources: none")
		return
	}
	rows := make([][]string, 0, len(stats.Sources))
	for _, s := range stats.Sources {
		rows = append(rows, []string{
			s.Source,
			strconv.Itoa(s.Entries),
			strconv.Itoa(s.Expired),
			humanBytes(s.Bytes),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Source", "Entries", "Expired", "Size"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(store *apicache.Store) error {
				removed, err := store.Prune(cmd.Context())
				if err != nil {
					return err
				}
				if removed == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No expired responses to prune")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired responses\n", removed)
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached responses (all, or one source's)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source = config.CanonicalSourceName(source)
			return withCache(ctx, func(store *apicache.Store) error {
				removed, err := store.Clear(cmd.Context(), source)
				if err != nil {
					return err
				}
				scope := "all sources"
				if source != "" {
					scope = source
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached responses (%s)\n", removed, scope)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Only clear responses from this source")
	return cmd
}

// withCache opens the response cache directly; cache maintenance never
// needs source credentials or network access.
func withCache(ctx *commandContext, fn func(*apicache.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Paths.CacheDir) == "" {
		return fmt.Errorf("paths.cache_dir is not configured")
	}
	store, err := apicache.Open(cfg.CacheDBPath())
	if err != nil {
		return fmt.Errorf("open response cache: %w", err)
	}
	defer store.Close()
	return fn(store)
}
