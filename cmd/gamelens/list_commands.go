package main

import (
	"context"

	"github.com/spf13/cobra"

	"gamelens/internal/game"
)

type listOutput struct {
	Source string              `json:"source"`
	Games  []game.SourceRecord `json:"games"`
}

func newPopularCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "popular",
		Short: "List popular games from the primary source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), ctx, func(reqCtx context.Context, rt *runtime) error {
				n := limit
				if n <= 0 {
					n = rt.cfg.Search.PopularLimit
				}
				records, source, err := rt.catalog.Popular(reqCtx, n)
				if err != nil {
					return err
				}
				return writeList(cmd, ctx, records, source)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of games to list (default: search.popular_limit)")
	return cmd
}

func newNewCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "new",
		Aliases: []string{"recent"},
		Short:   "List recently released games from the primary source",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), ctx, func(reqCtx context.Context, rt *runtime) error {
				n := limit
				if n <= 0 {
					n = rt.cfg.Search.NewLimit
				}
				records, source, err := rt.catalog.Recent(reqCtx, n)
				if err != nil {
					return err
				}
				return writeList(cmd, ctx, records, source)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of games to list (default: search.new_limit)")
	return cmd
}

func writeList(cmd *cobra.Command, ctx *commandContext, records []game.SourceRecord, source string) error {
	if ctx.jsonOutput() {
		if records == nil {
			records = []game.SourceRecord{}
		}
		return writeJSON(cmd, listOutput{Source: source, Games: records})
	}
	printRecords(cmd.OutOrStdout(), records, source)
	return nil
}
