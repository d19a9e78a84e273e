package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gamelens/internal/search"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search every enabled source and show merged results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.New("search query is required")
			}
			return withRuntime(cmd.Context(), ctx, func(reqCtx context.Context, rt *runtime) error {
				resp := rt.search.Run(reqCtx, query)
				if limit > 0 && len(resp.Results) > limit {
					resp.Results = resp.Results[:limit]
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				printSearchResponse(cmd, resp)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many results (default: search.max_results)")
	return cmd
}

func printSearchResponse(cmd *cobra.Command, resp search.Response) {
	out := cmd.OutOrStdout()
	if len(resp.Results) == 0 {
		fmt.Fprintf(out, "No results for %q\n", resp.Query)
	} else {
		rows := make([][]string, 0, len(resp.Results))
		for i, r := range resp.Results {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				r.Name,
				orPlaceholder(r.ReleaseDate),
				formatList(r.Platforms),
				formatRating(r.Rating),
				strconv.Itoa(r.Score),
				formatIDs(r.SourceRecord),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"#", "Name", "Released", "Platforms", "Rating", "Score", "IDs"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		))
	}
	for _, status := range resp.Sources {
		if status.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s returned no results: %v\n", status.Source, status.Err)
		}
	}
}
