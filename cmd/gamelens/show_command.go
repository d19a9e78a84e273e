package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gamelens/internal/catalog"
	"gamelens/internal/config"
	"gamelens/internal/game"
)

const descriptionPreview = 600

type showOutput struct {
	Game    game.UnifiedGame  `json:"game"`
	Details []game.SourceInfo `json:"details"`
	Ratings []game.Rating     `json:"ratings"`
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var ids []string
	var releaseDate string
	var full bool

	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show the reconciled details for one game",
		Long: "Show fetches a game's details from every enabled source and reconciles them.\n" +
			"Identify the game with --id SOURCE:ID (as printed by search) and/or by name;\n" +
			"sources without an id look the game up by name and --date.",
		Example: "  gamelens show --id IGDB:1942 --id RAWG:3328\n  gamelens show \"Hollow Knight\" --date 2017-02-24",
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceIDs, err := parseSourceIDs(ids)
			if err != nil {
				return err
			}
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" && len(sourceIDs) == 0 {
				return errors.New("provide a game name or at least one --id SOURCE:ID")
			}
			return withRuntime(cmd.Context(), ctx, func(reqCtx context.Context, rt *runtime) error {
				unified, err := rt.catalog.Game(reqCtx, sourceIDs, name, strings.TrimSpace(releaseDate))
				if err != nil {
					return err
				}
				details := catalog.FilterSources(*unified, rt.cfg.Preferences.Details)
				var ratings []game.Rating
				for _, info := range catalog.FilterSources(*unified, rt.cfg.Preferences.Ratings) {
					ratings = append(ratings, info.Ratings...)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, showOutput{Game: *unified, Details: details, Ratings: ratings})
				}
				printGame(cmd.OutOrStdout(), unified, details, ratings, full)
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&ids, "id", nil, "Source id as SOURCE:ID; repeat for several sources")
	cmd.Flags().StringVar(&releaseDate, "date", "", "Release date (YYYY-MM-DD) used when matching by name")
	cmd.Flags().BoolVar(&full, "full", false, "Print the full description")
	return cmd
}

func parseSourceIDs(values []string) (map[string]string, error) {
	ids := make(map[string]string, len(values))
	for _, value := range values {
		source, id, ok := strings.Cut(value, ":")
		source = config.CanonicalSourceName(source)
		id = strings.TrimSpace(id)
		if !ok || source == "" || id == "" {
			return nil, fmt.Errorf("invalid --id %q (expected SOURCE:ID, e.g. IGDB:1942)", value)
		}
		ids[source] = id
	}
	return ids, nil
}

func printGame(out io.Writer, g *game.UnifiedGame, details []game.SourceInfo, ratings []game.Rating, full bool) {
	fmt.Fprintln(out, g.Name)
	fmt.Fprintln(out, strings.Repeat("=", len(g.Name)))
	fmt.Fprintf(out, "Released:   %s\n", orPlaceholder(g.ReleaseDate))
	fmt.Fprintf(out, "Developer:  %s\n", orPlaceholder(g.Developer))
	fmt.Fprintf(out, "Platforms:  %s\n", formatList(g.Platforms))
	fmt.Fprintf(out, "Cover:      %s\n", g.CoverURL)
	fmt.Fprintf(out, "Sources:    %s (primary %s)\n", formatList(g.SourceOrder), g.PrimarySource)

	if desc := strings.TrimSpace(g.Description); desc != "" {
		if !full && len(desc) > descriptionPreview {
			desc = strings.TrimSpace(desc[:descriptionPreview]) + "... (use --full for more)"
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, desc)
	}

	if len(ratings) > 0 {
		rows := make([][]string, 0, len(ratings))
		for _, r := range ratings {
			count := placeholder
			if r.Count > 0 {
				count = strconv.Itoa(r.Count)
			}
			rows = append(rows, []string{r.Source, strconv.Itoa(r.Score), count, orPlaceholder(r.URL)})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(
			[]string{"Rating", "Score", "Reviews", "URL"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
		))
	}

	if len(details) > 0 {
		rows := make([][]string, 0, len(details))
		for _, info := range details {
			rows = append(rows, []string{
				info.Source,
				orPlaceholder(info.Name),
				orPlaceholder(info.ReleaseDate),
				orPlaceholder(info.Developer),
				strconv.Itoa(len(info.Screenshots)),
			})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(
			[]string{"Source", "Name", "Released", "Developer", "Screenshots"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
		))
	}
}
