package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"gamelens/internal/config"
)

type sourceRow struct {
	Name       string `json:"name"`
	Enabled    bool   `json:"enabled"`
	Priority   int    `json:"priority"`
	Primary    bool   `json:"primary"`
	Credential bool   `json:"credentials_configured"`
	BaseURL    string `json:"base_url"`
}

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured sources in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := sourceRows(cfg)
			if ctx.jsonOutput() {
				return writeJSON(cmd, rows)
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				name := r.Name
				if r.Primary {
					name += " (primary)"
				}
				table = append(table, []string{name, yesNo(r.Enabled), strconv.Itoa(r.Priority), yesNo(r.Credential), r.BaseURL})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Source", "Enabled", "Priority", "Credentials", "Base URL"},
				table,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func sourceRows(cfg *config.Config) []sourceRow {
	rows := []sourceRow{
		{
			Name:       config.SourceIGDB,
			Enabled:    cfg.IGDB.Enabled,
			Priority:   cfg.IGDB.Priority,
			Credential: cfg.IGDB.ClientID != "" && cfg.IGDB.ClientSecret != "",
			BaseURL:    cfg.IGDB.BaseURL,
		},
		{
			Name:       config.SourceRAWG,
			Enabled:    cfg.RAWG.Enabled,
			Priority:   cfg.RAWG.Priority,
			Credential: cfg.RAWG.APIKey != "",
			BaseURL:    cfg.RAWG.BaseURL,
		},
		{
			Name:       config.SourceOpenCritic,
			Enabled:    cfg.OpenCritic.Enabled,
			Priority:   cfg.OpenCritic.Priority,
			Credential: cfg.OpenCritic.RapidAPIKey != "",
			BaseURL:    cfg.OpenCritic.BaseURL,
		},
	}
	slices.SortStableFunc(rows, func(a, b sourceRow) int { return a.Priority - b.Priority })
	for i := range rows {
		if rows[i].Enabled {
			rows[i].Primary = true
			break
		}
	}
	return rows
}
