package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gamelens/internal/game"
)

const placeholder = "-"

func orPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}

func formatRating(rating *int) string {
	if rating == nil {
		return placeholder
	}
	return strconv.Itoa(*rating)
}

func formatList(values []string) string {
	if len(values) == 0 {
		return placeholder
	}
	return strings.Join(values, ", ")
}

func recordRows(records []game.SourceRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Name,
			orPlaceholder(r.ReleaseDate),
			formatList(r.Platforms),
			formatRating(r.Rating),
			formatIDs(r),
		})
	}
	return rows
}

// formatIDs renders source ids in the order the sources contributed, e.g.
// "IGDB:1942 RAWG:3328". These are the values "gamelens show" accepts.
func formatIDs(r game.SourceRecord) string {
	parts := make([]string, 0, len(r.Sources))
	for _, source := range r.Sources {
		if id := r.SourceIDs[source]; id != "" {
			parts = append(parts, source+":"+id)
		}
	}
	if len(parts) == 0 {
		return placeholder
	}
	return strings.Join(parts, " ")
}

func printRecords(out io.Writer, records []game.SourceRecord, source string) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No games found")
		return
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Name", "Released", "Platforms", "Rating", "IDs"},
		recordRows(records),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	if source != "" {
		fmt.Fprintf(out, "Source: %s\n", source)
	}
}

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}
	div, exp := int64(unit), 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(v)/float64(div), "KMGTPE"[exp])
}
