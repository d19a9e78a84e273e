package game

import (
	"maps"
	"slices"
)

// Rating is one normalized (0-100) score reported by a source.
type Rating struct {
	Score   int    `json:"score"`
	Source  string `json:"source"`
	URL     string `json:"url,omitempty"`
	Summary string `json:"summary,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// Screenshot references a single screenshot image.
type Screenshot struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SourceInfo is the detail view a single source returns for a title.
type SourceInfo struct {
	Source      string       `json:"source"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	CoverURL    string       `json:"cover_url,omitempty"`
	Screenshots []Screenshot `json:"screenshots,omitempty"`
	Ratings     []Rating     `json:"ratings"`
	ReleaseDate string       `json:"release_date,omitempty"`
	Developer   string       `json:"developer,omitempty"`
	Platforms   []string     `json:"platforms,omitempty"`
}

// UnifiedGame is the reconciled detail view for one title across sources.
type UnifiedGame struct {
	SourceIDs   map[string]string     `json:"source_ids"`
	Name        string                `json:"name"`
	CoverURL    string                `json:"cover_url"`
	Description string                `json:"description,omitempty"`
	ReleaseDate string                `json:"release_date,omitempty"`
	Developer   string                `json:"developer,omitempty"`
	Platforms   []string              `json:"platforms,omitempty"`
	Sources     map[string]SourceInfo `json:"sources"`
	// SourceOrder lists the keys of Sources in source priority order.
	SourceOrder   []string `json:"source_order"`
	PrimarySource string   `json:"primary_source"`
}

// Clone returns a copy whose maps and slices the caller may modify.
func (g UnifiedGame) Clone() UnifiedGame {
	out := g
	out.SourceIDs = maps.Clone(g.SourceIDs)
	out.Platforms = slices.Clone(g.Platforms)
	out.SourceOrder = slices.Clone(g.SourceOrder)
	if g.Sources != nil {
		out.Sources = make(map[string]SourceInfo, len(g.Sources))
		for name, info := range g.Sources {
			info.Screenshots = slices.Clone(info.Screenshots)
			info.Ratings = slices.Clone(info.Ratings)
			info.Platforms = slices.Clone(info.Platforms)
			out.Sources[name] = info
		}
	}
	return out
}

// Ratings flattens every source's ratings in the given source order.
func (g UnifiedGame) Ratings(order []string) []Rating {
	var out []Rating
	for _, name := range order {
		info, ok := g.Sources[name]
		if !ok {
			continue
		}
		out = append(out, info.Ratings...)
	}
	return out
}
