package igdb

import (
	"strconv"
	"strings"

	"gamelens/internal/game"
	"gamelens/internal/sources"
)

type image struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

type company struct {
	Company struct {
		Name string `json:"name"`
	} `json:"company"`
	Developer bool `json:"developer"`
}

type apiGame struct {
	ID                    int64   `json:"id"`
	Name                  string  `json:"name"`
	Cover                 *image  `json:"cover"`
	Summary               string  `json:"summary"`
	FirstReleaseDate      int64   `json:"first_release_date"`
	TotalRating           float64 `json:"total_rating"`
	TotalRatingCount      int     `json:"total_rating_count"`
	AggregatedRating      float64 `json:"aggregated_rating"`
	AggregatedRatingCount int     `json:"aggregated_rating_count"`
	Rating                float64 `json:"rating"`
	RatingCount           int     `json:"rating_count"`
	URL                   string  `json:"url"`
	Platforms             []struct {
		Name string `json:"name"`
	} `json:"platforms"`
	GameType          *int      `json:"game_type"`
	InvolvedCompanies []company `json:"involved_companies"`
	Screenshots       []image   `json:"screenshots"`
}

// kindFromGameType maps IGDB's game_type enum.
func kindFromGameType(gameType *int) game.ReleaseKind {
	if gameType == nil {
		return game.KindUnknown
	}
	switch *gameType {
	case 0, 8, 9, 10, 11: // main game, remake, remaster, expanded game, port
		return game.KindBaseGame
	case 1:
		return game.KindDLC
	case 2, 4: // expansion, standalone expansion
		return game.KindExpansion
	case 3:
		return game.KindBundle
	default:
		return game.KindUnknown
	}
}

func (g apiGame) id() string { return strconv.FormatInt(g.ID, 10) }

func (g apiGame) releaseDate() string { return sources.UnixToISODate(g.FirstReleaseDate) }

func (g apiGame) coverURL() string {
	if g.Cover == nil {
		return ""
	}
	return sources.FormatImageURL(g.Cover.URL, "t_thumb", "t_cover_big")
}

func (g apiGame) platformNames() []string {
	names := make([]string, 0, len(g.Platforms))
	for _, p := range g.Platforms {
		if name := strings.TrimSpace(p.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (g apiGame) record() game.SourceRecord {
	r := game.NewSourceRecord(Name, g.id(), g.Name)
	if cover := g.coverURL(); cover != "" {
		r.Cover = &game.Cover{URL: cover, Source: Name}
	}
	r.ReleaseDate = g.releaseDate()
	if g.TotalRating > 0 {
		r.Rating = game.IntPtr(sources.NormalizeRating(g.TotalRating, 100))
	}
	r.Platforms = g.platformNames()
	r.Kind = kindFromGameType(g.GameType)
	return r
}

func (g apiGame) developer() string {
	for _, c := range g.InvolvedCompanies {
		if c.Developer && c.Company.Name != "" {
			return c.Company.Name
		}
	}
	for _, c := range g.InvolvedCompanies {
		if c.Company.Name != "" {
			return c.Company.Name
		}
	}
	return ""
}

func (g apiGame) ratings() []game.Rating {
	ratings := make([]game.Rating, 0, 3)
	add := func(score float64, count int, label, summary string) {
		if score <= 0 {
			return
		}
		ratings = append(ratings, game.Rating{
			Score:   sources.NormalizeRating(score, 100),
			Source:  label,
			URL:     g.URL,
			Summary: summary,
			Count:   count,
		})
	}
	add(g.TotalRating, g.TotalRatingCount, "IGDB Aggregate", "Weighted average of critic and user scores.")
	add(g.AggregatedRating, g.AggregatedRatingCount, "IGDB Critics", "Aggregated score from external critics.")
	add(g.Rating, g.RatingCount, "IGDB Users", "Average score submitted by IGDB community members.")
	return ratings
}

func (g apiGame) info() *game.SourceInfo {
	shots := make([]game.Screenshot, 0, len(g.Screenshots))
	for _, s := range g.Screenshots {
		if s.URL == "" {
			continue
		}
		shots = append(shots, game.Screenshot{
			ID:  strconv.FormatInt(s.ID, 10),
			URL: sources.FormatImageURL(s.URL, "t_thumb", "t_screenshot_big"),
		})
	}
	return &game.SourceInfo{
		Source:      Name,
		Name:        g.Name,
		Description: g.Summary,
		CoverURL:    g.coverURL(),
		Screenshots: shots,
		Ratings:     g.ratings(),
		ReleaseDate: g.releaseDate(),
		Developer:   g.developer(),
		Platforms:   g.platformNames(),
	}
}
