package opencritic

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gamelens/internal/compat"
	"gamelens/internal/game"
	"gamelens/internal/sources"
)

const imageBaseURL = "https://img.opencritic.com/"

type imageVariants struct {
	OG string `json:"og"`
	SM string `json:"sm"`
}

type screenshot struct {
	ID string `json:"_id"`
	OG string `json:"og"`
	SM string `json:"sm"`
}

type images struct {
	Box         *imageVariants `json:"box"`
	Square      *imageVariants `json:"square"`
	Masthead    *imageVariants `json:"masthead"`
	Screenshots []screenshot   `json:"screenshots"`
}

type platform struct {
	Name string `json:"name"`
}

type companyRef struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// apiGame covers both GET /game/{id} and the list endpoints; list items
// simply leave the detail fields empty.
type apiGame struct {
	ID                  int64        `json:"id"`
	Name                string       `json:"name"`
	Description         string       `json:"description"`
	URL                 string       `json:"url"`
	TopCriticScore      float64      `json:"topCriticScore"`
	PercentRecommended  float64      `json:"percentRecommended"`
	MedianScore         float64      `json:"medianScore"`
	NumReviews          int          `json:"numReviews"`
	NumTopCriticReviews int          `json:"numTopCriticReviews"`
	FirstReleaseDate    string       `json:"firstReleaseDate"`
	Images              *images      `json:"images"`
	Companies           []companyRef `json:"Companies"`
	Platforms           []platform   `json:"Platforms"`
}

type searchHit struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Dist float64 `json:"dist"`
}

func imageURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "http") && !strings.HasPrefix(path, "//") {
		path = imageBaseURL + strings.TrimPrefix(path, "/")
	}
	return sources.FormatImageURL(path, "", "")
}

// coverURL prefers the square art, then the box art, then the masthead.
func (g apiGame) coverURL() string {
	if g.Images == nil {
		return ""
	}
	for _, v := range []*imageVariants{g.Images.Square, g.Images.Box, g.Images.Masthead} {
		if v != nil && v.OG != "" {
			return imageURL(v.OG)
		}
	}
	return ""
}

func (g apiGame) releaseDate() string {
	t, ok := compat.ParseDate(g.FirstReleaseDate)
	if !ok {
		return ""
	}
	return t.UTC().Format("2006-01-02")
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

func (g apiGame) developer() string {
	for _, c := range g.Companies {
		if strings.EqualFold(c.Type, "DEVELOPER") {
			return c.Name
		}
	}
	return ""
}

func (g apiGame) gameURL() string {
	if g.URL != "" {
		return g.URL
	}
	return fmt.Sprintf("https://opencritic.com/game/%d", g.ID)
}

func (g apiGame) record() game.SourceRecord {
	r := game.NewSourceRecord(Name, strconv.FormatInt(g.ID, 10), g.Name)
	if cover := g.coverURL(); cover != "" {
		r.Cover = &game.Cover{URL: cover, Source: Name}
	}
	r.ReleaseDate = g.releaseDate()
	if g.TopCriticScore > 0 {
		r.Rating = game.IntPtr(int(math.Round(g.TopCriticScore)))
	}
	r.Platforms = g.platformNames()
	return r
}

func (g apiGame) ratings() []game.Rating {
	ratings := make([]game.Rating, 0, 3)
	link := g.gameURL()
	add := func(score float64, count int, label, summary string) {
		if score <= 0 {
			return
		}
		ratings = append(ratings, game.Rating{
			Score:   int(math.Round(score)),
			Source:  label,
			URL:     link,
			Summary: summary,
			Count:   count,
		})
	}
	add(g.TopCriticScore, g.NumTopCriticReviews, "OpenCritic Top Critics", "Average score from top gaming publications.")
	add(g.MedianScore, g.NumReviews, "OpenCritic Median", "Median score from all critic reviews.")
	add(g.PercentRecommended, g.NumReviews, "OpenCritic Recommended", "Percentage of critics who recommend this game.")
	return ratings
}

func (g apiGame) screenshots() []game.Screenshot {
	if g.Images == nil {
		return nil
	}
	shots := make([]game.Screenshot, 0, len(g.Images.Screenshots))
	for i, s := range g.Images.Screenshots {
		path := s.OG
		if path == "" {
			path = s.SM
		}
		if path == "" {
			continue
		}
		id := s.ID
		if id == "" {
			id = fmt.Sprintf("oc-screenshot-%d", i)
		}
		shots = append(shots, game.Screenshot{ID: id, URL: imageURL(path)})
	}
	return shots
}

func (g apiGame) info() *game.SourceInfo {
	return &game.SourceInfo{
		Source:      Name,
		Name:        g.Name,
		Description: g.Description,
		CoverURL:    g.coverURL(),
		Screenshots: g.screenshots(),
		Ratings:     g.ratings(),
		ReleaseDate: g.releaseDate(),
		Developer:   g.developer(),
		Platforms:   g.platformNames(),
	}
}
