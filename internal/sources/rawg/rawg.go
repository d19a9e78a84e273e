// Package rawg adapts the RAWG video game database API to the
// sources.Adapter contract. RAWG's 0-5 community rating is rescaled to
// 0-100; a Metacritic score, when RAWG has one, takes precedence.
package rawg

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gamelens/internal/compat"
	"gamelens/internal/game"
	"gamelens/internal/logging"
	"gamelens/internal/services"
	"gamelens/internal/sources"
	"gamelens/internal/sources/apiclient"
)

// Name is the source name RAWG records carry.
const Name = "RAWG"

const ratingScale = 5

// Options configures the adapter.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Cache          apiclient.Cache
	TTL            time.Duration
	Observer       apiclient.CacheObserver
	Logger         *slog.Logger
	SearchLimit    int
	NameMatchLimit int
	ToleranceDays  int
}

// Adapter implements sources.Adapter against RAWG.
type Adapter struct {
	client         *apiclient.Client
	apiKey         string
	logger         *slog.Logger
	searchLimit    int
	nameMatchLimit int
	toleranceDays  int
}

var _ sources.Adapter = (*Adapter)(nil)

type platformRef struct {
	Platform struct {
		Name string `json:"name"`
	} `json:"platform"`
}

type apiGame struct {
	ID              int64         `json:"id"`
	Slug            string        `json:"slug"`
	Name            string        `json:"name"`
	Released        string        `json:"released"`
	BackgroundImage string        `json:"background_image"`
	Rating          float64       `json:"rating"`
	RatingsCount    int           `json:"ratings_count"`
	Metacritic      int           `json:"metacritic"`
	Platforms       []platformRef `json:"platforms"`
	Description     string        `json:"description"`
	DescriptionRaw  string        `json:"description_raw"`
	Developers      []struct {
		Name string `json:"name"`
	} `json:"developers"`
	ParentsCount int `json:"parents_count"`
}

type listResponse struct {
	Count   int       `json:"count"`
	Results []apiGame `json:"results"`
}

type screenshotResponse struct {
	Results []struct {
		ID    int64  `json:"id"`
		Image string `json:"image"`
	} `json:"results"`
}

// New builds a RAWG adapter.
func New(opts Options) (*Adapter, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, services.Wrap(services.ErrConfiguration, Name, "init", "api key is required (set RAWG_API_KEY)", nil)
	}
	client, err := apiclient.New(apiclient.Config{
		Source:     Name,
		BaseURL:    opts.BaseURL,
		HTTPClient: opts.HTTPClient,
		Cache:      opts.Cache,
		TTL:        opts.TTL,
		Observer:   opts.Observer,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{
		client:         client,
		apiKey:         key,
		logger:         logging.NewComponentLogger(opts.Logger, "rawg"),
		searchLimit:    positiveOr(opts.SearchLimit, 20),
		nameMatchLimit: positiveOr(opts.NameMatchLimit, 5),
		toleranceDays:  positiveOr(opts.ToleranceDays, compat.DefaultToleranceDays),
	}, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Name implements sources.Searcher.
func (a *Adapter) Name() string { return Name }

// Search returns RAWG's matches for query.
func (a *Adapter) Search(ctx context.Context, query string) ([]game.SourceRecord, error) {
	resp, err := a.list(ctx, "search", url.Values{
		"search":    []string{query},
		"page_size": []string{strconv.Itoa(a.searchLimit)},
	})
	if err != nil {
		return nil, err
	}
	return records(resp.Results), nil
}

// Popular returns titles ordered by Metacritic score.
func (a *Adapter) Popular(ctx context.Context, limit int) ([]game.SourceRecord, error) {
	return a.ranked(ctx, "popular", "-metacritic", positiveOr(limit, 12))
}

// Recent returns titles ordered by release date, newest first.
func (a *Adapter) Recent(ctx context.Context, limit int) ([]game.SourceRecord, error) {
	return a.ranked(ctx, "recent", "-released", positiveOr(limit, 4))
}

func (a *Adapter) ranked(ctx context.Context, operation, ordering string, limit int) ([]game.SourceRecord, error) {
	resp, err := a.list(ctx, operation, url.Values{
		"ordering":  []string{ordering},
		"page_size": []string{strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}
	return records(resp.Results), nil
}

func (a *Adapter) list(ctx context.Context, operation string, params url.Values) (listResponse, error) {
	var resp listResponse
	err := a.get(ctx, operation, "games", params, &resp)
	return resp, err
}

func (a *Adapter) get(ctx context.Context, operation, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", a.apiKey)
	return a.client.Do(ctx, apiclient.Request{
		Operation: operation,
		Method:    http.MethodGet,
		Path:      path,
		Query:     params,
	}, out)
}

// Details fetches the detail view by RAWG id, or by name and release date
// when no id is known. Screenshot failures leave the list empty.
func (a *Adapter) Details(ctx context.Context, sourceIDs map[string]string, name, releaseDate string) (*game.SourceInfo, error) {
	id := strings.TrimSpace(sourceIDs[Name])
	if id == "" {
		matched, err := a.findByName(ctx, name, releaseDate)
		if err != nil {
			return nil, err
		}
		id = matched
	}

	var g apiGame
	if err := a.get(ctx, "details", "games/"+url.PathEscape(id), nil, &g); err != nil {
		return nil, err
	}
	if g.ID == 0 && g.Name == "" {
		return nil, services.Wrap(services.ErrNotFound, Name, "details", "empty game payload for "+id, nil)
	}

	info := &game.SourceInfo{
		Source:      Name,
		Name:        g.Name,
		Description: firstNonEmpty(g.DescriptionRaw, g.Description),
		CoverURL:    sources.FormatImageURL(g.BackgroundImage, "", ""),
		Screenshots: a.screenshots(ctx, id),
		Ratings:     g.ratings(),
		ReleaseDate: g.Released,
		Platforms:   g.platformNames(),
	}
	if len(g.Developers) > 0 {
		info.Developer = g.Developers[0].Name
	}
	return info, nil
}

func (a *Adapter) findByName(ctx context.Context, name, releaseDate string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", services.Wrap(services.ErrNotFound, Name, "details", "no id or name to match", nil)
	}
	resp, err := a.list(ctx, "details", url.Values{
		"search":    []string{name},
		"page_size": []string{strconv.Itoa(a.nameMatchLimit)},
	})
	if err != nil {
		return "", err
	}
	match, ok := sources.FindMatch(resp.Results, name, releaseDate, a.toleranceDays,
		func(g apiGame) string { return g.Name },
		func(g apiGame) string { return g.Released },
	)
	if !ok {
		return "", services.Wrap(services.ErrNotFound, Name, "details", "no match for "+name, nil)
	}
	return strconv.FormatInt(match.ID, 10), nil
}

func (a *Adapter) screenshots(ctx context.Context, id string) []game.Screenshot {
	var resp screenshotResponse
	if err := a.get(ctx, "screenshots", "games/"+url.PathEscape(id)+"/screenshots", nil, &resp); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, a.logger), "rawg screenshots unavailable", "rawg_screenshots_failed",
			logging.String("rawg_id", id),
			logging.Error(err),
			logging.String(logging.FieldImpact, "details shown without RAWG screenshots"),
		)
		return nil
	}
	shots := make([]game.Screenshot, 0, len(resp.Results))
	for _, s := range resp.Results {
		if s.Image == "" {
			continue
		}
		shots = append(shots, game.Screenshot{ID: strconv.FormatInt(s.ID, 10), URL: s.Image})
	}
	return shots
}

func (g apiGame) platformNames() []string {
	names := make([]string, 0, len(g.Platforms))
	for _, p := range g.Platforms {
		if name := strings.TrimSpace(p.Platform.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (g apiGame) kind() game.ReleaseKind {
	if g.ParentsCount > 0 {
		return game.KindDLC
	}
	return game.KindBaseGame
}

func (g apiGame) record() game.SourceRecord {
	r := game.NewSourceRecord(Name, strconv.FormatInt(g.ID, 10), g.Name)
	if cover := sources.FormatImageURL(g.BackgroundImage, "", ""); cover != "" {
		r.Cover = &game.Cover{URL: cover, Source: Name}
	}
	r.ReleaseDate = g.Released
	switch {
	case g.Metacritic > 0:
		r.Rating = game.IntPtr(g.Metacritic)
	case g.Rating > 0:
		r.Rating = game.IntPtr(sources.NormalizeRating(g.Rating, ratingScale))
	}
	r.Platforms = g.platformNames()
	r.Kind = g.kind()
	return r
}

func (g apiGame) ratings() []game.Rating {
	ratings := make([]game.Rating, 0, 2)
	if g.Metacritic > 0 {
		ratings = append(ratings, game.Rating{
			Score:   g.Metacritic,
			Source:  "Metacritic",
			URL:     "https://www.metacritic.com/search/game/" + url.PathEscape(g.Name) + "/results",
			Summary: "Aggregated review score from critics.",
		})
	}
	if g.Rating > 0 {
		ratings = append(ratings, game.Rating{
			Score:   sources.NormalizeRating(g.Rating, ratingScale),
			Source:  "RAWG Users",
			Summary: "Average rating from RAWG community.",
			Count:   g.RatingsCount,
		})
	}
	return ratings
}

func records(games []apiGame) []game.SourceRecord {
	out := make([]game.SourceRecord, 0, len(games))
	for _, g := range games {
		if strings.TrimSpace(g.Name) == "" {
			continue
		}
		out = append(out, g.record())
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
