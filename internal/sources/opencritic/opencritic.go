// Package opencritic adapts the OpenCritic API, reached through RapidAPI, to
// the sources.Adapter contract.
//
// OpenCritic's search endpoint returns bare id/name pairs, so Search keeps
// only hits that score at least MinSearchScore against the query and
// enriches the best few with a detail lookup to learn their release date,
// cover and platforms. Details never searches by name; the free RapidAPI
// tier allows very few search calls per day.
package opencritic

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"gamelens/internal/game"
	"gamelens/internal/logging"
	"gamelens/internal/services"
	"gamelens/internal/sources"
	"gamelens/internal/sources/apiclient"
	"gamelens/internal/textutil"
)

// Name is the source name OpenCritic records carry.
const Name = "OpenCritic"

const (
	// MinSearchScore is the relevance a search hit needs to be kept.
	MinSearchScore = 50
	// DefaultEnrichLimit bounds how many hits receive a detail lookup.
	DefaultEnrichLimit = 5

	rapidAPIHost = "opencritic-api.p.rapidapi.com"
)

// Options configures the adapter.
type Options struct {
	RapidAPIKey string
	BaseURL     string
	EnrichLimit int
	HTTPClient  *http.Client
	Cache       apiclient.Cache
	TTL         time.Duration
	Observer    apiclient.CacheObserver
	Logger      *slog.Logger
}

// Adapter implements sources.Adapter against OpenCritic.
type Adapter struct {
	client      *apiclient.Client
	logger      *slog.Logger
	enrichLimit int
}

var _ sources.Adapter = (*Adapter)(nil)

// New builds an OpenCritic adapter.
func New(opts Options) (*Adapter, error) {
	key := strings.TrimSpace(opts.RapidAPIKey)
	if key == "" {
		return nil, services.Wrap(services.ErrConfiguration, Name, "init", "rapidapi key is required (set OPENCRITIC_RAPIDAPI_KEY)", nil)
	}
	host := rapidAPIHost
	if parsed, err := url.Parse(opts.BaseURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}
	client, err := apiclient.New(apiclient.Config{
		Source:     Name,
		BaseURL:    opts.BaseURL,
		HTTPClient: opts.HTTPClient,
		Header: http.Header{
			"X-Rapidapi-Host": []string{host},
			"X-Rapidapi-Key":  []string{key},
		},
		Cache:    opts.Cache,
		TTL:      opts.TTL,
		Observer: opts.Observer,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	limit := opts.EnrichLimit
	if limit <= 0 {
		limit = DefaultEnrichLimit
	}
	return &Adapter{
		client:      client,
		logger:      logging.NewComponentLogger(opts.Logger, "opencritic"),
		enrichLimit: limit,
	}, nil
}

// Name implements sources.Searcher.
func (a *Adapter) Name() string { return Name }

type scoredHit struct {
	hit   searchHit
	score int
}

// Search scores OpenCritic's hits against query, keeps the best
// EnrichLimit with a score of at least MinSearchScore, and enriches each
// with its detail record. A failed enrichment falls back to the bare hit.
func (a *Adapter) Search(ctx context.Context, query string) ([]game.SourceRecord, error) {
	var hits []searchHit
	err := a.client.Do(ctx, apiclient.Request{
		Operation: "search",
		Path:      "game/search",
		Query:     url.Values{"criteria": []string{query}},
	}, &hits)
	if err != nil {
		return nil, err
	}

	scored := make([]scoredHit, 0, len(hits))
	for _, h := range hits {
		if strings.TrimSpace(h.Name) == "" {
			continue
		}
		if score := textutil.Score(query, h.Name); score >= MinSearchScore {
			scored = append(scored, scoredHit{hit: h, score: score})
		}
	}
	slices.SortStableFunc(scored, func(x, y scoredHit) int { return y.score - x.score })
	if len(scored) > a.enrichLimit {
		scored = scored[:a.enrichLimit]
	}

	out := make([]game.SourceRecord, len(scored))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range scored {
		g.Go(func() error {
			full, err := a.game(gctx, "enrich", s.hit.ID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Debug("opencritic enrichment failed, using bare result",
					logging.Int64("opencritic_id", s.hit.ID),
					logging.Error(err),
				)
				out[i] = game.NewSourceRecord(Name, strconv.FormatInt(s.hit.ID, 10), s.hit.Name)
				return nil
			}
			out[i] = full.record()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Adapter) game(ctx context.Context, operation string, id int64) (apiGame, error) {
	var g apiGame
	err := a.client.Do(ctx, apiclient.Request{
		Operation: operation,
		Path:      "game/" + strconv.FormatInt(id, 10),
	}, &g)
	if err != nil {
		return apiGame{}, err
	}
	if g.ID == 0 && g.Name == "" {
		return apiGame{}, services.Wrap(services.ErrNotFound, Name, operation, "empty game payload", nil)
	}
	return g, nil
}

// Details fetches the detail view for the OpenCritic id in sourceIDs.
// Without one the title is reported as not found.
func (a *Adapter) Details(ctx context.Context, sourceIDs map[string]string, name, _ string) (*game.SourceInfo, error) {
	raw := strings.TrimSpace(sourceIDs[Name])
	id, err := strconv.ParseInt(raw, 10, 64)
	if raw == "" || err != nil {
		return nil, services.Wrap(services.ErrNotFound, Name, "details", "no opencritic id for "+name, nil)
	}
	g, err := a.game(ctx, "details", id)
	if err != nil {
		return nil, err
	}
	return g.info(), nil
}

// Popular returns OpenCritic's popular list.
func (a *Adapter) Popular(ctx context.Context, limit int) ([]game.SourceRecord, error) {
	return a.list(ctx, "popular", "game/popular", limit)
}

// Recent returns OpenCritic's recently released list.
func (a *Adapter) Recent(ctx context.Context, limit int) ([]game.SourceRecord, error) {
	return a.list(ctx, "recent", "game/recently-released", limit)
}

func (a *Adapter) list(ctx context.Context, operation, path string, limit int) ([]game.SourceRecord, error) {
	var games []apiGame
	if err := a.client.Do(ctx, apiclient.Request{Operation: operation, Path: path}, &games); err != nil {
		return nil, err
	}
	out := make([]game.SourceRecord, 0, len(games))
	for _, g := range games {
		if strings.TrimSpace(g.Name) == "" {
			continue
		}
		out = append(out, g.record())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
