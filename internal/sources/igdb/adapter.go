package igdb

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
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

// Name is the source name IGDB records carry.
const Name = "IGDB"

const (
	listFields    = "name, cover.url, total_rating, first_release_date, platforms.name, game_type"
	detailsFields = "name, cover.url, summary, first_release_date, involved_companies.company.name, " +
		"involved_companies.developer, screenshots.url, total_rating, total_rating_count, aggregated_rating, " +
		"aggregated_rating_count, rating, rating_count, url, platforms.name, game_type"
)

// Options configures the adapter.
type Options struct {
	BaseURL        string
	Tokens         *TokenSource
	HTTPClient     *http.Client
	Cache          apiclient.Cache
	TTL            time.Duration
	Observer       apiclient.CacheObserver
	Logger         *slog.Logger
	SearchLimit    int
	NameMatchLimit int
	ToleranceDays  int
	Now            func() time.Time
}

// Adapter implements sources.Adapter against IGDB.
type Adapter struct {
	client         *apiclient.Client
	tokens         *TokenSource
	logger         *slog.Logger
	searchLimit    int
	nameMatchLimit int
	toleranceDays  int
	now            func() time.Time
}

var _ sources.Adapter = (*Adapter)(nil)

// New builds an IGDB adapter. Tokens is required.
func New(opts Options) (*Adapter, error) {
	if opts.Tokens == nil {
		return nil, ErrCredentialsMissing
	}
	client, err := apiclient.New(apiclient.Config{
		Source:     Name,
		BaseURL:    opts.BaseURL,
		HTTPClient: opts.HTTPClient,
		Authorize:  opts.Tokens.Authorize,
		Cache:      opts.Cache,
		TTL:        opts.TTL,
		Observer:   opts.Observer,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Adapter{
		client:         client,
		tokens:         opts.Tokens,
		logger:         logging.NewComponentLogger(opts.Logger, "igdb"),
		searchLimit:    positiveOr(opts.SearchLimit, 20),
		nameMatchLimit: positiveOr(opts.NameMatchLimit, 5),
		toleranceDays:  positiveOr(opts.ToleranceDays, compat.DefaultToleranceDays),
		now:            now,
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

// Search returns titles with cover art matching query.
func (a *Adapter) Search(ctx context.Context, query string) ([]game.SourceRecord, error) {
	games, err := a.search(ctx, "search", query, a.searchLimit)
	if err != nil {
		return nil, err
	}
	return records(games), nil
}

func (a *Adapter) search(ctx context.Context, operation, query string, limit int) ([]apiGame, error) {
	body := fmt.Sprintf(`search "%s"; fields %s; where cover != null; limit %d;`, escape(query), listFields, limit)
	var games []apiGame
	if err := a.query(ctx, operation, body, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// Details fetches the detail view by IGDB id, or by name and release date
// when no usable id is known.
func (a *Adapter) Details(ctx context.Context, sourceIDs map[string]string, name, releaseDate string) (*game.SourceInfo, error) {
	id := strings.TrimSpace(sourceIDs[Name])
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		matched, err := a.findByName(ctx, name, releaseDate)
		if err != nil {
			return nil, err
		}
		id = matched
	}

	body := fmt.Sprintf("fields %s; where id = %s;", detailsFields, id)
	var games []apiGame
	if err := a.query(ctx, "details", body, &games); err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, services.Wrap(services.ErrNotFound, Name, "details", "no game with id "+id, nil)
	}
	return games[0].info(), nil
}

func (a *Adapter) findByName(ctx context.Context, name, releaseDate string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", services.Wrap(services.ErrNotFound, Name, "details", "no id or name to match", nil)
	}
	games, err := a.search(ctx, "details", name, a.nameMatchLimit)
	if err != nil {
		return "", err
	}
	match, ok := sources.FindMatch(games, name, releaseDate, a.toleranceDays,
		func(g apiGame) string { return g.Name },
		func(g apiGame) string { return g.releaseDate() },
	)
	if !ok {
		return "", services.Wrap(services.ErrNotFound, Name, "details", "no match for "+name, nil)
	}
	return match.id(), nil
}

// Popular returns rated titles ordered by IGDB popularity.
func (a *Adapter) Popular(ctx context.Context, limit int) ([]game.SourceRecord, error) {
	body := fmt.Sprintf("fields %s; sort popularity desc; where cover != null & total_rating != null; limit %d;",
		listFields, positiveOr(limit, 12))
	var games []apiGame
	if err := a.query(ctx, "popular", body, &games); err != nil {
		return nil, err
	}
	return records(games), nil
}

// Recent returns rated titles released before now, newest first. The cutoff
// is truncated to the hour so the response stays cacheable.
func (a *Adapter) Recent(ctx context.Context, limit int) ([]game.SourceRecord, error) {
	cutoff := a.now().Truncate(time.Hour).Unix()
	body := fmt.Sprintf("fields %s; sort first_release_date desc; where first_release_date < %d & cover != null & total_rating != null; limit %d;",
		listFields, cutoff, positiveOr(limit, 4))
	var games []apiGame
	if err := a.query(ctx, "recent", body, &games); err != nil {
		return nil, err
	}
	return records(games), nil
}

// query posts an Apicalypse body to /games. A rejected token is refreshed
// once before giving up.
func (a *Adapter) query(ctx context.Context, operation, body string, out any) error {
	req := apiclient.Request{
		Operation: operation,
		Method:    http.MethodPost,
		Path:      "games",
		Body:      body,
		Header:    http.Header{"Content-Type": []string{"text/plain"}},
	}
	err := a.client.Do(ctx, req, out)
	if apiclient.StatusCode(err) != http.StatusUnauthorized {
		return err
	}
	a.logger.Info("igdb token rejected, refreshing", logging.String("operation", operation))
	a.tokens.Invalidate()
	return a.client.Do(ctx, req, out)
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

func escape(query string) string {
	query = strings.ReplaceAll(query, `\`, `\\`)
	return strings.ReplaceAll(query, `"`, `\"`)
}
