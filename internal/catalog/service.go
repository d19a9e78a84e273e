package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"gamelens/internal/game"
	"gamelens/internal/logging"
	"gamelens/internal/requestscope"
	"gamelens/internal/services"
	"gamelens/internal/sources"
)

// Defaults for a detail view with no usable source value.
const (
	DefaultName     = "Unknown Game"
	DefaultCoverURL = "/placeholder-game.jpg"
)

// Service answers detail and list requests across the registry's sources.
type Service struct {
	registry *sources.Registry
	logger   *slog.Logger
}

// New builds a Service. logger may be nil.
func New(registry *sources.Registry, logger *slog.Logger) *Service {
	return &Service{
		registry: registry,
		logger:   logging.NewComponentLogger(logger, "catalog"),
	}
}

type detailResult struct {
	source string
	info   *game.SourceInfo
	err    error
}

// Game returns the reconciled detail view for a title identified by its
// per-source ids, with name and releaseDate as hints for sources that need
// to look it up. When no source knows the title the error wraps
// services.ErrNotFound. Within a request scope repeated lookups share one
// fan-out.
func (s *Service) Game(ctx context.Context, sourceIDs map[string]string, name, releaseDate string) (*game.UnifiedGame, error) {
	key := gameKey(sourceIDs, name, releaseDate)
	unified, err := requestscope.Do(ctx, key, func(ctx context.Context) (game.UnifiedGame, error) {
		return s.game(ctx, sourceIDs, name, releaseDate)
	})
	if err != nil {
		return nil, err
	}
	out := unified.Clone()
	return &out, nil
}

func gameKey(sourceIDs map[string]string, name, releaseDate string) string {
	var b strings.Builder
	b.WriteString("game")
	for _, source := range slices.Sorted(maps.Keys(sourceIDs)) {
		fmt.Fprintf(&b, "\x00%s=%s", source, sourceIDs[source])
	}
	fmt.Fprintf(&b, "\x00%s\x00%s", strings.TrimSpace(name), strings.TrimSpace(releaseDate))
	return b.String()
}

func (s *Service) game(ctx context.Context, sourceIDs map[string]string, name, releaseDate string) (game.UnifiedGame, error) {
	ctx = services.WithQuery(ctx, name)
	adapters := s.registry.Enabled()
	results := make([]detailResult, len(adapters))

	var wg sync.WaitGroup
	for i, adapter := range adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := callDetails(ctx, adapter, sourceIDs, name, releaseDate)
			results[i] = detailResult{source: adapter.Name(), info: info, err: err}
		}()
	}
	wg.Wait()

	var found []detailResult
	for _, r := range results {
		switch {
		case r.err == nil && r.info != nil:
			found = append(found, r)
		case r.err != nil && !errors.Is(r.err, services.ErrNotFound):
			logging.WarnWithContext(logging.WithContext(services.WithSource(ctx, r.source), s.logger),
				"source details failed", "source_details_failed",
				logging.Error(r.err),
				logging.String(logging.FieldImpact, "source omitted from the detail view"),
				logging.String(logging.FieldErrorHint, "check source credentials and connectivity with 'gamelens doctor'"),
			)
		}
	}
	if len(found) == 0 {
		return game.UnifiedGame{}, services.Wrap(services.ErrNotFound, "", "details", fmt.Sprintf("no source knows %q", name), nil)
	}

	primaryName := ""
	if primary, ok := s.registry.Primary(); ok {
		primaryName = primary.Name()
	}
	primary := found[0]
	for _, r := range found {
		if r.source == primaryName {
			primary = r
			break
		}
	}

	unified := game.UnifiedGame{
		SourceIDs:     maps.Clone(sourceIDs),
		Sources:       make(map[string]game.SourceInfo, len(found)),
		SourceOrder:   make([]string, 0, len(found)),
		PrimarySource: primary.source,
	}
	if unified.SourceIDs == nil {
		unified.SourceIDs = map[string]string{}
	}
	for _, r := range found {
		info := *r.info
		info.Source = r.source
		unified.Sources[r.source] = info
		unified.SourceOrder = append(unified.SourceOrder, r.source)
	}

	pick := func(field func(*game.SourceInfo) string, fallback string) string {
		if v := field(primary.info); strings.TrimSpace(v) != "" {
			return v
		}
		for _, r := range found {
			if v := field(r.info); strings.TrimSpace(v) != "" {
				return v
			}
		}
		return fallback
	}
	unified.Name = pick(func(i *game.SourceInfo) string { return i.Name }, firstNonEmpty(name, DefaultName))
	unified.CoverURL = pick(func(i *game.SourceInfo) string { return i.CoverURL }, DefaultCoverURL)
	unified.Description = pick(func(i *game.SourceInfo) string { return i.Description }, "")
	unified.ReleaseDate = pick(func(i *game.SourceInfo) string { return i.ReleaseDate }, "")
	unified.Developer = pick(func(i *game.SourceInfo) string { return i.Developer }, "")

	platforms := slices.Clone(primary.info.Platforms)
	for _, r := range found {
		for _, p := range r.info.Platforms {
			if !slices.Contains(platforms, p) {
				platforms = append(platforms, p)
			}
		}
	}
	unified.Platforms = platforms

	logging.WithContext(ctx, s.logger).Debug("detail view assembled",
		logging.Strings("sources", unified.SourceOrder),
		logging.String("primary_source", unified.PrimarySource),
	)
	return unified, nil
}

func callDetails(ctx context.Context, adapter sources.Adapter, sourceIDs map[string]string, name, releaseDate string) (info *game.SourceInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			info = nil
			err = fmt.Errorf("%s details panicked: %v", adapter.Name(), r)
		}
	}()
	return adapter.Details(ctx, sourceIDs, name, releaseDate)
}

// Popular returns up to limit popular titles from the highest-priority
// source that answers.
func (s *Service) Popular(ctx context.Context, limit int) ([]game.SourceRecord, string, error) {
	return s.list(ctx, "popular", limit, func(a sources.Adapter) ([]game.SourceRecord, error) {
		return a.Popular(ctx, limit)
	})
}

// Recent returns up to limit recently released titles from the
// highest-priority source that answers.
func (s *Service) Recent(ctx context.Context, limit int) ([]game.SourceRecord, string, error) {
	return s.list(ctx, "recent", limit, func(a sources.Adapter) ([]game.SourceRecord, error) {
		return a.Recent(ctx, limit)
	})
}

// list tries each enabled source in priority order and returns the first
// successful list with the name of the source that produced it.
func (s *Service) list(ctx context.Context, operation string, limit int, fetch func(sources.Adapter) ([]game.SourceRecord, error)) ([]game.SourceRecord, string, error) {
	adapters := s.registry.Enabled()
	if len(adapters) == 0 {
		return nil, "", services.Wrap(services.ErrConfiguration, "", operation, "no sources enabled", nil)
	}
	var errs []error
	for _, adapter := range adapters {
		records, err := fetch(adapter)
		if err == nil {
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			return records, adapter.Name(), nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
		logging.WarnWithContext(logging.WithContext(services.WithSource(ctx, adapter.Name()), s.logger),
			"source list failed, trying next source", "source_list_failed",
			logging.String("operation", operation),
			logging.Error(err),
			logging.String(logging.FieldImpact, "list served by a lower-priority source"),
		)
	}
	err := errors.Join(errs...)
	if ctx.Err() == nil {
		logging.ErrorWithContext(logging.WithContext(ctx, s.logger),
			"every source failed to list games", "source_list_exhausted",
			logging.String("operation", operation),
			logging.Int("sources", len(adapters)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run gamelens doctor to probe each source"),
		)
	}
	return nil, "", err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
