package sources

import (
	"context"

	"gamelens/internal/game"
)

// Searcher finds candidate titles for a free-text query.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string) ([]game.SourceRecord, error)
}

// DetailsProvider fetches one title's detail view. The adapter uses its own id
// from sourceIDs when present and otherwise falls back to matching name and
// releaseDate against a search. A title the source does not know yields an
// error wrapping services.ErrNotFound.
type DetailsProvider interface {
	Details(ctx context.Context, sourceIDs map[string]string, name, releaseDate string) (*game.SourceInfo, error)
}

// ListProvider supplies curated title lists.
type ListProvider interface {
	Popular(ctx context.Context, limit int) ([]game.SourceRecord, error)
	Recent(ctx context.Context, limit int) ([]game.SourceRecord, error)
}

// Adapter is a complete catalog source.
type Adapter interface {
	Searcher
	DetailsProvider
	ListProvider
}
