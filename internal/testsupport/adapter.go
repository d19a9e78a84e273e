package testsupport

import (
	"context"
	"sync"

	"gamelens/internal/game"
	"gamelens/internal/services"
)

// FakeAdapter is a scripted sources.Adapter. Unset responses return empty
// results; DetailsByID misses report services.ErrNotFound.
type FakeAdapter struct {
	SourceName  string
	SearchHits  []game.SourceRecord
	SearchErr   error
	DetailsByID map[string]*game.SourceInfo
	DetailsErr  error
	PopularHits []game.SourceRecord
	RecentHits  []game.SourceRecord
	ListErr     error
	// Block, when non-nil, is waited on before every call returns.
	Block chan struct{}

	mu    sync.Mutex
	calls map[string]int
}

// Name implements sources.Searcher.
func (f *FakeAdapter) Name() string { return f.SourceName }

// Calls returns how many times the named operation ran.
func (f *FakeAdapter) Calls(operation string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[operation]
}

func (f *FakeAdapter) record(ctx context.Context, operation string) error {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[operation]++
	f.mu.Unlock()
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Search implements sources.Searcher.
func (f *FakeAdapter) Search(ctx context.Context, _ string) ([]game.SourceRecord, error) {
	if err := f.record(ctx, "search"); err != nil {
		return nil, err
	}
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	return cloneRecords(f.SearchHits), nil
}

// Details implements sources.DetailsProvider.
func (f *FakeAdapter) Details(ctx context.Context, sourceIDs map[string]string, name, _ string) (*game.SourceInfo, error) {
	if err := f.record(ctx, "details"); err != nil {
		return nil, err
	}
	if f.DetailsErr != nil {
		return nil, f.DetailsErr
	}
	if info, ok := f.DetailsByID[sourceIDs[f.SourceName]]; ok && info != nil {
		copied := *info
		return &copied, nil
	}
	return nil, services.Wrap(services.ErrNotFound, f.SourceName, "details", name, nil)
}

// Popular implements sources.ListProvider.
func (f *FakeAdapter) Popular(ctx context.Context, limit int) ([]game.SourceRecord, error) {
	if err := f.record(ctx, "popular"); err != nil {
		return nil, err
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return truncate(cloneRecords(f.PopularHits), limit), nil
}

// Recent implements sources.ListProvider.
func (f *FakeAdapter) Recent(ctx context.Context, limit int) ([]game.SourceRecord, error) {
	if err := f.record(ctx, "recent"); err != nil {
		return nil, err
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return truncate(cloneRecords(f.RecentHits), limit), nil
}

func cloneRecords(records []game.SourceRecord) []game.SourceRecord {
	out := make([]game.SourceRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

func truncate(records []game.SourceRecord, limit int) []game.SourceRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

// Record builds a SourceRecord attributed to source.
func Record(source, id, name, date string, platforms ...string) game.SourceRecord {
	r := game.NewSourceRecord(source, id, name)
	r.ReleaseDate = date
	r.Platforms = platforms
	return r
}
