package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"gamelens/internal/game"
	"gamelens/internal/requestscope"
)

type fakeAdapter struct {
	name    string
	records []game.SourceRecord
	err     error
	panics  bool
	delay   time.Duration
	calls   atomic.Int32
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Search(ctx context.Context, _ string) ([]game.SourceRecord, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics {
		panic("adapter exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]game.SourceRecord, len(f.records))
	for i, r := range f.records {
		out[i] = r.Clone()
	}
	return out, nil
}

func rec(source, id, name, date string, kind game.ReleaseKind, platforms ...string) game.SourceRecord {
	r := game.NewSourceRecord(source, id, name)
	r.ReleaseDate = date
	r.Kind = kind
	r.Platforms = platforms
	return r
}

func names(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Name
	}
	return out
}

type recordingObserver struct {
	candidates, relevant, groups, returned int
}

func (r *recordingObserver) ObserveSearch(candidates, relevant, groups, returned int, _ time.Duration) {
	r.candidates, r.relevant, r.groups, r.returned = candidates, relevant, groups, returned
}

func TestSearchMergesAcrossSources(t *testing.T) {
	igdb := &fakeAdapter{name: "IGDB", records: []game.SourceRecord{
		rec("IGDB", "1", "Hades", "2020-09-17", game.KindBaseGame, "PC", "Nintendo Switch"),
	}}
	rawg := &fakeAdapter{name: "RAWG", records: []game.SourceRecord{
		rec("RAWG", "2", "Hades", "2020-09-27", game.KindBaseGame, "PC"),
	}}
	observer := &recordingObserver{}
	o := New([]Adapter{igdb, rawg}, nil, DefaultOptions(), WithObserver(observer))

	results := o.Search(context.Background(), "Hades")
	if len(results) != 1 {
		t.Fatalf("expected one result, got %v", names(results))
	}
	if len(results[0].Sources) != 2 || results[0].Score != 100 {
		t.Fatalf("unexpected merged result %+v", results[0])
	}
	if observer.candidates != 2 || observer.relevant != 2 || observer.groups != 1 || observer.returned != 1 {
		t.Fatalf("unexpected observer stats %+v", observer)
	}
}

func TestSearchDropsBelowThreshold(t *testing.T) {
	// Celeste scores 0 against the query even though two sources agree on it.
	adapter := &fakeAdapter{name: "IGDB", records: []game.SourceRecord{
		rec("IGDB", "1", "Celeste", "2018-01-25", game.KindBaseGame, "PC", "Switch", "PS4"),
		rec("IGDB", "2", "Hades", "2020-09-17", game.KindBaseGame, "PC"),
	}}
	other := &fakeAdapter{name: "RAWG", records: []game.SourceRecord{
		rec("RAWG", "3", "Celeste", "2018-01-25", game.KindBaseGame, "PC"),
	}}
	results := New([]Adapter{adapter, other}, nil, DefaultOptions()).Search(context.Background(), "Hades")
	if len(results) != 1 || results[0].Name != "Hades" {
		t.Fatalf("expected only Hades, got %v", names(results))
	}
	for _, r := range results {
		if r.Score < DefaultMinRelevance {
			t.Fatalf("result below threshold returned: %+v", r)
		}
	}
}

func TestSearchBelowThresholdHitDoesNotJoinGroup(t *testing.T) {
	igdb := &fakeAdapter{name: "IGDB", records: []game.SourceRecord{
		rec("IGDB", "1", "Doom", "2016-05-13", game.KindBaseGame, "PC"),
	}}
	// "oom" is a substring of "doom" with the same date, so it would merge,
	// but it is too short to score against the query.
	rawg := &fakeAdapter{name: "RAWG", records: []game.SourceRecord{
		rec("RAWG", "2", "Oom", "2016-05-13", game.KindBaseGame, "PC"),
	}}
	results := New([]Adapter{igdb, rawg}, nil, DefaultOptions()).Search(context.Background(), "Doom")
	if len(results) != 1 {
		t.Fatalf("expected one result, got %v", names(results))
	}
	if len(results[0].Sources) != 1 || results[0].Sources[0] != "IGDB" {
		t.Fatalf("expected irrelevant hit excluded from merge, got sources %v", results[0].Sources)
	}
}

func TestSearchSortsByTierThenScore(t *testing.T) {
	adapter := &fakeAdapter{name: "IGDB", records: []game.SourceRecord{
		rec("IGDB", "1", "Zelda DLC", "", game.KindDLC, "A", "B", "C", "D", "E"),
		rec("IGDB", "2", "Zelda Port", "", game.KindBaseGame, "Switch"),
		rec("IGDB", "3", "Zelda Prime", "", game.KindBaseGame, "PC", "PS4", "Switch"),
		rec("IGDB", "4", "Zelda", "", game.KindBaseGame, "Switch"),
		rec("IGDB", "5", "Zelda Mystery", "", game.KindUnknown, "PC", "PS4", "Switch"),
	}}
	results := New([]Adapter{adapter}, nil, DefaultOptions()).Search(context.Background(), "Zelda")
	want := []string{"Zelda Prime", "Zelda", "Zelda Port", "Zelda DLC", "Zelda Mystery"}
	got := names(results)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSearchGroupScoreIsBestMember(t *testing.T) {
	igdb := &fakeAdapter{name: "IGDB", records: []game.SourceRecord{
		rec("IGDB", "1", "Street Fighter V: Champion Edition", "2016-02-16", game.KindBaseGame, "PC"),
	}}
	rawg := &fakeAdapter{name: "RAWG", records: []game.SourceRecord{
		rec("RAWG", "2", "Street Fighter V", "2016-02-16", game.KindBaseGame, "PC"),
	}}
	results := New([]Adapter{igdb, rawg}, nil, DefaultOptions()).Search(context.Background(), "Street Fighter 5")
	if len(results) != 1 {
		t.Fatalf("expected one merged result, got %v", names(results))
	}
	if results[0].Score != 100 {
		t.Fatalf("expected best member score 100, got %d", results[0].Score)
	}
	if results[0].Name != "Street Fighter V: Champion Edition" {
		t.Fatalf("expected longer name kept, got %q", results[0].Name)
	}
}

func TestSearchToleratesFailingAdapters(t *testing.T) {
	good := &fakeAdapter{name: "IGDB", records: []game.SourceRecord{
		rec("IGDB", "1", "Hades", "2020-09-17", game.KindBaseGame, "PC"),
	}}
	failing := &fakeAdapter{name: "RAWG", err: errors.New("503 from upstream")}
	panicking := &fakeAdapter{name: "OpenCritic", panics: true}

	resp := New([]Adapter{failing, good, panicking}, nil, DefaultOptions()).Run(context.Background(), "Hades")
	if len(resp.Results) != 1 || resp.Results[0].Name != "Hades" {
		t.Fatalf("expected the healthy source's result, got %v", names(resp.Results))
	}
	if len(resp.Sources) != 3 {
		t.Fatalf("expected three statuses, got %d", len(resp.Sources))
	}
	if resp.Sources[0].Err == nil || resp.Sources[1].Err != nil || resp.Sources[2].Err == nil {
		t.Fatalf("unexpected statuses %+v", resp.Sources)
	}
}

func TestSearchRunsAdaptersConcurrently(t *testing.T) {
	adapters := []Adapter{
		&fakeAdapter{name: "A", delay: 100 * time.Millisecond},
		&fakeAdapter{name: "B", delay: 100 * time.Millisecond},
		&fakeAdapter{name: "C", delay: 100 * time.Millisecond},
	}
	start := time.Now()
	New(adapters, nil, DefaultOptions()).Search(context.Background(), "anything")
	if elapsed := time.Since(start); elapsed >= 250*time.Millisecond {
		t.Fatalf("expected concurrent fan-out, took %s", elapsed)
	}
}

func TestSearchTruncatesToMaxResults(t *testing.T) {
	var records []game.SourceRecord
	for _, name := range []string{"Mario 1", "Mario 2", "Mario 3", "Mario 4"} {
		records = append(records, rec("IGDB", name, name, "", game.KindBaseGame, "NES"))
	}
	adapter := &fakeAdapter{name: "IGDB", records: records}
	results := New([]Adapter{adapter}, nil, Options{MinRelevance: 50, MaxResults: 2}).Search(context.Background(), "Mario")
	if len(results) != 2 {
		t.Fatalf("expected two results, got %d", len(results))
	}
}

func TestSearchMemoizesWithinRequestScope(t *testing.T) {
	adapter := &fakeAdapter{name: "IGDB", records: []game.SourceRecord{
		rec("IGDB", "1", "Hades", "", game.KindBaseGame, "PC"),
	}}
	o := New([]Adapter{adapter}, nil, DefaultOptions())

	ctx := requestscope.With(context.Background())
	first := o.Search(ctx, "Hades")
	first[0].Name = "mutated"
	second := o.Search(ctx, " Hades ")
	if adapter.calls.Load() != 1 {
		t.Fatalf("expected one fan-out per scope, got %d", adapter.calls.Load())
	}
	if second[0].Name != "Hades" {
		t.Fatalf("expected callers to receive independent copies, got %q", second[0].Name)
	}

	o.Search(requestscope.With(context.Background()), "Hades")
	if adapter.calls.Load() != 2 {
		t.Fatalf("expected a new scope to fan out again, got %d", adapter.calls.Load())
	}
}

func TestSearchMemoIsPerOrchestrator(t *testing.T) {
	adapter := &fakeAdapter{name: "IGDB", records: []game.SourceRecord{
		rec("IGDB", "1", "Hades", "", game.KindBaseGame, "PC"),
		rec("IGDB", "2", "Hades II", "", game.KindBaseGame, "PC"),
	}}
	wide := New([]Adapter{adapter}, nil, DefaultOptions())
	narrow := New([]Adapter{adapter}, nil, Options{MinRelevance: 50, MaxResults: 1})

	ctx := requestscope.With(context.Background())
	if got := wide.Search(ctx, "Hades"); len(got) != 2 {
		t.Fatalf("expected two results from the wide orchestrator, got %v", names(got))
	}
	if got := narrow.Search(ctx, "Hades"); len(got) != 1 {
		t.Fatalf("expected the narrow orchestrator to apply its own options, got %v", names(got))
	}
	if adapter.calls.Load() != 2 {
		t.Fatalf("expected each orchestrator to fan out once, got %d", adapter.calls.Load())
	}
}

func TestSearchWithNoAdapters(t *testing.T) {
	results := New(nil, nil, DefaultOptions()).Search(context.Background(), "Hades")
	if results == nil || len(results) != 0 {
		t.Fatalf("expected empty non-nil results, got %#v", results)
	}
}

func TestTier(t *testing.T) {
	tests := []struct {
		record game.SourceRecord
		want   int
	}{
		{rec("IGDB", "1", "a", "", game.KindBaseGame, "PC", "PS4", "Switch"), 0},
		{rec("IGDB", "1", "a", "", game.KindBaseGame, "PC", "PS4"), 1},
		{rec("IGDB", "1", "a", "", game.KindBaseGame), 1},
		{rec("IGDB", "1", "a", "", game.KindDLC, "PC", "PS4", "Switch"), 2},
		{rec("IGDB", "1", "a", "", game.KindUnknown, "PC", "PS4", "Switch"), 2},
	}
	for i, tt := range tests {
		if got := Tier(tt.record); got != tt.want {
			t.Errorf("case %d: Tier = %d, want %d", i, got, tt.want)
		}
	}
}
