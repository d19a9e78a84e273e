package opencritic_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"gamelens/internal/services"
	"gamelens/internal/sources/opencritic"
)

type fakeOpenCritic struct {
	t *testing.T

	mu        sync.Mutex
	gameCalls []string
	games     map[string]string
	search    string
	popular   string
}

func (f *fakeOpenCritic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-RapidAPI-Key") != "rapid-key" {
		f.t.Errorf("missing rapidapi key header on %s", r.URL.Path)
	}
	if r.Header.Get("X-RapidAPI-Host") == "" {
		f.t.Errorf("missing rapidapi host header on %s", r.URL.Path)
	}
	switch {
	case r.URL.Path == "/game/search":
		_, _ = w.Write([]byte(f.search))
	case r.URL.Path == "/game/popular", r.URL.Path == "/game/recently-released":
		_, _ = w.Write([]byte(f.popular))
	case strings.HasPrefix(r.URL.Path, "/game/"):
		id := strings.TrimPrefix(r.URL.Path, "/game/")
		f.mu.Lock()
		f.gameCalls = append(f.gameCalls, id)
		f.mu.Unlock()
		body, ok := f.games[id]
		if !ok {
			http.Error(w, "missing", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(body))
	default:
		http.NotFound(w, r)
	}
}

func newAdapter(t *testing.T, fake *fakeOpenCritic, enrich int) *opencritic.Adapter {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	adapter, err := opencritic.New(opencritic.Options{
		RapidAPIKey: "rapid-key",
		BaseURL:     srv.URL,
		EnrichLimit: enrich,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return adapter
}

func TestSearchFiltersScoresAndEnriches(t *testing.T) {
	fake := &fakeOpenCritic{
		t: t,
		search: `[
 {"id":10,"name":"Hades II","dist":0.1},
 {"id":11,"name":"Hades","dist":0.0},
 {"id":12,"name":"Shades of Grey","dist":0.5},
 {"id":13,"name":"Hades: Battle Out of Hell","dist":0.3}
]`,
		games: map[string]string{
			"11": `{"id":11,"name":"Hades","firstReleaseDate":"2020-09-17T00:00:00.000Z","topCriticScore":93.2,
 "images":{"box":{"og":"game/11/o/box.jpg"},"square":{"og":"game/11/o/sq.jpg"}},"Platforms":[{"name":"PC"},{"name":"Nintendo Switch"}]}`,
			"10": `{"id":10,"name":"Hades II","firstReleaseDate":"2025-09-25T00:00:00.000Z","topCriticScore":-1}`,
		},
	}
	adapter := newAdapter(t, fake, 2)

	records, err := adapter.Search(context.Background(), "hades")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected enrich limit to cap results at 2, got %d", len(records))
	}

	hades := records[0]
	if hades.Name != "Hades" || hades.SourceIDs["OpenCritic"] != "11" {
		t.Fatalf("expected exact match first, got %+v", hades)
	}
	if hades.ReleaseDate != "2020-09-17" {
		t.Fatalf("unexpected release date %q", hades.ReleaseDate)
	}
	if hades.Cover == nil || hades.Cover.URL != "https://img.opencritic.com/game/11/o/sq.jpg" {
		t.Fatalf("expected square art cover, got %+v", hades.Cover)
	}
	if hades.Rating == nil || *hades.Rating != 93 {
		t.Fatalf("unexpected rating %v", hades.Rating)
	}
	if len(hades.Platforms) != 2 {
		t.Fatalf("unexpected platforms %v", hades.Platforms)
	}

	sequel := records[1]
	if sequel.Name != "Hades II" || sequel.Rating != nil {
		t.Fatalf("expected unscored sequel second, got %+v", sequel)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.gameCalls) != 2 {
		t.Fatalf("expected two enrichment calls, got %v", fake.gameCalls)
	}
}

func TestSearchFallsBackToBareHitWhenEnrichmentFails(t *testing.T) {
	fake := &fakeOpenCritic{
		t:      t,
		search: `[{"id":20,"name":"Celeste"}]`,
		games:  map[string]string{},
	}
	adapter := newAdapter(t, fake, 0)

	records, err := adapter.Search(context.Background(), "Celeste")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected bare record, got %d", len(records))
	}
	if records[0].Name != "Celeste" || records[0].SourceIDs["OpenCritic"] != "20" || records[0].ReleaseDate != "" {
		t.Fatalf("unexpected bare record %+v", records[0])
	}
}

func TestDetailsRequiresID(t *testing.T) {
	fake := &fakeOpenCritic{t: t, games: map[string]string{
		"30": `{"id":30,"name":"Celeste","description":"Climb.","url":"https://opencritic.com/game/30/celeste",
 "topCriticScore":91.8,"medianScore":92,"percentRecommended":98.4,"numReviews":120,"numTopCriticReviews":60,
 "firstReleaseDate":"2018-01-25T00:00:00.000Z",
 "images":{"masthead":{"og":"https://img.opencritic.com/m.jpg"},"screenshots":[{"_id":"s1","og":"game/30/s1.jpg"},{"sm":"game/30/s2.jpg"},{}]},
 "Companies":[{"name":"Matt Makes Games","type":"DEVELOPER"},{"name":"Matt Makes Games","type":"PUBLISHER"}]}`,
	}}
	adapter := newAdapter(t, fake, 0)

	if _, err := adapter.Details(context.Background(), map[string]string{"IGDB": "7"}, "Celeste", ""); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without id, got %v", err)
	}

	info, err := adapter.Details(context.Background(), map[string]string{"OpenCritic": "30"}, "Celeste", "")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if info.Developer != "Matt Makes Games" || info.CoverURL != "https://img.opencritic.com/m.jpg" {
		t.Fatalf("unexpected info %+v", info)
	}
	if len(info.Screenshots) != 2 || info.Screenshots[1].ID != "oc-screenshot-1" {
		t.Fatalf("unexpected screenshots %+v", info.Screenshots)
	}
	want := []string{"OpenCritic Top Critics:92:60", "OpenCritic Median:92:120", "OpenCritic Recommended:98:120"}
	for i, r := range info.Ratings {
		if got := fmt.Sprintf("%s:%d:%d", r.Source, r.Score, r.Count); got != want[i] {
			t.Errorf("rating %d = %s, want %s", i, got, want[i])
		}
	}
}

func TestPopularRespectsLimit(t *testing.T) {
	fake := &fakeOpenCritic{t: t, popular: `[{"id":1,"name":"A","topCriticScore":90},{"id":2,"name":"B"},{"id":3,"name":"C"}]`}
	adapter := newAdapter(t, fake, 0)

	records, err := adapter.Popular(context.Background(), 2)
	if err != nil {
		t.Fatalf("Popular: %v", err)
	}
	if len(records) != 2 || records[0].Name != "A" {
		t.Fatalf("unexpected popular records %+v", records)
	}
	recent, err := adapter.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected unlimited recent list, got %d", len(recent))
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := opencritic.New(opencritic.Options{BaseURL: "https://opencritic-api.p.rapidapi.com"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
