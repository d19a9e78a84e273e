package igdb_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gamelens/internal/game"
	"gamelens/internal/services"
	"gamelens/internal/sources/igdb"
)

type fakeIGDB struct {
	t *testing.T

	mu          sync.Mutex
	tokenCalls  int
	tokens      []string
	acceptToken string
	bodies      []string
	respond     func(body string) string
}

func (f *fakeIGDB) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			f.t.Errorf("token: unexpected method %s", r.Method)
		}
		q := r.URL.Query()
		if q.Get("client_id") != "cid" || q.Get("client_secret") != "secret" || q.Get("grant_type") != "client_credentials" {
			f.t.Errorf("token: unexpected params %v", q)
		}
		f.mu.Lock()
		token := fmt.Sprintf("tok%d", f.tokenCalls+1)
		if f.tokenCalls < len(f.tokens) {
			token = f.tokens[f.tokenCalls]
		}
		f.tokenCalls++
		f.mu.Unlock()
		fmt.Fprintf(w, `{"access_token":%q,"expires_in":3600,"token_type":"bearer"}`, token)
	})
	mux.HandleFunc("/igdb/games", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Client-ID") != "cid" {
			f.t.Errorf("games: missing Client-ID header")
		}
		f.mu.Lock()
		accept := f.acceptToken
		f.mu.Unlock()
		if accept != "" && r.Header.Get("Authorization") != "Bearer "+accept {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.bodies = append(f.bodies, string(body))
		f.mu.Unlock()
		_, _ = w.Write([]byte(f.respond(string(body))))
	})
	return mux
}

func (f *fakeIGDB) tokenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenCalls
}

func newAdapter(t *testing.T, srv *httptest.Server, statePath string) *igdb.Adapter {
	t.Helper()
	tokens, err := igdb.NewTokenSource(igdb.TokenConfig{
		TokenURL:     srv.URL + "/token",
		ClientID:     "cid",
		ClientSecret: "secret",
		StatePath:    statePath,
	})
	if err != nil {
		t.Fatalf("NewTokenSource: %v", err)
	}
	adapter, err := igdb.New(igdb.Options{
		BaseURL: srv.URL + "/igdb",
		Tokens:  tokens,
		Now:     func() time.Time { return time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return adapter
}

const searchPayload = `[
 {"id":1,"name":"Hollow Knight","cover":{"id":9,"url":"//images.igdb.com/igdb/image/upload/t_thumb/co1.jpg"},
  "total_rating":87.4,"first_release_date":1487894400,"platforms":[{"name":"PC (Microsoft Windows)"},{"name":"Nintendo Switch"}],"game_type":0},
 {"id":2,"name":"Hollow Knight: Godmaster","first_release_date":1535068800,"game_type":1},
 {"id":3,"name":"Hollow Knight Bundle","game_type":3},
 {"id":4,"name":"Hollow Knight: Hidden Dreams","game_type":2},
 {"id":5,"name":"Hollow Knight Mystery","game_type":6},
 {"id":6,"name":""}
]`

func TestSearchMapsRecords(t *testing.T) {
	fake := &fakeIGDB{t: t, respond: func(string) string { return searchPayload }}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	adapter := newAdapter(t, srv, "")
	records, err := adapter.Search(context.Background(), `Hollow "Knight"`)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 named records, got %d", len(records))
	}

	first := records[0]
	if first.SourceIDs["IGDB"] != "1" || first.Name != "Hollow Knight" {
		t.Fatalf("unexpected first record %+v", first)
	}
	if first.Cover == nil || first.Cover.URL != "https://images.igdb.com/igdb/image/upload/t_cover_big/co1.jpg" || first.Cover.Source != "IGDB" {
		t.Fatalf("unexpected cover %+v", first.Cover)
	}
	if first.ReleaseDate != "2017-02-24" {
		t.Fatalf("unexpected release date %q", first.ReleaseDate)
	}
	if first.Rating == nil || *first.Rating != 87 {
		t.Fatalf("unexpected rating %v", first.Rating)
	}
	if len(first.Platforms) != 2 {
		t.Fatalf("unexpected platforms %v", first.Platforms)
	}

	wantKinds := []game.ReleaseKind{game.KindBaseGame, game.KindDLC, game.KindBundle, game.KindExpansion, game.KindUnknown}
	for i, want := range wantKinds {
		if records[i].Kind != want {
			t.Errorf("record %d kind = %s, want %s", i, records[i].Kind, want)
		}
	}
	if records[1].Cover != nil || records[1].Rating != nil {
		t.Fatalf("expected no cover or rating for bare record, got %+v", records[1])
	}

	body := fake.bodies[0]
	if !strings.Contains(body, `search "Hollow \"Knight\"";`) {
		t.Fatalf("expected escaped search term, got %q", body)
	}
	if !strings.Contains(body, "where cover != null;") || !strings.Contains(body, "limit 20;") {
		t.Fatalf("unexpected search body %q", body)
	}
}

func TestTokenReusedAndPersisted(t *testing.T) {
	fake := &fakeIGDB{t: t, respond: func(string) string { return "[]" }}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	statePath := filepath.Join(t.TempDir(), "igdb_token.json")
	adapter := newAdapter(t, srv, statePath)
	for range 3 {
		if _, err := adapter.Search(context.Background(), "celeste"); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}
	if fake.tokenCount() != 1 {
		t.Fatalf("expected one token request, got %d", fake.tokenCount())
	}

	second := newAdapter(t, srv, statePath)
	if _, err := second.Popular(context.Background(), 12); err != nil {
		t.Fatalf("Popular: %v", err)
	}
	if fake.tokenCount() != 1 {
		t.Fatalf("expected persisted token to be reused, got %d token requests", fake.tokenCount())
	}
}

func TestRejectedTokenIsRefreshedOnce(t *testing.T) {
	fake := &fakeIGDB{
		t:           t,
		tokens:      []string{"stale", "fresh"},
		acceptToken: "fresh",
		respond:     func(string) string { return "[]" },
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	adapter := newAdapter(t, srv, filepath.Join(t.TempDir(), "igdb_token.json"))
	if _, err := adapter.Search(context.Background(), "celeste"); err != nil {
		t.Fatalf("Search after refresh: %v", err)
	}
	if fake.tokenCount() != 2 {
		t.Fatalf("expected token refresh, got %d token requests", fake.tokenCount())
	}
}

func TestDetailsByID(t *testing.T) {
	fake := &fakeIGDB{t: t, respond: func(string) string {
		return `[{"id":7,"name":"Celeste","summary":"Climb.","first_release_date":1516838400,
 "cover":{"url":"//images.igdb.com/t_thumb/c.jpg"},
 "involved_companies":[{"company":{"name":"Publisher Co"},"developer":false},{"company":{"name":"Maddy Makes Games"},"developer":true}],
 "screenshots":[{"id":11,"url":"//images.igdb.com/t_thumb/s.jpg"}],
 "total_rating":91.6,"total_rating_count":300,"aggregated_rating":92.2,"aggregated_rating_count":40,"rating":0,
 "url":"https://www.igdb.com/games/celeste","platforms":[{"name":"PC (Microsoft Windows)"}],"game_type":0}]`
	}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	adapter := newAdapter(t, srv, "")
	info, err := adapter.Details(context.Background(), map[string]string{"IGDB": "7"}, "Celeste", "")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if info.Source != "IGDB" || info.Name != "Celeste" || info.Description != "Climb." {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Developer != "Maddy Makes Games" {
		t.Fatalf("expected developer flag to win, got %q", info.Developer)
	}
	if info.CoverURL != "https://images.igdb.com/t_cover_big/c.jpg" {
		t.Fatalf("unexpected cover %q", info.CoverURL)
	}
	if len(info.Screenshots) != 1 || info.Screenshots[0].URL != "https://images.igdb.com/t_screenshot_big/s.jpg" {
		t.Fatalf("unexpected screenshots %+v", info.Screenshots)
	}
	if len(info.Ratings) != 2 {
		t.Fatalf("expected zero user rating to be skipped, got %+v", info.Ratings)
	}
	if info.Ratings[0].Source != "IGDB Aggregate" || info.Ratings[0].Score != 92 || info.Ratings[0].Count != 300 {
		t.Fatalf("unexpected aggregate rating %+v", info.Ratings[0])
	}
	if !strings.Contains(fake.bodies[0], "where id = 7;") {
		t.Fatalf("unexpected details body %q", fake.bodies[0])
	}
}

func TestDetailsFallsBackToNameMatch(t *testing.T) {
	fake := &fakeIGDB{t: t, respond: func(body string) string {
		if strings.HasPrefix(body, "search") {
			return `[{"id":3,"name":"Doom","first_release_date":755481600},{"id":4,"name":"DOOM","first_release_date":1463097600}]`
		}
		return `[{"id":4,"name":"DOOM","first_release_date":1463097600}]`
	}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	adapter := newAdapter(t, srv, "")
	info, err := adapter.Details(context.Background(), map[string]string{"RAWG": "2454"}, "Doom", "2016-05-13")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if info.Name != "DOOM" {
		t.Fatalf("unexpected info %+v", info)
	}
	if len(fake.bodies) != 2 {
		t.Fatalf("expected search then details, got %v", fake.bodies)
	}
	if !strings.Contains(fake.bodies[0], "limit 5;") {
		t.Fatalf("expected name match limit, got %q", fake.bodies[0])
	}
	if !strings.Contains(fake.bodies[1], "where id = 4;") {
		t.Fatalf("expected matched id, got %q", fake.bodies[1])
	}

	_, err = adapter.Details(context.Background(), nil, "Doom", "1999-01-01")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unmatched date, got %v", err)
	}
}

func TestRecentUsesHourTruncatedCutoff(t *testing.T) {
	fake := &fakeIGDB{t: t, respond: func(string) string { return "[]" }}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	adapter := newAdapter(t, srv, "")
	if _, err := adapter.Recent(context.Background(), 4); err != nil {
		t.Fatalf("Recent: %v", err)
	}
	cutoff := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC).Unix()
	want := fmt.Sprintf("where first_release_date < %d & cover != null & total_rating != null; limit 4;", cutoff)
	if !strings.Contains(fake.bodies[0], want) {
		t.Fatalf("expected %q in %q", want, fake.bodies[0])
	}
}

func TestNewTokenSourceRequiresCredentials(t *testing.T) {
	_, err := igdb.NewTokenSource(igdb.TokenConfig{TokenURL: "https://example.com", ClientID: "id"})
	if !errors.Is(err, igdb.ErrCredentialsMissing) || !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}
