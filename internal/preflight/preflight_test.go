package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gamelens/internal/config"
	"gamelens/internal/game"
	"gamelens/internal/services"
	"gamelens/internal/sources"
	"gamelens/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.IGDB.ClientID = "id"
	cfg.RAWG.APIKey = "key"

	results := CheckCredentials(&cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Passed || !strings.Contains(results[0].Detail, "TWITCH_CLIENT_SECRET") {
		t.Fatalf("expected IGDB to report missing secret, got %+v", results[0])
	}
	if !results[1].Passed {
		t.Fatalf("expected RAWG configured, got %+v", results[1])
	}
	if !results[2].Passed || results[2].Detail != "Disabled" {
		t.Fatalf("expected OpenCritic disabled, got %+v", results[2])
	}
}

func TestCheckSource_OK(t *testing.T) {
	adapter := &testsupport.FakeAdapter{SourceName: "IGDB", SearchHits: []game.SourceRecord{
		testsupport.Record("IGDB", "71", "Portal", "2007-10-10"),
	}}
	result := CheckSource(context.Background(), adapter)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "1 results") {
		t.Fatalf("expected result count in detail, got %q", result.Detail)
	}
}

func TestCheckSource_Failures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"bad credentials", services.Wrap(services.ErrConfiguration, "RAWG", "search", "401", nil), "auth failed"},
		{"rate limited", services.Wrap(services.ErrRateLimited, "RAWG", "search", "429", nil), "rate limited"},
		{"timeout", services.Wrap(services.ErrTimeout, "RAWG", "search", "slow", nil), "timed out"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := &testsupport.FakeAdapter{SourceName: "RAWG", SearchErr: tt.err}
			result := CheckSource(context.Background(), adapter)
			if result.Passed {
				t.Fatal("expected failure")
			}
			if !strings.Contains(result.Detail, tt.want) {
				t.Fatalf("detail %q does not mention %q", result.Detail, tt.want)
			}
		})
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ProbesEnabledSources(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.CacheDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.IGDB.ClientID = "id"
	cfg.IGDB.ClientSecret = "secret"
	cfg.RAWG.APIKey = "key"

	igdb := &testsupport.FakeAdapter{SourceName: "IGDB"}
	rawg := &testsupport.FakeAdapter{SourceName: "RAWG", SearchErr: errors.New("down")}
	registry := sources.NewRegistry(
		sources.Entry{Adapter: igdb, Priority: 1, Enabled: true},
		sources.Entry{Adapter: rawg, Priority: 2, Enabled: true},
	)

	results := RunAll(context.Background(), &cfg, registry)
	// 2 directories + 3 credential rows + 2 probes
	if len(results) != 7 {
		t.Fatalf("expected 7 results, got %d", len(results))
	}
	if !Failed(results) {
		t.Fatal("expected the failing RAWG probe to fail the run")
	}
	last := results[len(results)-1]
	if last.Name != "RAWG" || last.Passed {
		t.Fatalf("unexpected RAWG probe result %+v", last)
	}
	if igdb.Calls("search") != 1 {
		t.Fatal("expected one IGDB probe search")
	}
}
