package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"gamelens/internal/metrics"
	"gamelens/internal/search"
	"gamelens/internal/sources"
	"gamelens/internal/sources/apiclient"
)

var (
	_ sources.Recorder        = (*metrics.Recorder)(nil)
	_ search.Observer         = (*metrics.Recorder)(nil)
	_ apiclient.CacheObserver = (*metrics.Recorder)(nil)
)

func TestObserveSourceCallCountsByOutcome(t *testing.T) {
	rec := metrics.New()
	rec.ObserveSourceCall("IGDB", "search", "ok", 120*time.Millisecond)
	rec.ObserveSourceCall("IGDB", "search", "ok", 80*time.Millisecond)
	rec.ObserveSourceCall("IGDB", "search", "timeout", 10*time.Second)

	expected := `
# HELP gamelens_source_calls_total Source adapter calls by operation and outcome
# TYPE gamelens_source_calls_total counter
gamelens_source_calls_total{operation="search",outcome="ok",source="IGDB"} 2
gamelens_source_calls_total{operation="search",outcome="timeout",source="IGDB"} 1
`
	if err := testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "gamelens_source_calls_total"); err != nil {
		t.Fatal(err)
	}
}

func TestSetBreakerStateIsExclusive(t *testing.T) {
	rec := metrics.New()
	rec.SetBreakerState("RAWG", "closed")
	rec.SetBreakerState("RAWG", "open")

	expected := `
# HELP gamelens_source_breaker_state Circuit breaker state per source (1 for the current state)
# TYPE gamelens_source_breaker_state gauge
gamelens_source_breaker_state{source="RAWG",state="closed"} 0
gamelens_source_breaker_state{source="RAWG",state="half-open"} 0
gamelens_source_breaker_state{source="RAWG",state="open"} 1
`
	if err := testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "gamelens_source_breaker_state"); err != nil {
		t.Fatal(err)
	}
}

func TestObserveCacheAndSearch(t *testing.T) {
	rec := metrics.New()
	rec.ObserveCache("IGDB", true)
	rec.ObserveCache("IGDB", false)
	rec.ObserveCache("IGDB", true)
	rec.ObserveSearch(30, 12, 7, 7, 400*time.Millisecond)

	expected := `
# HELP gamelens_response_cache_lookups_total Response cache lookups by source and result
# TYPE gamelens_response_cache_lookups_total counter
gamelens_response_cache_lookups_total{result="hit",source="IGDB"} 2
gamelens_response_cache_lookups_total{result="miss",source="IGDB"} 1
# HELP gamelens_merged_records_total Relevant records folded into another record's group
# TYPE gamelens_merged_records_total counter
gamelens_merged_records_total 5
# HELP gamelens_searches_total Completed searches
# TYPE gamelens_searches_total counter
gamelens_searches_total 1
`
	if err := testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected),
		"gamelens_response_cache_lookups_total", "gamelens_merged_records_total", "gamelens_searches_total"); err != nil {
		t.Fatal(err)
	}
}

func TestWriteTextfile(t *testing.T) {
	rec := metrics.New()
	rec.ObserveSourceCall("OpenCritic", "details", "not_found", time.Second)
	path := filepath.Join(t.TempDir(), "nested", "gamelens.prom")

	if err := rec.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `gamelens_source_calls_total{operation="details",outcome="not_found",source="OpenCritic"} 1`) {
		t.Fatalf("textfile missing source call sample:\n%s", data)
	}
	if err := rec.WriteTextfile(""); err != nil {
		t.Fatalf("empty path should be a no-op, got %v", err)
	}
}
