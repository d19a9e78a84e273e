package testsupport

import (
	"testing"

	"gamelens/internal/apicache"
	"gamelens/internal/config"
)

// MustOpenCache opens an apicache.Store for tests and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *apicache.Store {
	t.Helper()

	store, err := apicache.Open(cfg.CacheDBPath())
	if err != nil {
		t.Fatalf("apicache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
