package preflight

import (
	"context"

	"gamelens/internal/config"
	"gamelens/internal/sources"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every applicable check: directories first, then
// credentials, then a probe search against each enabled source in registry.
// A nil registry skips the probes.
func RunAll(ctx context.Context, cfg *config.Config, registry *sources.Registry) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	results = append(results, CheckCredentials(cfg)...)

	if registry != nil {
		for _, adapter := range registry.Enabled() {
			results = append(results, CheckSource(ctx, adapter))
		}
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
