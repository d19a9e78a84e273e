package catalog

import "gamelens/internal/game"

// FilterSources returns the per-source views of g a reader wants to see.
// A nil preference list keeps every source in priority order; an empty list
// keeps none; otherwise the named sources are returned in preference order,
// skipping names g has no view for.
func FilterSources(g game.UnifiedGame, preferred []string) []game.SourceInfo {
	order := preferred
	if preferred == nil {
		order = g.SourceOrder
	}
	out := make([]game.SourceInfo, 0, len(order))
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		info, ok := g.Sources[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, info)
	}
	return out
}
