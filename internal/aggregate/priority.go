package aggregate

// CoverPriority ranks sources for cover art. Preferred sources rank best in
// list order, unlisted sources share a middle rank, and Deprioritized sources
// rank last in list order.
type CoverPriority struct {
	Preferred     []string
	Deprioritized []string
}

// DefaultCoverPriority prefers IGDB then OpenCritic art and uses RAWG art only
// when nothing else is available.
func DefaultCoverPriority() CoverPriority {
	return CoverPriority{
		Preferred:     []string{"IGDB", "OpenCritic"},
		Deprioritized: []string{"RAWG"},
	}
}

// Rank returns the position of source; lower is better.
func (p CoverPriority) Rank(source string) int {
	for i, name := range p.Preferred {
		if name == source {
			return i
		}
	}
	for i, name := range p.Deprioritized {
		if name == source {
			return len(p.Preferred) + 1 + i
		}
	}
	return len(p.Preferred)
}
