package sources

import (
	"slices"
)

// Entry registers an adapter with its primary-source priority. Lower numbers
// rank first.
type Entry struct {
	Adapter  Adapter
	Priority int
	Enabled  bool
}

// Registry is an immutable, priority-ordered set of adapters.
type Registry struct {
	entries []Entry
}

// NewRegistry orders entries by priority; entries with equal priority keep
// their given order.
func NewRegistry(entries ...Entry) *Registry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int { return a.Priority - b.Priority })
	return &Registry{entries: sorted}
}

// Enabled returns the enabled adapters in priority order.
func (r *Registry) Enabled() []Adapter {
	out := make([]Adapter, 0, len(r.entries))
	for _, e := range r.entries {
		if e.Enabled && e.Adapter != nil {
			out = append(out, e.Adapter)
		}
	}
	return out
}

// Primary returns the highest-priority enabled adapter.
func (r *Registry) Primary() (Adapter, bool) {
	enabled := r.Enabled()
	if len(enabled) == 0 {
		return nil, false
	}
	return enabled[0], true
}

// Get returns the named adapter when it is registered and enabled.
func (r *Registry) Get(name string) (Adapter, bool) {
	for _, e := range r.entries {
		if e.Enabled && e.Adapter != nil && e.Adapter.Name() == name {
			return e.Adapter, true
		}
	}
	return nil, false
}

// Names returns the enabled adapter names in priority order.
func (r *Registry) Names() []string {
	enabled := r.Enabled()
	names := make([]string, len(enabled))
	for i, a := range enabled {
		names[i] = a.Name()
	}
	return names
}

// Entries returns every registered entry, enabled or not, in priority order.
func (r *Registry) Entries() []Entry {
	return slices.Clone(r.entries)
}
