package game

import "slices"

// ReleaseKind classifies a title as a base game or add-on content.
type ReleaseKind string

const (
	KindBaseGame  ReleaseKind = "BASE_GAME"
	KindDLC       ReleaseKind = "DLC"
	KindBundle    ReleaseKind = "BUNDLE"
	KindExpansion ReleaseKind = "EXPANSION"
	KindUnknown   ReleaseKind = "UNKNOWN"
)

// Specific reports whether the kind positively identifies add-on content.
func (k ReleaseKind) Specific() bool {
	switch k {
	case KindDLC, KindBundle, KindExpansion:
		return true
	default:
		return false
	}
}

// OrUnknown maps the zero value to KindUnknown.
func (k ReleaseKind) OrUnknown() ReleaseKind {
	if k == "" {
		return KindUnknown
	}
	return k
}

// Cover is a cover image URL tagged with the source that supplied it.
type Cover struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// SourceRecord is one source's view of a single title, or the union of
// several such views after merging.
type SourceRecord struct {
	SourceIDs   map[string]string `json:"source_ids"`
	Name        string            `json:"name"`
	Cover       *Cover            `json:"cover,omitempty"`
	ReleaseDate string            `json:"release_date,omitempty"`
	Rating      *int              `json:"rating,omitempty"`
	Sources     []string          `json:"sources"`
	Platforms   []string          `json:"platforms,omitempty"`
	Kind        ReleaseKind       `json:"kind"`
}

// NewSourceRecord returns a record contributed by a single source.
func NewSourceRecord(source, id, name string) SourceRecord {
	return SourceRecord{
		SourceIDs: map[string]string{source: id},
		Name:      name,
		Sources:   []string{source},
		Kind:      KindUnknown,
	}
}

// HasSource reports whether source already contributed to the record.
func (r SourceRecord) HasSource(source string) bool {
	return slices.Contains(r.Sources, source)
}

// PrimarySource returns the first contributing source, or "" when none.
func (r SourceRecord) PrimarySource() string {
	if len(r.Sources) == 0 {
		return ""
	}
	return r.Sources[0]
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (r SourceRecord) Clone() SourceRecord {
	out := r
	if r.SourceIDs != nil {
		out.SourceIDs = make(map[string]string, len(r.SourceIDs))
		for k, v := range r.SourceIDs {
			out.SourceIDs[k] = v
		}
	}
	if r.Cover != nil {
		cover := *r.Cover
		out.Cover = &cover
	}
	if r.Rating != nil {
		rating := *r.Rating
		out.Rating = &rating
	}
	out.Sources = slices.Clone(r.Sources)
	out.Platforms = slices.Clone(r.Platforms)
	return out
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
