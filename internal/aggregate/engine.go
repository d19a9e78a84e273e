package aggregate

import (
	"log/slog"
	"strings"

	"gamelens/internal/compat"
	"gamelens/internal/game"
	"gamelens/internal/logging"
	"gamelens/internal/textutil"
)

// Engine groups and merges source records. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	checker compat.Checker
	covers  CoverPriority
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithChecker overrides the date and platform compatibility rules.
func WithChecker(checker compat.Checker) Option {
	return func(e *Engine) { e.checker = checker }
}

// WithLogger records merge decisions at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logging.NewComponentLogger(logger, "aggregate")
		}
	}
}

// New builds an engine with the given cover priority.
func New(covers CoverPriority, opts ...Option) *Engine {
	e := &Engine{
		checker: compat.NewChecker(compat.DefaultToleranceDays),
		covers:  covers,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Group is one merged record plus the input indexes that formed it, in the
// order they joined.
type Group struct {
	Record  game.SourceRecord
	Members []int
}

type groupState struct {
	Group
	normalized string
}

// Group clusters records in a single pass. Each record is compared against the
// groups formed so far, in creation order, and joins the first that matches.
func (e *Engine) Group(records []game.SourceRecord) []Group {
	states := make([]*groupState, 0, len(records))
	for i, record := range records {
		incoming := textutil.Normalize(record.Name)
		merged := false
		for _, state := range states {
			if !e.matches(state.Record, state.normalized, record, incoming) {
				continue
			}
			e.logger.Debug("records merged",
				logging.Args(append(logging.DecisionAttrs("merge", "joined", "name and release compatible"),
					logging.String("group", state.Record.Name),
					logging.String("incoming", record.Name),
					logging.Strings("sources", record.Sources),
				)...)...,
			)
			state.Record = e.Merge(state.Record, record)
			state.normalized = textutil.Normalize(state.Record.Name)
			state.Members = append(state.Members, i)
			merged = true
			break
		}
		if !merged {
			states = append(states, &groupState{
				Group:      Group{Record: record.Clone(), Members: []int{i}},
				normalized: incoming,
			})
		}
	}

	out := make([]Group, len(states))
	for i, state := range states {
		out[i] = state.Group
	}
	return out
}

// Aggregate returns one merged record per group in group creation order.
func (e *Engine) Aggregate(records []game.SourceRecord) []game.SourceRecord {
	groups := e.Group(records)
	out := make([]game.SourceRecord, len(groups))
	for i, g := range groups {
		out[i] = g.Record
	}
	return out
}

// Matches reports whether incoming may join a group currently represented by
// existing.
func (e *Engine) Matches(existing, incoming game.SourceRecord) bool {
	return e.matches(existing, textutil.Normalize(existing.Name), incoming, textutil.Normalize(incoming.Name))
}

func (e *Engine) matches(existing game.SourceRecord, existingName string, incoming game.SourceRecord, incomingName string) bool {
	for _, source := range incoming.Sources {
		if existing.HasSource(source) {
			return false
		}
	}
	if !e.checker.PlatformsCompatible(existing, incoming) {
		return false
	}

	if existingName == "" || incomingName == "" {
		// Titleless records only pair with each other, and only on two known dates.
		return existingName == incomingName &&
			knownDate(existing.ReleaseDate) && knownDate(incoming.ReleaseDate) &&
			e.checker.DatesCompatible(existing.ReleaseDate, incoming.ReleaseDate)
	}

	if existingName == incomingName {
		// A missing date on either side counts as compatible here.
		return e.checker.DatesCompatible(existing.ReleaseDate, incoming.ReleaseDate)
	}

	if strings.Contains(existingName, incomingName) || strings.Contains(incomingName, existingName) {
		return e.checker.ExactDatesCompatible(existing.ReleaseDate, incoming.ReleaseDate)
	}
	return false
}

func knownDate(value string) bool {
	_, ok := compat.ParseDate(value)
	return ok
}

// Merge combines existing group record a with new member b.
func (e *Engine) Merge(a, b game.SourceRecord) game.SourceRecord {
	out := a.Clone()

	if out.SourceIDs == nil {
		out.SourceIDs = make(map[string]string, len(b.SourceIDs))
	}
	for source, id := range b.SourceIDs {
		if _, ok := out.SourceIDs[source]; !ok {
			out.SourceIDs[source] = id
		}
	}

	if len(b.Name) > len(a.Name) {
		out.Name = b.Name
	}

	out.Cover = e.mergeCover(a.Cover, b.Cover)

	if strings.TrimSpace(out.ReleaseDate) == "" {
		out.ReleaseDate = b.ReleaseDate
	}
	if out.Rating == nil && b.Rating != nil {
		rating := *b.Rating
		out.Rating = &rating
	}

	out.Sources = union(a.Sources, b.Sources)
	out.Platforms = union(a.Platforms, b.Platforms)
	out.Kind = mergeKind(a.Kind, b.Kind)
	return out
}

func (e *Engine) mergeCover(a, b *game.Cover) *game.Cover {
	if a == nil || strings.TrimSpace(a.URL) == "" {
		if b == nil {
			return a
		}
		cover := *b
		return &cover
	}
	if b != nil && strings.TrimSpace(b.URL) != "" && e.covers.Rank(b.Source) < e.covers.Rank(a.Source) {
		cover := *b
		return &cover
	}
	cover := *a
	return &cover
}

func mergeKind(a, b game.ReleaseKind) game.ReleaseKind {
	ka, kb := a.OrUnknown(), b.OrUnknown()
	switch {
	case ka == game.KindUnknown:
		return kb
	case kb == game.KindUnknown:
		return ka
	case ka == game.KindBaseGame && kb.Specific():
		return kb
	default:
		return ka
	}
}

func union(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, value := range list {
			if _, ok := seen[value]; ok {
				continue
			}
			seen[value] = struct{}{}
			out = append(out, value)
		}
	}
	return out
}
