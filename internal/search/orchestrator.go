package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gamelens/internal/aggregate"
	"gamelens/internal/game"
	"gamelens/internal/logging"
	"gamelens/internal/requestscope"
	"gamelens/internal/services"
	"gamelens/internal/textutil"
)

// Defaults for Options.
const (
	DefaultMinRelevance = 50
	DefaultMaxResults   = 20
)

// Adapter is one catalog source as seen by the orchestrator.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query string) ([]game.SourceRecord, error)
}

// Observer receives per-search statistics. metrics.Recorder implements it.
type Observer interface {
	ObserveSearch(candidates, relevant, groups, returned int, elapsed time.Duration)
}

// Options bounds and filters search output.
type Options struct {
	// MinRelevance discards hits scoring below it. Zero keeps every hit.
	MinRelevance int
	MaxResults   int
}

// DefaultOptions returns the standard relevance threshold and result bound.
func DefaultOptions() Options {
	return Options{MinRelevance: DefaultMinRelevance, MaxResults: DefaultMaxResults}
}

// Result is a merged record with its relevance score, the best score among
// the hits that formed it.
type Result struct {
	game.SourceRecord
	Score int `json:"score"`
}

// SourceStatus reports how one adapter fared for a query.
type SourceStatus struct {
	Source  string        `json:"source"`
	Records int           `json:"records"`
	Err     error         `json:"-"`
	Elapsed time.Duration `json:"elapsed"`
}

// Response is the full outcome of a search.
type Response struct {
	Query   string         `json:"query"`
	Results []Result       `json:"results"`
	Sources []SourceStatus `json:"sources"`
}

// Orchestrator runs searches across a fixed adapter set.
type Orchestrator struct {
	id       string
	adapters []Adapter
	engine   *aggregate.Engine
	opts     Options
	logger   *slog.Logger
	observer Observer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger for adapter failures and search summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logging.NewComponentLogger(logger, "search")
		}
	}
}

// WithObserver attaches a statistics sink.
func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) { o.observer = observer }
}

// New builds an orchestrator. A nil engine uses the default cover priority.
// Non-positive MaxResults and negative MinRelevance fall back to defaults.
func New(adapters []Adapter, engine *aggregate.Engine, opts Options, options ...Option) *Orchestrator {
	if engine == nil {
		engine = aggregate.New(aggregate.DefaultCoverPriority())
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.MinRelevance < 0 {
		opts.MinRelevance = DefaultMinRelevance
	}
	o := &Orchestrator{
		id:       uuid.NewString(),
		adapters: slices.Clone(adapters),
		engine:   engine,
		opts:     opts,
		logger:   logging.NewNop(),
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// Search returns the ranked, deduplicated results for query.
func (o *Orchestrator) Search(ctx context.Context, query string) []Result {
	return o.Run(ctx, query).Results
}

// Run is Search with per-source status. Within a request scope repeated calls
// on the same orchestrator for the same query reuse the first response; each
// caller gets its own copy.
func (o *Orchestrator) Run(ctx context.Context, query string) Response {
	query = strings.TrimSpace(query)
	resp, _ := requestscope.Do(ctx, "search\x00"+o.id+"\x00"+query, func(ctx context.Context) (Response, error) {
		return o.run(ctx, query), nil
	})
	return resp.clone()
}

func (o *Orchestrator) run(ctx context.Context, query string) Response {
	start := time.Now()
	ctx = services.WithQuery(ctx, query)
	logger := logging.WithContext(ctx, o.logger)

	perSource, statuses := o.fanOut(ctx, query)

	candidates := make([]game.SourceRecord, 0)
	for _, records := range perSource {
		candidates = append(candidates, records...)
	}

	scored := make([]Result, 0, len(candidates))
	for _, record := range candidates {
		score := textutil.Score(query, record.Name)
		if score < o.opts.MinRelevance {
			continue
		}
		scored = append(scored, Result{SourceRecord: record, Score: score})
	}
	slices.SortStableFunc(scored, func(a, b Result) int { return b.Score - a.Score })

	records := make([]game.SourceRecord, len(scored))
	for i, r := range scored {
		records[i] = r.SourceRecord
	}
	groups := o.engine.Group(records)

	results := make([]Result, len(groups))
	for i, g := range groups {
		best := 0
		for _, member := range g.Members {
			best = max(best, scored[member].Score)
		}
		results[i] = Result{SourceRecord: g.Record, Score: best}
	}
	slices.SortStableFunc(results, func(a, b Result) int {
		if ta, tb := Tier(a.SourceRecord), Tier(b.SourceRecord); ta != tb {
			return ta - tb
		}
		return b.Score - a.Score
	})
	if len(results) > o.opts.MaxResults {
		results = results[:o.opts.MaxResults]
	}

	elapsed := time.Since(start)
	if o.observer != nil {
		o.observer.ObserveSearch(len(candidates), len(scored), len(groups), len(results), elapsed)
	}
	logger.Debug("search complete",
		logging.Int("candidates", len(candidates)),
		logging.Int("relevant", len(scored)),
		logging.Int("groups", len(groups)),
		logging.Int("returned", len(results)),
		logging.Duration("elapsed", elapsed),
	)
	return Response{Query: query, Results: results, Sources: statuses}
}

// fanOut queries every adapter concurrently. Slot i of each returned slice
// belongs to adapter i, so no locking is needed.
func (o *Orchestrator) fanOut(ctx context.Context, query string) ([][]game.SourceRecord, []SourceStatus) {
	perSource := make([][]game.SourceRecord, len(o.adapters))
	statuses := make([]SourceStatus, len(o.adapters))

	var wg sync.WaitGroup
	for i, adapter := range o.adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			records, err := callAdapter(ctx, adapter, query)
			statuses[i] = SourceStatus{Source: adapter.Name(), Records: len(records), Err: err, Elapsed: time.Since(start)}
			if err != nil {
				logging.WarnWithContext(logging.WithContext(services.WithSource(ctx, adapter.Name()), o.logger),
					"source search failed", "source_search_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "source omitted from results"),
					logging.String(logging.FieldErrorHint, "check source credentials and connectivity with 'gamelens doctor'"),
				)
				return
			}
			perSource[i] = records
		}()
	}
	wg.Wait()
	return perSource, statuses
}

func callAdapter(ctx context.Context, adapter Adapter, query string) (records []game.SourceRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("%s search panicked: %v", adapter.Name(), r)
		}
	}()
	return adapter.Search(ctx, query)
}

// Tier buckets a record for ranking: widely released base games first, other
// base games next, everything else last.
func Tier(record game.SourceRecord) int {
	switch {
	case record.Kind == game.KindBaseGame && len(record.Platforms) > 2:
		return 0
	case record.Kind == game.KindBaseGame:
		return 1
	default:
		return 2
	}
}

func (r Response) clone() Response {
	out := r
	out.Results = make([]Result, len(r.Results))
	for i, res := range r.Results {
		out.Results[i] = Result{SourceRecord: res.SourceRecord.Clone(), Score: res.Score}
	}
	out.Sources = slices.Clone(r.Sources)
	return out
}
