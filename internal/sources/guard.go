package sources

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"gamelens/internal/game"
	"gamelens/internal/logging"
	"gamelens/internal/services"
)

// Recorder receives per-call source statistics. metrics.Recorder implements it.
type Recorder interface {
	ObserveSourceCall(source, operation, outcome string, elapsed time.Duration)
	SetBreakerState(source, state string)
}

// GuardOptions tunes the protection wrapped around an adapter. Zero values
// disable the corresponding protection.
type GuardOptions struct {
	Timeout          time.Duration
	RatePerSecond    float64
	Burst            int
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Guard wraps an adapter with a per-call timeout, a token-bucket rate limit,
// and a circuit breaker that opens after consecutive failures. Every call is
// reported to the Recorder with its outcome.
type Guard struct {
	inner    Adapter
	timeout  time.Duration
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[any]
	logger   *slog.Logger
	recorder Recorder
}

var _ Adapter = (*Guard)(nil)

// NewGuard wraps inner. logger and recorder may be nil.
func NewGuard(inner Adapter, opts GuardOptions, logger *slog.Logger, recorder Recorder) *Guard {
	g := &Guard{
		inner:    inner,
		timeout:  opts.Timeout,
		logger:   logging.NewComponentLogger(logger, "sources"),
		recorder: recorder,
	}
	if opts.RatePerSecond > 0 {
		burst := max(opts.Burst, 1)
		g.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	if opts.FailureThreshold > 0 {
		g.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        inner.Name(),
			MaxRequests: 1,
			Timeout:     opts.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= opts.FailureThreshold
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, services.ErrNotFound) || errors.Is(err, context.Canceled)
			},
			OnStateChange: g.onStateChange,
		})
	}
	if recorder != nil {
		recorder.SetBreakerState(inner.Name(), g.State())
	}
	return g
}

// Name returns the wrapped adapter's name.
func (g *Guard) Name() string { return g.inner.Name() }

// Unwrap returns the wrapped adapter.
func (g *Guard) Unwrap() Adapter { return g.inner }

// State reports the circuit breaker state: closed, half-open, or open.
func (g *Guard) State() string {
	if g.breaker == nil {
		return gobreaker.StateClosed.String()
	}
	return g.breaker.State().String()
}

// Search implements Searcher.
func (g *Guard) Search(ctx context.Context, query string) ([]game.SourceRecord, error) {
	return guarded(ctx, g, "search", func(ctx context.Context) ([]game.SourceRecord, error) {
		return g.inner.Search(ctx, query)
	})
}

// Details implements DetailsProvider.
func (g *Guard) Details(ctx context.Context, sourceIDs map[string]string, name, releaseDate string) (*game.SourceInfo, error) {
	return guarded(ctx, g, "details", func(ctx context.Context) (*game.SourceInfo, error) {
		return g.inner.Details(ctx, sourceIDs, name, releaseDate)
	})
}

// Popular implements ListProvider.
func (g *Guard) Popular(ctx context.Context, limit int) ([]game.SourceRecord, error) {
	return guarded(ctx, g, "popular", func(ctx context.Context) ([]game.SourceRecord, error) {
		return g.inner.Popular(ctx, limit)
	})
}

// Recent implements ListProvider.
func (g *Guard) Recent(ctx context.Context, limit int) ([]game.SourceRecord, error) {
	return guarded(ctx, g, "recent", func(ctx context.Context) ([]game.SourceRecord, error) {
		return g.inner.Recent(ctx, limit)
	})
}

func guarded[T any](ctx context.Context, g *Guard, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	start := time.Now()
	name := g.inner.Name()
	ctx = services.WithSource(ctx, name)

	result, err := g.execute(ctx, operation, func(callCtx context.Context) (any, error) {
		return fn(callCtx)
	})
	if g.recorder != nil {
		g.recorder.ObserveSourceCall(name, operation, services.Outcome(err), time.Since(start))
	}
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, nil
	}
	return typed, nil
}

func (g *Guard) execute(ctx context.Context, operation string, fn func(context.Context) (any, error)) (any, error) {
	name := g.inner.Name()
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, g.logger), "source rate limit wait aborted", "source_rate_limited",
				logging.String("operation", operation),
				logging.Error(err),
			)
			return nil, services.Wrap(services.ErrRateLimited, name, operation, "rate limit wait aborted", err)
		}
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	run := func() (any, error) { return fn(callCtx) }
	var (
		result any
		err    error
	)
	if g.breaker != nil {
		result, err = g.breaker.Execute(run)
	} else {
		result, err = run()
	}

	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, services.Wrap(services.ErrSourceUnavailable, name, operation, "circuit open", err)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return nil, services.Wrap(services.ErrTimeout, name, operation, "exceeded "+g.timeout.String(), err)
	default:
		return nil, err
	}
}

func (g *Guard) onStateChange(name string, from, to gobreaker.State) {
	if g.recorder != nil {
		g.recorder.SetBreakerState(name, to.String())
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldSource, name),
		logging.String("from", from.String()),
		logging.String("to", to.String()),
	}
	if to == gobreaker.StateOpen {
		logging.WarnWithContext(g.logger, "source circuit opened", "source_circuit_open",
			append(attrs,
				logging.String(logging.FieldImpact, "source skipped until the breaker half-opens"),
				logging.String(logging.FieldErrorHint, "run 'gamelens doctor' to check the source"),
			)...)
		return
	}
	g.logger.Info("source circuit state changed", logging.Args(attrs...)...)
}
