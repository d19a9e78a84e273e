// Package requestscope memoizes work for the lifetime of one logical request.
//
// With attaches a fresh scope to a context. Do runs a keyed function at most
// once per scope: concurrent callers share one execution through singleflight
// and later callers reuse the stored result. Nothing outlives the scope, so
// separate requests never observe each other's results.
package requestscope

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"gamelens/internal/services"
)

type scopeKey struct{}

type scope struct {
	group  singleflight.Group
	mu     sync.Mutex
	values map[string]any
}

// With returns a context carrying a new scope. A context that already carries
// one is returned unchanged. A request id is assigned when missing so log
// lines from the same request correlate.
func With(ctx context.Context) context.Context {
	if _, ok := ctx.Value(scopeKey{}).(*scope); ok {
		return ctx
	}
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	return context.WithValue(ctx, scopeKey{}, &scope{values: make(map[string]any)})
}

// Active reports whether ctx carries a scope.
func Active(ctx context.Context) bool {
	_, ok := ctx.Value(scopeKey{}).(*scope)
	return ok
}

// Do returns the memoized result for key, running fn when the scope has no
// result yet. Errors are not memoized. Without a scope fn always runs.
// Callers receive the shared value and must not mutate it.
func Do[T any](ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	s, ok := ctx.Value(scopeKey{}).(*scope)
	if !ok {
		return fn(ctx)
	}

	s.mu.Lock()
	if cached, ok := s.values[key]; ok {
		s.mu.Unlock()
		return cached.(T), nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do(key, func() (any, error) {
		s.mu.Lock()
		if cached, ok := s.values[key]; ok {
			s.mu.Unlock()
			return cached, nil
		}
		s.mu.Unlock()

		result, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.values[key] = result
		s.mu.Unlock()
		return result, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
