// Package sources defines the contract every external game catalog adapter
// implements, plus the pieces shared by all of them: a Guard that adds a
// circuit breaker, rate limiting, timeouts, and call metrics around an
// adapter; a priority-ordered Registry; and helpers for rating scales, date
// conversion, and name/date matching.
//
// Concrete adapters live in the igdb, rawg, and opencritic subpackages.
package sources
