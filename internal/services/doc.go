// Package services defines shared utilities consumed by the catalog sources,
// the search orchestrator, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers, source names, and
//     queries for logging.
//   - Structured error markers plus the Wrap helper that tag source failures
//     so they can be reported with a consistent outcome label.
//
// Use these helpers when wiring new sources so operational behaviour (error
// handling, observability) stays uniform across adapters.
package services
