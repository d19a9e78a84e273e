// Package search fans a query out to every catalog adapter, scores and
// filters the hits, merges duplicates, and returns a bounded ranked list.
//
// Adapters run concurrently and the orchestrator waits for all of them. A
// failing or panicking adapter contributes nothing and is logged; the search
// itself never fails. Results are memoized per request scope (see
// requestscope) so several consumers of one request share a single fan-out.
package search
