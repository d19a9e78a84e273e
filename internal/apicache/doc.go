// Package apicache persists upstream catalog responses in SQLite so repeated
// lookups within the configured lifetime skip the network.
//
// Entries are keyed by a digest of the request (see Key) and carry the source
// that produced them plus an absolute expiry. Expired rows are invisible to
// Get and removed by Prune. The database is disposable: schema changes bump
// schemaVersion and users clear the cache to adopt them.
package apicache
