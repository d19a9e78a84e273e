// Package game defines the records exchanged between source adapters, the
// match-and-merge engine, and the catalog service.
//
// A SourceRecord is one source's view of a title. Merged records reuse the
// same type with several entries in Sources and SourceIDs. UnifiedGame is the
// per-title detail view assembled from every source's GameSourceInfo.
package game
