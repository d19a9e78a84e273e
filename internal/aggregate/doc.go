// Package aggregate groups per-source search hits that describe the same
// title and merges each group into one record.
//
// Grouping is a single pass in input order: each record joins the first
// existing group it matches, otherwise it starts a new group. Merge order
// therefore affects grouping in ambiguous chains of near-duplicates; that
// asymmetry is intentional. Field resolution is deterministic and driven by
// an injectable CoverPriority for cover art.
package aggregate
